// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetOrCreate_CreatesOnce(t *testing.T) {
	s := New()
	a := s.GetOrCreate("sess-1")
	b := s.GetOrCreate("sess-1")
	assert.Same(t, a, b)
}

func TestStore_AppendTurn_MonotonicTimestamps(t *testing.T) {
	s := New()
	s.AppendTurn("sess-1", Turn{Role: RoleUser, Content: "hi"})
	s.AppendTurn("sess-1", Turn{Role: RoleAgent, Content: "hello"})

	turns := s.RecentTurns("sess-1", 10)
	require.Len(t, turns, 2)
	assert.True(t, turns[1].Timestamp.After(turns[0].Timestamp) || turns[1].Timestamp.Equal(turns[0].Timestamp))
}

func TestStore_RecentTurns_BoundedAndOrdered(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.AppendTurn("sess-1", Turn{Role: RoleUser, Content: "q"})
	}
	recent := s.RecentTurns("sess-1", 3)
	assert.Len(t, recent, 3)
}

func TestStore_RecentTurns_UnknownSessionIsEmpty(t *testing.T) {
	s := New()
	assert.Empty(t, s.RecentTurns("nope", 5))
}

func TestStore_UpdateProfileAfter_AccumulatesQueryCount(t *testing.T) {
	s := New()
	s.UpdateProfileAfter("sess-1", 10, true, false, "generalist_only")
	s.UpdateProfileAfter("sess-1", 100, false, false, "immediate_market")

	profile := s.GetProfile("sess-1")
	assert.Equal(t, 2, profile.QueryCount)
	assert.False(t, profile.LastResponseBrief)
	assert.False(t, profile.LastResponseMentionedNews)
	assert.Equal(t, []string{"generalist_only", "immediate_market"}, profile.LastClassifications)
}

func TestStore_UpdateProfileAfter_TracksBriefResponse(t *testing.T) {
	s := New()
	s.UpdateProfileAfter("sess-1", 5, true, false, "generalist_only")
	profile := s.GetProfile("sess-1")
	assert.True(t, profile.LastResponseBrief)
	assert.True(t, profile.LastResponseMentionedNews)
}

func TestStore_LastClassifications_BoundedWindow(t *testing.T) {
	s := New()
	for i := 0; i < lastNClassifications+3; i++ {
		s.UpdateProfileAfter("sess-1", 10, false, false, "generalist_only")
	}
	profile := s.GetProfile("sess-1")
	assert.Len(t, profile.LastClassifications, lastNClassifications)
}

func TestStore_ConcurrentAppendsToOneSession(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := "sess"
			s.AppendTurn(sid, Turn{Role: RoleUser, Content: "q"})
		}(i)
	}
	wg.Wait()
	assert.Len(t, s.RecentTurns("sess", 1000), 50)
}
