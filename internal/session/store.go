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
	"hash/fnv"
	"sync"
	"time"
)

// shardCount bounds the number of independent mutexes the Store fans
// sessions out across, so concurrent queries against different sessions
// don't contend on a single process-wide lock.
const shardCount = 32

type shard struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// Store is a process-wide mapping from session_id to Session. Sessions are
// created on first use and never evicted in-process: they are assumed
// small and short-lived (spec non-goal: no cross-restart persistence).
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	shards [shardCount]*shard
}

// New returns an empty Store.
func New() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*Session)}
	}
	return s
}

func (s *Store) shardFor(sessionID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return s.shards[h.Sum32()%shardCount]
}

// GetOrCreate returns the Session for sessionID, creating it if absent.
func (s *Store) GetOrCreate(sessionID string) *Session {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sess, ok := sh.sessions[sessionID]; ok {
		return sess
	}
	sess := &Session{ID: sessionID}
	sh.sessions[sessionID] = sess
	return sess
}

// AppendTurn appends turn to sessionID's log. Timestamp is set to now if
// the zero value, preserving the strictly-monotonic-timestamp invariant
// for callers that don't stamp turns themselves.
func (s *Store) AppendTurn(sessionID string, turn Turn) {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess := sh.sessions[sessionID]
	if sess == nil {
		sess = &Session{ID: sessionID}
		sh.sessions[sessionID] = sess
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = nowAfter(sess)
	}
	sess.Turns = append(sess.Turns, turn)
}

// nowAfter returns a timestamp guaranteed to be after the session's last
// turn, so appends under heavy clock-resolution contention still satisfy
// strict monotonicity.
func nowAfter(sess *Session) time.Time {
	now := time.Now()
	if len(sess.Turns) == 0 {
		return now
	}
	last := sess.Turns[len(sess.Turns)-1].Timestamp
	if !now.After(last) {
		return last.Add(time.Nanosecond)
	}
	return now
}

// RecentTurns returns a copy of the last n turns of sessionID, oldest
// first. If the session has fewer than n turns, all of them are returned.
func (s *Store) RecentTurns(sessionID string, n int) []Turn {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess := sh.sessions[sessionID]
	if sess == nil || n <= 0 {
		return nil
	}
	start := 0
	if len(sess.Turns) > n {
		start = len(sess.Turns) - n
	}
	out := make([]Turn, len(sess.Turns)-start)
	copy(out, sess.Turns[start:])
	return out
}

// GetProfile returns a copy of sessionID's rolling profile.
func (s *Store) GetProfile(sessionID string) Profile {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess := sh.sessions[sessionID]
	if sess == nil {
		return Profile{}
	}
	profile := sess.Profile
	profile.LastClassifications = append([]string(nil), sess.Profile.LastClassifications...)
	return profile
}

// UpdateProfileAfter folds the outcome of one query/response cycle into
// sessionID's rolling profile: increments query_count, records whether the
// response was brief, whether it invoked search_news, whether the query
// itself read as dissatisfied, and the decision classification label.
func (s *Store) UpdateProfileAfter(sessionID string, responseTokens int, mentionedNews, dissatisfied bool, classificationLabel string) {
	sh := s.shardFor(sessionID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess := sh.sessions[sessionID]
	if sess == nil {
		sess = &Session{ID: sessionID}
		sh.sessions[sessionID] = sess
	}
	sess.Profile.QueryCount++
	sess.Profile.LastResponseBrief = responseTokens < briefResponseTokenThreshold
	sess.Profile.LastResponseMentionedNews = mentionedNews
	sess.Profile.PreviousTurnDissatisfied = dissatisfied
	sess.Profile.pushClassification(classificationLabel)
}
