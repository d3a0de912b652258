// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocs() []Document {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	return []Document{
		{ID: "d1", Title: "AAPL earnings beat estimates", Body: "Apple reported strong quarterly earnings driven by services growth.", Tickers: []string{"AAPL"}, Published: now},
		{ID: "d2", Title: "MSFT earnings beat estimates", Body: "Microsoft reported strong quarterly earnings driven by cloud growth.", Tickers: []string{"MSFT"}, Published: now},
		{ID: "d3", Title: "Tech stocks rally on rate cut hopes", Body: "AAPL and MSFT both rallied alongside the broader tech sector.", Tickers: []string{"AAPL", "MSFT"}, Published: now},
	}
}

func TestLexicalIndex_EmptyQuery(t *testing.T) {
	idx := BuildLexicalIndex(sampleDocs())
	assert.Empty(t, idx.Search("", 5, nil))
}

func TestLexicalIndex_EmptyCorpus(t *testing.T) {
	idx := BuildLexicalIndex(nil)
	assert.Empty(t, idx.Search("AAPL earnings", 5, nil))
}

func TestLexicalIndex_TickerPrefixBoostsExactSymbol(t *testing.T) {
	idx := BuildLexicalIndex(sampleDocs())
	hits := idx.Search("AAPL", 5, nil)
	require.NotEmpty(t, hits)
	assert.Equal(t, "d1", hits[0].DocumentID)
}

func TestLexicalIndex_TickerFilter(t *testing.T) {
	idx := BuildLexicalIndex(sampleDocs())
	hits := idx.Search("earnings", 5, []string{"MSFT"})
	require.NotEmpty(t, hits)
	for _, h := range hits {
		assert.NotEqual(t, "d1", h.DocumentID)
	}
}

func TestLexicalIndex_DeterministicTieBreak(t *testing.T) {
	docs := []Document{
		{ID: "z1", Title: "", Body: "widget widget widget", Tickers: []string{"X"}},
		{ID: "a1", Title: "", Body: "widget widget widget", Tickers: []string{"X"}},
	}
	idx := BuildLexicalIndex(docs)
	hits := idx.Search("widget", 5, nil)
	require.Len(t, hits, 2)
	assert.Equal(t, "a1", hits[0].DocumentID)
	assert.Equal(t, "z1", hits[1].DocumentID)
}

func TestLexicalIndex_ResultLenBound(t *testing.T) {
	idx := BuildLexicalIndex(sampleDocs())
	hits := idx.Search("earnings", 1, nil)
	assert.Len(t, hits, 1)
}
