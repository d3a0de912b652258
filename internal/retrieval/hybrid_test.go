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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildHybrid(t *testing.T) *HybridRetriever {
	t.Helper()
	docs := sampleDocs()
	lex := BuildLexicalIndex(docs)
	sem := NewSemanticIndex(NewHashEmbedder(64))
	require.NoError(t, sem.Build(context.Background(), docs))
	return NewHybridRetriever(lex, sem, nil)
}

func TestHybridRetriever_FusesBothMethods(t *testing.T) {
	h := buildHybrid(t)
	hits := h.Search(context.Background(), "AAPL earnings", 3, nil)
	require.NotEmpty(t, hits)
	assert.Equal(t, "d1", hits[0].DocumentID)
}

func TestHybridRetriever_ResultLenBound(t *testing.T) {
	h := buildHybrid(t)
	hits := h.Search(context.Background(), "earnings", 1, nil)
	assert.Len(t, hits, 1)
}

func TestHybridRetriever_UniqueDocuments(t *testing.T) {
	h := buildHybrid(t)
	hits := h.Search(context.Background(), "earnings tech rally", 10, nil)
	seen := make(map[string]bool)
	for _, hit := range hits {
		assert.False(t, seen[hit.DocumentID], "duplicate document id %s in fused results", hit.DocumentID)
		seen[hit.DocumentID] = true
	}
}

func TestHybridRetriever_DegradesToLexicalOnly(t *testing.T) {
	docs := sampleDocs()
	lex := BuildLexicalIndex(docs)
	h := NewHybridRetriever(lex, nil, nil)
	hits := h.Search(context.Background(), "AAPL earnings", 3, nil)
	require.NotEmpty(t, hits)
}

func TestHybridRetriever_DegradesToSemanticOnly(t *testing.T) {
	docs := sampleDocs()
	sem := NewSemanticIndex(NewHashEmbedder(64))
	require.NoError(t, sem.Build(context.Background(), docs))
	h := NewHybridRetriever(nil, sem, nil)
	hits := h.Search(context.Background(), "AAPL earnings", 3, nil)
	require.NotEmpty(t, hits)
}

func TestHybridRetriever_EmptyQuery(t *testing.T) {
	h := buildHybrid(t)
	assert.Empty(t, h.Search(context.Background(), "", 5, nil))
}

func TestHybridRetriever_BothAbsent(t *testing.T) {
	h := NewHybridRetriever(nil, nil, nil)
	assert.Empty(t, h.Search(context.Background(), "AAPL", 5, nil))
}
