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

func TestSemanticIndex_ExactScanRanksRelatedDocsHigher(t *testing.T) {
	ctx := context.Background()
	idx := NewSemanticIndex(NewHashEmbedder(64))
	docs := sampleDocs()
	require.NoError(t, idx.Build(ctx, docs))

	hits, err := idx.Search(ctx, "AAPL earnings beat estimates", 3, nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "d1", hits[0].DocumentID)
}

func TestSemanticIndex_EmptyQuery(t *testing.T) {
	ctx := context.Background()
	idx := NewSemanticIndex(NewHashEmbedder(64))
	require.NoError(t, idx.Build(ctx, sampleDocs()))

	hits, err := idx.Search(ctx, "", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSemanticIndex_EmptyCorpus(t *testing.T) {
	ctx := context.Background()
	idx := NewSemanticIndex(NewHashEmbedder(64))
	require.NoError(t, idx.Build(ctx, nil))

	hits, err := idx.Search(ctx, "AAPL", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSemanticIndex_TickerFilter(t *testing.T) {
	ctx := context.Background()
	idx := NewSemanticIndex(NewHashEmbedder(64))
	require.NoError(t, idx.Build(ctx, sampleDocs()))

	hits, err := idx.Search(ctx, "earnings", 5, []string{"MSFT"})
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, "d1", h.DocumentID)
	}
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(32)
	v1, err := e.Embed(context.Background(), "Apple reports strong quarterly earnings")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "Apple reports strong quarterly earnings")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Len(t, v1, 32)
}
