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

	"github.com/SeanStafford/entropy/internal/storage/badgerstore"
)

func openTestDB(t *testing.T) *badgerstore.DB {
	t.Helper()
	db, err := badgerstore.OpenDB(badgerstore.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEmbeddingCache_MissThenHit(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	cache := NewEmbeddingCache(db, 0, nil)

	hash := ComputeCorpusHash(sampleDocs(), "hash:64")

	miss, err := cache.Load(ctx, hash)
	require.NoError(t, err)
	assert.Nil(t, miss)

	vectors := map[string][]float32{"d1": {0.1, 0.2}, "d2": {0.3, 0.4}}
	require.NoError(t, cache.Save(ctx, hash, vectors))

	hit, err := cache.Load(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, vectors, hit)
}

func TestComputeCorpusHash_ChangesWithContentAndEmbedder(t *testing.T) {
	docs := sampleDocs()
	h1 := ComputeCorpusHash(docs, "hash:64")
	h2 := ComputeCorpusHash(docs, "hash:128")
	assert.NotEqual(t, h1, h2)

	mutated := append([]Document{}, docs...)
	mutated[0].Body = mutated[0].Body + " extra"
	h3 := ComputeCorpusHash(mutated, "hash:64")
	assert.NotEqual(t, h1, h3)
}

func TestSemanticIndex_BuildCached_PopulatesAndReusesCache(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	cache := NewEmbeddingCache(db, 0, nil)
	docs := sampleDocs()

	idx1 := NewSemanticIndex(NewHashEmbedder(64))
	require.NoError(t, idx1.BuildCached(ctx, docs, cache))

	hash := ComputeCorpusHash(docs, idx1.embedderIdentity())
	cached, err := cache.Load(ctx, hash)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Len(t, cached, len(docs))

	idx2 := NewSemanticIndex(NewHashEmbedder(64))
	require.NoError(t, idx2.BuildCached(ctx, docs, cache))

	hits, err := idx2.Search(ctx, "AAPL earnings beat estimates", 1, nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "d1", hits[0].DocumentID)
}

func TestSemanticIndex_BuildCached_NilCacheBehavesLikeBuild(t *testing.T) {
	ctx := context.Background()
	idx := NewSemanticIndex(NewHashEmbedder(64))
	require.NoError(t, idx.BuildCached(ctx, sampleDocs(), nil))

	hits, err := idx.Search(ctx, "AAPL", 1, nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
}
