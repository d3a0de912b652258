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
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/coder/hnsw"
)

// annThreshold is the corpus size above which SemanticIndex switches from an
// exact cosine scan to the approximate coder/hnsw graph. Below it, an exact
// scan is both fast enough and keeps test corpora fully deterministic
// (HNSW's approximate recall can omit a true nearest neighbor).
const annThreshold = 2000

// SemanticIndex is a dense-embedding ranker over the news corpus. Corpora at
// or below annThreshold are searched by exact cosine similarity; larger
// corpora use an approximate nearest-neighbor graph (coder/hnsw) for
// sub-linear query time.
//
// Thread Safety: Safe for concurrent Search calls once built. Build is not
// safe to call concurrently with itself.
type SemanticIndex struct {
	mu       sync.RWMutex
	embedder Embedder

	// exact-scan backing store, used when len(vectors) <= annThreshold
	byID    map[string]*Document
	ids     []string
	vectors [][]float32

	// ANN backing store, used above annThreshold
	graph   *hnsw.Graph[uint64]
	keyOf   map[string]uint64
	idOfKey map[uint64]string
	nextKey uint64

	// vecByID mirrors the active backend's vectors, keyed by document id.
	// Maintained regardless of backend so BuildCached can retrieve vectors
	// for persistence without depending on hnsw's internal node storage.
	vecByID map[string][]float32

	useANN bool
}

// NewSemanticIndex constructs an empty SemanticIndex using embedder to embed
// both corpus documents and queries. embedder must be non-nil.
func NewSemanticIndex(embedder Embedder) *SemanticIndex {
	return &SemanticIndex{
		embedder: embedder,
		byID:     make(map[string]*Document),
		keyOf:    make(map[string]uint64),
		idOfKey:  make(map[uint64]string),
		vecByID:  make(map[string][]float32),
	}
}

// Build embeds and indexes docs, replacing any prior content. It chooses the
// exact or ANN backend based on corpus size.
//
// Outputs:
//   - error: Non-nil if embedding any document fails.
func (s *SemanticIndex) Build(ctx context.Context, docs []Document) error {
	return s.buildWithVectors(ctx, docs, nil)
}

// embedderIdentity names the embedder for corpus-hash purposes, so switching
// embedder implementations (or, for HashEmbedder, dimension) invalidates any
// previously cached vectors.
func (s *SemanticIndex) embedderIdentity() string {
	switch e := s.embedder.(type) {
	case *HashEmbedder:
		return fmt.Sprintf("hash:%d", e.Dim())
	case *OllamaEmbedder:
		return fmt.Sprintf("ollama:%s", e.model)
	default:
		return fmt.Sprintf("unknown:%d", s.embedder.Dim())
	}
}

// BuildCached behaves like Build but consults cache first, keyed by a hash
// of docs and the embedder identity. On a cache miss it embeds normally and
// saves the result for the next restart. A nil cache behaves exactly like
// Build.
//
// Outputs:
//   - error: Non-nil if embedding any (uncached) document fails, or if
//     loading from the cache errors (cache misses are not errors). A failed
//     save is logged, not returned.
func (s *SemanticIndex) BuildCached(ctx context.Context, docs []Document, cache *EmbeddingCache) error {
	if cache == nil {
		return s.Build(ctx, docs)
	}

	corpusHash := ComputeCorpusHash(docs, s.embedderIdentity())
	cached, err := cache.Load(ctx, corpusHash)
	if err != nil {
		return fmt.Errorf("load embedding cache: %w", err)
	}
	if cached != nil {
		return s.buildWithVectors(ctx, docs, cached)
	}

	if err := s.buildWithVectors(ctx, docs, nil); err != nil {
		return err
	}

	s.mu.RLock()
	fresh := make(map[string][]float32, len(s.vecByID))
	for id, vec := range s.vecByID {
		fresh[id] = vec
	}
	s.mu.RUnlock()

	if err := cache.Save(ctx, corpusHash, fresh); err != nil {
		cache.logger.Warn("failed to persist embedding cache", "error", err)
	}
	return nil
}

// buildWithVectors indexes docs, reusing precomputed (id -> vector) from
// cached when present and embedding only what's missing.
func (s *SemanticIndex) buildWithVectors(ctx context.Context, docs []Document, cached map[string][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID = make(map[string]*Document, len(docs))
	s.ids = nil
	s.vectors = nil
	s.keyOf = make(map[string]uint64)
	s.idOfKey = make(map[uint64]string)
	s.vecByID = make(map[string][]float32, len(docs))
	s.nextKey = 0
	s.useANN = len(docs) > annThreshold

	if s.useANN {
		s.graph = hnsw.NewGraph[uint64]()
		s.graph.Distance = hnsw.CosineDistance
		s.graph.M = 16
		s.graph.EfSearch = 20
		s.graph.Ml = 0.25
	}

	for i := range docs {
		d := docs[i]
		s.byID[d.ID] = &docs[i]

		vec, ok := cached[d.ID]
		if !ok {
			text := d.Title + "\n" + d.Body
			var err error
			vec, err = s.embedder.Embed(ctx, text)
			if err != nil {
				return fmt.Errorf("embed document %q: %w", d.ID, err)
			}
		}
		s.vecByID[d.ID] = vec

		if s.useANN {
			key := s.nextKey
			s.nextKey++
			s.keyOf[d.ID] = key
			s.idOfKey[key] = d.ID
			s.graph.Add(hnsw.MakeNode(key, vec))
		} else {
			s.ids = append(s.ids, d.ID)
			s.vectors = append(s.vectors, vec)
		}
	}

	return nil
}

// Search returns the top-k documents ranked by cosine similarity to query,
// optionally filtered to documents intersecting tickers. An empty query or
// empty index returns an empty (never nil-error) result.
//
// Outputs:
//   - []RetrievalHit: Never nil.
//   - error: Non-nil only if embedding the query fails.
func (s *SemanticIndex) Search(ctx context.Context, query string, k int, tickers []string) ([]RetrievalHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if query == "" || k <= 0 {
		return []RetrievalHit{}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	filter := tickerFilterSet(tickers)

	if s.useANN {
		return s.searchANN(queryVec, k, filter), nil
	}
	return s.searchExact(queryVec, k, filter), nil
}

func (s *SemanticIndex) searchExact(queryVec []float32, k int, filter map[string]struct{}) []RetrievalHit {
	type scored struct {
		id    string
		score float64
	}
	candidates := make([]scored, 0, len(s.ids))

	for i, id := range s.ids {
		if filter != nil {
			d := s.byID[id]
			if d == nil || !d.matchesTickers(filter) {
				continue
			}
		}
		sim := cosineSimilarity(queryVec, s.vectors[i])
		candidates = append(candidates, scored{id: id, score: sim})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	hits := make([]RetrievalHit, len(candidates))
	for i, c := range candidates {
		hits[i] = RetrievalHit{DocumentID: c.id, Score: c.score, Rank: i + 1}
	}
	return hits
}

// searchANN over-fetches from the graph to compensate for ticker filtering,
// then re-ranks and truncates to k.
func (s *SemanticIndex) searchANN(queryVec []float32, k int, filter map[string]struct{}) []RetrievalHit {
	if s.graph.Len() == 0 {
		return []RetrievalHit{}
	}

	fetch := k * 4
	if filter != nil && fetch < 200 {
		fetch = 200
	}
	nodes := s.graph.Search(queryVec, fetch)

	type scored struct {
		id    string
		score float64
	}
	candidates := make([]scored, 0, len(nodes))
	for _, n := range nodes {
		id, ok := s.idOfKey[n.Key]
		if !ok {
			continue
		}
		if filter != nil {
			d := s.byID[id]
			if d == nil || !d.matchesTickers(filter) {
				continue
			}
		}
		dist := s.graph.Distance(queryVec, n.Value)
		candidates = append(candidates, scored{id: id, score: 1.0 - float64(dist)/2.0})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	hits := make([]RetrievalHit, len(candidates))
	for i, c := range candidates {
		hits[i] = RetrievalHit{DocumentID: c.id, Score: c.score, Rank: i + 1}
	}
	return hits
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, magA, magB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
