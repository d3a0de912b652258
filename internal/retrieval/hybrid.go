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
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"
)

const (
	// rrfK is the reciprocal-rank-fusion damping constant. Larger values flatten
	// the contribution curve across ranks; 60 is the standard value from the
	// original RRF paper and is widely reused unchanged.
	rrfK = 60.0

	// semanticWeight and lexicalWeight scale each method's RRF contribution
	// before summing. Semantic recall is weighted higher because it tends to
	// surface topically relevant articles that share no vocabulary with the
	// query.
	semanticWeight = 2.0
	lexicalWeight  = 1.0
)

// HybridRetriever fuses LexicalIndex and SemanticIndex results via weighted
// reciprocal rank fusion. Either sub-index may be temporarily unavailable
// (e.g. still building); HybridRetriever degrades gracefully to whichever
// index succeeded.
type HybridRetriever struct {
	lexical  *LexicalIndex
	semantic *SemanticIndex
	logger   *slog.Logger
}

// NewHybridRetriever constructs a HybridRetriever over the given sub-indexes.
// Either may be nil, in which case that method is skipped entirely.
func NewHybridRetriever(lexical *LexicalIndex, semantic *SemanticIndex, logger *slog.Logger) *HybridRetriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &HybridRetriever{lexical: lexical, semantic: semantic, logger: logger.With("component", "hybrid_retriever")}
}

// Search queries both sub-indexes in parallel and fuses their rankings.
// Results are capped at k and unique by document id. If one method errors or
// is absent, the other's results are used alone; if both fail, an empty
// slice (not an error) is returned so callers can treat "no evidence" as a
// normal outcome.
func (h *HybridRetriever) Search(ctx context.Context, query string, k int, tickers []string) []RetrievalHit {
	if query == "" || k <= 0 {
		return []RetrievalHit{}
	}

	var lexHits, semHits []RetrievalHit

	g, gctx := errgroup.WithContext(ctx)

	if h.lexical != nil {
		g.Go(func() error {
			lexHits = h.lexical.Search(query, fusionFetchSize(k), tickers)
			return nil
		})
	}
	if h.semantic != nil {
		g.Go(func() error {
			hits, err := h.semantic.Search(gctx, query, fusionFetchSize(k), tickers)
			if err != nil {
				h.logger.Warn("semantic search failed, degrading to lexical only", "error", err)
				return nil
			}
			semHits = hits
			return nil
		})
	}

	// Sub-index searches never return an error worth surfacing to the
	// caller — a failure degrades to the other method instead.
	_ = g.Wait()

	return fuse(lexHits, semHits, k)
}

// fusionFetchSize is how many candidates each sub-index is asked for before
// fusion. Over-fetching relative to k keeps fused rankings stable when the
// two methods disagree heavily on ordering.
func fusionFetchSize(k int) int {
	fetch := k * 4
	if fetch < 50 {
		fetch = 50
	}
	return fetch
}

// fuse combines lexical and semantic rankings via weighted reciprocal rank
// fusion: score(doc) = sum over methods m containing doc of
// weight(m) / (rrfK + rank_m(doc)).
func fuse(lexHits, semHits []RetrievalHit, k int) []RetrievalHit {
	scores := make(map[string]float64)
	order := make([]string, 0, len(lexHits)+len(semHits))

	add := func(hits []RetrievalHit, weight float64) {
		for _, h := range hits {
			if _, seen := scores[h.DocumentID]; !seen {
				order = append(order, h.DocumentID)
			}
			scores[h.DocumentID] += weight / (rrfK + float64(h.Rank))
		}
	}
	add(lexHits, lexicalWeight)
	add(semHits, semanticWeight)

	sort.Slice(order, func(i, j int) bool {
		if scores[order[i]] != scores[order[j]] {
			return scores[order[i]] > scores[order[j]]
		}
		return order[i] < order[j]
	})

	if len(order) > k {
		order = order[:k]
	}

	fused := make([]RetrievalHit, len(order))
	for i, id := range order {
		fused[i] = RetrievalHit{DocumentID: id, Score: scores[id], Rank: i + 1}
	}
	return fused
}
