// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval implements the hybrid (lexical + semantic) retrieval
// engine over the news corpus: a BM25-style ranker, a dense-embedding
// ranker, and a weighted reciprocal-rank-fusion combiner.
package retrieval

import "time"

// Document is an immutable record in the news corpus. The lexical and
// semantic indexes share document ids; a document belongs to at least one
// ticker.
type Document struct {
	ID        string
	Title     string
	Body      string
	Published time.Time
	Tickers   []string
	Publisher string
	Link      string
}

// tickerSet returns the document's tickers as a set for filter intersection
// checks.
func (d Document) tickerSet() map[string]struct{} {
	set := make(map[string]struct{}, len(d.Tickers))
	for _, t := range d.Tickers {
		set[t] = struct{}{}
	}
	return set
}

// matchesTickers reports whether d has at least one ticker in filter. An
// empty filter matches everything.
func (d Document) matchesTickers(filter map[string]struct{}) bool {
	if len(filter) == 0 {
		return true
	}
	for _, t := range d.Tickers {
		if _, ok := filter[t]; ok {
			return true
		}
	}
	return false
}

// RetrievalHit is a scored, ranked reference to a Document. Scores are
// method-local: a LexicalIndex score and a SemanticIndex score are not
// comparable to each other. Fused hits (from HybridRetriever) carry a
// combined score instead.
type RetrievalHit struct {
	DocumentID string
	Score      float64
	Rank       int
}

// tickerFilterSet builds a lookup set from a ticker filter slice. A nil or
// empty slice means "no filter".
func tickerFilterSet(tickers []string) map[string]struct{} {
	if len(tickers) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		set[t] = struct{}{}
	}
	return set
}
