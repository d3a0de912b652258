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
	"math"
	"sort"
)

// BM25 tuning constants. Standard values recommended by Robertson et al.
const (
	// bm25K1 controls term-frequency saturation. 1.5 is a robust middle
	// ground within the typical [1.2, 2.0] range.
	bm25K1 = 1.5

	// bm25B controls document-length normalization. 0.75 is the standard
	// default (0 = no normalization, 1 = full normalization).
	bm25B = 0.75
)

// lexicalDoc holds the BM25 representation of a single document.
type lexicalDoc struct {
	id  string
	tf  map[string]int
	len int
}

// LexicalIndex is a BM25-style ranker over a static news corpus.
//
// Tokenization is lowercase, whitespace/punctuation split, no stemming. Each
// document's ticker symbols are concatenated as a prefix to its text before
// tokenization, so an exact symbol query ("NVDA") scores strongly against
// documents about that ticker.
//
// Thread Safety: Immutable after BuildLexicalIndex. Safe for concurrent use.
type LexicalIndex struct {
	docs   []lexicalDoc
	byID   map[string]*Document
	idf    map[string]float64
	avgLen float64
}

// BuildLexicalIndex constructs a LexicalIndex from a corpus of documents.
//
// Outputs:
//   - *LexicalIndex: Never nil. An empty corpus produces a valid, empty index.
func BuildLexicalIndex(docs []Document) *LexicalIndex {
	idx := &LexicalIndex{
		byID: make(map[string]*Document, len(docs)),
		idf:  make(map[string]float64),
	}
	if len(docs) == 0 {
		return idx
	}

	df := make(map[string]int)
	totalLen := 0

	idx.docs = make([]lexicalDoc, 0, len(docs))
	for i := range docs {
		d := docs[i]
		idx.byID[d.ID] = &docs[i]

		ld := buildLexicalDoc(d)
		idx.docs = append(idx.docs, ld)
		totalLen += ld.len

		for term := range ld.tf {
			df[term]++
		}
	}

	n := float64(len(idx.docs))
	idx.avgLen = float64(totalLen) / n

	for term, docFreq := range df {
		// Lucene-style smoothing: log((N+1)/(df+1)) + 1, always >= 1.
		idx.idf[term] = lnRatio(n, float64(docFreq))
	}

	return idx
}

// buildLexicalDoc tokenizes a document into its BM25 term-frequency map.
// The ticker symbols are prefixed onto the body so that an exact-symbol
// query scores strongly via plain term frequency.
func buildLexicalDoc(d Document) lexicalDoc {
	var sb []string
	sb = append(sb, d.Tickers...)
	sb = append(sb, d.Title, d.Body)

	tf := make(map[string]int)
	total := 0
	for _, part := range sb {
		for _, term := range tokenize(part) {
			tf[term]++
			total++
		}
	}

	return lexicalDoc{id: d.ID, tf: tf, len: total}
}

// Search returns the top-k documents ranked by BM25 score for query,
// optionally filtered to documents intersecting tickers. Ties are broken by
// ascending document id. An empty query or empty index returns an empty
// (never nil-error) result.
func (idx *LexicalIndex) Search(query string, k int, tickers []string) []RetrievalHit {
	if query == "" || len(idx.docs) == 0 || k <= 0 {
		return []RetrievalHit{}
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return []RetrievalHit{}
	}

	filter := tickerFilterSet(tickers)

	type scored struct {
		id    string
		score float64
	}
	candidates := make([]scored, 0, len(idx.docs))

	for _, doc := range idx.docs {
		if filter != nil {
			d := idx.byID[doc.id]
			if d == nil || !d.matchesTickers(filter) {
				continue
			}
		}
		score := idx.score(queryTerms, doc)
		if score > 0 {
			candidates = append(candidates, scored{id: doc.id, score: score})
		}
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

// score computes the raw BM25 score for a single document against a
// tokenized query.
func (idx *LexicalIndex) score(queryTerms []string, doc lexicalDoc) float64 {
	dl := float64(doc.len)
	var total float64

	seen := make(map[string]struct{}, len(queryTerms))
	for _, term := range queryTerms {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}

		tf, inDoc := doc.tf[term]
		if !inDoc {
			continue
		}
		termIDF, known := idx.idf[term]
		if !known {
			continue
		}

		tfFloat := float64(tf)
		numerator := tfFloat * (bm25K1 + 1)
		denominator := tfFloat + bm25K1*(1-bm25B+bm25B*dl/idx.avgLen)
		total += termIDF * (numerator / denominator)
	}
	return total
}

// lnRatio computes Lucene-style IDF smoothing: log((n+1)/(df+1)) + 1.
func lnRatio(n, df float64) float64 {
	return math.Log((n+1)/(df+1)) + 1.0
}
