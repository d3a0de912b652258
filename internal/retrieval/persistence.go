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

// =============================================================================
// EmbeddingCache — corpus-hash-keyed embedding persistence
// =============================================================================
//
// Embedding a news corpus is the most expensive step in building a
// SemanticIndex. This cache persists per-document vectors in BadgerDB, keyed
// by a hash of the corpus content and the embedder identity, so that a
// service restart with an unchanged corpus skips re-embedding entirely.
//
// Design choices:
//
//  1. BadgerDB, not a vector database: this cache holds exact-match
//     lookups (document id -> vector), not similarity search. A key-value
//     store with native TTL is a better fit than standing up ANN
//     infrastructure for a cache.
//
//  2. Corpus hash as cache key: SHA256 of sorted document ids + titles +
//     bodies + embedder identity. Any edit to the corpus or a change of embedding
//     model produces a different hash, which invalidates the old entry
//     without an explicit invalidation step.
//
//  3. BadgerDB native TTL enforces expiry; no metadata record is needed.

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"

	"github.com/SeanStafford/entropy/internal/storage/badgerstore"
)

// embeddingCacheDefaultTTL mirrors the lifetime of a built SemanticIndex: a
// news corpus that hasn't refreshed in 7 days is almost certainly stale
// already, so the cached vectors may as well expire alongside it.
const embeddingCacheDefaultTTL = 7 * 24 * time.Hour

// embeddingCacheKeyPrefix namespaces cache entries and allows future format
// changes without collision.
const embeddingCacheKeyPrefix = "retrieval/emb/v1/"

var errEmbeddingCacheMiss = errors.New("embedding cache miss")

// EmbeddingCache persists per-document embedding vectors across service
// restarts, keyed by a hash of the corpus content.
//
// Both methods are nil-safe at the call site: SemanticIndex callers check
// for a nil cache and fall back to re-embedding, so tests and deployments
// without a configured cache directory work unchanged.
type EmbeddingCache struct {
	db     *badgerstore.DB
	ttl    time.Duration
	logger *slog.Logger
}

// NewEmbeddingCache returns an EmbeddingCache backed by db. The DB's
// lifecycle (open/close) belongs to the caller. ttl of 0 uses the default
// (7 days).
func NewEmbeddingCache(db *badgerstore.DB, ttl time.Duration, logger *slog.Logger) *EmbeddingCache {
	if ttl <= 0 {
		ttl = embeddingCacheDefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingCache{db: db, ttl: ttl, logger: logger.With("component", "embedding_cache")}
}

// Load retrieves cached document vectors for the given corpus hash.
// Returns (nil, nil) on cache miss (absent or TTL-expired); (nil, error)
// only on genuine storage or decode failure.
func (c *EmbeddingCache) Load(ctx context.Context, corpusHash string) (map[string][]float32, error) {
	key := embeddingCacheKey(corpusHash)

	var raw []byte
	err := c.db.WithReadTxn(ctx, func(txn *dgbadger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, dgbadger.ErrKeyNotFound) {
			return errEmbeddingCacheMiss
		}
		if err != nil {
			return fmt.Errorf("get embedding cache key: %w", err)
		}
		raw, err = item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("copy embedding cache value: %w", err)
		}
		return nil
	})

	if errors.Is(err, errEmbeddingCacheMiss) {
		c.logger.Debug("embedding cache miss", "hash", shortCorpusHash(corpusHash))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("embedding cache load: %w", err)
	}

	vectors, err := gobDecodeVectors(raw)
	if err != nil {
		return nil, fmt.Errorf("embedding cache decode: %w", err)
	}
	c.logger.Debug("embedding cache hit", "hash", shortCorpusHash(corpusHash), "doc_count", len(vectors))
	return vectors, nil
}

// Save persists document vectors under the given corpus hash with the
// configured TTL.
func (c *EmbeddingCache) Save(ctx context.Context, corpusHash string, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	raw, err := gobEncodeVectors(vectors)
	if err != nil {
		return fmt.Errorf("embedding cache encode: %w", err)
	}

	key := embeddingCacheKey(corpusHash)
	err = c.db.WithTxn(ctx, func(txn *dgbadger.Txn) error {
		entry := dgbadger.NewEntry(key, raw).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("embedding cache save: %w", err)
	}
	c.logger.Debug("embedding cache saved", "hash", shortCorpusHash(corpusHash), "doc_count", len(vectors), "ttl", c.ttl)
	return nil
}

// ComputeCorpusHash returns a deterministic SHA256 hash of the document
// corpus and embedder identity. Documents are sorted by id so ordering in
// the input slice does not affect the hash.
func ComputeCorpusHash(docs []Document, embedderIdentity string) string {
	sorted := make([]Document, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	h := sha256.New()
	for _, d := range sorted {
		fmt.Fprintf(h, "%s\t%s\t%s\n", d.ID, d.Title, d.Body)
	}
	fmt.Fprintf(h, "embedder=%s\n", embedderIdentity)
	return hex.EncodeToString(h.Sum(nil))
}

func embeddingCacheKey(corpusHash string) []byte {
	return []byte(embeddingCacheKeyPrefix + corpusHash)
}

func shortCorpusHash(h string) string {
	if len(h) > 8 {
		return h[:8] + "..."
	}
	return h
}

func gobEncodeVectors(vectors map[string][]float32) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vectors); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func gobDecodeVectors(data []byte) (map[string][]float32, error) {
	var vectors map[string][]float32
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return vectors, nil
}
