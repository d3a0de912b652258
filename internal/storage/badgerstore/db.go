// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badgerstore wraps a single BadgerDB instance used for persisted,
// read-mostly service infrastructure; its one user is the retrieval
// EmbeddingCache (document vectors keyed by corpus hash). It is not used for
// per-session state — sessions live in memory only (see internal/session).
package badgerstore

import (
	"context"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// Config controls how a DB is opened.
type Config struct {
	// Path is the on-disk directory for the BadgerDB instance.
	Path string

	// InMemory opens an ephemeral in-memory instance (used by tests).
	InMemory bool

	// Logger receives BadgerDB's internal log lines at debug level.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with no path set; callers must set Path
// (or InMemory for tests) before calling OpenDB.
func DefaultConfig() Config {
	return Config{Logger: slog.Default()}
}

// DB wraps a *badger.DB with context-aware transaction helpers.
//
// Thread Safety: Safe for concurrent use; BadgerDB transactions are
// per-goroutine.
type DB struct {
	bdb    *badger.DB
	logger *slog.Logger
}

// badgerSlogAdapter routes BadgerDB's internal logging through slog at debug
// level so it does not pollute normal operational logs.
type badgerSlogAdapter struct {
	logger *slog.Logger
}

func (a badgerSlogAdapter) Errorf(format string, args ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, args...))
}
func (a badgerSlogAdapter) Warningf(format string, args ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, args...))
}
func (a badgerSlogAdapter) Infof(format string, args ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, args...))
}
func (a badgerSlogAdapter) Debugf(format string, args ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenDB opens (creating if necessary) a BadgerDB instance at cfg.Path, or
// an ephemeral in-memory instance when cfg.InMemory is set.
//
// Outputs:
//   - *DB: Ready-to-use wrapper. Never nil on success.
//   - error: Non-nil if the underlying BadgerDB instance could not be opened.
func OpenDB(cfg Config) (*DB, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(badgerSlogAdapter{logger: logger})

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db at %q: %w", cfg.Path, err)
	}

	return &DB{bdb: bdb, logger: logger}, nil
}

// Close releases the underlying BadgerDB instance.
func (d *DB) Close() error {
	if d == nil || d.bdb == nil {
		return nil
	}
	if err := d.bdb.Close(); err != nil {
		return fmt.Errorf("close badger db: %w", err)
	}
	return nil
}

// WithTxn runs fn inside a read-write BadgerDB transaction, committing on
// success and discarding on error.
func (d *DB) WithTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.bdb.Update(fn)
}

// WithReadTxn runs fn inside a read-only BadgerDB transaction.
func (d *DB) WithReadTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.bdb.View(fn)
}

// RunGC triggers BadgerDB's value-log garbage collection, reclaiming space
// held by TTL-expired entries. Safe to call periodically from a background
// goroutine; returns badger.ErrNoRewrite (swallowed here) when there is
// nothing to collect.
func (d *DB) RunGC(discardRatio float64) error {
	err := d.bdb.RunValueLogGC(discardRatio)
	if err != nil && err != badger.ErrNoRewrite {
		return fmt.Errorf("badger value log gc: %w", err)
	}
	return nil
}
