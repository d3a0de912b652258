// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package market

import (
	"context"
	"sort"
	"sync"
	"time"
)

// QuoteSource is the external market-data provider boundary. Implementations
// return (zero-value, false) rather than an error for an invalid ticker or
// unavailable data point — MarketDataTools translates that into the
// *Reading/*Snapshot "absent" convention so tools never raise.
type QuoteSource interface {
	Price(ctx context.Context, ticker string) (PriceSnapshot, bool)
	Fundamentals(ctx context.Context, ticker string) (Fundamentals, bool)
	History(ctx context.Context, ticker string, period Period) ([]PricePoint, bool)
}

// FakeQuoteSource is an in-memory QuoteSource backed by a fixed seed of
// snapshots and price histories. It is the reference implementation used by
// tests and local development; a production deployment wires a real
// brokerage or data-vendor client behind the same interface.
//
// Thread Safety: Safe for concurrent use; reads and the Seed* methods are
// guarded by an RWMutex.
type FakeQuoteSource struct {
	mu      sync.RWMutex
	prices  map[string]PriceSnapshot
	fundas  map[string]Fundamentals
	history map[string][]PricePoint
}

// NewFakeQuoteSource returns an empty FakeQuoteSource. Use SeedPrice,
// SeedFundamentals and SeedHistory to populate it with deterministic test
// fixtures.
func NewFakeQuoteSource() *FakeQuoteSource {
	return &FakeQuoteSource{
		prices:  make(map[string]PriceSnapshot),
		fundas:  make(map[string]Fundamentals),
		history: make(map[string][]PricePoint),
	}
}

// SeedPrice installs a price snapshot for ticker.
func (f *FakeQuoteSource) SeedPrice(ticker string, snap PriceSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap.Ticker = ticker
	f.prices[ticker] = snap
}

// SeedFundamentals installs a fundamentals snapshot for ticker.
func (f *FakeQuoteSource) SeedFundamentals(ticker string, fund Fundamentals) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fund.Ticker = ticker
	f.fundas[ticker] = fund
}

// SeedHistory installs a full price history for ticker. Points need not be
// pre-sorted; SeedHistory sorts them ascending by date.
func (f *FakeQuoteSource) SeedHistory(ticker string, points []PricePoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sorted := append([]PricePoint{}, points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	f.history[ticker] = sorted
}

// Price returns the seeded snapshot for ticker, if any.
func (f *FakeQuoteSource) Price(_ context.Context, ticker string) (PriceSnapshot, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	snap, ok := f.prices[ticker]
	return snap, ok
}

// Fundamentals returns the seeded fundamentals for ticker, if any.
func (f *FakeQuoteSource) Fundamentals(_ context.Context, ticker string) (Fundamentals, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fund, ok := f.fundas[ticker]
	return fund, ok
}

// History returns the portion of ticker's seeded history falling within
// period, measured back from the most recent point. A ticker with no seeded
// history returns (nil, false).
func (f *FakeQuoteSource) History(_ context.Context, ticker string, period Period) ([]PricePoint, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	full, ok := f.history[ticker]
	if !ok || len(full) == 0 {
		return nil, false
	}
	if !period.Valid() {
		return nil, false
	}

	latest := full[len(full)-1].Date
	cutoff, unbounded := periodCutoff(latest, period)
	if unbounded {
		return full, true
	}

	start := sort.Search(len(full), func(i int) bool { return !full[i].Date.Before(cutoff) })
	if start >= len(full) {
		return nil, false
	}
	return full[start:], true
}

// periodCutoff returns the earliest date included in period, measured back
// from latest. unbounded is true for "max", which includes the full history.
func periodCutoff(latest time.Time, period Period) (cutoff time.Time, unbounded bool) {
	switch period {
	case Period1D:
		return latest.AddDate(0, 0, -1), false
	case Period5D:
		return latest.AddDate(0, 0, -5), false
	case Period1M:
		return latest.AddDate(0, -1, 0), false
	case Period3M:
		return latest.AddDate(0, -3, 0), false
	case Period6M:
		return latest.AddDate(0, -6, 0), false
	case Period1Y:
		return latest.AddDate(-1, 0, 0), false
	case Period2Y:
		return latest.AddDate(-2, 0, 0), false
	case Period5Y:
		return latest.AddDate(-5, 0, 0), false
	case Period10Y:
		return latest.AddDate(-10, 0, 0), false
	case PeriodYTD:
		return time.Date(latest.Year(), 1, 1, 0, 0, 0, 0, latest.Location()), false
	case PeriodMax:
		return time.Time{}, true
	default:
		return time.Time{}, true
	}
}
