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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func seededTools(t *testing.T) *MarketDataTools {
	t.Helper()
	src := NewFakeQuoteSource()
	src.SeedPrice("AAPL", PriceSnapshot{Price: floatPtr(227.50), Change: floatPtr(1.25), ChangePct: floatPtr(0.55)})
	src.SeedFundamentals("AAPL", Fundamentals{PERatio: floatPtr(34.2), Sector: "Technology"})

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]PricePoint, 0, 260)
	price := 150.0
	for i := 0; i < 260; i++ {
		price += 0.3
		points = append(points, PricePoint{
			Date: start.AddDate(0, 0, i), Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 1_000_000,
		})
	}
	src.SeedHistory("AAPL", points)
	return NewMarketDataTools(src, nil)
}

func TestMarketDataTools_GetPrice(t *testing.T) {
	m := seededTools(t)
	snap, ok := m.GetPrice(context.Background(), "AAPL")
	require.True(t, ok)
	assert.Equal(t, "AAPL", snap.Ticker)
	assert.InDelta(t, 227.50, *snap.Price, 0.001)
}

func TestMarketDataTools_GetPrice_UnknownTickerAbsent(t *testing.T) {
	m := seededTools(t)
	_, ok := m.GetPrice(context.Background(), "ZZZZ")
	assert.False(t, ok)
}

func TestMarketDataTools_GetHistory_InvalidPeriodAbsent(t *testing.T) {
	m := seededTools(t)
	_, ok := m.GetHistory(context.Background(), "AAPL", Period("3weeks"))
	assert.False(t, ok)
}

func TestMarketDataTools_PriceChange(t *testing.T) {
	m := seededTools(t)
	reading, ok := m.PriceChange(context.Background(), "AAPL", Period1M)
	require.True(t, ok)
	require.NotNil(t, reading.Value)
	assert.Greater(t, *reading.Value, 0.0)
}

func TestMarketDataTools_ComparePerformance(t *testing.T) {
	m := seededTools(t)
	cmp, ok := m.ComparePerformance(context.Background(), []string{"AAPL", "ZZZZ"}, Period1M)
	require.True(t, ok)
	require.Len(t, cmp.Entries, 1)
	assert.Equal(t, "AAPL", cmp.Entries[0].Ticker)
}

func TestMarketDataTools_ComparePerformance_NoneUsableAbsent(t *testing.T) {
	m := seededTools(t)
	_, ok := m.ComparePerformance(context.Background(), []string{"ZZZZ"}, Period1M)
	assert.False(t, ok)
}

func TestMarketDataTools_TopPerformers(t *testing.T) {
	m := seededTools(t)
	top, ok := m.TopPerformers(context.Background(), []string{"AAPL"}, Period1M, 1)
	require.True(t, ok)
	assert.Len(t, top.Entries, 1)
}

func TestMarketDataTools_SMA(t *testing.T) {
	m := seededTools(t)
	reading, ok := m.SMA(context.Background(), "AAPL")
	require.True(t, ok)
	assert.Equal(t, "sma", reading.Indicator)
	require.NotNil(t, reading.Value)
}

func TestMarketDataTools_RSI(t *testing.T) {
	m := seededTools(t)
	reading, ok := m.RSI(context.Background(), "AAPL")
	require.True(t, ok)
	require.NotNil(t, reading.Value)
	assert.GreaterOrEqual(t, *reading.Value, 0.0)
	assert.LessOrEqual(t, *reading.Value, 100.0)
}

func TestMarketDataTools_MACD(t *testing.T) {
	m := seededTools(t)
	reading, ok := m.MACD(context.Background(), "AAPL")
	require.True(t, ok)
	assert.NotEmpty(t, reading.Signal)
}

func TestMarketDataTools_GoldenCross(t *testing.T) {
	m := seededTools(t)
	reading, ok := m.GoldenCross(context.Background(), "AAPL")
	require.True(t, ok)
	assert.Contains(t, reading.Signal, "50-day")
}

func TestMarketDataTools_GoldenCross_InsufficientHistoryAbsent(t *testing.T) {
	src := NewFakeQuoteSource()
	src.SeedHistory("NEW", []PricePoint{{Date: time.Now(), Close: 10}})
	m := NewMarketDataTools(src, nil)
	_, ok := m.GoldenCross(context.Background(), "NEW")
	assert.False(t, ok)
}

func TestPeriod_Valid(t *testing.T) {
	assert.True(t, Period1D.Valid())
	assert.True(t, PeriodMax.Valid())
	assert.False(t, Period("bogus").Valid())
}
