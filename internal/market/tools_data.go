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
	"log/slog"
	"sort"
	"time"
)

// MarketDataTools is a thin query layer over a QuoteSource, returning typed
// snapshots for direct tool consumption. Every operation returns a typed
// value or reports absence (bool false) on invalid ticker, insufficient
// history, or transport failure; none of them ever return an error.
//
// Thread Safety: Safe for concurrent use; holds no mutable state beyond the
// underlying QuoteSource.
type MarketDataTools struct {
	source QuoteSource
	logger *slog.Logger
}

// NewMarketDataTools returns a MarketDataTools backed by source.
func NewMarketDataTools(source QuoteSource, logger *slog.Logger) *MarketDataTools {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketDataTools{source: source, logger: logger.With("component", "market_data_tools")}
}

// GetPrice returns the current price snapshot for ticker.
func (m *MarketDataTools) GetPrice(ctx context.Context, ticker string) (PriceSnapshot, bool) {
	snap, ok := m.source.Price(ctx, ticker)
	if !ok {
		m.logger.Debug("get_price: absent", "ticker", ticker)
	}
	return snap, ok
}

// GetFundamentals returns the fundamentals snapshot for ticker.
func (m *MarketDataTools) GetFundamentals(ctx context.Context, ticker string) (Fundamentals, bool) {
	fund, ok := m.source.Fundamentals(ctx, ticker)
	if !ok {
		m.logger.Debug("get_fundamentals: absent", "ticker", ticker)
	}
	return fund, ok
}

// GetHistory returns the price history for ticker over period. period must
// be one of the closed set of supported values; anything else yields absent.
func (m *MarketDataTools) GetHistory(ctx context.Context, ticker string, period Period) ([]PricePoint, bool) {
	if !period.Valid() {
		return nil, false
	}
	points, ok := m.source.History(ctx, ticker, period)
	if !ok {
		m.logger.Debug("get_history: absent", "ticker", ticker, "period", period)
	}
	return points, ok
}

// PriceChange reports the percentage price change for ticker
// over period, computed from the first and last close in the history
// window.
func (m *MarketDataTools) PriceChange(ctx context.Context, ticker string, period Period) (TechnicalReading, bool) {
	points, ok := m.GetHistory(ctx, ticker, period)
	if !ok || len(points) < 2 {
		return TechnicalReading{}, false
	}

	first := points[0].Close
	last := points[len(points)-1].Close
	if first == 0 {
		return TechnicalReading{}, false
	}
	pct := (last - first) / first * 100
	return TechnicalReading{
		Ticker:    ticker,
		Indicator: "price_change",
		Value:     &pct,
		AsOf:      points[len(points)-1].Date,
	}, true
}

// ComparePerformance ranks tickers by their return over period, descending.
// Tickers with insufficient history are silently excluded. Returns absent
// if no ticker produced a usable return.
func (m *MarketDataTools) ComparePerformance(ctx context.Context, tickers []string, period Period) (PerformanceComparison, bool) {
	entries := make([]PerformanceEntry, 0, len(tickers))
	for _, t := range tickers {
		reading, ok := m.PriceChange(ctx, t, period)
		if !ok || reading.Value == nil {
			continue
		}
		entries = append(entries, PerformanceEntry{Ticker: t, ReturnPct: *reading.Value})
	}
	if len(entries) == 0 {
		return PerformanceComparison{}, false
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ReturnPct > entries[j].ReturnPct })
	return PerformanceComparison{Period: period, Entries: entries}, true
}

// TopPerformers returns the top n tickers by return over period from the
// candidate universe. n <= 0 returns absent.
func (m *MarketDataTools) TopPerformers(ctx context.Context, candidates []string, period Period, n int) (PerformanceComparison, bool) {
	if n <= 0 {
		return PerformanceComparison{}, false
	}
	cmp, ok := m.ComparePerformance(ctx, candidates, period)
	if !ok {
		return PerformanceComparison{}, false
	}
	if len(cmp.Entries) > n {
		cmp.Entries = cmp.Entries[:n]
	}
	return cmp, true
}

// Returns computes the percentage return of ticker between start and end
// dates (inclusive), using the closest available history points.
func (m *MarketDataTools) Returns(ctx context.Context, ticker string, start, end time.Time) (TechnicalReading, bool) {
	points, ok := m.source.History(ctx, ticker, PeriodMax)
	if !ok || len(points) < 2 {
		return TechnicalReading{}, false
	}

	startPoint, ok := nearestOnOrAfter(points, start)
	if !ok {
		return TechnicalReading{}, false
	}
	endPoint, ok := nearestOnOrBefore(points, end)
	if !ok || !endPoint.Date.After(startPoint.Date) {
		return TechnicalReading{}, false
	}

	pct := (endPoint.Close - startPoint.Close) / startPoint.Close * 100
	return TechnicalReading{
		Ticker:    ticker,
		Indicator: "returns",
		Value:     &pct,
		AsOf:      endPoint.Date,
	}, true
}

func nearestOnOrAfter(points []PricePoint, t time.Time) (PricePoint, bool) {
	for _, p := range points {
		if !p.Date.Before(t) {
			return p, true
		}
	}
	return PricePoint{}, false
}

func nearestOnOrBefore(points []PricePoint, t time.Time) (PricePoint, bool) {
	var best PricePoint
	found := false
	for _, p := range points {
		if !p.Date.After(t) {
			best = p
			found = true
		}
	}
	return best, found
}

// SMA returns the simple moving average of ticker's closing prices.
func (m *MarketDataTools) SMA(ctx context.Context, ticker string) (TechnicalReading, bool) {
	return m.indicatorReading(ctx, ticker, "sma", func(series []float64) (float64, bool) {
		return sma(series, smaWindow)
	})
}

// EMA returns the exponential moving average of ticker's closing prices.
func (m *MarketDataTools) EMA(ctx context.Context, ticker string) (TechnicalReading, bool) {
	return m.indicatorReading(ctx, ticker, "ema", func(series []float64) (float64, bool) {
		return ema(series, emaWindow)
	})
}

// RSI returns the 14-period relative strength index for ticker.
func (m *MarketDataTools) RSI(ctx context.Context, ticker string) (TechnicalReading, bool) {
	return m.indicatorReading(ctx, ticker, "rsi", rsi)
}

// MACD returns the 12/26/9 MACD histogram value for ticker, with a
// bullish/bearish/neutral reading of MACD versus its signal line in Signal.
func (m *MarketDataTools) MACD(ctx context.Context, ticker string) (TechnicalReading, bool) {
	points, ok := m.source.History(ctx, ticker, PeriodMax)
	if !ok || len(points) == 0 {
		return TechnicalReading{}, false
	}
	val, ok := macd(closes(points))
	if !ok {
		return TechnicalReading{}, false
	}
	hist := val.Histogram
	return TechnicalReading{
		Ticker:    ticker,
		Indicator: "macd",
		Value:     &hist,
		Signal:    macdSignalText(val),
		AsOf:      points[len(points)-1].Date,
	}, true
}

func macdSignalText(v macdValue) string {
	if v.Histogram > 0 {
		return "bullish: MACD above signal line"
	}
	if v.Histogram < 0 {
		return "bearish: MACD below signal line"
	}
	return "neutral: MACD equals signal line"
}

// GoldenCross reports the 50/200-day SMA crossover state for ticker.
func (m *MarketDataTools) GoldenCross(ctx context.Context, ticker string) (TechnicalReading, bool) {
	points, ok := m.source.History(ctx, ticker, PeriodMax)
	if !ok || len(points) == 0 {
		return TechnicalReading{}, false
	}
	signal, ok := goldenCross(closes(points))
	if !ok {
		return TechnicalReading{}, false
	}
	return TechnicalReading{
		Ticker:    ticker,
		Indicator: "golden_cross",
		Signal:    signal,
		AsOf:      points[len(points)-1].Date,
	}, true
}

// indicatorReading is a shared helper for single-value indicators computed
// over a ticker's full closing-price history.
func (m *MarketDataTools) indicatorReading(ctx context.Context, ticker, name string, compute func([]float64) (float64, bool)) (TechnicalReading, bool) {
	points, ok := m.source.History(ctx, ticker, PeriodMax)
	if !ok || len(points) == 0 {
		return TechnicalReading{}, false
	}
	value, ok := compute(closes(points))
	if !ok {
		return TechnicalReading{}, false
	}
	return TechnicalReading{
		Ticker:    ticker,
		Indicator: name,
		Value:     &value,
		AsOf:      points[len(points)-1].Date,
	}, true
}
