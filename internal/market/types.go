// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package market exposes a fixed set of operations over an external quotes
// source: price, fundamentals, history, derived performance, and technical
// indicators. Every operation returns a typed value or reports absence; it
// never raises.
package market

import "time"

// PriceSnapshot is a point-in-time quote. Fields are pointers so upstream
// unavailability of any single field is distinguishable from a zero value.
type PriceSnapshot struct {
	Ticker    string
	Price     *float64
	Change    *float64
	ChangePct *float64
	Volume    *int64
	AsOf      time.Time
}

// Fundamentals is a snapshot of company financial metrics. Any field may be
// nil if the upstream source did not report it.
type Fundamentals struct {
	Ticker         string
	MarketCap      *float64
	PERatio        *float64
	EPS            *float64
	DividendYield  *float64
	Week52High     *float64
	Week52Low      *float64
	SharesOut      *int64
	Sector         string
	Industry       string
	AsOf           time.Time
}

// PricePoint is a single bar of historical price data.
type PricePoint struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
	Volume int64
}

// TechnicalReading is the output of an indicator computation. Insufficient
// history is reported by the computing method's ok=false, not by a reading;
// Value is nil only for categorical indicators such as golden_cross.
type TechnicalReading struct {
	Ticker    string
	Indicator string
	Value     *float64
	AsOf      time.Time

	// Signal carries a qualitative reading for indicators that are
	// naturally categorical (e.g. "golden_cross" -> "bullish: 50-day above 200-day").
	Signal string
}

// Period is a closed set of historical lookback windows. Values outside the
// set are rejected by callers before reaching a QuoteSource.
type Period string

// The closed set of valid periods. Any other Period value is invalid.
const (
	Period1D  Period = "1d"
	Period5D  Period = "5d"
	Period1M  Period = "1mo"
	Period3M  Period = "3mo"
	Period6M  Period = "6mo"
	Period1Y  Period = "1y"
	Period2Y  Period = "2y"
	Period5Y  Period = "5y"
	Period10Y Period = "10y"
	PeriodYTD Period = "ytd"
	PeriodMax Period = "max"
)

var validPeriods = map[Period]struct{}{
	Period1D: {}, Period5D: {}, Period1M: {}, Period3M: {}, Period6M: {},
	Period1Y: {}, Period2Y: {}, Period5Y: {}, Period10Y: {}, PeriodYTD: {}, PeriodMax: {},
}

// Valid reports whether p is one of the closed set of supported periods.
func (p Period) Valid() bool {
	_, ok := validPeriods[p]
	return ok
}

// PerformanceComparison ranks a set of tickers by their return over a period.
type PerformanceComparison struct {
	Period  Period
	Entries []PerformanceEntry
}

// PerformanceEntry is one ticker's return contribution to a
// PerformanceComparison or top-performers listing.
type PerformanceEntry struct {
	Ticker    string
	ReturnPct float64
}
