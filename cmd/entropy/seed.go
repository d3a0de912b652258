// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"time"

	"github.com/SeanStafford/entropy/internal/market"
	"github.com/SeanStafford/entropy/internal/retrieval"
)

// seedDocuments is a small, fixed news corpus used when no real corpus has
// been loaded. The offline index builder that would populate a production
// corpus is out of core (spec.md §1); this keeps the server runnable
// end-to-end without one.
func seedDocuments() []retrieval.Document {
	now := time.Now()
	return []retrieval.Document{
		{ID: "d1", Title: "AAPL beats quarterly earnings estimates", Body: "Apple reported earnings per share above analyst estimates, driven by services growth.", Published: now.Add(-24 * time.Hour), Tickers: []string{"AAPL"}, Publisher: "Reuters"},
		{ID: "d2", Title: "TSLA shares slide on delivery miss", Body: "Tesla delivered fewer vehicles than expected last quarter amid broad market volatility.", Published: now.Add(-6 * time.Hour), Tickers: []string{"TSLA"}, Publisher: "Bloomberg"},
		{ID: "d3", Title: "NVDA rallies on AI chip demand", Body: "Nvidia shares rose after reporting strong data center revenue tied to AI accelerator demand.", Published: now.Add(-48 * time.Hour), Tickers: []string{"NVDA"}, Publisher: "WSJ"},
		{ID: "d4", Title: "MSFT cloud growth steady", Body: "Microsoft's Azure cloud segment grew in line with expectations this quarter.", Published: now.Add(-72 * time.Hour), Tickers: []string{"MSFT"}, Publisher: "CNBC"},
	}
}

// seedQuotes populates a FakeQuoteSource with prices, fundamentals, and a
// short price history for each ticker in seedDocuments, enough for the SMA,
// EMA, RSI and MACD indicators to return a reading; it is shorter than the
// 200 points golden_cross needs, so that indicator reports absent.
func seedQuotes() *market.FakeQuoteSource {
	src := market.NewFakeQuoteSource()
	now := time.Now()

	tickers := map[string]float64{"AAPL": 150.25, "TSLA": 242.10, "NVDA": 118.50, "MSFT": 420.00}
	for ticker, price := range tickers {
		p := price
		change := p * 0.012
		changePct := 1.2
		volume := int64(42_000_000)
		src.SeedPrice(ticker, market.PriceSnapshot{
			Ticker: ticker, Price: &p, Change: &change, ChangePct: &changePct, Volume: &volume, AsOf: now,
		})

		marketCap := p * 16_000_000_000
		peRatio := 28.4
		eps := p / peRatio
		div := 0.5
		src.SeedFundamentals(ticker, market.Fundamentals{
			Ticker: ticker, MarketCap: &marketCap, PERatio: &peRatio, EPS: &eps,
			DividendYield: &div, Sector: "Technology", Industry: "Technology", AsOf: now,
		})

		points := make([]market.PricePoint, 0, 60)
		base := p * 0.85
		for i := 0; i < 60; i++ {
			day := now.AddDate(0, 0, -60+i)
			drift := base + (p-base)*float64(i)/59
			points = append(points, market.PricePoint{Date: day, Close: drift})
		}
		src.SeedHistory(ticker, points)
	}
	return src
}
