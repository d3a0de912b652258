// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package toolbelt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeanStafford/entropy/internal/market"
	"github.com/SeanStafford/entropy/internal/retrieval"
)

func floatPtr(v float64) *float64 { return &v }

func seededMarketTools(t *testing.T) *market.MarketDataTools {
	t.Helper()
	src := market.NewFakeQuoteSource()
	src.SeedPrice("AAPL", market.PriceSnapshot{Price: floatPtr(227.50)})

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]market.PricePoint, 0, 260)
	price := 150.0
	for i := 0; i < 260; i++ {
		price += 0.3
		points = append(points, market.PricePoint{Date: start.AddDate(0, 0, i), Close: price})
	}
	src.SeedHistory("AAPL", points)
	return market.NewMarketDataTools(src, nil)
}

func TestToolBelt_ExecuteUnknownTool(t *testing.T) {
	tb := New(nil)
	result := tb.Execute(context.Background(), "does_not_exist", nil)
	assert.False(t, result.Success)
}

func TestToolBelt_GetPrice(t *testing.T) {
	tb := New(nil)
	tb.Register(NewGetPriceTool(seededMarketTools(t)))

	result := tb.Execute(context.Background(), "get_price", map[string]any{"ticker": "AAPL"})
	require.True(t, result.Success)

	result = tb.Execute(context.Background(), "get_price", map[string]any{"ticker": "ZZZZ"})
	assert.False(t, result.Success)
}

func TestToolBelt_GetPrice_MissingTicker(t *testing.T) {
	tb := New(nil)
	tb.Register(NewGetPriceTool(seededMarketTools(t)))

	result := tb.Execute(context.Background(), "get_price", map[string]any{})
	assert.False(t, result.Success)
}

func TestToolBelt_RSI(t *testing.T) {
	tb := New(nil)
	tb.Register(NewRSITool(seededMarketTools(t)))

	result := tb.Execute(context.Background(), "rsi", map[string]any{"ticker": "AAPL"})
	require.True(t, result.Success)
}

func TestToolBelt_SearchNews(t *testing.T) {
	docs := []retrieval.Document{
		{ID: "d1", Title: "AAPL earnings beat estimates", Body: "Apple reported strong earnings.", Tickers: []string{"AAPL"}},
	}
	lex := retrieval.BuildLexicalIndex(docs)
	hybrid := retrieval.NewHybridRetriever(lex, nil, nil)

	byID := make(map[string]retrieval.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	lookup := func(id string) (retrieval.Document, bool) {
		d, ok := byID[id]
		return d, ok
	}

	tb := New(nil)
	tb.Register(NewSearchNewsTool(hybrid, lookup))

	result := tb.Execute(context.Background(), "search_news", map[string]any{"query": "AAPL earnings"})
	require.True(t, result.Success)

	hits, ok := result.Output.([]NewsHit)
	require.True(t, ok)
	require.Len(t, hits, 1)
	assert.Equal(t, "d1", hits[0].DocumentID)
}
