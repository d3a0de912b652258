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

	"github.com/SeanStafford/entropy/internal/market"
)

// indicatorTool wires a single-ticker technical indicator computation
// (sma, ema, rsi, macd, golden_cross) into the Tool interface. All five
// indicators share the same argument shape (ticker only), so they share one
// implementation parameterized by name and compute function.
type indicatorTool struct {
	name        string
	description string
	compute     func(context.Context, string) (market.TechnicalReading, bool)
}

// NewSMATool returns the sma tool over m.
func NewSMATool(m *market.MarketDataTools) Tool {
	return &indicatorTool{name: "sma", description: "20-period simple moving average of closing price.", compute: m.SMA}
}

// NewEMATool returns the ema tool over m.
func NewEMATool(m *market.MarketDataTools) Tool {
	return &indicatorTool{name: "ema", description: "20-period exponential moving average of closing price.", compute: m.EMA}
}

// NewRSITool returns the rsi tool over m.
func NewRSITool(m *market.MarketDataTools) Tool {
	return &indicatorTool{name: "rsi", description: "14-period Wilder relative strength index.", compute: m.RSI}
}

// NewMACDTool returns the macd tool over m.
func NewMACDTool(m *market.MarketDataTools) Tool {
	return &indicatorTool{name: "macd", description: "12/26/9 moving average convergence divergence.", compute: m.MACD}
}

// NewGoldenCrossTool returns the golden_cross tool over m.
func NewGoldenCrossTool(m *market.MarketDataTools) Tool {
	return &indicatorTool{name: "golden_cross", description: "50/200-day SMA crossover signal.", compute: m.GoldenCross}
}

func (t *indicatorTool) Name() string { return t.name }

func (t *indicatorTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        t.name,
		Description: t.description,
		Parameters: map[string]ParamDef{
			"ticker": {Type: ParamTypeString, Description: "Ticker symbol, e.g. 'AAPL'.", Required: true},
		},
	}
}

func (t *indicatorTool) Execute(ctx context.Context, params map[string]any) *Result {
	ticker, ok := parseStringParam(params["ticker"])
	if !ok || ticker == "" {
		return &Result{Success: false, Error: "ticker is required"}
	}

	reading, found := t.compute(ctx, ticker)
	if !found {
		return &Result{Success: false, Error: "insufficient history for " + ticker}
	}
	return &Result{Success: true, Output: reading}
}
