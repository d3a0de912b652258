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

type getFundamentalsTool struct {
	market *market.MarketDataTools
}

// NewGetFundamentalsTool returns the get_fundamentals tool over m.
func NewGetFundamentalsTool(m *market.MarketDataTools) Tool {
	return &getFundamentalsTool{market: m}
}

func (t *getFundamentalsTool) Name() string { return "get_fundamentals" }

func (t *getFundamentalsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "get_fundamentals",
		Description: "Get company fundamentals (P/E, market cap, EPS, dividend yield, 52-week range) for a ticker symbol.",
		Parameters: map[string]ParamDef{
			"ticker": {Type: ParamTypeString, Description: "Ticker symbol, e.g. 'AAPL'.", Required: true},
		},
	}
}

func (t *getFundamentalsTool) Execute(ctx context.Context, params map[string]any) *Result {
	ticker, ok := parseStringParam(params["ticker"])
	if !ok || ticker == "" {
		return &Result{Success: false, Error: "ticker is required"}
	}

	fund, found := t.market.GetFundamentals(ctx, ticker)
	if !found {
		return &Result{Success: false, Error: "no fundamentals data for " + ticker}
	}
	return &Result{Success: true, Output: fund}
}
