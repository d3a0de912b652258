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

type getPriceTool struct {
	market *market.MarketDataTools
}

// NewGetPriceTool returns the get_price tool over m.
func NewGetPriceTool(m *market.MarketDataTools) Tool {
	return &getPriceTool{market: m}
}

func (t *getPriceTool) Name() string { return "get_price" }

func (t *getPriceTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "get_price",
		Description: "Get the current price snapshot for a ticker symbol.",
		Parameters: map[string]ParamDef{
			"ticker": {Type: ParamTypeString, Description: "Ticker symbol, e.g. 'AAPL'.", Required: true},
		},
	}
}

func (t *getPriceTool) Execute(ctx context.Context, params map[string]any) *Result {
	ticker, ok := parseStringParam(params["ticker"])
	if !ok || ticker == "" {
		return &Result{Success: false, Error: "ticker is required"}
	}

	snap, found := t.market.GetPrice(ctx, ticker)
	if !found {
		return &Result{Success: false, Error: "no price data for " + ticker}
	}
	return &Result{Success: true, Output: snap}
}
