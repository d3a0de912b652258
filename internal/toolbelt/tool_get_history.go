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

type getHistoryTool struct {
	market *market.MarketDataTools
}

// NewGetHistoryTool returns the get_history tool over m.
func NewGetHistoryTool(m *market.MarketDataTools) Tool {
	return &getHistoryTool{market: m}
}

func (t *getHistoryTool) Name() string { return "get_history" }

func (t *getHistoryTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "get_history",
		Description: "Get historical OHLCV price bars for a ticker over a period (1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max).",
		Parameters: map[string]ParamDef{
			"ticker": {Type: ParamTypeString, Description: "Ticker symbol, e.g. 'AAPL'.", Required: true},
			"period": {Type: ParamTypeString, Description: "One of 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max.", Required: true},
		},
	}
}

func (t *getHistoryTool) Execute(ctx context.Context, params map[string]any) *Result {
	ticker, ok := parseStringParam(params["ticker"])
	if !ok || ticker == "" {
		return &Result{Success: false, Error: "ticker is required"}
	}
	periodStr, ok := parseStringParam(params["period"])
	if !ok || periodStr == "" {
		return &Result{Success: false, Error: "period is required"}
	}

	points, found := t.market.GetHistory(ctx, ticker, market.Period(periodStr))
	if !found {
		return &Result{Success: false, Error: "no history for " + ticker + " over " + periodStr}
	}
	return &Result{Success: true, Output: points}
}
