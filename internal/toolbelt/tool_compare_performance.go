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

type comparePerformanceTool struct {
	market *market.MarketDataTools
}

// NewComparePerformanceTool returns the compare_performance tool over m.
func NewComparePerformanceTool(m *market.MarketDataTools) Tool {
	return &comparePerformanceTool{market: m}
}

func (t *comparePerformanceTool) Name() string { return "compare_performance" }

func (t *comparePerformanceTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "compare_performance",
		Description: "Rank a set of ticker symbols by their return over a period, descending.",
		Parameters: map[string]ParamDef{
			"tickers": {Type: ParamTypeArray, Description: "Ticker symbols to compare.", Required: true},
			"period":  {Type: ParamTypeString, Description: "One of 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max.", Required: true},
		},
	}
}

func (t *comparePerformanceTool) Execute(ctx context.Context, params map[string]any) *Result {
	tickers, ok := parseStringArrayParam(params["tickers"])
	if !ok || len(tickers) == 0 {
		return &Result{Success: false, Error: "tickers is required"}
	}
	periodStr, ok := parseStringParam(params["period"])
	if !ok || periodStr == "" {
		return &Result{Success: false, Error: "period is required"}
	}

	cmp, found := t.market.ComparePerformance(ctx, tickers, market.Period(periodStr))
	if !found {
		return &Result{Success: false, Error: "no usable returns for the given tickers"}
	}
	return &Result{Success: true, Output: cmp}
}
