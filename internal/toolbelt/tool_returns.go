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
	"time"

	"github.com/SeanStafford/entropy/internal/market"
)

type returnsTool struct {
	market *market.MarketDataTools
}

// NewReturnsTool returns the returns tool over m.
func NewReturnsTool(m *market.MarketDataTools) Tool {
	return &returnsTool{market: m}
}

func (t *returnsTool) Name() string { return "returns" }

func (t *returnsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "returns",
		Description: "Compute the percentage return of a ticker between two explicit dates (YYYY-MM-DD).",
		Parameters: map[string]ParamDef{
			"ticker": {Type: ParamTypeString, Description: "Ticker symbol, e.g. 'AAPL'.", Required: true},
			"start":  {Type: ParamTypeString, Description: "Start date, YYYY-MM-DD.", Required: true},
			"end":    {Type: ParamTypeString, Description: "End date, YYYY-MM-DD.", Required: true},
		},
	}
}

func (t *returnsTool) Execute(ctx context.Context, params map[string]any) *Result {
	ticker, ok := parseStringParam(params["ticker"])
	if !ok || ticker == "" {
		return &Result{Success: false, Error: "ticker is required"}
	}
	startStr, ok := parseStringParam(params["start"])
	if !ok {
		return &Result{Success: false, Error: "start is required"}
	}
	endStr, ok := parseStringParam(params["end"])
	if !ok {
		return &Result{Success: false, Error: "end is required"}
	}

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return &Result{Success: false, Error: "start must be YYYY-MM-DD"}
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return &Result{Success: false, Error: "end must be YYYY-MM-DD"}
	}

	reading, found := t.market.Returns(ctx, ticker, start, end)
	if !found {
		return &Result{Success: false, Error: "insufficient history for " + ticker + " over the given range"}
	}
	return &Result{Success: true, Output: reading}
}
