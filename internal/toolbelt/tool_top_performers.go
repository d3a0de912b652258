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

type topPerformersTool struct {
	market *market.MarketDataTools
}

// NewTopPerformersTool returns the top_performers tool over m.
func NewTopPerformersTool(m *market.MarketDataTools) Tool {
	return &topPerformersTool{market: m}
}

func (t *topPerformersTool) Name() string { return "top_performers" }

func (t *topPerformersTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "top_performers",
		Description: "Get the top N performing tickers from a candidate list, ranked by return over a period.",
		Parameters: map[string]ParamDef{
			"candidates": {Type: ParamTypeArray, Description: "Candidate ticker symbols.", Required: true},
			"period":     {Type: ParamTypeString, Description: "One of 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max.", Required: true},
			"n":          {Type: ParamTypeInt, Description: "Number of top performers to return.", Required: false, Default: 3},
		},
	}
}

func (t *topPerformersTool) Execute(ctx context.Context, params map[string]any) *Result {
	candidates, ok := parseStringArrayParam(params["candidates"])
	if !ok || len(candidates) == 0 {
		return &Result{Success: false, Error: "candidates is required"}
	}
	periodStr, ok := parseStringParam(params["period"])
	if !ok || periodStr == "" {
		return &Result{Success: false, Error: "period is required"}
	}

	n := 3
	if raw, ok := params["n"]; ok {
		if parsed, ok := parseIntParam(raw); ok && parsed > 0 {
			n = parsed
		}
	}

	top, found := t.market.TopPerformers(ctx, candidates, market.Period(periodStr), n)
	if !found {
		return &Result{Success: false, Error: "no usable returns for the given candidates"}
	}
	return &Result{Success: true, Output: top}
}
