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

	"github.com/SeanStafford/entropy/internal/retrieval"
)

// NewsHit is the JSON-friendly projection of a retrieval.RetrievalHit
// carrying enough document context for an agent to cite or summarize it.
type NewsHit struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	Publisher  string  `json:"publisher"`
	Score      float64 `json:"score"`
	Rank       int     `json:"rank"`
}

// searchNewsTool wraps the hybrid retriever for the search_news tool.
type searchNewsTool struct {
	retriever *retrieval.HybridRetriever
	docs      func(id string) (retrieval.Document, bool)
}

// NewSearchNewsTool returns the search_news tool over retriever. docLookup
// resolves a document id to its full Document for title/publisher display.
func NewSearchNewsTool(retriever *retrieval.HybridRetriever, docLookup func(id string) (retrieval.Document, bool)) Tool {
	return &searchNewsTool{retriever: retriever, docs: docLookup}
}

func (t *searchNewsTool) Name() string { return "search_news" }

func (t *searchNewsTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "search_news",
		Description: "Search the news corpus for articles relevant to a free-text query, optionally restricted to a set of ticker symbols.",
		Parameters: map[string]ParamDef{
			"query": {
				Type:        ParamTypeString,
				Description: "Free-text query, e.g. 'AAPL earnings outlook'.",
				Required:    true,
			},
			"tickers": {
				Type:        ParamTypeArray,
				Description: "Optional ticker symbols to restrict results to.",
				Required:    false,
			},
			"limit": {
				Type:        ParamTypeInt,
				Description: "Maximum number of articles to return.",
				Required:    false,
				Default:     5,
			},
		},
	}
}

func (t *searchNewsTool) Execute(ctx context.Context, params map[string]any) *Result {
	query, ok := parseStringParam(params["query"])
	if !ok || query == "" {
		return &Result{Success: false, Error: "query is required"}
	}

	tickers, _ := parseStringArrayParam(params["tickers"])

	limit := 5
	if raw, ok := params["limit"]; ok {
		if n, ok := parseIntParam(raw); ok && n > 0 {
			limit = n
		}
	}

	hits := t.retriever.Search(ctx, query, limit, tickers)

	out := make([]NewsHit, 0, len(hits))
	for _, h := range hits {
		doc, found := t.docs(h.DocumentID)
		if !found {
			continue
		}
		out = append(out, NewsHit{
			DocumentID: h.DocumentID,
			Title:      doc.Title,
			Publisher:  doc.Publisher,
			Score:      h.Score,
			Rank:       h.Rank,
		})
	}

	return &Result{Success: true, Output: out}
}
