// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package httpapi

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	cfg Config
}

type chatRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id"`
}

// health handles GET /health.
func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
}

// chat handles POST /chat, the core façade over Orchestrator.ProcessQuery.
func (h *handlers) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := h.cfg.Orchestrator.ProcessQuery(c.Request.Context(), req.Query, req.SessionID)
	c.JSON(http.StatusOK, resp)
}

// diagnosticTrace is the shape fixed by spec.md §6.
type diagnosticTrace struct {
	Query     string              `json:"query"`
	FlowTrace diagnosticFlowTrace `json:"flow_trace"`
}

type diagnosticFlowTrace struct {
	Retrieval  diagnosticRetrieval  `json:"retrieval"`
	MarketData diagnosticMarketData `json:"market_data"`
	Generation diagnosticGeneration `json:"generation"`
}

type diagnosticRetrieval struct {
	Success      bool     `json:"success"`
	NumResults   int      `json:"num_results"`
	TickersFound []string `json:"tickers_found"`
	SampleTitles []string `json:"sample_titles"`
}

type diagnosticMarketData struct {
	Success         bool     `json:"success"`
	TickerExtracted *string  `json:"ticker_extracted"`
	DataAvailable   bool     `json:"data_available"`
	CurrentPrice    *float64 `json:"current_price"`
}

type diagnosticGeneration struct {
	OrchestratorReady    bool `json:"orchestrator_ready"`
	SpecialistPoolActive bool `json:"specialist_pool_active"`
}

const diagnosticSampleTitles = 3

// diagnosticTickerPattern mirrors the orchestrator package's own ticker
// extraction heuristic; kept as a private copy here rather than exported
// from orchestrator, matching the small-helper-duplication already used
// for the nil-logger pattern across agent/pool/orchestrator.
var diagnosticTickerPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

var diagnosticNonTickers = map[string]bool{"I": true, "A": true, "IT": true, "OK": true, "US": true}

func extractDiagnosticTicker(query string) (string, bool) {
	for _, m := range diagnosticTickerPattern.FindAllString(query, -1) {
		if !diagnosticNonTickers[m] {
			return m, true
		}
	}
	return "", false
}

// diagnostic handles GET /diagnostic/{query}: a real, LLM-free dry run
// through retrieval and market-data ticker extraction, so the endpoint
// stays cheap and side-effect-free (SPEC_FULL.md §5).
func (h *handlers) diagnostic(c *gin.Context) {
	query := c.Param("query")
	slog.Info("[DIAGNOSTIC] dry-run trace requested", "query", query)

	trace := diagnosticTrace{Query: query}

	if h.cfg.Retriever != nil {
		hits := h.cfg.Retriever.Search(c.Request.Context(), query, diagnosticSampleTitles, nil)
		tickerSet := map[string]bool{}
		titles := make([]string, 0, len(hits))
		for _, hit := range hits {
			if h.cfg.DocLookup == nil {
				continue
			}
			doc, ok := h.cfg.DocLookup(hit.DocumentID)
			if !ok {
				continue
			}
			titles = append(titles, doc.Title)
			for _, t := range doc.Tickers {
				tickerSet[t] = true
			}
		}
		tickers := make([]string, 0, len(tickerSet))
		for t := range tickerSet {
			tickers = append(tickers, t)
		}
		trace.FlowTrace.Retrieval = diagnosticRetrieval{
			Success:      true,
			NumResults:   len(hits),
			TickersFound: tickers,
			SampleTitles: titles,
		}
		slog.Info("[DIAGNOSTIC] retrieval dry run complete", "num_results", len(hits))
	}

	ticker, found := extractDiagnosticTicker(query)
	md := diagnosticMarketData{Success: found}
	if found {
		tickerCopy := ticker
		md.TickerExtracted = &tickerCopy
		if h.cfg.MarketTools != nil {
			if snap, ok := h.cfg.MarketTools.GetPrice(c.Request.Context(), ticker); ok {
				md.DataAvailable = true
				md.CurrentPrice = snap.Price
			}
		}
	}
	trace.FlowTrace.MarketData = md
	slog.Info("[DIAGNOSTIC] market data dry run complete", "ticker", ticker, "found", found)

	trace.FlowTrace.Generation = diagnosticGeneration{
		OrchestratorReady:    h.cfg.Orchestrator != nil,
		SpecialistPoolActive: h.cfg.Orchestrator != nil,
	}

	c.JSON(http.StatusOK, trace)
}
