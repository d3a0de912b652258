// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package httpapi is the thin HTTP facade fixed by spec.md §6: POST /chat,
// GET /health, GET /diagnostic/{query}. The core (orchestrator, retrieval,
// market data) is out-of-process-agnostic; this package is the one place
// that wires it to gin and OTel.
package httpapi

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/SeanStafford/entropy/internal/market"
	"github.com/SeanStafford/entropy/internal/orchestrator"
	"github.com/SeanStafford/entropy/internal/retrieval"
)

// Version is reported by GET /health.
const Version = "0.1.0"

// Config wires a Server's dependencies.
type Config struct {
	Orchestrator *orchestrator.Orchestrator
	Retriever    *retrieval.HybridRetriever
	MarketTools  *market.MarketDataTools
	// DocLookup resolves a RetrievalHit's DocumentID to its full Document,
	// for the diagnostic endpoint's sample_titles field.
	DocLookup func(id string) (retrieval.Document, bool)
	Logger    *slog.Logger
	Debug     bool
}

// NewRouter builds the gin engine with every route and middleware attached.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	h := &handlers{cfg: cfg}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("entropy"))
	if cfg.Debug {
		router.Use(gin.Logger())
	}
	router.Use(CostBudgetGuardMiddleware(cfg.Logger))

	router.GET("/health", h.health)
	router.POST("/chat", h.chat)
	router.GET("/diagnostic/:query", h.diagnostic)

	return router
}
