// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/SeanStafford/entropy/internal/config"
	"github.com/SeanStafford/entropy/internal/llm"
	"github.com/SeanStafford/entropy/internal/market"
	"github.com/SeanStafford/entropy/internal/orchestrator"
	"github.com/SeanStafford/entropy/internal/policy"
	"github.com/SeanStafford/entropy/internal/retrieval"
	"github.com/SeanStafford/entropy/internal/session"
	"github.com/SeanStafford/entropy/internal/storage/badgerstore"
	"github.com/SeanStafford/entropy/internal/telemetry"
	"github.com/SeanStafford/entropy/internal/toolbelt"
)

// system is every long-lived component the serve and diagnose commands
// share, wired once from cfg.
type system struct {
	orchestrator *orchestrator.Orchestrator
	retriever    *retrieval.HybridRetriever
	marketTools  *market.MarketDataTools
	docLookup    func(id string) (retrieval.Document, bool)
	cacheDB      *badgerstore.DB
}

// buildSystem constructs every component named in SPEC_FULL.md §4 from cfg,
// seeded with the demo corpus (see seed.go) in place of the out-of-core
// offline index builder and live quotes fetcher. The returned system's
// cacheDB, if non-nil, must be closed by the caller after shutdown.
func buildSystem(ctx context.Context, cfg config.Config, logger *slog.Logger) (*system, error) {
	docs := seedDocuments()

	var cacheDB *badgerstore.DB
	var embeddingCache *retrieval.EmbeddingCache
	if cfg.RoutingCacheDir != "" {
		db, err := badgerstore.OpenDB(badgerstore.Config{
			Path:   cfg.RoutingCacheDir,
			Logger: telemetry.Component(logger, "badgerstore"),
		})
		if err != nil {
			logger.Warn("embedding cache BadgerDB unavailable, continuing without persistence",
				"path", cfg.RoutingCacheDir, "error", err.Error())
		} else {
			cacheDB = db
			embeddingCache = retrieval.NewEmbeddingCache(db, 0, telemetry.Component(logger, "embedding_cache"))
		}
	}

	lexical := retrieval.BuildLexicalIndex(docs)
	embedder := retrieval.NewHashEmbedder(cfg.EmbeddingDim)
	semantic := retrieval.NewSemanticIndex(embedder)
	if err := semantic.BuildCached(ctx, docs, embeddingCache); err != nil {
		return nil, err
	}
	retriever := retrieval.NewHybridRetriever(lexical, semantic, telemetry.Component(logger, "retrieval"))

	docByID := make(map[string]retrieval.Document, len(docs))
	for _, d := range docs {
		docByID[d.ID] = d
	}
	docLookup := func(id string) (retrieval.Document, bool) {
		d, ok := docByID[id]
		return d, ok
	}

	quotes := seedQuotes()
	marketTools := market.NewMarketDataTools(quotes, telemetry.Component(logger, "market"))

	tb := toolbelt.New(telemetry.Component(logger, "toolbelt"))
	tb.Register(toolbelt.NewSearchNewsTool(retriever, docLookup))
	tb.Register(toolbelt.NewGetPriceTool(marketTools))
	tb.Register(toolbelt.NewGetFundamentalsTool(marketTools))
	tb.Register(toolbelt.NewGetHistoryTool(marketTools))
	tb.Register(toolbelt.NewPriceChangeTool(marketTools))
	tb.Register(toolbelt.NewComparePerformanceTool(marketTools))
	tb.Register(toolbelt.NewTopPerformersTool(marketTools))
	tb.Register(toolbelt.NewReturnsTool(marketTools))
	tb.Register(toolbelt.NewSMATool(marketTools))
	tb.Register(toolbelt.NewEMATool(marketTools))
	tb.Register(toolbelt.NewRSITool(marketTools))
	tb.Register(toolbelt.NewMACDTool(marketTools))
	tb.Register(toolbelt.NewGoldenCrossTool(marketTools))

	client, err := llm.NewAnthropicClient()
	if err != nil {
		return nil, err
	}

	dpolicy, err := policy.New(nil)
	if err != nil {
		return nil, err
	}
	if cfg.RoutingPatternsFile != "" {
		if err := policy.WatchPatternsFile(ctx, dpolicy, cfg.RoutingPatternsFile, telemetry.Component(logger, "policy")); err != nil {
			logger.Warn("routing pattern file watch unavailable, using compiled-in defaults",
				"path", cfg.RoutingPatternsFile, "error", err.Error())
		}
	}

	orch := orchestrator.New(orchestrator.Config{
		Sessions:          session.New(),
		Policy:            dpolicy,
		ToolBelt:          tb,
		Client:            client,
		Logger:            telemetry.Component(logger, "orchestrator"),
		Workers:           cfg.SpecialistMaxWorkers,
		ResultTTL:         time.Duration(cfg.SpecialistTTLSeconds) * time.Second,
		SpecialistTimeout: time.Duration(cfg.SpecialistTimeoutSeconds) * time.Second,
		CostBudgetUSD:     cfg.SessionCostBudgetUSD,
	})

	return &system{
		orchestrator: orch,
		retriever:    retriever,
		marketTools:  marketTools,
		docLookup:    docLookup,
		cacheDB:      cacheDB,
	}, nil
}
