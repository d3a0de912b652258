// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command entropy starts the ENTROPY equity-research orchestration server:
// hybrid retrieval over a news corpus, live market-data lookups, and
// cost-tiered LLM agents fused into one answer per query.
//
// Usage:
//
//	entropy serve
//	entropy serve --port 9090
//	entropy diagnose "What's AAPL's RSI?"
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SeanStafford/entropy/internal/config"
	"github.com/SeanStafford/entropy/internal/httpapi"
	"github.com/SeanStafford/entropy/internal/telemetry"
)

var (
	flagPort  int
	flagDebug bool
)

func main() {
	root := &cobra.Command{
		Use:   "entropy",
		Short: "ENTROPY equity-research orchestration server",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP facade (POST /chat, GET /health, GET /diagnostic/{query})",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "listen port (overrides PORT env var)")
	serveCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable gin debug mode and verbose logging")

	diagnoseCmd := &cobra.Command{
		Use:   "diagnose [query]",
		Short: "run the retrieval + market-data dry run for a query without starting the server",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiagnose,
	}

	root.AddCommand(serveCmd, diagnoseCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		// spec.md §6: a missing ANTHROPIC_API_KEY is a misconfiguration,
		// not a transient failure. Exit 1 immediately rather than starting
		// a server that would fail every request.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}

	logger := telemetry.NewLogger(flagDebug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, telemetry.TracerProviderConfig{
		ServiceName: "entropy",
		Writer:      os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracer provider shutdown failed", "error", err.Error())
		}
	}()

	sys, err := buildSystem(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build system: %w", err)
	}
	defer sys.orchestrator.Shutdown()
	if sys.cacheDB != nil {
		defer sys.cacheDB.Close()
	}

	router := httpapi.NewRouter(httpapi.Config{
		Orchestrator: sys.orchestrator,
		Retriever:    sys.retriever,
		MarketTools:  sys.marketTools,
		DocLookup:    sys.docLookup,
		Logger:       telemetry.Component(logger, "httpapi"),
		Debug:        flagDebug,
	})
	httpapi.MarkReady()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("entropy server starting", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	case <-quit:
		logger.Info("shutting down entropy server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown did not complete cleanly", "error", err.Error())
		}
	}
	return nil
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(flagDebug)
	ctx := context.Background()

	sys, err := buildSystem(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build system: %w", err)
	}
	defer sys.orchestrator.Shutdown()
	if sys.cacheDB != nil {
		defer sys.cacheDB.Close()
	}

	query := args[0]
	hits := sys.retriever.Search(ctx, query, 3, nil)

	fmt.Printf("query: %s\n", query)
	fmt.Printf("retrieval: %d hits\n", len(hits))
	for _, hit := range hits {
		doc, ok := sys.docLookup(hit.DocumentID)
		if !ok {
			continue
		}
		fmt.Printf("  - %s (score=%.4f)\n", doc.Title, hit.Score)
	}

	if ticker, found := extractDiagnoseTicker(query); found {
		fmt.Printf("ticker extracted: %s\n", ticker)
		if snap, ok := sys.marketTools.GetPrice(ctx, ticker); ok && snap.Price != nil {
			fmt.Printf("current price: %.2f\n", *snap.Price)
		} else {
			fmt.Println("no price data available for ticker")
		}
	} else {
		fmt.Println("no ticker found in query")
	}

	return nil
}

// diagnoseTickerPattern mirrors the same small ticker-extraction heuristic
// duplicated in the orchestrator and httpapi packages rather than exported
// across package boundaries for a one-line regex.
var diagnoseTickerPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

var diagnoseNonTickers = map[string]bool{"I": true, "A": true, "IT": true, "OK": true, "US": true}

func extractDiagnoseTicker(query string) (string, bool) {
	for _, m := range diagnoseTickerPattern.FindAllString(query, -1) {
		if !diagnoseNonTickers[m] {
			return m, true
		}
	}
	return "", false
}
