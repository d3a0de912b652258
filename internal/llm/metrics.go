// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Package-level Prometheus metrics for LLM client calls. Auto-registered
// via promauto so no explicit registry wiring is needed.
var (
	// callDuration measures the duration of provider API calls.
	//
	// Labels:
	//   - provider: "anthropic"
	//   - status: "success" or "error"
	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "entropy",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Duration of LLM provider calls in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "status"},
	)

	// callsTotal counts provider calls.
	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "entropy",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total number of LLM provider calls.",
		},
		[]string{"provider", "status"},
	)

	// tokensTotal counts tokens consumed.
	//
	// Labels:
	//   - direction: "input", "cached_input", "output"
	tokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "entropy",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total tokens consumed by LLM calls.",
		},
		[]string{"provider", "direction"},
	)

	// costUSDTotal accumulates the cost table's dollar estimate.
	costUSDTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "entropy",
			Subsystem: "llm",
			Name:      "cost_usd_total",
			Help:      "Total estimated cost in USD of LLM calls, by model.",
		},
		[]string{"model"},
	)

	// errorsTotal counts errors by classified type.
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "entropy",
			Subsystem: "llm",
			Name:      "errors_total",
			Help:      "Total LLM errors by type.",
		},
		[]string{"provider", "error_type"},
	)

	// activeRequests tracks in-flight calls per provider.
	activeRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "entropy",
			Subsystem: "llm",
			Name:      "active_requests",
			Help:      "Number of currently in-flight LLM provider calls.",
		},
		[]string{"provider"},
	)
)

// classifyError maps an error to a label-safe error type string, avoiding
// high-cardinality Prometheus labels built from raw error messages.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "context canceled") ||
		strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key"):
		return "auth"
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return "rate_limit"
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") || strings.Contains(msg, "server error"):
		return "server"
	case strings.Contains(msg, "empty response"):
		return "empty_response"
	default:
		return "unknown"
	}
}

// recordCallMetrics records the one-shot metric set for a completed call.
func recordCallMetrics(provider, model string, duration time.Duration, resp Response, err error) {
	status := "success"
	if err != nil {
		status = "error"
		errorsTotal.WithLabelValues(provider, classifyError(err)).Inc()
	}

	callDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
	callsTotal.WithLabelValues(provider, status).Inc()

	if err == nil {
		tokensTotal.WithLabelValues(provider, "input").Add(float64(resp.TokensIn - resp.CachedTokensIn))
		tokensTotal.WithLabelValues(provider, "cached_input").Add(float64(resp.CachedTokensIn))
		tokensTotal.WithLabelValues(provider, "output").Add(float64(resp.TokensOut))
		costUSDTotal.WithLabelValues(model).Add(resp.CostUSD)
	}
}

func incActiveRequests(provider string) { activeRequests.WithLabelValues(provider).Inc() }
func decActiveRequests(provider string) { activeRequests.WithLabelValues(provider).Dec() }
