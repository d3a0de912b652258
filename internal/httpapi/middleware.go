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
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// ready gates every route but /health until MarkReady is called.
var ready atomic.Bool

// CostBudgetGuardMiddleware rejects every request except /health with 503 while the
// server isn't ready to serve them (retrieval indexes not yet built).
// Mirrors the teacher's WarmupGuardMiddleware: a cheap precondition check
// gates the expensive path rather than letting it fail mid-request.
//
// The name reflects its role in the request lifecycle — guarding the
// budget of readiness a cold server has — not a per-session cost check;
// the per-session cost ceiling lives in Orchestrator (SPEC_FULL.md §5),
// since only it has the session state the decision needs.
func CostBudgetGuardMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ready.Load() && c.Request.URL.Path != "/health" {
			ctx := c.Request.Context()
			_, span := otel.Tracer("entropy.httpapi").Start(ctx, "readiness_guard.reject",
				oteltrace.WithAttributes(
					attribute.String("path", c.Request.URL.Path),
					attribute.Int("http.status_code", http.StatusServiceUnavailable),
				),
			)
			defer span.End()
			span.SetStatus(codes.Error, "not ready")

			if logger != nil {
				logger.Warn("request rejected: server not ready", "path", c.Request.URL.Path)
			}

			c.Header("Retry-After", "5")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "not ready",
				"message": "retrieval indexes are still loading",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// MarkReady flips the readiness gate open; called once startup (index
// build, Orchestrator construction) completes.
func MarkReady() { ready.Store(true) }
