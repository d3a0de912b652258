// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires the shared slog logger and OTel tracer provider
// used across every internal package.
package telemetry

import (
	"log/slog"
	"os"
)

// NewLogger returns the base structured logger for the process. Component
// packages derive their own logger from it via logger.With("component", "...")
// rather than constructing a fresh handler, so every log line shares one
// output stream and level.
func NewLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// Component derives a child logger tagged with a component name, matching
// the teacher's NewEscalatingRouter / NewToolEmbeddingCache convention of
// threading a single named logger through a subsystem's constructors.
func Component(base *slog.Logger, name string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With("component", name)
}
