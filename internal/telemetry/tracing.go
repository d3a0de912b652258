// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Tracer names reserved for the orchestrator, decision, pool, retrieval and
// LLM packages. None of those packages starts spans under them; the only span
// the service starts is the readiness guard's, under "entropy.httpapi".
const (
	TracerOrchestrator = "entropy.orchestrator"
	TracerDecision     = "entropy.routing.decision"
	TracerPool         = "entropy.pool"
	TracerRetrieval    = "entropy.retrieval.hybrid"
	TracerLLM          = "entropy.llm"
)

// TracerProviderConfig controls InitTracerProvider.
type TracerProviderConfig struct {
	// ServiceName tags every span's resource attributes.
	ServiceName string
	// Writer receives the exported spans; nil discards them. Production
	// wiring swaps this stdout exporter for an OTLP one without touching
	// any call site, since every component only ever calls otel.Tracer(name).
	Writer io.Writer
}

// InitTracerProvider installs a global TracerProvider exporting spans as
// pretty-printed JSON to cfg.Writer, and a W3C TraceContext + Baggage
// propagator so trace context survives across the HTTP facade. A nil Writer
// installs nothing and returns a no-op shutdown. Returns a shutdown func the
// caller should defer.
func InitTracerProvider(ctx context.Context, cfg TracerProviderConfig) (func(context.Context) error, error) {
	if cfg.Writer == nil {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(cfg.Writer))
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Tracer is a thin convenience wrapper around otel.Tracer(name), so a call
// site can write telemetry.Tracer(TracerPool) instead of importing otel.
func Tracer(name string) oteltrace.Tracer {
	return otel.Tracer(name)
}
