// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package toolbelt is the uniform tool façade presented to agents: a
// registry of named, JSON-shaped operations over the retrieval engine and
// market-data layer. The ToolBelt is stateless beyond the underlying
// indexes and data source; it is shared across every agent kind.
package toolbelt

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ParamType enumerates the JSON-shaped argument types a tool accepts.
type ParamType string

const (
	ParamTypeString ParamType = "string"
	ParamTypeInt    ParamType = "int"
	ParamTypeArray  ParamType = "array"
)

// ParamDef describes one named argument of a tool.
type ParamDef struct {
	Type        ParamType
	Description string
	Required    bool
	Default     any
}

// ToolDefinition is the schema an Agent uses to decide when and how to call
// a tool. It is sent to the LLM provider as part of the tool-use protocol.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]ParamDef
}

// Result is the outcome of executing a tool. Tools never raise: an
// unsuccessful lookup (absent data, invalid argument) is reported via
// Success=false and a human-readable Error, not a Go error return.
type Result struct {
	Success  bool
	Output   any
	Error    string
	Duration time.Duration
}

// Tool is one named, schema-described operation exposed to agents.
type Tool interface {
	Name() string
	Definition() ToolDefinition
	Execute(ctx context.Context, params map[string]any) *Result
}

// boundaryTools names the tools whose entry/exit is additionally logged
// with a boundary marker, for diagnostic tracing of the agent/tool edge.
var boundaryTools = map[string]bool{
	"search_news": true,
	"get_price":   true,
}

// ToolBelt is the registry of tools available to an agent. It is safe to
// share a single ToolBelt across all agent kinds; each agent kind simply
// uses a subset of the registered names (see internal/agent).
type ToolBelt struct {
	tools  map[string]Tool
	logger *slog.Logger
}

// New returns an empty ToolBelt. Use Register to add tools.
func New(logger *slog.Logger) *ToolBelt {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToolBelt{tools: make(map[string]Tool), logger: logger.With("component", "toolbelt")}
}

// Register adds t to the belt, keyed by its Name(). Registering a tool
// under a name that already exists replaces the prior registration.
func (tb *ToolBelt) Register(t Tool) {
	tb.tools[t.Name()] = t
}

// Definitions returns the ToolDefinition for every tool whose name appears
// in names, in the given order. Unknown names are silently skipped.
func (tb *ToolBelt) Definitions(names []string) []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(names))
	for _, name := range names {
		if t, ok := tb.tools[name]; ok {
			defs = append(defs, t.Definition())
		}
	}
	return defs
}

// Execute runs the named tool with params. If name is not registered,
// returns an unsuccessful Result rather than an error — consistent with the
// tool contract that failures are reported, not raised.
func (tb *ToolBelt) Execute(ctx context.Context, name string, params map[string]any) *Result {
	start := time.Now()

	t, ok := tb.tools[name]
	if !ok {
		return &Result{Success: false, Error: fmt.Sprintf("unknown tool %q", name), Duration: time.Since(start)}
	}

	marked := boundaryTools[name]
	if marked {
		tb.logger.Info("[BOUNDARY: Agent→ToolBelt]", "tool", name)
	}

	result := t.Execute(ctx, params)
	result.Duration = time.Since(start)

	if marked {
		tb.logger.Info("[BOUNDARY: ToolBelt→Agent]", "tool", name, "success", result.Success, "duration", result.Duration)
	}

	return result
}

// parseStringParam extracts a string argument from a raw JSON-decoded value.
func parseStringParam(raw any) (string, bool) {
	s, ok := raw.(string)
	return s, ok
}

// parseIntParam extracts an integer argument, accepting both int and
// float64 (JSON numbers decode to float64 by default).
func parseIntParam(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// parseStringArrayParam extracts a []string argument from a raw JSON-decoded
// value (a []any of strings).
func parseStringArrayParam(raw any) ([]string, bool) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
