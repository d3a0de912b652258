// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm wraps a model provider behind a small, cost-accounting client.
// It never executes tool calls; it only reports them back to the caller.
package llm

import (
	"context"
	"sync"
)

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of conversation handed to the model.
type Message struct {
	Role Role
	// Content is the plain-text content of the message. For RoleTool,
	// Content carries the tool's result, serialized to a string.
	Content string
	// ToolCallID associates a RoleTool message with the ToolCall it answers.
	ToolCallID string
	// ToolName is set on RoleTool messages so the provider can attribute
	// the result to the right tool when that matters to the wire format.
	ToolName string
}

// ToolParam describes one named argument of a ToolSpec.
type ToolParam struct {
	Type        string
	Description string
	Required    bool
}

// ToolSpec is the JSON-shaped schema of a tool the model may call.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]ToolParam
}

// ToolCall is a single invocation the model asked the caller to perform.
// The client returns ToolCalls; it never executes them.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Request is the input to Client.Call.
type Request struct {
	System Message
	// MarkCacheable flags the leading system message as a candidate for
	// provider-side prompt-prefix caching.
	MarkCacheable bool
	Messages      []Message
	Model         string
	Temperature   float32
	Tools         []ToolSpec
	SessionID     string
}

// Response is the result of Client.Call.
type Response struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason string
	TokensIn   int
	TokensOut  int
	// CachedTokensIn is the portion of TokensIn served from a provider-side
	// prompt cache (billed at CachedInputPerToken rather than InputPerToken).
	CachedTokensIn int
	// CostUSD is computed deterministically from the returned token counts
	// and the Model's entry in the cost table; it is never provider-reported.
	CostUSD float64
}

// Client is the provider-agnostic surface the rest of the system depends on.
// Implementations must never raise on a model refusal or malformed tool
// call; those surface as a Response with empty Text/ToolCalls and a
// StopReason, or as an error only for transport-level failure.
type Client interface {
	Call(ctx context.Context, req Request) (Response, error)
}

// SessionCostTracker accumulates the CostUSD of every call made for a given
// session, so callers can enforce a per-session budget without threading a
// running total through every call site themselves.
//
// Thread Safety: Safe for concurrent use.
type SessionCostTracker struct {
	mu    sync.Mutex
	costs map[string]float64
}

// NewSessionCostTracker returns an empty tracker.
func NewSessionCostTracker() *SessionCostTracker {
	return &SessionCostTracker{costs: make(map[string]float64)}
}

// Add records cost against sessionID and returns the new running total.
func (t *SessionCostTracker) Add(sessionID string, cost float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.costs[sessionID] += cost
	return t.costs[sessionID]
}

// Total returns the running total for sessionID (0 if never recorded).
func (t *SessionCostTracker) Total(sessionID string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.costs[sessionID]
}
