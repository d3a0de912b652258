// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator wires DecisionPolicy, the agent pool, SessionStore,
// and the SpecialistPool into the single end-to-end query flow described
// by ProcessQuery: classify, run the generalist, optionally await and
// synthesize a specialist, optionally pre-fetch, then record the turn.
package orchestrator

import (
	"log/slog"
	"time"

	"github.com/SeanStafford/entropy/internal/llm"
	"github.com/SeanStafford/entropy/internal/policy"
	"github.com/SeanStafford/entropy/internal/pool"
	"github.com/SeanStafford/entropy/internal/session"
	"github.com/SeanStafford/entropy/internal/toolbelt"
)

// DefaultSpecialistTimeout is T_SPEC: how long ProcessQuery waits on an
// immediate specialist Future before falling back to the anchor answer.
const DefaultSpecialistTimeout = 30 * time.Second

// Config wires an Orchestrator's dependencies and tunables at construction.
// Sessions, Policy, ToolBelt, and Client are required; the rest default.
type Config struct {
	Sessions *session.Store
	Policy   *policy.DecisionPolicy
	ToolBelt *toolbelt.ToolBelt
	Client   llm.Client
	Logger   *slog.Logger

	// Workers sizes the SpecialistPool (default pool.DefaultWorkers).
	// Per the open question on single-worker pre-fetch: when Workers == 1,
	// pre-fetch submissions are disabled so an immediate specialist never
	// waits behind a speculative one.
	Workers int
	// ResultTTL bounds how long a SpecialistResult is servable from cache
	// (default pool.DefaultResultTTL).
	ResultTTL time.Duration
	// SpecialistTimeout is T_SPEC (default DefaultSpecialistTimeout).
	SpecialistTimeout time.Duration

	// CostBudgetUSD, when > 0, caps a session's cumulative cost before
	// ImmediateSpecialist decisions are downgraded to GeneralistOnly. The
	// generalist still answers; only the specialist escalation is skipped.
	// 0 disables the guard.
	CostBudgetUSD float64
}

// AgentTag is the value surfaced to callers describing which agents
// contributed to a response.
type AgentTag string

const (
	AgentTagGeneralist       AgentTag = "generalist"
	AgentTagGeneralistMarket AgentTag = "generalist+market_data"
	AgentTagGeneralistNews   AgentTag = "generalist+news"
)

// Response is what ProcessQuery returns, matching the HTTP /chat contract.
type Response struct {
	Response       string   `json:"response"`
	CostUSD        float64  `json:"cost_usd"`
	Agent          AgentTag `json:"agent"`
	SessionID      string   `json:"session_id"`
	PrefetchActive bool     `json:"prefetch_active"`
}
