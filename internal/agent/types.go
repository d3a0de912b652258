// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agent implements the tool-using LLM loop shared by all agent
// kinds (Generalist, MarketSpecialist, NewsSpecialist); the kinds differ
// only in the Config they're constructed with.
package agent

import "time"

// Kind names one of the three agent configurations.
type Kind string

const (
	KindGeneralist       Kind = "generalist"
	KindMarketSpecialist Kind = "market_specialist"
	KindNewsSpecialist   Kind = "news_specialist"
)

// maxSteps bounds the number of tool-call rounds a single Run performs.
const maxSteps = 6

// Config configures one agent kind: its model tier, sampling temperature,
// the tool names it may call, and whether its system prompt is eligible
// for prompt-prefix caching.
type Config struct {
	Kind            Kind
	Model           string
	Temperature     float32
	SystemPrompt    string
	CacheSystem     bool
	ToolNames       []string
	ContextMaxTurns int // 0 means unbounded (full session history)
}

// Result is what Run returns: the synthesized text, the running cost, and
// the turns produced along the way (for appending to the session log).
type Result struct {
	Text      string
	CostUSD   float64
	TokensIn  int
	TokensOut int
	Turns     []Turn
	// StepBudgetExceeded is true when the loop hit maxSteps without the
	// model returning a final answer.
	StepBudgetExceeded bool
}

// TurnRole mirrors llm.Role for the subset relevant to a produced Turn.
type TurnRole string

const (
	TurnRoleAgent TurnRole = "agent"
	TurnRoleTool  TurnRole = "tool"
)

// ToolRecord is the structured content of a tool Turn.
type ToolRecord struct {
	ToolName  string
	Arguments map[string]any
	Result    any
	Success   bool
	Error     string
}

// Turn is one unit of agent-produced conversation, append-only once
// emitted. It is a narrower sibling of session.Turn, produced by the
// agent loop and translated by the orchestrator into the session log.
type Turn struct {
	Role      TurnRole
	Content   string
	Tool      *ToolRecord
	Timestamp time.Time
	CostUSD   float64
	TokensIn  int
	TokensOut int
}
