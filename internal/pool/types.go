// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pool implements the bounded-worker SpecialistPool: a parallel
// executor for specialist Tasks with fingerprint-keyed coalescing and a
// TTL-bound result cache, so a predicted follow-up can be served from a
// pre-fetched result instead of paying for a second specialist run.
package pool

import (
	"time"

	"github.com/SeanStafford/entropy/internal/agent"
	"github.com/SeanStafford/entropy/internal/llm"
)

// Task is the input to a specialist run.
type Task struct {
	Kind agent.Kind
	// FocusedBrief is the synthesized question the specialist should
	// answer, distinct from the raw user query.
	FocusedBrief string
	// ContextWindow is the last ≤3 turns of conversation, converted to
	// llm.Message, that ground the specialist's reply.
	ContextWindow []llm.Message
	SessionID     string
	// ID uniquely identifies this submission for log correlation, distinct
	// from TaskFingerprint: two coalesced submissions of the "same" Task
	// share a fingerprint but each carries its own ID.
	ID string
}

// SpecialistResult is what a completed Task produces.
type SpecialistResult struct {
	Kind            agent.Kind
	Content         string
	CostUSD         float64
	CreatedAt       time.Time
	TaskFingerprint string
	// TaskID is the ID of the Task submission that actually produced this
	// result (the one the pool executed, not necessarily the caller's own
	// submission when served from cache or coalesced in-flight).
	TaskID string
}

// Status describes a Future's state to TryGet/Await callers.
type Status int

const (
	StatusPending Status = iota
	StatusReady
	StatusExpired
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusExpired:
		return "expired"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}
