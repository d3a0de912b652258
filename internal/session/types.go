// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session holds the per-session conversation log and rolling user
// profile that the DecisionPolicy and Orchestrator both read.
package session

import "time"

// Role identifies the speaker of a Turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleTool  Role = "tool"
)

// ToolContent is the structured content of a RoleTool turn.
type ToolContent struct {
	ToolName  string
	Arguments map[string]any
	Result    any
}

// Turn is one append-only entry in a Session's log.
type Turn struct {
	Role      Role
	Content   string
	Tool      *ToolContent
	Timestamp time.Time
	CostUSD   float64
	TokensIn  int
	TokensOut int
}

// briefResponseTokenThreshold is the token count below which a generalist
// response is classified "brief" in the rolling profile.
const briefResponseTokenThreshold = 60

// Profile aggregates rolling, decision-relevant statistics about a
// session that are cheaper to keep current than to recompute from the
// full turn log on every query.
type Profile struct {
	QueryCount int
	// LastClassifications holds up to lastNClassifications most recent
	// DecisionPolicy outcomes, oldest first, as opaque labels (e.g.
	// "generalist_only", "immediate_jargon_market", "prefetch_followup").
	LastClassifications []string
	LastResponseBrief   bool
	// LastResponseMentionedNews is true when the most recent generalist
	// turn invoked search_news, used by DecisionPolicy rule 3 to route a
	// dissatisfaction follow-up to the right specialist kind.
	LastResponseMentionedNews bool
	PreviousTurnDissatisfied  bool
}

const lastNClassifications = 5

// pushClassification appends label, keeping only the most recent
// lastNClassifications entries.
func (p *Profile) pushClassification(label string) {
	p.LastClassifications = append(p.LastClassifications, label)
	if len(p.LastClassifications) > lastNClassifications {
		p.LastClassifications = p.LastClassifications[len(p.LastClassifications)-lastNClassifications:]
	}
}

// Session is a single conversation: an append-only Turn log plus a rolling
// Profile. Turns are strictly monotonic in Timestamp.
type Session struct {
	ID      string
	Turns   []Turn
	Profile Profile
}
