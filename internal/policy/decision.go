// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package policy classifies a query against the session's rolling profile
// into a routing Decision, deciding whether a query needs nothing beyond
// the cheap generalist, an immediate specialist, or a speculative
// background pre-fetch. Classify is a pure function of its inputs.
package policy

import (
	"sync/atomic"

	"github.com/SeanStafford/entropy/internal/agent"
	"github.com/SeanStafford/entropy/internal/session"
)

// Type names the shape of a Decision.
type Type string

const (
	TypeGeneralistOnly         Type = "generalist_only"
	TypeImmediateSpecialist    Type = "immediate_specialist"
	TypeGeneralistThenPrefetch Type = "generalist_then_prefetch"
)

// Decision is the outcome of DecisionPolicy.Classify.
type Decision struct {
	Type Type
	// Kind is set for TypeImmediateSpecialist and TypeGeneralistThenPrefetch.
	Kind agent.Kind
	// Confidence is set for TypeGeneralistThenPrefetch; only decisions with
	// confidence ≥ the configured threshold schedule background work.
	Confidence float64
	// Label is an opaque classification tag recorded in the session's
	// rolling profile, consulted by rule 6 to detect a run of follow-ups.
	Label string
}

// followUpLabels are the Decision.Label values rule 6 treats as
// "classified as a follow-up" for the purpose of spotting a pattern of
// two consecutive follow-up queries.
var followUpLabels = map[string]bool{
	"immediate_depth_news":             true,
	"immediate_depth_market":           true,
	"immediate_dissatisfaction_news":   true,
	"immediate_dissatisfaction_market": true,
}

// DecisionPolicy evaluates the ordered rule table against a query and a
// session's current state. patterns is stored behind an atomic.Pointer so
// WatchPatternsFile can hot-swap the rule table while Classify is being
// called concurrently from other sessions' requests.
type DecisionPolicy struct {
	patterns atomic.Pointer[PatternConfig]
}

// New constructs a DecisionPolicy over the given PatternConfig. Pass nil
// to use DefaultPatterns().
func New(patterns *PatternConfig) (*DecisionPolicy, error) {
	if patterns == nil {
		p, err := DefaultPatterns()
		if err != nil {
			return nil, err
		}
		patterns = p
	}
	d := &DecisionPolicy{}
	d.patterns.Store(patterns)
	return d, nil
}

// SetPatterns atomically replaces the rule table in-flight Classify calls
// observe. Used by WatchPatternsFile to apply a reloaded PatternConfig
// without disrupting requests already in progress.
func (d *DecisionPolicy) SetPatterns(patterns *PatternConfig) {
	d.patterns.Store(patterns)
}

// Classify evaluates the ordered rule table against query and profile,
// returning the first matching Decision. Classify never mutates profile.
func (d *DecisionPolicy) Classify(query string, profile session.Profile) Decision {
	p := d.patterns.Load()

	// Rule 1: technical jargon → immediate market specialist.
	if p.matchesTechnicalJargon(query) {
		return Decision{Type: TypeImmediateSpecialist, Kind: agent.KindMarketSpecialist, Label: "immediate_jargon_market"}
	}

	// Rule 2: explicit depth request → specialist matching the last topic.
	if p.matchesDepthRequest(query) {
		kind := agent.KindMarketSpecialist
		label := "immediate_depth_market"
		if profile.LastResponseMentionedNews {
			kind = agent.KindNewsSpecialist
			label = "immediate_depth_news"
		}
		return Decision{Type: TypeImmediateSpecialist, Kind: kind, Label: label}
	}

	// Rule 3: dissatisfaction follow-up → specialist matching the prior topic.
	if profile.QueryCount > 0 && p.matchesDissatisfaction(query) {
		kind := agent.KindMarketSpecialist
		label := "immediate_dissatisfaction_market"
		if profile.LastResponseMentionedNews {
			kind = agent.KindNewsSpecialist
			label = "immediate_dissatisfaction_news"
		}
		return Decision{Type: TypeImmediateSpecialist, Kind: kind, Label: label}
	}

	// Rule 4: power-user analytical query → immediate market specialist.
	if profile.QueryCount >= p.PowerUserQueryCountThresh && p.matchesAnalytical(query) {
		return Decision{Type: TypeImmediateSpecialist, Kind: agent.KindMarketSpecialist, Label: "immediate_power_user"}
	}

	// Rule 5: "what moved X" → pre-fetch a news specialist.
	if p.matchesWhatMovedWithTicker(query) {
		return Decision{Type: TypeGeneralistThenPrefetch, Kind: agent.KindNewsSpecialist, Confidence: 0.85, Label: "prefetch_what_moved"}
	}

	// Rule 6: two consecutive follow-ups → pre-fetch a market specialist.
	if lastTwoAreFollowUps(profile.LastClassifications) {
		return Decision{Type: TypeGeneralistThenPrefetch, Kind: agent.KindMarketSpecialist, Confidence: 0.80, Label: "prefetch_followup"}
	}

	// Rule 7: power user asking about news → pre-fetch a news specialist.
	if profile.QueryCount >= p.PowerUserQueryCountThresh && p.matchesNewsMention(query) {
		return Decision{Type: TypeGeneralistThenPrefetch, Kind: agent.KindNewsSpecialist, Confidence: 0.80, Label: "prefetch_power_user_news"}
	}

	// Rule 8: otherwise, generalist only.
	return Decision{Type: TypeGeneralistOnly, Label: "generalist_only"}
}

// PrefetchConfidenceThreshold returns the minimum Decision.Confidence a
// GeneralistThenPrefetch decision needs before the Orchestrator actually
// schedules background work.
func (d *DecisionPolicy) PrefetchConfidenceThreshold() float64 {
	return d.patterns.Load().PrefetchConfidenceThreshold
}

func lastTwoAreFollowUps(labels []string) bool {
	if len(labels) < 2 {
		return false
	}
	lastTwo := labels[len(labels)-2:]
	return followUpLabels[lastTwo[0]] && followUpLabels[lastTwo[1]]
}
