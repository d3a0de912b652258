// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeanStafford/entropy/internal/agent"
	"github.com/SeanStafford/entropy/internal/session"
)

func newTestPolicy(t *testing.T) *DecisionPolicy {
	t.Helper()
	p, err := New(nil)
	require.NoError(t, err)
	return p
}

func TestClassify_TechnicalJargon(t *testing.T) {
	p := newTestPolicy(t)
	d := p.Classify("what's the RSI on NVDA?", session.Profile{})
	assert.Equal(t, TypeImmediateSpecialist, d.Type)
	assert.Equal(t, agent.KindMarketSpecialist, d.Kind)
}

func TestClassify_DepthRequest_NewsWhenLastMentionedNews(t *testing.T) {
	p := newTestPolicy(t)
	d := p.Classify("give me a comprehensive report on AAPL", session.Profile{LastResponseMentionedNews: true})
	assert.Equal(t, TypeImmediateSpecialist, d.Type)
	assert.Equal(t, agent.KindNewsSpecialist, d.Kind)
}

func TestClassify_DepthRequest_MarketWhenLastDidNotMentionNews(t *testing.T) {
	p := newTestPolicy(t)
	d := p.Classify("in depth analysis please", session.Profile{LastResponseMentionedNews: false})
	assert.Equal(t, agent.KindMarketSpecialist, d.Kind)
}

func TestClassify_DissatisfactionFollowUp_RequiresPriorQuery(t *testing.T) {
	p := newTestPolicy(t)
	d := p.Classify("tell me more", session.Profile{QueryCount: 0})
	assert.Equal(t, TypeGeneralistOnly, d.Type, "no prior query means this cannot be a follow-up")

	d = p.Classify("tell me more", session.Profile{QueryCount: 1, LastResponseMentionedNews: true})
	assert.Equal(t, TypeImmediateSpecialist, d.Type)
	assert.Equal(t, agent.KindNewsSpecialist, d.Kind)
}

func TestClassify_PowerUserAnalytical(t *testing.T) {
	p := newTestPolicy(t)
	d := p.Classify("compare AAPL versus MSFT performance", session.Profile{QueryCount: 10})
	assert.Equal(t, TypeImmediateSpecialist, d.Type)
	assert.Equal(t, agent.KindMarketSpecialist, d.Kind)

	d = p.Classify("compare AAPL versus MSFT performance", session.Profile{QueryCount: 9})
	assert.NotEqual(t, TypeImmediateSpecialist, d.Type, "below the query-count threshold this must not fire")
}

func TestClassify_WhatMovedTicker_Prefetch(t *testing.T) {
	p := newTestPolicy(t)
	d := p.Classify("what moved NVDA today", session.Profile{})
	assert.Equal(t, TypeGeneralistThenPrefetch, d.Type)
	assert.Equal(t, agent.KindNewsSpecialist, d.Kind)
	assert.GreaterOrEqual(t, d.Confidence, 0.80)
}

func TestClassify_WhatMovedWithoutTicker_DoesNotFire(t *testing.T) {
	p := newTestPolicy(t)
	d := p.Classify("what moved the market today", session.Profile{})
	assert.NotEqual(t, "prefetch_what_moved", d.Label)
}

func TestClassify_TwoConsecutiveFollowUps_Prefetch(t *testing.T) {
	p := newTestPolicy(t)
	profile := session.Profile{LastClassifications: []string{"immediate_depth_market", "immediate_dissatisfaction_news"}}
	d := p.Classify("something unrelated and plain", profile)
	assert.Equal(t, TypeGeneralistThenPrefetch, d.Type)
	assert.Equal(t, agent.KindMarketSpecialist, d.Kind)
}

func TestClassify_PowerUserNewsMention_Prefetch(t *testing.T) {
	p := newTestPolicy(t)
	d := p.Classify("any news on TSLA", session.Profile{QueryCount: 12})
	assert.Equal(t, TypeGeneralistThenPrefetch, d.Type)
	assert.Equal(t, agent.KindNewsSpecialist, d.Kind)
}

func TestClassify_DefaultsToGeneralistOnly(t *testing.T) {
	p := newTestPolicy(t)
	d := p.Classify("how is the market doing", session.Profile{})
	assert.Equal(t, TypeGeneralistOnly, d.Type)
}

func TestClassify_Deterministic(t *testing.T) {
	p := newTestPolicy(t)
	profile := session.Profile{QueryCount: 3, LastResponseMentionedNews: true}
	first := p.Classify("what's the MACD on AAPL", profile)
	for i := 0; i < 20; i++ {
		again := p.Classify("what's the MACD on AAPL", profile)
		assert.Equal(t, first, again)
	}
}

func TestClassify_RuleOrder_JargonBeatsDepthRequest(t *testing.T) {
	p := newTestPolicy(t)
	// Contains both a jargon term (rsi) and a depth-request phrase; rule 1
	// must win since it is evaluated first.
	d := p.Classify("give me a comprehensive report on the RSI for AAPL", session.Profile{LastResponseMentionedNews: true})
	assert.Equal(t, "immediate_jargon_market", d.Label)
}
