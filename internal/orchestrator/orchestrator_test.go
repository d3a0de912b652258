// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeanStafford/entropy/internal/agent"
	"github.com/SeanStafford/entropy/internal/llm"
	"github.com/SeanStafford/entropy/internal/policy"
	"github.com/SeanStafford/entropy/internal/pool"
	"github.com/SeanStafford/entropy/internal/session"
	"github.com/SeanStafford/entropy/internal/toolbelt"
)

type stubTool struct {
	name   string
	result *toolbelt.Result
}

func (s stubTool) Name() string { return s.name }

func (s stubTool) Definition() toolbelt.ToolDefinition {
	return toolbelt.ToolDefinition{Name: s.name, Description: "stub", Parameters: map[string]toolbelt.ParamDef{}}
}

func (s stubTool) Execute(ctx context.Context, params map[string]any) *toolbelt.Result {
	return s.result
}

func newTestOrchestrator(t *testing.T, client llm.Client, workers int) *Orchestrator {
	t.Helper()
	tb := toolbelt.New(nil)
	tb.Register(stubTool{name: "search_news", result: &toolbelt.Result{Success: true, Output: "3 articles found about the stock"}})
	tb.Register(stubTool{name: "get_price", result: &toolbelt.Result{Success: true, Output: map[string]any{"price": 150.25}}})

	pol, err := policy.New(nil)
	require.NoError(t, err)

	return New(Config{
		Sessions:          session.New(),
		Policy:            pol,
		ToolBelt:          tb,
		Client:            client,
		Workers:           workers,
		ResultTTL:         time.Minute,
		SpecialistTimeout: 2 * time.Second,
	})
}

func TestProcessQuery_SimplePrice_GeneralistOnly(t *testing.T) {
	client := llm.NewFakeClient(llm.ScriptedResponse{Response: llm.Response{
		Text: "AAPL is trading around $150.25 today.", CostUSD: 0.002,
	}})
	o := newTestOrchestrator(t, client, 4)
	defer o.Shutdown()

	resp := o.ProcessQuery(context.Background(), "What is AAPL's current price?", "s1")

	assert.Equal(t, AgentTagGeneralist, resp.Agent)
	assert.InDelta(t, 0.002, resp.CostUSD, 1e-9)
	assert.Contains(t, resp.Response, "$")
	assert.False(t, resp.PrefetchActive)
	assert.Equal(t, "s1", resp.SessionID)
}

func TestProcessQuery_EmptySessionID_DefaultsToDefault(t *testing.T) {
	client := llm.NewFakeClient(llm.ScriptedResponse{Response: llm.Response{Text: "hello"}})
	o := newTestOrchestrator(t, client, 4)
	defer o.Shutdown()

	resp := o.ProcessQuery(context.Background(), "hi there", "")
	assert.Equal(t, "default", resp.SessionID)
}

func TestProcessQuery_TechnicalJargon_ImmediateMarketSpecialist(t *testing.T) {
	client := llm.NewFakeClient(llm.ScriptedResponse{Response: llm.Response{
		Text: "RSI at 65, MACD bullish crossover.", CostUSD: 0.01,
	}})
	o := newTestOrchestrator(t, client, 4)
	defer o.Shutdown()

	resp := o.ProcessQuery(context.Background(), "Show me AAPL's RSI and MACD", "s2")

	assert.Equal(t, AgentTagGeneralistMarket, resp.Agent)
	// anchor + specialist + synthesis, each billed at the scripted 0.01.
	assert.InDelta(t, 0.03, resp.CostUSD, 1e-9)
}

func TestProcessQuery_Dissatisfaction_RoutesToNewsWhenPriorTurnMentionedNews(t *testing.T) {
	client := llm.NewFakeClient(
		llm.ScriptedResponse{Response: llm.Response{ToolCalls: []llm.ToolCall{
			{ID: "t1", Name: "search_news", Arguments: map[string]any{"query": "NVDA"}},
		}}},
		llm.ScriptedResponse{Response: llm.Response{Text: "NVDA has had mixed coverage lately.", CostUSD: 0.005}},
	)
	o := newTestOrchestrator(t, client, 4)
	defer o.Shutdown()

	first := o.ProcessQuery(context.Background(), "Tell me about NVDA", "s3")
	require.Equal(t, AgentTagGeneralist, first.Agent)

	second := o.ProcessQuery(context.Background(), "That's not enough detail", "s3")
	assert.Equal(t, AgentTagGeneralistNews, second.Agent)
}

func TestProcessQuery_NoSpecialistSubmission_WhenGeneralistOnly(t *testing.T) {
	client := llm.NewFakeClient(llm.ScriptedResponse{Response: llm.Response{Text: "plain answer"}})
	o := newTestOrchestrator(t, client, 4)
	defer o.Shutdown()

	resp := o.ProcessQuery(context.Background(), "What is AAPL's current price?", "s4")
	require.Equal(t, AgentTagGeneralist, resp.Agent)
	assert.False(t, resp.PrefetchActive)

	fingerprint := pool.Fingerprint(agent.KindMarketSpecialist, o.taskFocusedBrief("s4", "What is AAPL's current price?", agent.KindMarketSpecialist), "s4")
	_, status := o.specialistPool.TryGetFingerprint(fingerprint)
	assert.Equal(t, pool.StatusExpired, status, "no fingerprint should ever have been submitted for a GeneralistOnly query")
}

// TestProcessQuery_PrefetchThenFollowUp exercises spec scenario 3: a
// "what moved" query schedules a pre-fetch, and a pronoun follow-up within
// TTL consumes the cached specialist result instead of submitting a new
// Task, at a lower cost than an uncached follow-up would pay.
func TestProcessQuery_PrefetchThenFollowUp(t *testing.T) {
	client := llm.NewFakeClient(
		llm.ScriptedResponse{Response: llm.Response{ToolCalls: []llm.ToolCall{
			{ID: "t1", Name: "search_news", Arguments: map[string]any{"query": "TSLA"}},
		}}},
		llm.ScriptedResponse{Response: llm.Response{Text: "TSLA moved on broad market volatility.", CostUSD: 0.01}},
	)
	o := newTestOrchestrator(t, client, 4)
	defer o.Shutdown()

	first := o.ProcessQuery(context.Background(), "What moved TSLA today?", "s5")
	require.Equal(t, AgentTagGeneralist, first.Agent)
	require.True(t, first.PrefetchActive)

	brief := o.taskFocusedBrief("s5", "What moved TSLA today?", agent.KindNewsSpecialist)
	fingerprint := pool.Fingerprint(agent.KindNewsSpecialist, brief, "s5")

	require.Eventually(t, func() bool {
		_, status := o.specialistPool.TryGetFingerprint(fingerprint)
		return status == pool.StatusReady
	}, 2*time.Second, 10*time.Millisecond, "pre-fetched specialist result never became ready")

	callsBefore := client.CallCount()
	second := o.ProcessQuery(context.Background(), "Why did it move?", "s5")
	callsAfter := client.CallCount()

	assert.Equal(t, AgentTagGeneralistNews, second.Agent)
	// Anchor + synthesis only: the cached pre-fetch result is consumed
	// without a fresh specialist submission.
	assert.Equal(t, 2, callsAfter-callsBefore)
	assert.InDelta(t, 0.02, second.CostUSD, 1e-9)
}

func TestProcessQuery_CostBudgetExceeded_DowngradesToGeneralist(t *testing.T) {
	client := llm.NewFakeClient(llm.ScriptedResponse{Response: llm.Response{
		Text: "RSI at 65, MACD bullish crossover.", CostUSD: 0.05,
	}})
	tb := toolbelt.New(nil)
	tb.Register(stubTool{name: "search_news", result: &toolbelt.Result{Success: true, Output: "3 articles found about the stock"}})
	tb.Register(stubTool{name: "get_price", result: &toolbelt.Result{Success: true, Output: map[string]any{"price": 150.25}}})
	pol, err := policy.New(nil)
	require.NoError(t, err)
	o := New(Config{
		Sessions:          session.New(),
		Policy:            pol,
		ToolBelt:          tb,
		Client:            client,
		Workers:           4,
		ResultTTL:         time.Minute,
		SpecialistTimeout: 2 * time.Second,
		CostBudgetUSD:     0.01,
	})
	defer o.Shutdown()

	o.sessions.AppendTurn("s7", session.Turn{Role: session.RoleAgent, Content: "prior turn", CostUSD: 0.02})

	resp := o.ProcessQuery(context.Background(), "Show me AAPL's RSI and MACD", "s7")

	assert.Equal(t, AgentTagGeneralist, resp.Agent)
	assert.Contains(t, resp.Response, "cost budget")
}

func TestProcessQuery_SpecialistTimeout_FallsBackToAnchor(t *testing.T) {
	release := make(chan struct{})
	client := &blockingFakeClient{release: release, resp: llm.Response{Text: "anchor-or-specialist text", CostUSD: 0.01}}

	o := newTestOrchestrator(t, client, 4)
	o.specialistTimeout = 20 * time.Millisecond
	defer func() {
		close(release)
		o.Shutdown()
	}()

	resp := o.ProcessQuery(context.Background(), "Show me AAPL's RSI and MACD", "s6")
	assert.Equal(t, AgentTagGeneralist, resp.Agent)
	assert.Contains(t, resp.Response, "unavailable")
}

// blockingFakeClient blocks every call made at temperature 0.2 or below
// (the market specialist's tier) until release is closed, simulating an
// artificially slow backend; the anchor and synthesis calls run at higher
// temperatures and return immediately, so the timeout path is exercised
// deterministically.
type blockingFakeClient struct {
	release <-chan struct{}
	resp    llm.Response
}

func (c *blockingFakeClient) Call(ctx context.Context, req llm.Request) (llm.Response, error) {
	if req.Temperature <= 0.2 { // only the market specialist runs at or below 0.2
		select {
		case <-c.release:
		case <-ctx.Done():
			return llm.Response{}, ctx.Err()
		}
	}
	return c.resp, nil
}
