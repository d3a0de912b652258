// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeanStafford/entropy/internal/llm"
	"github.com/SeanStafford/entropy/internal/market"
	"github.com/SeanStafford/entropy/internal/toolbelt"
)

func seededToolBelt(t *testing.T) *toolbelt.ToolBelt {
	t.Helper()
	src := market.NewFakeQuoteSource()
	src.SeedPrice("AAPL", market.PriceSnapshot{Ticker: "AAPL"})
	tools := market.NewMarketDataTools(src, nil)

	tb := toolbelt.New(nil)
	tb.Register(toolbelt.NewGetPriceTool(tools))
	return tb
}

func TestAgent_Run_ReturnsTextWithNoToolCalls(t *testing.T) {
	client := llm.NewFakeClient(llm.ScriptedResponse{Response: llm.Response{Text: "AAPL is up today."}})
	a := New(GeneralistConfig(), client, seededToolBelt(t), nil)

	result := a.Run(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "how's AAPL?"}}, "s1")

	assert.Equal(t, "AAPL is up today.", result.Text)
	assert.False(t, result.StepBudgetExceeded)
	require.Len(t, result.Turns, 1)
}

func TestAgent_Run_ExecutesToolCallThenReturnsFinalText(t *testing.T) {
	client := llm.NewFakeClient(
		llm.ScriptedResponse{Response: llm.Response{ToolCalls: []llm.ToolCall{{ID: "t1", Name: "get_price", Arguments: map[string]any{"ticker": "AAPL"}}}}},
		llm.ScriptedResponse{Response: llm.Response{Text: "AAPL trades at the quoted price."}},
	)
	a := New(GeneralistConfig(), client, seededToolBelt(t), nil)

	result := a.Run(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "price of AAPL?"}}, "s1")

	assert.Equal(t, "AAPL trades at the quoted price.", result.Text)
	require.Len(t, result.Turns, 2)
	assert.Equal(t, TurnRoleTool, result.Turns[0].Role)
	assert.Equal(t, "get_price", result.Turns[0].Tool.ToolName)
	assert.True(t, result.Turns[0].Tool.Success)
	assert.Equal(t, TurnRoleAgent, result.Turns[1].Role)
	assert.Equal(t, 2, client.CallCount())
}

func TestAgent_Run_StepBudgetExceeded(t *testing.T) {
	script := make([]llm.ScriptedResponse, 0, maxSteps)
	for i := 0; i < maxSteps; i++ {
		script = append(script, llm.ScriptedResponse{Response: llm.Response{
			ToolCalls: []llm.ToolCall{{ID: "t", Name: "get_price", Arguments: map[string]any{"ticker": "AAPL"}}},
		}})
	}
	client := llm.NewFakeClient(script...)
	a := New(GeneralistConfig(), client, seededToolBelt(t), nil)

	result := a.Run(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "price of AAPL?"}}, "s1")

	assert.True(t, result.StepBudgetExceeded)
	assert.Equal(t, "step budget exceeded", result.Turns[len(result.Turns)-1].Content)
	assert.Equal(t, maxSteps, client.CallCount())
}

func TestAgent_Run_LLMErrorReturnsGracefulText(t *testing.T) {
	client := llm.NewFakeClient(llm.ScriptedResponse{Err: assertError{}})
	a := New(GeneralistConfig(), client, seededToolBelt(t), nil)

	result := a.Run(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hello"}}, "s1")

	assert.NotEmpty(t, result.Text)
	assert.False(t, result.StepBudgetExceeded)
}

func TestConfigFor_AllKinds(t *testing.T) {
	assert.Equal(t, KindGeneralist, ConfigFor(KindGeneralist).Kind)
	assert.Equal(t, KindMarketSpecialist, ConfigFor(KindMarketSpecialist).Kind)
	assert.Equal(t, KindNewsSpecialist, ConfigFor(KindNewsSpecialist).Kind)
}

type assertError struct{}

func (assertError) Error() string { return "simulated transport failure" }
