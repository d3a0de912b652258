// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingFor_KnownAndUnknownModel(t *testing.T) {
	known := PricingFor("claude-3-5-sonnet-20240620")
	assert.Greater(t, known.InputPerToken, 0.0)

	unknown := PricingFor("some-future-model")
	assert.Equal(t, defaultPricing, unknown)
}

func TestComputeCost_CachedTokensBilledAtLowerRate(t *testing.T) {
	model := "claude-3-5-sonnet-20240620"
	full := computeCost(model, 1000, 0, 0)
	halfCached := computeCost(model, 1000, 500, 0)
	assert.Less(t, halfCached, full)

	allCached := computeCost(model, 1000, 1000, 0)
	assert.Greater(t, allCached, 0.0)
	assert.Less(t, allCached, full)
}

func TestComputeCost_ClampsCachedTokensToInputTokens(t *testing.T) {
	model := "claude-3-5-sonnet-20240620"
	overclaimed := computeCost(model, 100, 500, 0)
	allCached := computeCost(model, 100, 100, 0)
	assert.Equal(t, allCached, overclaimed)
}

func TestClassifyError(t *testing.T) {
	cases := map[string]string{
		"context deadline exceeded":       "timeout",
		"provider returned 401":           "auth",
		"provider returned 429 too many":  "rate_limit",
		"provider returned 503 available": "server",
		"something entirely unexpected":   "unknown",
	}
	for msg, want := range cases {
		got := classifyError(errors.New(msg))
		assert.Equal(t, want, got, msg)
	}
	assert.Equal(t, "", classifyError(nil))

	var empty error = &EmptyResponseError{Model: "anthropic"}
	assert.Equal(t, "empty_response", classifyError(empty))
}

func TestFakeClient_ReplaysScriptThenRepeatsLast(t *testing.T) {
	client := NewFakeClient(
		ScriptedResponse{Response: Response{Text: "first"}},
		ScriptedResponse{Response: Response{Text: "second"}},
	)

	ctx := context.Background()
	r1, err := client.Call(ctx, Request{Model: "claude-3-5-haiku-20241022"})
	require.NoError(t, err)
	assert.Equal(t, "first", r1.Text)

	r2, err := client.Call(ctx, Request{Model: "claude-3-5-haiku-20241022"})
	require.NoError(t, err)
	assert.Equal(t, "second", r2.Text)

	r3, err := client.Call(ctx, Request{Model: "claude-3-5-haiku-20241022"})
	require.NoError(t, err)
	assert.Equal(t, "second", r3.Text)

	assert.Equal(t, 3, client.CallCount())
}

func TestFakeClient_RecordsRequests(t *testing.T) {
	client := NewFakeClient()
	_, _ = client.Call(context.Background(), Request{Model: "m", System: Message{Content: "sys"}})
	require.Len(t, client.Requests, 1)
	assert.Equal(t, "sys", client.Requests[0].System.Content)
}

func TestSessionCostTracker_Accumulates(t *testing.T) {
	tracker := NewSessionCostTracker()
	total := tracker.Add("s1", 0.01)
	assert.InDelta(t, 0.01, total, 1e-9)

	total = tracker.Add("s1", 0.02)
	assert.InDelta(t, 0.03, total, 1e-9)

	assert.InDelta(t, 0.0, tracker.Total("unknown-session"), 1e-9)
}

func TestToAnthropicTools_MarksRequiredParams(t *testing.T) {
	specs := []ToolSpec{
		{
			Name: "get_price",
			Parameters: map[string]ToolParam{
				"ticker": {Type: "string", Required: true},
				"limit":  {Type: "int", Required: false},
			},
		},
	}
	out := toAnthropicTools(specs)
	require.Len(t, out, 1)
	assert.Equal(t, "get_price", out[0].Name)
	assert.Contains(t, out[0].InputSchema.Required, "ticker")
	assert.NotContains(t, out[0].InputSchema.Required, "limit")
}

func TestToAnthropicMessages_FoldsToolRoleIntoUser(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleTool, Content: "result", ToolCallID: "t1"},
	}
	out := toAnthropicMessages(msgs)
	require.Len(t, out, 2)
	assert.Equal(t, "user", out[1].Role)
	assert.True(t, strings.Contains(out[1].Content, "result"))
}

func TestNewAnthropicClient_ErrorsWithoutAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewAnthropicClient()
	assert.Error(t, err)
}
