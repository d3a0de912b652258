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
	"encoding/json"
	"log/slog"

	"github.com/SeanStafford/entropy/internal/llm"
	"github.com/SeanStafford/entropy/internal/toolbelt"
)

// Agent runs the tool-using loop for one Config against a shared LLMClient
// and ToolBelt. Agents are stateless beyond their Config; all per-call
// state lives in the Run arguments.
type Agent struct {
	cfg      Config
	client   llm.Client
	toolBelt *toolbelt.ToolBelt
	logger   *slog.Logger
}

// New constructs an Agent. logger may be nil, in which case logging is a
// no-op (slog.Default() is not substituted so tests stay silent).
func New(cfg Config, client llm.Client, toolBelt *toolbelt.ToolBelt, logger *slog.Logger) *Agent {
	return &Agent{cfg: cfg, client: client, toolBelt: toolBelt, logger: logger}
}

func (a *Agent) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Run executes the loop:
//  1. Call the LLM.
//  2. If the response carries tool calls, execute each via the ToolBelt,
//     append a tool turn per call, and go to 1.
//  3. Else return the final text and accumulated cost.
//
// At most maxSteps tool rounds are permitted; exceeding the budget appends
// a synthetic "step budget exceeded" turn and returns the last text seen.
func (a *Agent) Run(ctx context.Context, history []llm.Message, sessionID string) Result {
	toolDefs := a.toolDefinitions()
	messages := append([]llm.Message(nil), history...)

	var result Result
	var lastText string

	for step := 0; step < maxSteps; step++ {
		resp, err := a.client.Call(ctx, llm.Request{
			System:        llm.Message{Role: llm.RoleSystem, Content: a.cfg.SystemPrompt},
			MarkCacheable: a.cfg.CacheSystem,
			Messages:      messages,
			Model:         a.cfg.Model,
			Temperature:   a.cfg.Temperature,
			Tools:         toolDefs,
			SessionID:     sessionID,
		})
		if err != nil {
			a.log().Warn("agent: llm call failed", "kind", a.cfg.Kind, "error", err)
			result.Turns = append(result.Turns, Turn{Role: TurnRoleAgent, Content: "the model backend is unavailable"})
			result.Text = "the model backend is unavailable"
			return result
		}

		result.CostUSD += resp.CostUSD
		result.TokensIn += resp.TokensIn
		result.TokensOut += resp.TokensOut

		if resp.Text != "" {
			lastText = resp.Text
		}

		if len(resp.ToolCalls) == 0 {
			result.Text = resp.Text
			result.Turns = append(result.Turns, Turn{Role: TurnRoleAgent, Content: resp.Text, CostUSD: resp.CostUSD, TokensIn: resp.TokensIn, TokensOut: resp.TokensOut})
			return result
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Text})

		for _, call := range resp.ToolCalls {
			toolResult := a.toolBelt.Execute(ctx, call.Name, call.Arguments)
			record := ToolRecord{ToolName: call.Name, Arguments: call.Arguments, Result: toolResult.Output, Success: toolResult.Success, Error: toolResult.Error}
			result.Turns = append(result.Turns, Turn{Role: TurnRoleTool, Tool: &record})

			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    encodeToolResult(toolResult),
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
	}

	result.StepBudgetExceeded = true
	result.Text = lastText
	result.Turns = append(result.Turns, Turn{Role: TurnRoleAgent, Content: "step budget exceeded"})
	return result
}

func (a *Agent) toolDefinitions() []llm.ToolSpec {
	defs := a.toolBelt.Definitions(a.cfg.ToolNames)
	out := make([]llm.ToolSpec, 0, len(defs))
	for _, d := range defs {
		out = append(out, toLLMToolSpec(d))
	}
	return out
}

func toLLMToolSpec(def toolbelt.ToolDefinition) llm.ToolSpec {
	params := make(map[string]llm.ToolParam, len(def.Parameters))
	for name, p := range def.Parameters {
		params[name] = llm.ToolParam{Type: string(p.Type), Description: p.Description, Required: p.Required}
	}
	return llm.ToolSpec{Name: def.Name, Description: def.Description, Parameters: params}
}

func encodeToolResult(r *toolbelt.Result) string {
	if r == nil {
		return `{"success":false,"error":"no result"}`
	}
	if !r.Success {
		raw, _ := json.Marshal(map[string]any{"success": false, "error": r.Error})
		return string(raw)
	}
	raw, err := json.Marshal(map[string]any{"success": true, "output": r.Output})
	if err != nil {
		return `{"success":false,"error":"result not serializable"}`
	}
	return string(raw)
}
