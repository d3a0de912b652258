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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// cacheableMinLength is the minimum system-prompt length, in characters,
// below which prompt-prefix caching is not worth the cache-write surcharge
// the provider charges on the first call.
const cacheableMinLength = 1024

const defaultBaseURL = "https://api.anthropic.com/v1/messages"
const anthropicVersion = "2023-06-01"

// AnthropicClient is a minimal, dependency-free HTTP client for the
// Anthropic Messages API. It speaks raw JSON rather than an SDK so the
// wire shape stays visible and so prompt-prefix cache_control blocks can
// be attached exactly where needed.
type AnthropicClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewAnthropicClient reads ANTHROPIC_API_KEY (falling back to LLM_API_KEY)
// from the environment. It returns an error rather than panicking so callers
// (cmd/entropy) can exit cleanly with a useful message when the key is absent.
func NewAnthropicClient() (*AnthropicClient, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		key = os.Getenv("LLM_API_KEY")
	}
	if key == "" {
		return nil, errors.New("llm: ANTHROPIC_API_KEY (or LLM_API_KEY) is not set")
	}
	return &AnthropicClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     key,
		baseURL:    defaultBaseURL,
	}, nil
}

type cacheControl struct {
	Type string `json:"type"`
}

type systemBlock struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	CacheControl *cacheControl `json:"cache_control,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicToolParamSchema struct {
	Type       string                       `json:"type"`
	Properties map[string]anthropicToolProp `json:"properties"`
	Required   []string                     `json:"required,omitempty"`
}

type anthropicToolProp struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type anthropicToolDef struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	InputSchema anthropicToolParamSchema `json:"input_schema"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      []systemBlock      `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature"`
	Tools       []anthropicToolDef `json:"tools,omitempty"`
}

type anthropicContentBlock struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

type anthropicUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
}

type anthropicResponse struct {
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
	Error      *anthropicAPIError      `json:"error,omitempty"`
}

type anthropicAPIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// defaultMaxTokens bounds the response when the caller doesn't otherwise
// constrain it; the agent loop's step budget is the real backstop.
const defaultMaxTokens = 4096

// Call implements Client for the Anthropic Messages API.
func (c *AnthropicClient) Call(ctx context.Context, req Request) (Response, error) {
	const provider = "anthropic"
	incActiveRequests(provider)
	defer decActiveRequests(provider)
	start := time.Now()

	body := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   defaultMaxTokens,
		Temperature: req.Temperature,
		Messages:    toAnthropicMessages(req.Messages),
		Tools:       toAnthropicTools(req.Tools),
	}
	if req.System.Content != "" {
		block := systemBlock{Type: "text", Text: req.System.Content}
		if req.MarkCacheable && len(req.System.Content) >= cacheableMinLength {
			block.CacheControl = &cacheControl{Type: "ephemeral"}
		}
		body.System = []systemBlock{block}
	}

	resp, err := c.doRequest(ctx, body)
	duration := time.Since(start)
	if err != nil {
		recordCallMetrics(provider, req.Model, duration, Response{}, err)
		return Response{}, err
	}

	out := Response{
		StopReason:     resp.StopReason,
		TokensIn:       resp.Usage.InputTokens + resp.Usage.CacheReadInputTokens,
		TokensOut:      resp.Usage.OutputTokens,
		CachedTokensIn: resp.Usage.CacheReadInputTokens,
	}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Text += block.Text
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, ToolCall{ID: block.ID, Name: block.Name, Arguments: block.Input})
		}
	}
	out.CostUSD = computeCost(req.Model, out.TokensIn, out.CachedTokensIn, out.TokensOut)

	recordCallMetrics(provider, req.Model, duration, out, nil)
	return out, nil
}

func (c *AnthropicClient) doRequest(ctx context.Context, body anthropicRequest) (*anthropicResponse, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("llm: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("llm: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm: request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: read response: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("llm: decode response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return nil, fmt.Errorf("llm: provider returned %d: %s", httpResp.StatusCode, parsed.Error.Message)
		}
		return nil, fmt.Errorf("llm: provider returned %d", httpResp.StatusCode)
	}
	if len(parsed.Content) == 0 {
		return nil, &EmptyResponseError{Model: "anthropic"}
	}
	return &parsed, nil
}

// EmptyResponseError reports a well-formed API response with no content
// blocks at all, distinguished from a transport error so callers (and the
// error classifier) can treat it distinctly.
type EmptyResponseError struct {
	Model string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("llm: empty response from model %q", e.Model)
}

func toAnthropicMessages(msgs []Message) []anthropicMessage {
	out := make([]anthropicMessage, 0, len(msgs))
	for _, m := range msgs {
		role := string(m.Role)
		if m.Role == RoleTool {
			// Anthropic has no "tool" role; tool-result messages are sent
			// as user turns.
			role = string(RoleUser)
		}
		out = append(out, anthropicMessage{Role: role, Content: m.Content})
	}
	return out
}

func toAnthropicTools(specs []ToolSpec) []anthropicToolDef {
	if len(specs) == 0 {
		return nil
	}
	out := make([]anthropicToolDef, 0, len(specs))
	for _, spec := range specs {
		props := make(map[string]anthropicToolProp, len(spec.Parameters))
		var required []string
		for name, p := range spec.Parameters {
			props[name] = anthropicToolProp{Type: p.Type, Description: p.Description}
			if p.Required {
				required = append(required, name)
			}
		}
		out = append(out, anthropicToolDef{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: anthropicToolParamSchema{Type: "object", Properties: props, Required: required},
		})
	}
	return out
}
