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
	"sync"
)

// ScriptedResponse is one canned Response (or error) a FakeClient returns
// for a given call, in sequence.
type ScriptedResponse struct {
	Response Response
	Err      error
}

// FakeClient is a Client implementation driven by a fixed script, for use
// in agent- and orchestrator-level tests that must not make network calls.
// Each Call pops the next ScriptedResponse; calling past the end of the
// script repeats the last entry so a test doesn't need to size the script
// exactly to the number of tool-loop iterations it triggers.
//
// Thread Safety: Safe for concurrent use.
type FakeClient struct {
	mu       sync.Mutex
	script   []ScriptedResponse
	next     int
	Requests []Request
}

// NewFakeClient returns a FakeClient that replays script in order.
func NewFakeClient(script ...ScriptedResponse) *FakeClient {
	return &FakeClient{script: script}
}

// Call implements Client.
func (f *FakeClient) Call(ctx context.Context, req Request) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, req)

	if len(f.script) == 0 {
		return Response{Text: "ok"}, nil
	}
	idx := f.next
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	} else {
		f.next++
	}
	entry := f.script[idx]
	if entry.Response.CostUSD == 0 && entry.Err == nil {
		entry.Response.CostUSD = computeCost(req.Model, entry.Response.TokensIn, entry.Response.CachedTokensIn, entry.Response.TokensOut)
	}
	return entry.Response, entry.Err
}

// CallCount returns the number of calls made so far.
func (f *FakeClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}
