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
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/SeanStafford/entropy/internal/agent"
	"github.com/SeanStafford/entropy/internal/llm"
	"github.com/SeanStafford/entropy/internal/policy"
	"github.com/SeanStafford/entropy/internal/pool"
	"github.com/SeanStafford/entropy/internal/session"
	"github.com/SeanStafford/entropy/internal/toolbelt"
)

// fullHistoryTurns is the RecentTurns bound used when a Config's
// ContextMaxTurns is 0 ("unbounded"); it's simply larger than any session
// will realistically grow within process lifetime.
const fullHistoryTurns = 1 << 20

// anchorNote is appended to the Generalist's system prompt when it's
// running concurrently with an immediate specialist, so it produces a
// short holding answer rather than trying to be exhaustive.
const anchorNote = "A specialist is preparing deeper analysis for this question. Produce a short anchor answer now; do not try to be exhaustive."

// Orchestrator implements process_query end to end: classify, run the
// generalist, optionally await and synthesize an immediate specialist,
// optionally schedule a pre-fetch, then record the turn and profile.
//
// Thread Safety: Safe for concurrent use; ProcessQuery may be called
// concurrently for distinct or identical session IDs.
type Orchestrator struct {
	sessions *session.Store
	dpolicy  *policy.DecisionPolicy
	toolBelt *toolbelt.ToolBelt
	client   llm.Client
	logger   *slog.Logger

	specialistPool    *pool.Pool
	specialistTimeout time.Duration
	prefetchEnabled   bool
	costBudgetUSD     float64
}

// New constructs an Orchestrator and its internal SpecialistPool.
func New(cfg Config) *Orchestrator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = pool.DefaultWorkers
	}
	specTimeout := cfg.SpecialistTimeout
	if specTimeout <= 0 {
		specTimeout = DefaultSpecialistTimeout
	}

	o := &Orchestrator{
		sessions:          cfg.Sessions,
		dpolicy:           cfg.Policy,
		toolBelt:          cfg.ToolBelt,
		client:            cfg.Client,
		logger:            cfg.Logger,
		specialistTimeout: specTimeout,
		// Open question (spec.md §9): disable pre-fetch at W=1 so a
		// speculative task never occupies the only worker an immediate
		// specialist would need.
		prefetchEnabled: workers != 1,
		costBudgetUSD:   cfg.CostBudgetUSD,
	}
	o.specialistPool = pool.New(workers, cfg.ResultTTL, o.runSpecialistTask, cfg.Logger)
	return o
}

func (o *Orchestrator) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(b []byte) (int, error) { return len(b), nil }

// ProcessQuery is process_query(query, session_id) from spec §4.10.
func (o *Orchestrator) ProcessQuery(ctx context.Context, query, sessionID string) Response {
	if sessionID == "" {
		sessionID = "default"
	}
	o.sessions.GetOrCreate(sessionID)
	o.sessions.AppendTurn(sessionID, session.Turn{Role: session.RoleUser, Content: query})

	profile := o.sessions.GetProfile(sessionID)
	decision := o.dpolicy.Classify(query, profile)

	var (
		responseText   string
		totalCost      float64
		agentTag       = AgentTagGeneralist
		prefetchActive bool
		agentTurns     []agent.Turn
	)

	budgetExceeded := false
	if o.costBudgetUSD > 0 && decision.Type == policy.TypeImmediateSpecialist &&
		o.sessionCostSoFar(sessionID) >= o.costBudgetUSD {
		budgetExceeded = true
		decision = policy.Decision{Type: policy.TypeGeneralistOnly, Label: decision.Label}
	}

	switch decision.Type {
	case policy.TypeImmediateSpecialist:
		responseText, totalCost, agentTag, agentTurns = o.runImmediateSpecialist(ctx, decision, query, sessionID)
	default:
		genCfg := agent.GeneralistConfig()
		genAgent := agent.New(genCfg, o.client, o.toolBelt, o.logger)
		history := o.buildHistory(sessionID, genCfg.ContextMaxTurns)
		result := genAgent.Run(ctx, history, sessionID)
		responseText = result.Text
		totalCost = result.CostUSD
		agentTurns = result.Turns
	}

	if budgetExceeded {
		responseText += "\n\n(Session cost budget reached; skipping detailed specialist analysis.)"
	}

	if decision.Type == policy.TypeGeneralistThenPrefetch && o.prefetchEnabled &&
		decision.Confidence >= o.dpolicy.PrefetchConfidenceThreshold() {
		task := pool.Task{
			Kind:          decision.Kind,
			FocusedBrief:  o.taskFocusedBrief(sessionID, query, decision.Kind),
			ContextWindow: o.buildHistory(sessionID, 3),
			SessionID:     sessionID,
		}
		o.specialistPool.Submit(task, false)
		prefetchActive = true
	}

	for _, t := range toolSessionTurns(agentTurns) {
		o.sessions.AppendTurn(sessionID, t)
	}
	o.sessions.AppendTurn(sessionID, session.Turn{Role: session.RoleAgent, Content: responseText, CostUSD: totalCost})

	dissatisfied := strings.HasPrefix(decision.Label, "immediate_dissatisfaction")
	o.sessions.UpdateProfileAfter(sessionID, approxTokenCount(responseText), mentionsNews(agentTurns), dissatisfied, decision.Label)

	return Response{
		Response:       responseText,
		CostUSD:        totalCost,
		Agent:          agentTag,
		SessionID:      sessionID,
		PrefetchActive: prefetchActive,
	}
}

// runImmediateSpecialist implements step 3 (and the step-6 cache check,
// applied generally rather than only on follow-ups): it runs the
// Generalist anchor concurrently with an already-cached-or-freshly-
// submitted specialist Task, then synthesizes, or falls back to the
// anchor alone on timeout.
func (o *Orchestrator) runImmediateSpecialist(ctx context.Context, decision policy.Decision, query, sessionID string) (string, float64, AgentTag, []agent.Turn) {
	specCfg := agent.ConfigFor(decision.Kind)
	task := pool.Task{
		Kind:          decision.Kind,
		FocusedBrief:  o.taskFocusedBrief(sessionID, query, decision.Kind),
		ContextWindow: o.buildHistory(sessionID, specCfg.ContextMaxTurns),
		SessionID:     sessionID,
	}
	fingerprint := pool.Fingerprint(task.Kind, task.FocusedBrief, task.SessionID)

	cached, status := o.specialistPool.TryGetFingerprint(fingerprint)
	fromCache := status == pool.StatusReady
	var fut *pool.Future
	if !fromCache {
		fut = o.specialistPool.Submit(task, true)
	}

	anchorCfg := agent.GeneralistConfig()
	anchorCfg.SystemPrompt = anchorCfg.SystemPrompt + "\n\n" + anchorNote
	anchorAgent := agent.New(anchorCfg, o.client, o.toolBelt, o.logger)
	anchorHistory := o.buildHistory(sessionID, anchorCfg.ContextMaxTurns)

	anchorCh := make(chan agent.Result, 1)
	go func() { anchorCh <- anchorAgent.Run(ctx, anchorHistory, sessionID) }()

	specResult := cached
	specReady := fromCache
	if !specReady {
		specResult, status = fut.Await(ctx, o.specialistTimeout)
		specReady = status == pool.StatusReady
	}

	anchor := <-anchorCh
	turns := append([]agent.Turn(nil), anchor.Turns...)
	totalCost := anchor.CostUSD

	if !specReady {
		o.log().Info("orchestrator: specialist unavailable, returning anchor", "kind", decision.Kind, "status", status.String())
		return anchor.Text + "\n\n(Deeper analysis is unavailable right now.)", totalCost, AgentTagGeneralist, turns
	}

	// A cache hit means the specialist's LLM cost was already incurred by
	// whichever submission first ran this Task (often an earlier, never
	// billed pre-fetch); this query's marginal cost is anchor+synthesis
	// only. A freshly awaited result's cost is genuinely this query's.
	if !fromCache {
		totalCost += specResult.CostUSD
	}
	synthCfg := agent.SynthesisConfig()
	synthAgent := agent.New(synthCfg, o.client, o.toolBelt, o.logger)
	synthPrompt := fmt.Sprintf(
		"Original question: %s\n\nAnchor answer:\n%s\n\nSpecialist findings:\n%s\n\nWrite the final answer.",
		query, anchor.Text, specResult.Content,
	)
	synthResult := synthAgent.Run(ctx, []llm.Message{{Role: llm.RoleUser, Content: synthPrompt}}, sessionID)
	totalCost += synthResult.CostUSD
	turns = append(turns, synthResult.Turns...)

	agentTag := AgentTagGeneralistMarket
	if decision.Kind == agent.KindNewsSpecialist {
		agentTag = AgentTagGeneralistNews
	}
	return synthResult.Text, totalCost, agentTag, turns
}

// runSpecialistTask is the pool.Executor backing the SpecialistPool: it
// runs the specialist's own agent loop against the Task's focused brief
// and context window.
func (o *Orchestrator) runSpecialistTask(ctx context.Context, task pool.Task) (string, float64, error) {
	cfg := agent.ConfigFor(task.Kind)
	a := agent.New(cfg, o.client, o.toolBelt, o.logger)
	history := append(append([]llm.Message(nil), task.ContextWindow...), llm.Message{Role: llm.RoleUser, Content: task.FocusedBrief})
	result := a.Run(ctx, history, task.SessionID)
	return result.Text, result.CostUSD, nil
}

// sessionCostSoFar sums the CostUSD already recorded against sessionID's
// turns, for the cost-budget guard. It is O(session length); sessions are
// short-lived in-process conversations, not a scaling concern here.
func (o *Orchestrator) sessionCostSoFar(sessionID string) float64 {
	var total float64
	for _, t := range o.sessions.RecentTurns(sessionID, fullHistoryTurns) {
		total += t.CostUSD
	}
	return total
}

// buildHistory converts sessionID's recent turns into llm.Message history.
// maxTurns == 0 means unbounded (the full session so far).
func (o *Orchestrator) buildHistory(sessionID string, maxTurns int) []llm.Message {
	n := maxTurns
	if n <= 0 {
		n = fullHistoryTurns
	}
	turns := o.sessions.RecentTurns(sessionID, n)
	msgs := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case session.RoleUser:
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: t.Content})
		case session.RoleAgent:
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: t.Content})
		}
	}
	return msgs
}

// tickerPattern and commonNonTickers are a lightweight stand-in for full
// ticker extraction, enough to canonicalize a Task's focused brief around
// the symbol a question is actually about.
var tickerPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

var commonNonTickers = map[string]bool{"I": true, "A": true, "IT": true, "OK": true, "US": true}

func extractTicker(text string) (string, bool) {
	for _, m := range tickerPattern.FindAllString(text, -1) {
		if !commonNonTickers[m] {
			return m, true
		}
	}
	return "", false
}

// resolveTicker finds the ticker a query is about, falling back to the
// most recent prior user turn when the query itself is a pronoun-only
// follow-up ("why did it move?") with no ticker of its own.
func (o *Orchestrator) resolveTicker(sessionID, query string) (string, bool) {
	if t, ok := extractTicker(query); ok {
		return t, true
	}
	turns := o.sessions.RecentTurns(sessionID, fullHistoryTurns)
	if len(turns) > 0 {
		turns = turns[:len(turns)-1] // drop the just-appended current query
	}
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role != session.RoleUser {
			continue
		}
		if t, ok := extractTicker(turns[i].Content); ok {
			return t, true
		}
	}
	return "", false
}

// taskFocusedBrief derives Task.FocusedBrief: a short, ticker-anchored
// brief rather than the raw query text, so that two differently-worded
// questions about the same ticker (e.g. a pre-fetch's original question
// and a pronoun follow-up) fingerprint to the same Future. Spec §9 leaves
// the exact form of this normalization unspecified; without a ticker to
// anchor on, the raw query is used, which still coalesces exact repeats.
func (o *Orchestrator) taskFocusedBrief(sessionID, query string, kind agent.Kind) string {
	ticker, ok := o.resolveTicker(sessionID, query)
	if !ok {
		return query
	}
	if kind == agent.KindMarketSpecialist {
		return "quantitative market analysis for " + ticker
	}
	return "news analysis for " + ticker
}

// toolSessionTurns lifts the tool turns an agent run produced into
// session.Turn form, so the tool-call trail is preserved in the session
// log even though the query's cost is recorded once, on the final
// assistant turn (see UpdateProfileAfter / the cost invariant in spec §8).
func toolSessionTurns(turns []agent.Turn) []session.Turn {
	out := make([]session.Turn, 0, len(turns))
	for _, t := range turns {
		if t.Role != agent.TurnRoleTool || t.Tool == nil {
			continue
		}
		out = append(out, session.Turn{
			Role: session.RoleTool,
			Tool: &session.ToolContent{
				ToolName:  t.Tool.ToolName,
				Arguments: t.Tool.Arguments,
				Result:    t.Tool.Result,
			},
		})
	}
	return out
}

// mentionsNews reports whether any tool turn in turns is a successful
// search_news call, used to steer a later dissatisfaction follow-up
// (DecisionPolicy rules 2/3) toward the news specialist.
func mentionsNews(turns []agent.Turn) bool {
	for _, t := range turns {
		if t.Role == agent.TurnRoleTool && t.Tool != nil && t.Tool.ToolName == "search_news" && t.Tool.Success {
			return true
		}
	}
	return false
}

// approxTokenCount is a cheap word-count stand-in for a real tokenizer,
// adequate for the "was this response brief" heuristic in the rolling
// profile (spec §4.11) without pulling in a tokenizer dependency.
func approxTokenCount(text string) int {
	return len(strings.Fields(text))
}

// Shutdown stops the Orchestrator's SpecialistPool cooperatively: later
// submissions get an already cancelled future, queued futures are cancelled, and in-flight
// workers are allowed to finish their current Task.
func (o *Orchestrator) Shutdown() {
	o.specialistPool.Shutdown()
}
