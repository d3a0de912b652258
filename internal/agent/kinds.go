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

const (
	modelCheap     = "claude-3-5-haiku-20241022"
	modelMid       = "claude-3-5-sonnet-20240620"
	modelExpensive = "claude-opus-4-20250514"
)

// generalistTools are the tools available to the cheap-tier first
// responder: a narrow slice of news and price lookups, enough to answer
// most queries without escalating to a specialist.
var generalistTools = []string{"search_news", "get_price", "get_fundamentals"}

// marketSpecialistTools are every market-data and technical-indicator tool.
var marketSpecialistTools = []string{
	"get_price", "get_fundamentals", "get_history", "price_change",
	"compare_performance", "top_performers", "returns",
	"sma", "ema", "rsi", "macd", "golden_cross",
}

// newsSpecialistTools is hybrid retrieval plus the price lookups a deep
// news analysis typically needs to ground a claim.
var newsSpecialistTools = []string{"search_news", "get_price"}

const generalistSystemPrompt = `You are Entropy's generalist research assistant for U.S. equities.
Answer the user's question directly and concisely using the tools available to you:
search_news for recent coverage, get_price and get_fundamentals for quotes. If the
question needs deep technical analysis or an exhaustive news review, say so plainly
rather than guessing; a specialist will be consulted for that depth.`

const marketSpecialistSystemPrompt = `You are Entropy's market specialist. You perform quantitative
analysis of price history, technical indicators, and cross-ticker comparisons. Be precise about
the periods and indicators you use, and state the numbers you computed, not just a conclusion.`

const newsSpecialistSystemPrompt = `You are Entropy's news specialist. You perform a thorough review
of the retrieved corpus for a ticker or theme, synthesizing multiple sources rather than
summarizing the first hit. Attribute claims to the articles that support them.`

const synthesisSystemPrompt = `You fuse a quick anchor answer with a specialist's deeper findings into
one final reply. Keep the anchor's framing where it still applies, but where the specialist's
findings conflict with the anchor, the specialist wins — restate the disputed point using the
specialist's numbers or conclusion, not the anchor's. Do not mention that there were two answers.`

// SynthesisConfig returns the Config for the fusion turn that combines an
// anchor answer with a completed specialist result. It carries no tools:
// the fusion is a pure text-combination pass over content already
// gathered by the anchor and specialist runs.
func SynthesisConfig() Config {
	return Config{
		Kind:         KindGeneralist,
		Model:        modelMid,
		Temperature:  0.3,
		SystemPrompt: synthesisSystemPrompt,
		CacheSystem:  false,
		ToolNames:    nil,
	}
}

// GeneralistConfig returns the Config for the cheap-tier first responder.
// Its system prompt is cache-eligible because every Generalist call in a
// session reuses the same prefix.
func GeneralistConfig() Config {
	return Config{
		Kind:         KindGeneralist,
		Model:        modelCheap,
		Temperature:  0.4,
		SystemPrompt: generalistSystemPrompt,
		CacheSystem:  true,
		ToolNames:    generalistTools,
		// 0: full session history.
		ContextMaxTurns: 0,
	}
}

// MarketSpecialistConfig returns the Config for deep quantitative analysis.
func MarketSpecialistConfig() Config {
	return Config{
		Kind:            KindMarketSpecialist,
		Model:           modelExpensive,
		Temperature:     0.1,
		SystemPrompt:    marketSpecialistSystemPrompt,
		CacheSystem:     false,
		ToolNames:       marketSpecialistTools,
		ContextMaxTurns: 3,
	}
}

// NewsSpecialistConfig returns the Config for deep news synthesis.
func NewsSpecialistConfig() Config {
	return Config{
		Kind:            KindNewsSpecialist,
		Model:           modelMid,
		Temperature:     0.6,
		SystemPrompt:    newsSpecialistSystemPrompt,
		CacheSystem:     false,
		ToolNames:       newsSpecialistTools,
		ContextMaxTurns: 3,
	}
}

// ConfigFor returns the Config for a given Kind. Panics on an unknown kind
// since Kind values are only ever produced by this package's constructors
// and the policy package's Decision type — an unrecognized value signals a
// programming error, not user input.
func ConfigFor(kind Kind) Config {
	switch kind {
	case KindGeneralist:
		return GeneralistConfig()
	case KindMarketSpecialist:
		return MarketSpecialistConfig()
	case KindNewsSpecialist:
		return NewsSpecialistConfig()
	default:
		panic("agent: unknown kind " + string(kind))
	}
}
