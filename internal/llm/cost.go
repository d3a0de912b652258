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

// ModelPricing is a per-model $/token rate. CachedInputPerToken applies to
// the portion of a call's input tokens served from a provider-side
// prompt-prefix cache; it is typically a small fraction of InputPerToken.
type ModelPricing struct {
	InputPerToken       float64
	OutputPerToken      float64
	CachedInputPerToken float64
}

// costTable holds the three model tiers named in the agent-kind
// configuration (spec's "cheap"/"mid"/"expensive" tiers), keyed by the
// concrete model identifier the provider expects. Rates are illustrative
// list prices, current as of the reference build; they are not fetched
// at runtime so that costs stay reproducible in tests.
var costTable = map[string]ModelPricing{
	"claude-3-5-haiku-20241022": {
		InputPerToken:       0.00000080,
		OutputPerToken:      0.00000400,
		CachedInputPerToken: 0.00000008,
	},
	"claude-3-5-sonnet-20240620": {
		InputPerToken:       0.00000300,
		OutputPerToken:      0.00001500,
		CachedInputPerToken: 0.00000030,
	},
	"claude-opus-4-20250514": {
		InputPerToken:       0.00001500,
		OutputPerToken:      0.00007500,
		CachedInputPerToken: 0.00000150,
	},
}

// defaultPricing is used for a model absent from costTable, so an
// unrecognized model identifier degrades to a cost estimate rather than a
// hard failure (the client never raises per the tool-call contract it sits
// next to).
var defaultPricing = ModelPricing{
	InputPerToken:       0.00000300,
	OutputPerToken:      0.00001500,
	CachedInputPerToken: 0.00000030,
}

// PricingFor returns the ModelPricing registered for model, or a
// conservative default if the model is unrecognized.
func PricingFor(model string) ModelPricing {
	if p, ok := costTable[model]; ok {
		return p
	}
	return defaultPricing
}

// computeCost applies PricingFor(model) to the token counts of a single
// call. cachedTokensIn must be ≤ tokensIn; the remainder of tokensIn is
// billed at the uncached input rate.
func computeCost(model string, tokensIn, cachedTokensIn, tokensOut int) float64 {
	pricing := PricingFor(model)
	if cachedTokensIn > tokensIn {
		cachedTokensIn = tokensIn
	}
	uncachedIn := tokensIn - cachedTokensIn
	return float64(uncachedIn)*pricing.InputPerToken +
		float64(cachedTokensIn)*pricing.CachedInputPerToken +
		float64(tokensOut)*pricing.OutputPerToken
}
