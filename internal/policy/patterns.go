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
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed decision_patterns.yaml
var defaultPatternsYAML []byte

// PatternConfig is the tunable surface of the DecisionPolicy's rule table:
// the keyword and phrase sets rules 1, 2, 3, 5, and 7 match against, and
// the thresholds rules 4 and 7 compare against. Keeping it data rather
// than code lets an operator retune routing without a rebuild.
//
// Thread Safety: Immutable once loaded; safe for concurrent use.
type PatternConfig struct {
	TechnicalJargonTerms        []string `yaml:"technical_jargon_terms"`
	DepthRequestPhrases         []string `yaml:"depth_request_phrases"`
	DissatisfactionPhrases      []string `yaml:"dissatisfaction_phrases"`
	AnalyticalTerms             []string `yaml:"analytical_terms"`
	WhatMovedPatterns           []string `yaml:"what_moved_patterns"`
	NewsMentionTerms            []string `yaml:"news_mention_terms"`
	PowerUserQueryCountThresh   int      `yaml:"power_user_query_count_threshold"`
	PrefetchConfidenceThreshold float64  `yaml:"prefetch_confidence_threshold"`

	technicalJargonRe   []*regexp.Regexp
	dissatisfactionRe   []*regexp.Regexp
	whatMovedRe         []*regexp.Regexp
	tickerRe            *regexp.Regexp
	compiledOnce        sync.Once
}

// commonWordsThatLookLikeTickers excludes short, frequent uppercase-prone
// English words from the naive ticker-presence heuristic used by rule 5,
// so "I" or "A" don't get treated as a ticker symbol.
var commonWordsThatLookLikeTickers = map[string]bool{
	"I": true, "A": true, "IT": true, "OK": true, "US": true,
}

func (c *PatternConfig) compile() {
	c.compiledOnce.Do(func() {
		c.technicalJargonRe = compileWholeWord(c.TechnicalJargonTerms)
		c.dissatisfactionRe = compileWholeWord(c.DissatisfactionPhrases)
		c.whatMovedRe = compileLoose(c.WhatMovedPatterns)
		c.tickerRe = regexp.MustCompile(`\b[A-Z]{1,5}\b`)
	})
}

// wordChar reports whether r is a character \b treats as part of a word,
// so boundary anchors are only added where they'd actually anchor.
func wordChar(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// compileWholeWord builds case-insensitive, whole-phrase matchers. The
// phrase is escaped as a literal first, then a \b boundary is added at
// each edge that ends on a word character — a phrase like "why?" gets no
// trailing boundary, since "?" isn't a word character for \b to anchor to.
func compileWholeWord(phrases []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		trimmed := strings.TrimSpace(p)
		runes := []rune(trimmed)
		quoted := regexp.QuoteMeta(trimmed)

		prefix, suffix := "", ""
		if len(runes) > 0 && wordChar(runes[0]) {
			prefix = `\b`
		}
		if len(runes) > 0 && wordChar(runes[len(runes)-1]) {
			suffix = `\b`
		}
		pattern := `(?i)` + prefix + quoted + suffix
		out = append(out, regexp.MustCompile(pattern))
	}
	return out
}

// compileLoose compiles patterns that are themselves regex fragments
// (rule 5's "why did .* move" needs the wildcard), case-insensitive.
func compileLoose(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

func (c *PatternConfig) matchesAny(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (c *PatternConfig) matchesTechnicalJargon(query string) bool {
	c.compile()
	return c.matchesAny(c.technicalJargonRe, query)
}

func (c *PatternConfig) matchesDepthRequest(query string) bool {
	c.compile()
	lower := strings.ToLower(query)
	for _, phrase := range c.DepthRequestPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

func (c *PatternConfig) matchesDissatisfaction(query string) bool {
	c.compile()
	return c.matchesAny(c.dissatisfactionRe, query)
}

func (c *PatternConfig) matchesAnalytical(query string) bool {
	lower := strings.ToLower(query)
	for _, term := range c.AnalyticalTerms {
		if strings.Contains(lower, strings.ToLower(strings.TrimSpace(term))) {
			return true
		}
	}
	return false
}

func (c *PatternConfig) matchesNewsMention(query string) bool {
	lower := strings.ToLower(query)
	for _, term := range c.NewsMentionTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// matchesWhatMovedWithTicker implements rule 5: the query must match one
// of the "what moved" patterns AND contain a plausible ticker symbol.
func (c *PatternConfig) matchesWhatMovedWithTicker(query string) bool {
	c.compile()
	if !c.matchesAny(c.whatMovedRe, query) {
		return false
	}
	for _, match := range c.tickerRe.FindAllString(query, -1) {
		if !commonWordsThatLookLikeTickers[match] {
			return true
		}
	}
	return false
}

var (
	defaultConfigOnce sync.Once
	defaultConfig     *PatternConfig
	defaultConfigErr  error
)

// DefaultPatterns returns the compiled-in default PatternConfig, loaded
// once from decision_patterns.yaml embedded at build time.
func DefaultPatterns() (*PatternConfig, error) {
	defaultConfigOnce.Do(func() {
		defaultConfig, defaultConfigErr = LoadPatterns(defaultPatternsYAML)
	})
	return defaultConfig, defaultConfigErr
}

// LoadPatterns parses PatternConfig from YAML bytes and applies defaults
// for any threshold left unset.
func LoadPatterns(data []byte) (*PatternConfig, error) {
	var cfg PatternConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("policy: parsing pattern config: %w", err)
	}
	if cfg.PowerUserQueryCountThresh <= 0 {
		cfg.PowerUserQueryCountThresh = 10
	}
	if cfg.PrefetchConfidenceThreshold <= 0 {
		cfg.PrefetchConfidenceThreshold = 0.80
	}
	return &cfg, nil
}
