// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pool

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/SeanStafford/entropy/internal/agent"
)

// Fingerprint computes F = hash(kind, normalized(brief), sessionID). Two
// Tasks that differ only in incidental whitespace or casing of the brief
// coalesce onto the same Future.
func Fingerprint(kind agent.Kind, brief, sessionID string) string {
	h := sha256.New()
	h.Write([]byte(string(kind)))
	h.Write([]byte{0})
	h.Write([]byte(normalizeBrief(brief)))
	h.Write([]byte{0})
	h.Write([]byte(sessionID))
	return hex.EncodeToString(h.Sum(nil))
}

// normalizeBrief lowercases, collapses whitespace runs, and trims a brief
// so that cosmetically different renderings of the same question produce
// the same fingerprint.
func normalizeBrief(brief string) string {
	lower := strings.ToLower(strings.TrimSpace(brief))
	var b strings.Builder
	lastWasSpace := false
	for _, r := range lower {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
