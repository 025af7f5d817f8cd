// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package livequery

import "strings"

// NormalizeOn implements the `on` segmentation parameter grammar: a
// bare property name is auto-wrapped into properties["name"]; anything
// that already looks like a filter
// expression (contains a bracket, quote, or function call) passes
// through unchanged. Validation of the resulting expression itself is
// Mixpanel's responsibility, not this layer's.
func NormalizeOn(on string) string {
	if on == "" {
		return ""
	}
	if looksLikeExpression(on) {
		return on
	}
	return `properties["` + on + `"]`
}

func looksLikeExpression(s string) bool {
	return strings.ContainsAny(s, `[]()"'`) || strings.Contains(s, "properties.") || strings.Contains(s, "user.")
}
