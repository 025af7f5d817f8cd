// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package livequery

import (
	json "github.com/goccy/go-json"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// InsightsResult unifies the insights/retention/funnel bookmark shapes
// returned by /query/insights: Headers carries the discriminator used
// to distinguish which of the three the payload actually represents.
type InsightsResult struct {
	Headers     []string                  `json:"headers"`
	Series      map[string]map[string]any `json:"series"`
	Meta        map[string]any            `json:"meta"`
	DateRange   [2]string                 `json:"date_range"`
	ComputedAt  string                    `json:"computed_at"`

	tab lazyTabular
}

type insightsWire struct {
	Headers []string                  `json:"headers"`
	Series  map[string]map[string]any `json:"series"`
	Meta    struct {
		DateRange struct {
			From string `json:"from"`
			To   string `json:"to"`
		} `json:"date_range"`
	} `json:"meta"`
	ComputedAt string `json:"computed_at"`
}

func decodeInsights(raw json.RawMessage) (*InsightsResult, error) {
	var wire insightsWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode insights response")
	}
	var rawMeta map[string]any
	_ = json.Unmarshal(raw, &struct {
		Meta *map[string]any `json:"meta"`
	}{Meta: &rawMeta})

	return &InsightsResult{
		Headers:    wire.Headers,
		Series:     wire.Series,
		Meta:       rawMeta,
		DateRange:  [2]string{wire.Meta.DateRange.From, wire.Meta.DateRange.To},
		ComputedAt: wire.ComputedAt,
	}, nil
}

// IsFunnelShaped reports whether Headers discriminates this payload as a
// funnel bookmark result (Mixpanel's insights headers begin with
// "$event" followed by step markers for funnels, vs plain metric names
// for retention/insights proper).
func (r *InsightsResult) IsFunnelShaped() bool {
	for _, h := range r.Headers {
		if h == "$funnel_step" {
			return true
		}
	}
	return false
}

// Tabular returns one row per series key, with a "series" column
// followed by one column per header.
func (r *InsightsResult) Tabular() TabularView {
	return r.tab.get(func() TabularView {
		cols := append([]string{"series"}, r.Headers...)
		var rows [][]any
		for name, values := range r.Series {
			row := make([]any, 0, len(cols))
			row = append(row, name)
			for _, h := range r.Headers {
				row = append(row, values[h])
			}
			rows = append(rows, row)
		}
		return TabularView{Columns: cols, Rows: rows}
	})
}

func (r *InsightsResult) ToDict() map[string]any { return toDict(r) }

func InsightsFromDict(m map[string]any) (*InsightsResult, error) {
	return fromDict[InsightsResult](m)
}
