// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package livequery

import (
	json "github.com/goccy/go-json"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// FlowStep is one node of a flows diagram.
type FlowStep struct {
	Event string `json:"event"`
	Count int64  `json:"count"`
}

// FlowsResult is the distinct native shape returned by /arb_funnels with
// query_type=flows|flows_sankey. It is not reshaped into the insights
// envelope because its steps/breakdowns structure has no equivalent
// there.
type FlowsResult struct {
	Steps                []FlowStep     `json:"steps"`
	Breakdowns           map[string]any `json:"breakdowns"`
	OverallConversionRate float64        `json:"overall_conversion_rate"`
	Metadata              map[string]any `json:"metadata"`
	ComputedAt             string         `json:"computed_at"`

	tab lazyTabular
}

type flowsWire struct {
	Steps                 []FlowStep     `json:"steps"`
	Breakdowns             map[string]any `json:"breakdowns"`
	OverallConversionRate  float64        `json:"overallConversionRate"`
	Metadata               map[string]any `json:"metadata"`
	ComputedAt             string         `json:"computed_at"`
}

func decodeFlows(raw json.RawMessage) (*FlowsResult, error) {
	var wire flowsWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode flows response")
	}
	return &FlowsResult{
		Steps:                 wire.Steps,
		Breakdowns:            wire.Breakdowns,
		OverallConversionRate: wire.OverallConversionRate,
		Metadata:              wire.Metadata,
		ComputedAt:            wire.ComputedAt,
	}, nil
}

// Tabular returns {step, event, count} rows in step order.
func (r *FlowsResult) Tabular() TabularView {
	return r.tab.get(func() TabularView {
		rows := make([][]any, 0, len(r.Steps))
		for i, step := range r.Steps {
			rows = append(rows, []any{i, step.Event, step.Count})
		}
		return TabularView{Columns: []string{"step", "event", "count"}, Rows: rows}
	})
}

func (r *FlowsResult) ToDict() map[string]any { return toDict(r) }

func FlowsFromDict(m map[string]any) (*FlowsResult, error) {
	return fromDict[FlowsResult](m)
}
