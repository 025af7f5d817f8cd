// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package livequery

import (
	json "github.com/goccy/go-json"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// FunnelStep is one step of a funnel's conversion path.
type FunnelStep struct {
	Event          string  `json:"event"`
	Count          int64   `json:"count"`
	ConversionRate float64 `json:"conversion_rate"`
}

// FunnelResult normalizes the /funnels response for a saved funnel id.
type FunnelResult struct {
	FunnelID       string       `json:"funnel_id"`
	FunnelName     string       `json:"funnel_name,omitempty"`
	FromDate       string       `json:"from_date"`
	ToDate         string       `json:"to_date"`
	ConversionRate float64      `json:"conversion_rate"`
	Steps          []FunnelStep `json:"steps"`

	tab lazyTabular
}

type funnelWire struct {
	Meta struct {
		Name string `json:"name"`
	} `json:"meta"`
	Data struct {
		Steps          []FunnelStep `json:"steps"`
		ConversionRate float64      `json:"analysis_conversion_rate"`
	} `json:"data"`
}

func decodeFunnel(raw json.RawMessage, funnelID, fromDate, toDate string) (*FunnelResult, error) {
	var wire funnelWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode funnel response")
	}

	res := &FunnelResult{
		FunnelID:       funnelID,
		FunnelName:     wire.Meta.Name,
		FromDate:       fromDate,
		ToDate:         toDate,
		ConversionRate: wire.Data.ConversionRate,
		Steps:          wire.Data.Steps,
	}
	if res.ConversionRate == 0 && len(res.Steps) > 0 && res.Steps[0].Count > 0 {
		res.ConversionRate = float64(res.Steps[len(res.Steps)-1].Count) / float64(res.Steps[0].Count)
	}
	return res, nil
}

// Tabular returns {step, event, count, conversion_rate} rows in step
// order.
func (r *FunnelResult) Tabular() TabularView {
	return r.tab.get(func() TabularView {
		rows := make([][]any, 0, len(r.Steps))
		for i, step := range r.Steps {
			rows = append(rows, []any{i, step.Event, step.Count, step.ConversionRate})
		}
		return TabularView{Columns: []string{"step", "event", "count", "conversion_rate"}, Rows: rows}
	})
}

func (r *FunnelResult) ToDict() map[string]any { return toDict(r) }

func FunnelFromDict(m map[string]any) (*FunnelResult, error) {
	return fromDict[FunnelResult](m)
}
