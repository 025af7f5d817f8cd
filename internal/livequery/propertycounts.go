// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package livequery

import (
	"sort"

	json "github.com/goccy/go-json"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// PropertyCountsResult normalizes /events/properties: Series is
// property_value -> date -> count.
type PropertyCountsResult struct {
	Event    string                      `json:"event"`
	Property string                      `json:"property"`
	FromDate string                      `json:"from_date"`
	ToDate   string                      `json:"to_date"`
	Unit     string                      `json:"unit"`
	Series   map[string]map[string]int64 `json:"series"`

	tab lazyTabular
}

func decodePropertyCounts(raw json.RawMessage, event, property, fromDate, toDate, unit string) (*PropertyCountsResult, error) {
	var wire struct {
		Data struct {
			Values map[string]map[string]int64 `json:"values"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode property counts response")
	}
	series := wire.Data.Values
	if series == nil {
		series = map[string]map[string]int64{}
	}
	return &PropertyCountsResult{
		Event: event, Property: property, FromDate: fromDate, ToDate: toDate, Unit: unit, Series: series,
	}, nil
}

// Tabular returns {date, value, count} rows.
func (r *PropertyCountsResult) Tabular() TabularView {
	return r.tab.get(func() TabularView {
		values := make([]string, 0, len(r.Series))
		for v := range r.Series {
			values = append(values, v)
		}
		sort.Strings(values)

		var rows [][]any
		for _, v := range values {
			dates := make([]string, 0, len(r.Series[v]))
			for d := range r.Series[v] {
				dates = append(dates, d)
			}
			sort.Strings(dates)
			for _, d := range dates {
				rows = append(rows, []any{d, v, r.Series[v][d]})
			}
		}
		return TabularView{Columns: []string{"date", "value", "count"}, Rows: rows}
	})
}

func (r *PropertyCountsResult) ToDict() map[string]any { return toDict(r) }

func PropertyCountsFromDict(m map[string]any) (*PropertyCountsResult, error) {
	return fromDict[PropertyCountsResult](m)
}
