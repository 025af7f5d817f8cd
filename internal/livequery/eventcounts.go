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

// EventCountsResult normalizes /events: Series is event_name -> date ->
// count.
type EventCountsResult struct {
	FromDate string                      `json:"from_date"`
	ToDate   string                      `json:"to_date"`
	Unit     string                      `json:"unit"`
	Series   map[string]map[string]int64 `json:"series"`

	tab lazyTabular
}

func decodeEventCounts(raw json.RawMessage, fromDate, toDate, unit string) (*EventCountsResult, error) {
	var wire struct {
		Data struct {
			Values map[string]map[string]int64 `json:"values"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode event counts response")
	}
	series := wire.Data.Values
	if series == nil {
		series = map[string]map[string]int64{}
	}
	return &EventCountsResult{FromDate: fromDate, ToDate: toDate, Unit: unit, Series: series}, nil
}

// Tabular returns {date, event, count} rows.
func (r *EventCountsResult) Tabular() TabularView {
	return r.tab.get(func() TabularView {
		events := make([]string, 0, len(r.Series))
		for e := range r.Series {
			events = append(events, e)
		}
		sort.Strings(events)

		var rows [][]any
		for _, e := range events {
			dates := make([]string, 0, len(r.Series[e]))
			for d := range r.Series[e] {
				dates = append(dates, d)
			}
			sort.Strings(dates)
			for _, d := range dates {
				rows = append(rows, []any{d, e, r.Series[e][d]})
			}
		}
		return TabularView{Columns: []string{"date", "event", "count"}, Rows: rows}
	})
}

func (r *EventCountsResult) ToDict() map[string]any { return toDict(r) }

func EventCountsFromDict(m map[string]any) (*EventCountsResult, error) {
	return fromDict[EventCountsResult](m)
}
