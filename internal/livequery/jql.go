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

// JQLResult carries JQL's arbitrary JSON payload: the result exposes the
// raw payload plus a best-effort tabular view. JQL scripts can return
// anything a JS reduce step produces, so no fixed schema is assumed.
type JQLResult struct {
	Raw json.RawMessage `json:"raw"`

	tab lazyTabular
}

func decodeJQL(raw json.RawMessage) (*JQLResult, error) {
	return &JQLResult{Raw: raw}, nil
}

// Tabular makes a best effort: an array of flat objects becomes rows
// keyed by the union of their keys (sorted); anything else becomes a
// single {value} column holding the raw JSON.
func (r *JQLResult) Tabular() TabularView {
	return r.tab.get(func() TabularView {
		var records []map[string]any
		if err := json.Unmarshal(r.Raw, &records); err == nil {
			return tabularizeRecords(records)
		}
		return TabularView{Columns: []string{"value"}, Rows: [][]any{{string(r.Raw)}}}
	})
}

func tabularizeRecords(records []map[string]any) TabularView {
	seen := map[string]struct{}{}
	var cols []string
	for _, rec := range records {
		for k := range rec {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	rows :=make([][]any, 0, len(records))
	for _, rec := range records {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = rec[c]
		}
		rows = append(rows, row)
	}
	return TabularView{Columns: cols, Rows: rows}
}

// ToDict returns {"raw": <decoded JSON value>} so JQLResult round-trips
// through the same dict-shaped boundary as every other result type.
func (r *JQLResult) ToDict() map[string]any {
	var decoded any
	if err := json.Unmarshal(r.Raw, &decoded); err != nil {
		decoded = string(r.Raw)
	}
	return map[string]any{"raw": decoded}
}

// JQLFromDict rebuilds a JQLResult from ToDict's output.
func JQLFromDict(m map[string]any) (*JQLResult, error) {
	raw, err := json.Marshal(m["raw"])
	if err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "encode jql raw for roundtrip")
	}
	return &JQLResult{Raw: raw}, nil
}
