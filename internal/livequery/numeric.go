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

// NumericUnit is the {hour, day} bucket granularity shared by frequency
// and the three numeric aggregate families.
type NumericUnit string

const (
	UnitHour NumericUnit = "hour"
	UnitDay  NumericUnit = "day"
)

// NumericType distinguishes the four families that all carry the same
// shape.
type NumericType string

const (
	NumericFrequency NumericType = "frequency"
	NumericBucket    NumericType = "bucket"
	NumericSum       NumericType = "sum"
	NumericAverage   NumericType = "average"
)

// NumericResult is the shared shape for frequency, numeric bucket,
// numeric sum, and numeric average: {event, from_date, to_date, unit,
// on, type} plus a numeric series keyed by bucket or date.
type NumericResult struct {
	Event    string             `json:"event"`
	FromDate string             `json:"from_date"`
	ToDate   string             `json:"to_date"`
	Unit     NumericUnit        `json:"unit"`
	On       string             `json:"on,omitempty"`
	Type     NumericType        `json:"type"`
	Series   map[string]float64 `json:"series"`

	tab lazyTabular
}

func decodeNumeric(raw json.RawMessage, kind NumericType, event, from, to string, unit NumericUnit, on string) (*NumericResult, error) {
	var wire struct {
		Data struct {
			Values map[string]float64 `json:"values"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode numeric response")
	}
	series := wire.Data.Values
	if series == nil {
		series = map[string]float64{}
	}
	return &NumericResult{
		Event: event, FromDate: from, ToDate: to, Unit: unit, On: on, Type: kind, Series: series,
	}, nil
}

// Tabular returns {bucket, value} rows sorted by bucket key.
func (r *NumericResult) Tabular() TabularView {
	return r.tab.get(func() TabularView {
		keys := make([]string, 0, len(r.Series))
		for k := range r.Series {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		rows := make([][]any, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []any{k, r.Series[k]})
		}
		return TabularView{Columns: []string{"bucket", "value"}, Rows: rows}
	})
}

func (r *NumericResult) ToDict() map[string]any { return toDict(r) }

func NumericFromDict(m map[string]any) (*NumericResult, error) {
	return fromDict[NumericResult](m)
}
