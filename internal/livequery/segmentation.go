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

// SegmentationOptions selects the segmentation query's event, date
// range, unit, and optional segmenting property. SegmentProperty is
// passed through NormalizeOn before hitting the wire.
type SegmentationOptions struct {
	Event           string
	FromDate        string
	ToDate          string
	Unit            string
	SegmentProperty string
}

// SegmentationResult normalizes /api/query/segmentation: Series is
// segment -> date -> count. Without `on`, the segment key collapses to
// a single overall bucket.
type SegmentationResult struct {
	Event    string                    `json:"event"`
	FromDate string                    `json:"from_date"`
	ToDate   string                    `json:"to_date"`
	Unit     string                    `json:"unit"`
	Total    int64                     `json:"total"`
	Series   map[string]map[string]int64 `json:"series"`

	tab lazyTabular
}

type segmentationWire struct {
	Data struct {
		Series []string                     `json:"series"`
		Values map[string]map[string]int64 `json:"values"`
	} `json:"data"`
}

func decodeSegmentation(raw json.RawMessage, opts SegmentationOptions) (*SegmentationResult, error) {
	var wire segmentationWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode segmentation response")
	}

	res := &SegmentationResult{
		Event:    opts.Event,
		FromDate: opts.FromDate,
		ToDate:   opts.ToDate,
		Unit:     opts.Unit,
		Series:   wire.Data.Values,
	}
	if res.Series == nil {
		res.Series = map[string]map[string]int64{}
	}
	for _, byDate := range res.Series {
		for _, count := range byDate {
			res.Total += count
		}
	}
	return res, nil
}

// Tabular returns {date, segment, count} rows, computed and cached on
// first call.
func (r *SegmentationResult) Tabular() TabularView {
	return r.tab.get(func() TabularView {
		segments := make([]string, 0, len(r.Series))
		for seg := range r.Series {
			segments = append(segments, seg)
		}
		sort.Strings(segments)

		var rows [][]any
		for _, seg := range segments {
			dates := make([]string, 0, len(r.Series[seg]))
			for d := range r.Series[seg] {
				dates = append(dates, d)
			}
			sort.Strings(dates)
			for _, d := range dates {
				rows = append(rows, []any{d, seg, r.Series[seg][d]})
			}
		}
		return TabularView{Columns: []string{"date", "segment", "count"}, Rows: rows}
	})
}

// ToDict returns the invariant-preserving nested-map representation.
func (r *SegmentationResult) ToDict() map[string]any { return toDict(r) }

// SegmentationFromDict rebuilds a SegmentationResult from ToDict's output.
func SegmentationFromDict(m map[string]any) (*SegmentationResult, error) {
	return fromDict[SegmentationResult](m)
}
