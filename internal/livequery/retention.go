// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package livequery

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// RetentionCohort is one birth-date cohort's retention curve.
type RetentionCohort struct {
	Date      string    `json:"date"`
	Size      int64     `json:"size"`
	Retention []float64 `json:"retention"`
}

// RetentionResult normalizes /retention: cohort+return event retention
// curves over the requested range.
type RetentionResult struct {
	BornEvent   string            `json:"born_event"`
	ReturnEvent string            `json:"return_event"`
	FromDate    string            `json:"from_date"`
	ToDate      string            `json:"to_date"`
	Unit        string            `json:"unit"`
	Cohorts     []RetentionCohort `json:"cohorts"`

	tab lazyTabular
}

func decodeRetention(raw json.RawMessage, bornEvent, returnEvent, fromDate, toDate, unit string) (*RetentionResult, error) {
	var wire map[string]struct {
		Counts []int64 `json:"counts"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode retention response")
	}

	dates := make([]string, 0, len(wire))
	for d := range wire {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	res := &RetentionResult{
		BornEvent:   bornEvent,
		ReturnEvent: returnEvent,
		FromDate:    fromDate,
		ToDate:      toDate,
		Unit:        unit,
	}
	for _, d := range dates {
		counts := wire[d].Counts
		size := int64(0)
		if len(counts) > 0 {
			size = counts[0]
		}
		retention := make([]float64, len(counts))
		for i, c := range counts {
			if size > 0 {
				retention[i] = float64(c) / float64(size)
			}
		}
		res.Cohorts = append(res.Cohorts, RetentionCohort{Date: d, Size: size, Retention: retention})
	}
	return res, nil
}

// Tabular returns {cohort_date, cohort_size, period_0, period_1, ...}
// rows; the column set is the widest period-count observed across all
// cohorts, narrower cohorts leaving trailing periods nil.
func (r *RetentionResult) Tabular() TabularView {
	return r.tab.get(func() TabularView {
		maxPeriods := 0
		for _, c := range r.Cohorts {
			if len(c.Retention) > maxPeriods {
				maxPeriods = len(c.Retention)
			}
		}
		cols := []string{"cohort_date", "cohort_size"}
		for i := 0; i < maxPeriods; i++ {
			cols = append(cols, fmt.Sprintf("period_%d", i))
		}

		rows := make([][]any, 0, len(r.Cohorts))
		for _, c := range r.Cohorts {
			row := make([]any, 0, len(cols))
			row = append(row, c.Date, c.Size)
			for i := 0; i < maxPeriods; i++ {
				if i < len(c.Retention) {
					row = append(row, c.Retention[i])
				} else {
					row = append(row, nil)
				}
			}
			rows = append(rows, row)
		}
		return TabularView{Columns: cols, Rows: rows}
	})
}

func (r *RetentionResult) ToDict() map[string]any { return toDict(r) }

func RetentionFromDict(m map[string]any) (*RetentionResult, error) {
	return fromDict[RetentionResult](m)
}
