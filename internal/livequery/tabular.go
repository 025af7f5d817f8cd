// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

// Package livequery adapts the Mixpanel query-family wire shapes
// (segmentation, funnel, retention, insights, flows, JQL, event/property
// counts, frequency, numeric aggregates, activity feed) into a small
// family of immutable result records, each with a lazily-computed
// tabular view.
package livequery

import (
	"sync"

	json "github.com/goccy/go-json"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// TabularView is the columnar form every result record can produce on
// first access.
type TabularView struct {
	Columns []string
	Rows    [][]any
}

// lazyTabular guards a TabularView behind a one-shot initializer so the
// write is not observed as a logical mutation of the owning record:
// every call to get with the same builder observes the same cached
// value, and concurrent first-callers block on the same Once rather
// than racing to build duplicate views.
type lazyTabular struct {
	once sync.Once
	view TabularView
}

func (l *lazyTabular) get(build func() TabularView) TabularView {
	l.once.Do(func() {
		l.view = build()
	})
	return l.view
}

// toDict marshals v (which must carry the JSON tags of its public
// fields) into a plain map[string]any, giving every result type its
// to_dict representation for free and consistently.
func toDict(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// fromDict is toDict's inverse: it rebuilds a T from the map produced by
// toDict, for roundtripping a result record through its dict form. The
// tabular cache is never part of the dict and so is never reconstructed
// by this path.
func fromDict[T any](m map[string]any) (*T, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "encode dict for roundtrip")
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode dict for roundtrip")
	}
	return &out, nil
}
