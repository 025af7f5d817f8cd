// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package livequery

import (
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// ActivityEvent is one event in a distinct id's activity stream.
type ActivityEvent struct {
	DistinctID string          `json:"distinct_id"`
	EventName  string          `json:"event_name"`
	EventTime  time.Time       `json:"event_time"`
	Properties json.RawMessage `json:"properties"`
}

// ActivityFeedResult normalizes the activity stream endpoint: events
// sorted by event_time.
type ActivityFeedResult struct {
	DistinctIDs []string        `json:"distinct_ids"`
	Events      []ActivityEvent `json:"events"`

	tab lazyTabular
}

type activityWireEvent struct {
	DistinctID string          `json:"distinct_id"`
	Event      string          `json:"event"`
	Time       int64           `json:"time"`
	Properties json.RawMessage `json:"properties"`
}

func decodeActivityFeed(raw json.RawMessage, distinctIDs []string) (*ActivityFeedResult, error) {
	var wire struct {
		Events []activityWireEvent `json:"events"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode activity feed response")
	}

	events := make([]ActivityEvent, 0, len(wire.Events))
	for _, e := range wire.Events {
		props := e.Properties
		if props == nil {
			props = json.RawMessage("{}")
		}
		events = append(events, ActivityEvent{
			DistinctID: e.DistinctID,
			EventName:  e.Event,
			EventTime:  time.Unix(e.Time, 0).UTC(),
			Properties: props,
		})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].EventTime.Before(events[j].EventTime) })

	return &ActivityFeedResult{DistinctIDs: distinctIDs, Events: events}, nil
}

// Tabular returns {distinct_id, event, event_time, properties} rows in
// the same event_time order as Events.
func (r *ActivityFeedResult) Tabular() TabularView {
	return r.tab.get(func() TabularView {
		rows := make([][]any, 0, len(r.Events))
		for _, e := range r.Events {
			rows = append(rows, []any{e.DistinctID, e.EventName, e.EventTime.Format(time.RFC3339), string(e.Properties)})
		}
		return TabularView{Columns: []string{"distinct_id", "event", "event_time", "properties"}, Rows: rows}
	})
}

func (r *ActivityFeedResult) ToDict() map[string]any { return toDict(r) }

func ActivityFeedFromDict(m map[string]any) (*ActivityFeedResult, error) {
	return fromDict[ActivityFeedResult](m)
}
