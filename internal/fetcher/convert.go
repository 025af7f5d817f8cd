// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package fetcher

import (
	"time"

	json "github.com/goccy/go-json"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
	"github.com/mixpanel-go/mixpanel_data/internal/storage"
)

// exportedEvent is the wire shape of one /export line: the event name at
// the top level, everything else (including Mixpanel's reserved
// $-prefixed keys) nested under properties.
type exportedEvent struct {
	Event      string                     `json:"event"`
	Properties map[string]json.RawMessage `json:"properties"`
}

func decodeEventRow(raw json.RawMessage) (storage.EventRow, error) {
	var e exportedEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		return storage.EventRow{}, mperr.Wrap(mperr.CodeQueryFailed, err, "decode exported event")
	}

	row := storage.EventRow{EventName: e.Event}

	if ts, ok := e.Properties["time"]; ok {
		var epoch int64
		if err := json.Unmarshal(ts, &epoch); err == nil {
			row.EventTime = time.Unix(epoch, 0).UTC()
		}
		delete(e.Properties, "time")
	}
	if did, ok := e.Properties["distinct_id"]; ok {
		var s string
		if err := json.Unmarshal(did, &s); err == nil {
			row.DistinctID = s
		}
		delete(e.Properties, "distinct_id")
	}
	if iid, ok := e.Properties["$insert_id"]; ok {
		var s string
		if err := json.Unmarshal(iid, &s); err == nil {
			row.InsertID = s
		}
		delete(e.Properties, "$insert_id")
	}

	props, err := json.Marshal(e.Properties)
	if err != nil {
		return storage.EventRow{}, mperr.Wrap(mperr.CodeQueryFailed, err, "re-encode event properties")
	}
	row.Properties = props
	return row, nil
}

// engageProfile is the wire shape of one /engage result entry.
type engageProfile struct {
	DistinctID string          `json:"$distinct_id"`
	Properties json.RawMessage `json:"$properties"`
}

func decodeProfileRow(raw json.RawMessage) (storage.ProfileRow, error) {
	var p engageProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return storage.ProfileRow{}, mperr.Wrap(mperr.CodeQueryFailed, err, "decode engage profile")
	}
	props := p.Properties
	if props == nil {
		props = json.RawMessage("{}")
	}
	return storage.ProfileRow{DistinctID: p.DistinctID, Properties: props}, nil
}
