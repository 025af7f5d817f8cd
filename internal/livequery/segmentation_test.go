// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package livequery

import (
	json "github.com/goccy/go-json"
	"testing"
)

func TestDecodeSegmentation_TotalsAndTabular(t *testing.T) {
	raw := json.RawMessage(`{"data":{"series":["US","EU"],"values":{"US":{"2024-01-01":3,"2024-01-02":1},"EU":{"2024-01-01":2}}}}`)
	res, err := decodeSegmentation(raw, SegmentationOptions{Event: "signup", FromDate: "2024-01-01", ToDate: "2024-01-02", Unit: "day"})
	if err != nil {
		t.Fatalf("decodeSegmentation() error = %v", err)
	}
	if res.Total != 6 {
		t.Errorf("Total = %d, want 6", res.Total)
	}

	tab := res.Tabular()
	if len(tab.Columns) != 3 || tab.Columns[0] != "date" {
		t.Fatalf("columns = %v", tab.Columns)
	}
	if len(tab.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(tab.Rows))
	}
	// EU sorts before US; within EU, only one date.
	if tab.Rows[0][1] != "EU" {
		t.Errorf("rows[0] segment = %v, want EU", tab.Rows[0][1])
	}
}

func TestDecodeSegmentation_EmptySeries(t *testing.T) {
	raw := json.RawMessage(`{"data":{"series":[],"values":null}}`)
	res, err := decodeSegmentation(raw, SegmentationOptions{Event: "signup"})
	if err != nil {
		t.Fatalf("decodeSegmentation() error = %v", err)
	}
	if res.Total != 0 {
		t.Errorf("Total = %d, want 0", res.Total)
	}
	if res.Series == nil {
		t.Error("Series should never be nil")
	}
}

func TestSegmentationResult_ToDict_FromDict_Roundtrip(t *testing.T) {
	raw := json.RawMessage(`{"data":{"series":["US"],"values":{"US":{"2024-01-01":3}}}}`)
	res, err := decodeSegmentation(raw, SegmentationOptions{Event: "signup", FromDate: "2024-01-01", ToDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("decodeSegmentation() error = %v", err)
	}

	m := res.ToDict()
	rebuilt, err := SegmentationFromDict(m)
	if err != nil {
		t.Fatalf("SegmentationFromDict() error = %v", err)
	}
	if rebuilt.Event != res.Event || rebuilt.Total != res.Total {
		t.Errorf("rebuilt = %+v, want %+v", rebuilt, res)
	}
}
