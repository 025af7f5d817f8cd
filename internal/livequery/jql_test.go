// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package livequery

import (
	json "github.com/goccy/go-json"
	"testing"
)

func TestJQLResult_Tabular_ArrayOfObjects(t *testing.T) {
	res, err := decodeJQL(json.RawMessage(`[{"event":"signup","count":3},{"event":"login","amount":9}]`))
	if err != nil {
		t.Fatalf("decodeJQL() error = %v", err)
	}
	tab := res.Tabular()
	if len(tab.Columns) != 3 {
		t.Fatalf("columns = %v, want 3 (union of keys)", tab.Columns)
	}
	if len(tab.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tab.Rows))
	}
}

func TestJQLResult_Tabular_NonArrayFallsBackToValueColumn(t *testing.T) {
	res, err := decodeJQL(json.RawMessage(`{"total":42}`))
	if err != nil {
		t.Fatalf("decodeJQL() error = %v", err)
	}
	tab := res.Tabular()
	if len(tab.Columns) != 1 || tab.Columns[0] != "value" {
		t.Fatalf("columns = %v, want [value]", tab.Columns)
	}
	if len(tab.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(tab.Rows))
	}
}

func TestJQLResult_ToDict_FromDict_Roundtrip(t *testing.T) {
	res, err := decodeJQL(json.RawMessage(`{"total":42}`))
	if err != nil {
		t.Fatalf("decodeJQL() error = %v", err)
	}
	m := res.ToDict()
	rebuilt, err := JQLFromDict(m)
	if err != nil {
		t.Fatalf("JQLFromDict() error = %v", err)
	}
	if string(rebuilt.Raw) != string(res.Raw) {
		t.Errorf("Raw = %s, want %s", rebuilt.Raw, res.Raw)
	}
}
