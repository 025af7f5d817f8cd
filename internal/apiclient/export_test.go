// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

func TestDateRange(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		wantErr  bool
	}{
		{"valid ordered range", "2024-01-01", "2024-01-31", false},
		{"equal dates", "2024-01-01", "2024-01-01", false},
		{"reversed range", "2024-02-01", "2024-01-01", true},
		{"bad from format", "01-01-2024", "2024-01-31", true},
		{"bad to format", "2024-01-01", "not-a-date", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DateRange(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Errorf("DateRange(%q, %q) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
			if err != nil && codeOf(err) != mperr.CodeInvalidArgument {
				t.Errorf("code = %v, want CodeInvalidArgument", codeOf(err))
			}
		})
	}
}

func TestExportOptions_RequiresDateRange(t *testing.T) {
	_, err := ExportOptions{}.params()
	if codeOf(err) != mperr.CodeInvalidArgument {
		t.Fatalf("expected CodeInvalidArgument, got %v", err)
	}
}

func TestExport_StreamsEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("from_date") != "2024-01-01" {
			t.Errorf("from_date = %q", r.URL.Query().Get("from_date"))
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"event":"signup"}` + "\n"))
	}))
	defer server.Close()

	c := newTestClient(server, fastRetryConfig())
	iter, err := c.Export(context.Background(), ExportOptions{FromDate: "2024-01-01", ToDate: "2024-01-31"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	defer iter.Close()

	if !iter.Next() {
		t.Fatalf("expected at least one record, iter.Err() = %v", iter.Err())
	}
	if string(iter.Record()) != `{"event":"signup"}` {
		t.Errorf("record = %s", iter.Record())
	}
}
