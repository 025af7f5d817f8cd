// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package apiclient

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"context"
)

func TestStreamJSONL_DecodesLineDelimited(t *testing.T) {
	body := "{\"a\":1}\n{\"a\":2}\n\n{\"a\":3}\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
	defer server.Close()

	c := newTestClient(server, fastRetryConfig())
	iter, err := c.StreamJSONL(context.Background(), "/export", nil)
	if err != nil {
		t.Fatalf("StreamJSONL() error = %v", err)
	}
	defer iter.Close()

	var got []string
	for iter.Next() {
		got = append(got, string(iter.Record()))
	}
	if err := iter.Err(); err != nil {
		t.Fatalf("iter.Err() = %v", err)
	}
	want := []string{`{"a":1}`, `{"a":2}`, `{"a":3}`}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStreamJSONL_CloseIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"a":1}` + "\n"))
	}))
	defer server.Close()

	c := newTestClient(server, fastRetryConfig())
	iter, err := c.StreamJSONL(context.Background(), "/export", nil)
	if err != nil {
		t.Fatalf("StreamJSONL() error = %v", err)
	}
	if err := iter.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := iter.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
