// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mixpanel-go/mixpanel_data/internal/apiclient"
	"github.com/mixpanel-go/mixpanel_data/internal/credentials"
	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
	"github.com/mixpanel-go/mixpanel_data/internal/storage"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *apiclient.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	creds := credentials.Credentials{
		Username:  "user",
		Secret:    credentials.NewSecret("secret"),
		ProjectID: "123",
		Region:    credentials.RegionUS,
	}
	cfg := apiclient.DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.MaxRetries = 1
	cfg.BaseDelay = time.Millisecond
	cfg.EngageRateLimit = 1000
	return apiclient.NewClient(creds, cfg)
}

func newTestEngine(t *testing.T) *storage.Engine {
	t.Helper()
	eng, err := storage.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestFetchEvents_StreamsIntoStorage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"event":"signup","properties":{"time":1704067200,"distinct_id":"u1","country":"US"}}` + "\n"))
		w.Write([]byte(`{"event":"login","properties":{"time":1704067260,"distinct_id":"u2"}}` + "\n"))
	})
	eng := newTestEngine(t)

	res, err := FetchEvents(context.Background(), client, eng, "events", FetchEventsOptions{
		ExportOptions: apiclient.ExportOptions{FromDate: "2024-01-01", ToDate: "2024-01-01"},
	})
	if err != nil {
		t.Fatalf("FetchEvents() error = %v", err)
	}
	if res.Rows != 2 {
		t.Errorf("Rows = %d, want 2", res.Rows)
	}
	if res.Type != storage.TableEvents {
		t.Errorf("Type = %v, want TableEvents", res.Type)
	}

	meta, err := eng.GetMetadata(context.Background(), "events")
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if meta.RowCount != 2 {
		t.Errorf("meta.RowCount = %d, want 2", meta.RowCount)
	}
}

func TestFetchEvents_AppendRequiresExistingTable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"event":"signup","properties":{"time":1704067200,"distinct_id":"u1"}}` + "\n"))
	})
	eng := newTestEngine(t)

	_, err := FetchEvents(context.Background(), client, eng, "missing", FetchEventsOptions{
		ExportOptions: apiclient.ExportOptions{FromDate: "2024-01-01", ToDate: "2024-01-01"},
		Append:        true,
	})
	code, _ := mperr.CodeOf(err)
	if code != mperr.CodeTableNotFound {
		t.Fatalf("code = %v, want CodeTableNotFound", code)
	}
}

func TestFetchProfiles_StreamsIntoStorage(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		if calls == 1 {
			w.Write([]byte(`{"results":[{"$distinct_id":"u1","$properties":{"plan":"pro"}}],"session_id":"s1","page":0}`))
			return
		}
		w.Write([]byte(`{"results":[],"session_id":"s1","page":1}`))
	})
	eng := newTestEngine(t)

	res, err := FetchProfiles(context.Background(), client, eng, "profiles", FetchProfilesOptions{})
	if err != nil {
		t.Fatalf("FetchProfiles() error = %v", err)
	}
	if res.Rows != 1 {
		t.Errorf("Rows = %d, want 1", res.Rows)
	}
	if res.Type != storage.TableProfiles {
		t.Errorf("Type = %v, want TableProfiles", res.Type)
	}
}

func TestStreamEvents_ReturnsRawIterWithoutStorage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"event":"ping"}` + "\n"))
	})

	iter, err := StreamEvents(context.Background(), client, apiclient.ExportOptions{FromDate: "2024-01-01", ToDate: "2024-01-01"})
	if err != nil {
		t.Fatalf("StreamEvents() error = %v", err)
	}
	defer iter.Close()
	if !iter.Next() {
		t.Fatalf("expected a record, err = %v", iter.Err())
	}
}

func TestJoinEvents(t *testing.T) {
	if got := joinEvents(nil); got != "" {
		t.Errorf("joinEvents(nil) = %q, want empty", got)
	}
	if got := joinEvents([]string{"a", "b", "c"}); got != "a,b,c" {
		t.Errorf("joinEvents = %q, want a,b,c", got)
	}
}

func TestParseDatePtr(t *testing.T) {
	if parseDatePtr("") != nil {
		t.Error("expected nil for empty string")
	}
	if parseDatePtr("not-a-date") != nil {
		t.Error("expected nil for invalid date")
	}
	got := parseDatePtr("2024-01-01")
	if got == nil || got.Year() != 2024 {
		t.Errorf("parseDatePtr(2024-01-01) = %v", got)
	}
}
