// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package livequery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mixpanel-go/mixpanel_data/internal/apiclient"
	"github.com/mixpanel-go/mixpanel_data/internal/credentials"
	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
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
	return New(apiclient.NewClient(creds, cfg))
}

func TestService_Segmentation_NormalizesOn(t *testing.T) {
	var gotOn string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotOn = r.URL.Query().Get("on")
		w.Write([]byte(`{"data":{"series":[],"values":{}}}`))
	})

	_, err := svc.Segmentation(context.Background(), SegmentationOptions{
		Event: "signup", FromDate: "2024-01-01", ToDate: "2024-01-02", SegmentProperty: "country",
	})
	if err != nil {
		t.Fatalf("Segmentation() error = %v", err)
	}
	if want := `properties["country"]`; gotOn != want {
		t.Errorf("on param = %q, want %q", gotOn, want)
	}
}

func TestService_JQL_ReclassifiesSyntaxError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"SyntaxError: unexpected token"}`))
	})

	_, err := svc.JQL(context.Background(), "bad script(", nil)
	code, _ := mperr.CodeOf(err)
	if code != mperr.CodeJQLSyntax {
		t.Fatalf("code = %v, want CodeJQLSyntax", code)
	}
}

func TestService_Funnel_PassesThroughFields(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("funnel_id") != "42" {
			t.Errorf("funnel_id = %q", r.URL.Query().Get("funnel_id"))
		}
		w.Write([]byte(`{"data":{}}`))
	})

	res, err := svc.Funnel(context.Background(), "42", "2024-01-01", "2024-01-02")
	if err != nil {
		t.Fatalf("Funnel() error = %v", err)
	}
	if res.FunnelID != "42" {
		t.Errorf("FunnelID = %q, want 42", res.FunnelID)
	}
}

func TestService_ActivityFeed_EncodesDistinctIDs(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("distinct_ids") != `["u1","u2"]` {
			t.Errorf("distinct_ids = %q", r.URL.Query().Get("distinct_ids"))
		}
		w.Write([]byte(`{"results":[]}`))
	})

	_, err := svc.ActivityFeed(context.Background(), []string{"u1", "u2"}, "2024-01-01", "2024-01-02")
	if err != nil {
		t.Fatalf("ActivityFeed() error = %v", err)
	}
}
