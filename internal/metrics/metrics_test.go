// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("/export", "success"))
	RecordAPIRequest("/export", "success", 250*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("/export", "success"))
	if after != before+1 {
		t.Errorf("APIRequestsTotal[/export,success] = %v, want %v", after, before+1)
	}
}

func TestRecordAPIRetry(t *testing.T) {
	before := testutil.ToFloat64(APIRetriesTotal.WithLabelValues("rate_limited"))
	RecordAPIRetry("rate_limited", 2*time.Second)
	after := testutil.ToFloat64(APIRetriesTotal.WithLabelValues("rate_limited"))
	if after != before+1 {
		t.Errorf("APIRetriesTotal[rate_limited] = %v, want %v", after, before+1)
	}
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState(2)
	if got := testutil.ToFloat64(CircuitBreakerState); got != 2 {
		t.Errorf("CircuitBreakerState = %v, want 2", got)
	}
	SetCircuitBreakerState(0)
	if got := testutil.ToFloat64(CircuitBreakerState); got != 0 {
		t.Errorf("CircuitBreakerState = %v, want 0", got)
	}
}

func TestRecordIngest(t *testing.T) {
	before := testutil.ToFloat64(IngestRowsTotal.WithLabelValues("events"))
	RecordIngest("events", 42, time.Second)
	after := testutil.ToFloat64(IngestRowsTotal.WithLabelValues("events"))
	if after != before+42 {
		t.Errorf("IngestRowsTotal[events] = %v, want %v", after, before+42)
	}
}

func TestRecordDiscoveryCache(t *testing.T) {
	hitsBefore := testutil.ToFloat64(DiscoveryCacheHits.WithLabelValues("ListEvents"))
	missesBefore := testutil.ToFloat64(DiscoveryCacheMisses.WithLabelValues("ListEvents"))

	RecordDiscoveryCache("ListEvents", true)
	if got := testutil.ToFloat64(DiscoveryCacheHits.WithLabelValues("ListEvents")); got != hitsBefore+1 {
		t.Errorf("DiscoveryCacheHits = %v, want %v", got, hitsBefore+1)
	}

	RecordDiscoveryCache("ListEvents", false)
	if got := testutil.ToFloat64(DiscoveryCacheMisses.WithLabelValues("ListEvents")); got != missesBefore+1 {
		t.Errorf("DiscoveryCacheMisses = %v, want %v", got, missesBefore+1)
	}
}
