// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package fetcher

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"
)

func TestSplitDateRange(t *testing.T) {
	chunks, err := splitDateRange("2024-01-01", "2024-01-10", 3)
	if err != nil {
		t.Fatalf("splitDateRange() error = %v", err)
	}
	want := []dateChunk{
		{"2024-01-01", "2024-01-03"},
		{"2024-01-04", "2024-01-06"},
		{"2024-01-07", "2024-01-09"},
		{"2024-01-10", "2024-01-10"},
	}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %+v, want %+v", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunks[%d] = %+v, want %+v", i, chunks[i], want[i])
		}
	}
}

func TestSplitDateRange_SingleDay(t *testing.T) {
	chunks, err := splitDateRange("2024-01-01", "2024-01-01", 7)
	if err != nil {
		t.Fatalf("splitDateRange() error = %v", err)
	}
	if len(chunks) != 1 || chunks[0] != (dateChunk{"2024-01-01", "2024-01-01"}) {
		t.Fatalf("chunks = %+v", chunks)
	}
}

func TestParallelFetchEvents_MergesChunks(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"event":"signup","properties":{"time":1704067200,"distinct_id":"u1","$insert_id":"id-` + strconv.Itoa(int(n)) + `"}}` + "\n"))
	})
	eng := newTestEngine(t)

	res, err := ParallelFetchEvents(context.Background(), client, eng, "events", "2024-01-01", "2024-01-10", ParallelFetchOptions{
		ChunkDays:  3,
		MaxWorkers: 4,
	})
	if err != nil {
		t.Fatalf("ParallelFetchEvents() error = %v", err)
	}
	if len(res.Chunks) != 4 {
		t.Fatalf("chunks = %d, want 4", len(res.Chunks))
	}
	for _, c := range res.Chunks {
		if !c.Success {
			t.Errorf("chunk %+v failed: %v", c, c.Err)
		}
	}
	if res.TotalRows != 4 {
		t.Errorf("TotalRows = %d, want 4", res.TotalRows)
	}

	meta, err := eng.GetMetadata(context.Background(), "events")
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if meta.RowCount != 4 {
		t.Errorf("meta.RowCount = %d, want 4", meta.RowCount)
	}
}

// TestParallelFetchEvents_DedupsCollidingInsertIDAcrossChunks exercises the
// actual dedup collision TestParallelFetchEvents_MergesChunks never
// triggers: every chunk's mock response reuses the same $insert_id,
// so the four concurrent chunk fetches race to append one logical row.
func TestParallelFetchEvents_DedupsCollidingInsertIDAcrossChunks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"event":"signup","properties":{"time":1704067200,"distinct_id":"u1","$insert_id":"shared-id"}}` + "\n"))
	})
	eng := newTestEngine(t)

	res, err := ParallelFetchEvents(context.Background(), client, eng, "events", "2024-01-01", "2024-01-10", ParallelFetchOptions{
		ChunkDays:  3,
		MaxWorkers: 4,
	})
	if err != nil {
		t.Fatalf("ParallelFetchEvents() error = %v", err)
	}
	if res.TotalRows != 1 {
		t.Errorf("TotalRows = %d, want 1 (four chunks share one insert_id)", res.TotalRows)
	}

	meta, err := eng.GetMetadata(context.Background(), "events")
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if meta.RowCount != 1 {
		t.Errorf("meta.RowCount = %d, want 1", meta.RowCount)
	}
}

// TestParallelFetchEvents_RefetchSameRangeAddsZeroRows is spec scenario P8:
// a parallel fetch of the same date range as a prior fetch, appended into
// the same table, adds zero rows.
func TestParallelFetchEvents_RefetchSameRangeAddsZeroRows(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"event":"signup","properties":{"time":1704067200,"distinct_id":"u1","$insert_id":"id-` + strconv.Itoa(int(n)) + `"}}` + "\n"))
	})
	eng := newTestEngine(t)

	first, err := ParallelFetchEvents(context.Background(), client, eng, "events", "2024-01-01", "2024-01-10", ParallelFetchOptions{
		ChunkDays:  3,
		MaxWorkers: 4,
	})
	if err != nil {
		t.Fatalf("first ParallelFetchEvents() error = %v", err)
	}
	if first.TotalRows != 4 {
		t.Fatalf("first TotalRows = %d, want 4", first.TotalRows)
	}
	atomic.StoreInt32(&calls, 0)

	second, err := ParallelFetchEvents(context.Background(), client, eng, "events", "2024-01-01", "2024-01-10", ParallelFetchOptions{
		ChunkDays:  3,
		MaxWorkers: 4,
	})
	if err != nil {
		t.Fatalf("second ParallelFetchEvents() error = %v", err)
	}
	if second.TotalRows != 0 {
		t.Errorf("second TotalRows = %d, want 0 (same insert_ids replayed)", second.TotalRows)
	}

	meta, err := eng.GetMetadata(context.Background(), "events")
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if meta.RowCount != 4 {
		t.Errorf("meta.RowCount = %d, want 4 (unchanged by the zero-row refetch)", meta.RowCount)
	}
}

func TestEnsureTableExists_CreatesEmptyTableOnce(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	existed, err := ensureTableExists(ctx, eng, "fresh")
	if err != nil {
		t.Fatalf("ensureTableExists() error = %v", err)
	}
	if existed {
		t.Error("expected existed = false for a brand new table")
	}

	existed, err = ensureTableExists(ctx, eng, "fresh")
	if err != nil {
		t.Fatalf("ensureTableExists() second call error = %v", err)
	}
	if !existed {
		t.Error("expected existed = true once the table is present")
	}

	tables, err := eng.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if len(tables) != 1 {
		t.Errorf("tables = %+v, want exactly 1", tables)
	}
}
