// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package fetcher

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/mixpanel-go/mixpanel_data/internal/apiclient"
	"github.com/mixpanel-go/mixpanel_data/internal/storage"
)

const (
	defaultChunkDays  = 7
	defaultMaxWorkers = 10
)

// ParallelFetchOptions tunes the chunked parallel events fetch.
type ParallelFetchOptions struct {
	ChunkDays  int
	MaxWorkers int
	Event      []string
	Where      string
	Limit      int
	BatchSize  int
	Progress   func(rowCount int64)
}

func (o ParallelFetchOptions) chunkDays() int {
	if o.ChunkDays <= 0 {
		return defaultChunkDays
	}
	return o.ChunkDays
}

func (o ParallelFetchOptions) maxWorkers() int {
	if o.MaxWorkers <= 0 {
		return defaultMaxWorkers
	}
	return o.MaxWorkers
}

// ChunkOutcome records one chunk's fetch result so failed chunks can be
// retried by the caller without re-running the whole range.
type ChunkOutcome struct {
	FromDate string
	ToDate   string
	Success  bool
	Rows     int64
	Err      error
}

// ParallelFetchResult is ParallelFetchEvents' return value: per-chunk
// outcomes plus the combined row count across successful chunks.
type ParallelFetchResult struct {
	Table      string
	TotalRows  int64
	Chunks     []ChunkOutcome
	DurationS  float64
}

// ParallelFetchEvents partitions [from, to] into chunkDays-sized pieces
// and runs up to maxWorkers concurrent single-range fetches, each
// appending into the same table via the dedup path. Ordering across
// chunks is not guaranteed; insert_id dedup makes that safe.
func ParallelFetchEvents(ctx context.Context, client *apiclient.Client, engine *storage.Engine, tableName, from, to string, opts ParallelFetchOptions) (*ParallelFetchResult, error) {
	start := time.Now()

	if err := apiclient.DateRange(from, to); err != nil {
		return nil, err
	}

	chunks, err := splitDateRange(from, to, opts.chunkDays())
	if err != nil {
		return nil, err
	}

	// An empty table is created up front when none exists yet, so every
	// chunk, including the first, appends into it through the dedup path,
	// even on a from-scratch fetch.
	if _, err := ensureTableExists(ctx, engine, tableName); err != nil {
		return nil, err
	}

	outcomes := make([]ChunkOutcome, len(chunks))
	sem := semaphore.NewWeighted(int64(opts.maxWorkers()))
	g, gctx := errgroup.WithContext(ctx)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				outcomes[i] = ChunkOutcome{FromDate: chunk.from, ToDate: chunk.to, Err: err}
				return nil // per-chunk failures don't abort siblings
			}
			defer sem.Release(1)

			fetchOpts := FetchEventsOptions{
				ExportOptions: apiclient.ExportOptions{
					FromDate: chunk.from, ToDate: chunk.to, Event: opts.Event, Where: opts.Where, Limit: opts.Limit,
				},
				Append:    true,
				BatchSize: opts.BatchSize,
				Progress:  opts.Progress,
			}
			res, err := FetchEvents(gctx, client, engine, tableName, fetchOpts)
			if err != nil {
				outcomes[i] = ChunkOutcome{FromDate: chunk.from, ToDate: chunk.to, Err: err}
				return nil
			}
			outcomes[i] = ChunkOutcome{FromDate: chunk.from, ToDate: chunk.to, Success: true, Rows: res.Rows}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int64
	for _, o := range outcomes {
		if o.Success {
			total += o.Rows
		}
	}

	return &ParallelFetchResult{
		Table: tableName, TotalRows: total, Chunks: outcomes,
		DurationS: time.Since(start).Seconds(),
	}, nil
}

func ensureTableExists(ctx context.Context, engine *storage.Engine, tableName string) (bool, error) {
	_, err := engine.GetMetadata(ctx, tableName)
	if err == nil {
		return true, nil
	}
	// Table doesn't exist yet: create an empty one so every chunk can
	// use the append/dedup path uniformly.
	empty := func(yield func(storage.EventRow, error) bool) {}
	if _, err := engine.CreateEventsTable(ctx, tableName, empty, storage.Metadata{}, storage.CreateOptions{}); err != nil {
		return false, err
	}
	return false, nil
}

type dateChunk struct{ from, to string }

func splitDateRange(from, to string, chunkDays int) ([]dateChunk, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, err
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, err
	}

	var chunks []dateChunk
	cur := start
	for !cur.After(end) {
		chunkEnd := cur.AddDate(0, 0, chunkDays-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		chunks = append(chunks, dateChunk{from: cur.Format("2006-01-02"), to: chunkEnd.Format("2006-01-02")})
		cur = chunkEnd.AddDate(0, 0, 1)
	}
	return chunks, nil
}
