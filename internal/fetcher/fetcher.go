// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

// Package fetcher streams Mixpanel Export/Engage data through the API
// client into the storage engine, in both single-range and parallel
// chunked forms, without ever materializing the full result set in
// memory.
package fetcher

import (
	"context"
	"time"

	"github.com/mixpanel-go/mixpanel_data/internal/apiclient"
	"github.com/mixpanel-go/mixpanel_data/internal/metrics"
	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
	"github.com/mixpanel-go/mixpanel_data/internal/storage"
)

// FetchResult is the outcome of a single-range fetch.
type FetchResult struct {
	Table           string
	Rows            int64
	Type            storage.TableType
	DurationSeconds float64
	FromDate        string
	ToDate          string
	FetchedAt       time.Time
}

// FetchEventsOptions selects the export range/filters plus the ingest
// behavior (append, batch size, progress callback) threaded through to
// the storage engine.
type FetchEventsOptions struct {
	apiclient.ExportOptions
	Append    bool
	BatchSize int
	Progress  func(rowCount int64)
}

// FetchEvents streams Export events for opts's range directly into
// tableName. The iterator returned by the API client is never
// materialized; memory stays bounded by batch size, not total volume.
func FetchEvents(ctx context.Context, client *apiclient.Client, engine *storage.Engine, tableName string, opts FetchEventsOptions) (*FetchResult, error) {
	start := time.Now()

	recIter, err := client.Export(ctx, opts.ExportOptions)
	if err != nil {
		return nil, err
	}
	defer recIter.Close()

	rows := eventSeq(recIter)
	createOpts := storage.CreateOptions{BatchSize: opts.BatchSize, Append: opts.Append, Progress: opts.Progress}

	meta := storage.Metadata{
		FromDate:     parseDatePtr(opts.FromDate),
		ToDate:       parseDatePtr(opts.ToDate),
		FilterEvents: joinEvents(opts.Event),
		FilterWhere:  opts.Where,
	}

	var total int64
	if opts.Append {
		total, err = engine.AppendEvents(ctx, tableName, rows, createOpts)
	} else {
		total, err = engine.CreateEventsTable(ctx, tableName, rows, meta, createOpts)
	}
	if err != nil {
		return nil, err
	}
	metrics.RecordIngest("events", total, time.Since(start))

	return &FetchResult{
		Table: tableName, Rows: total, Type: storage.TableEvents,
		DurationSeconds: time.Since(start).Seconds(),
		FromDate:        opts.FromDate, ToDate: opts.ToDate,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// FetchProfilesOptions selects the Engage page/filters plus ingest
// behavior.
type FetchProfilesOptions struct {
	apiclient.EngageOptions
	Append    bool
	BatchSize int
	Progress  func(rowCount int64)
}

// FetchProfiles streams Engage profiles into tableName.
func FetchProfiles(ctx context.Context, client *apiclient.Client, engine *storage.Engine, tableName string, opts FetchProfilesOptions) (*FetchResult, error) {
	start := time.Now()

	recIter, err := client.Engage(ctx, opts.EngageOptions)
	if err != nil {
		return nil, err
	}
	defer recIter.Close()

	rows := profileSeq(recIter)
	createOpts := storage.CreateOptions{BatchSize: opts.BatchSize, Append: opts.Append, Progress: opts.Progress}

	meta := storage.Metadata{
		FilterWhere:     opts.Where,
		FilterCohortID:  opts.CohortID,
		FilterGroupID:   opts.DataGroupID,
		FilterBehaviors: opts.Behaviors,
	}

	var total int64
	if opts.Append {
		total, err = engine.AppendProfiles(ctx, tableName, rows, createOpts)
	} else {
		total, err = engine.CreateProfilesTable(ctx, tableName, rows, meta, createOpts)
	}
	if err != nil {
		return nil, err
	}
	metrics.RecordIngest("profiles", total, time.Since(start))

	return &FetchResult{
		Table: tableName, Rows: total, Type: storage.TableProfiles,
		DurationSeconds: time.Since(start).Seconds(),
		FetchedAt:       time.Now().UTC(),
	}, nil
}

// StreamEvents returns the raw Export iterator without touching storage;
// the caller drives consumption and owns Close/cancellation.
func StreamEvents(ctx context.Context, client *apiclient.Client, opts apiclient.ExportOptions) (apiclient.RecordIter, error) {
	return client.Export(ctx, opts)
}

// StreamProfiles returns the raw Engage iterator without touching
// storage.
func StreamProfiles(ctx context.Context, client *apiclient.Client, opts apiclient.EngageOptions) (apiclient.RecordIter, error) {
	return client.Engage(ctx, opts)
}

func joinEvents(events []string) string {
	if len(events) == 0 {
		return ""
	}
	out := events[0]
	for _, e := range events[1:] {
		out += "," + e
	}
	return out
}

func parseDatePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// eventSeq adapts an apiclient.RecordIter into storage's EventSeq shape,
// decoding each line as it is pulled rather than up front.
func eventSeq(it apiclient.RecordIter) storage.EventSeq {
	return func(yield func(storage.EventRow, error) bool) {
		for it.Next() {
			row, err := decodeEventRow(it.Record())
			if !yield(row, err) {
				return
			}
			if err != nil {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(storage.EventRow{}, mperr.Wrap(mperr.CodeQueryFailed, err, "stream export events"))
		}
	}
}

// profileSeq adapts an apiclient.RecordIter into storage's ProfileSeq
// shape.
func profileSeq(it apiclient.RecordIter) storage.ProfileSeq {
	return func(yield func(storage.ProfileRow, error) bool) {
		for it.Next() {
			row, err := decodeProfileRow(it.Record())
			if !yield(row, err) {
				return
			}
			if err != nil {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(storage.ProfileRow{}, mperr.Wrap(mperr.CodeQueryFailed, err, "stream engage profiles"))
		}
	}
}
