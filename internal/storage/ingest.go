// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package storage

import (
	"context"
	"iter"
	"time"

	json "github.com/goccy/go-json"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// EventRow is one logical events-table row.
type EventRow struct {
	EventName  string
	EventTime  time.Time
	DistinctID string
	InsertID   string
	Properties json.RawMessage
}

// ProfileRow is one logical profiles-table row.
type ProfileRow struct {
	DistinctID string
	Properties json.RawMessage
	LastSeen   *time.Time
}

// EventSeq and ProfileSeq are the iterator shapes CreateEventsTable and
// CreateProfilesTable consume; the error half lets the caller's stream
// surface a mid-iteration failure without a sentinel row value.
type EventSeq = iter.Seq2[EventRow, error]
type ProfileSeq = iter.Seq2[ProfileRow, error]

const (
	defaultBatchSize = 1000
	minBatchSize     = 100
	maxBatchSize     = 100000
)

// CreateOptions controls batch size, append mode, and progress reporting
// shared by the four ingest entry points.
type CreateOptions struct {
	BatchSize int
	Append    bool
	Progress  func(rowCount int64)
}

func (o CreateOptions) batchSize() int {
	switch {
	case o.BatchSize <= 0:
		return defaultBatchSize
	case o.BatchSize < minBatchSize:
		return minBatchSize
	case o.BatchSize > maxBatchSize:
		return maxBatchSize
	default:
		return o.BatchSize
	}
}

// CreateEventsTable creates name with the fixed events schema (unless
// Append is set and the table exists) and consumes rows in batched
// transactions, upserting _metadata once the iterator is exhausted.
func (e *Engine) CreateEventsTable(ctx context.Context, name string, rows EventSeq, meta Metadata, opts CreateOptions) (int64, error) {
	exists, err := tableExists(ctx, e, name)
	if err != nil {
		return 0, err
	}
	if exists && !opts.Append {
		return 0, mperr.New(mperr.CodeTableExists, "table already exists").WithDetails(map[string]any{"table": name})
	}
	if !exists {
		if _, err := e.conn.ExecContext(ctx, eventsTableDDL(name)); err != nil {
			return 0, mperr.Wrap(mperr.CodeQueryFailed, err, "create events table").WithDetails(map[string]any{"table": name})
		}
	}

	total, minTime, maxTime, err := e.insertEventsBatched(ctx, name, rows, opts)
	if err != nil {
		return total, err
	}

	meta.TableName = name
	meta.Type = TableEvents
	meta.FetchedAt = time.Now().UTC()
	meta.RowCount = total
	if meta.FromDate == nil {
		meta.FromDate = minTime
	}
	if meta.ToDate == nil {
		meta.ToDate = maxTime
	}
	if err := e.upsertMetadata(ctx, meta); err != nil {
		return total, err
	}
	return total, nil
}

// CreateProfilesTable mirrors CreateEventsTable for the profiles schema.
func (e *Engine) CreateProfilesTable(ctx context.Context, name string, rows ProfileSeq, meta Metadata, opts CreateOptions) (int64, error) {
	exists, err := tableExists(ctx, e, name)
	if err != nil {
		return 0, err
	}
	if exists && !opts.Append {
		return 0, mperr.New(mperr.CodeTableExists, "table already exists").WithDetails(map[string]any{"table": name})
	}
	if !exists {
		if _, err := e.conn.ExecContext(ctx, profilesTableDDL(name)); err != nil {
			return 0, mperr.Wrap(mperr.CodeQueryFailed, err, "create profiles table").WithDetails(map[string]any{"table": name})
		}
	}

	total, err := e.insertProfilesBatched(ctx, name, rows, opts)
	if err != nil {
		return total, err
	}

	meta.TableName = name
	meta.Type = TableProfiles
	meta.FetchedAt = time.Now().UTC()
	meta.RowCount = total
	if err := e.upsertMetadata(ctx, meta); err != nil {
		return total, err
	}
	return total, nil
}

// AppendEvents inserts into an existing events table, skipping rows
// whose insert_id already exists.
func (e *Engine) AppendEvents(ctx context.Context, name string, rows EventSeq, opts CreateOptions) (int64, error) {
	exists, err := tableExists(ctx, e, name)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, mperr.New(mperr.CodeTableNotFound, "table does not exist").WithDetails(map[string]any{"table": name})
	}

	total, minTime, maxTime, err := e.insertEventsBatched(ctx, name, rows, opts)
	if err != nil {
		return total, err
	}
	if err := e.widenMetadataRange(ctx, name, total, minTime, maxTime); err != nil {
		return total, err
	}
	return total, nil
}

// AppendProfiles inserts into an existing profiles table, upserting
// properties for distinct_ids that already exist.
func (e *Engine) AppendProfiles(ctx context.Context, name string, rows ProfileSeq, opts CreateOptions) (int64, error) {
	exists, err := tableExists(ctx, e, name)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, mperr.New(mperr.CodeTableNotFound, "table does not exist").WithDetails(map[string]any{"table": name})
	}

	total, err := e.insertProfilesBatched(ctx, name, rows, opts)
	if err != nil {
		return total, err
	}
	// Profiles carry no fetch-window concept (§3 table metadata's
	// from_date/to_date describe an events fetch range), so only row_count
	// widens here.
	if err := e.widenMetadataRange(ctx, name, total, nil, nil); err != nil {
		return total, err
	}
	return total, nil
}

func (e *Engine) insertEventsBatched(ctx context.Context, name string, rows EventSeq, opts CreateOptions) (int64, *time.Time, *time.Time, error) {
	batchSize := opts.batchSize()
	var total int64
	var batch []EventRow
	var minTime, maxTime *time.Time

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, err := e.insertEventBatch(ctx, name, batch)
		if err != nil {
			return err
		}
		total += inserted
		batch = batch[:0]
		if opts.Progress != nil {
			opts.Progress(total)
		}
		return nil
	}

	for row, rowErr := range rows {
		if rowErr != nil {
			_ = flush()
			return total, minTime, maxTime, mperr.Wrap(mperr.CodeQueryFailed, rowErr, "read event row")
		}
		if row.InsertID == "" {
			row.InsertID = newInsertID()
		}
		t := row.EventTime.UTC()
		if minTime == nil || t.Before(*minTime) {
			minTime = &t
		}
		if maxTime == nil || t.After(*maxTime) {
			maxTime = &t
		}
		batch = append(batch, row)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return total, minTime, maxTime, err
			}
		}
		if err := ctx.Err(); err != nil {
			return total, minTime, maxTime, err
		}
	}
	if err := flush(); err != nil {
		return total, minTime, maxTime, err
	}
	return total, minTime, maxTime, nil
}

// insertEventBatch inserts batch in one transaction and returns the number
// of rows actually inserted (RowsAffected), not the batch length: the
// ON CONFLICT (insert_id) DO NOTHING clause silently skips duplicates, so
// len(batch) would overcount a re-append of already-present events (P1, P8).
func (e *Engine) insertEventBatch(ctx context.Context, name string, batch []EventRow) (int64, error) {
	tx, err := e.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, mperr.Wrap(mperr.CodeQueryFailed, err, "begin batch transaction")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+quoteIdent(name)+`
		(event_name, event_time, distinct_id, insert_id, properties)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (insert_id) DO NOTHING`)
	if err != nil {
		tx.Rollback()
		return 0, mperr.Wrap(mperr.CodeQueryFailed, err, "prepare event insert")
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range batch {
		props := row.Properties
		if props == nil {
			props = json.RawMessage("{}")
		}
		res, err := stmt.ExecContext(ctx, row.EventName, row.EventTime.UTC(), row.DistinctID, row.InsertID, string(props))
		if err != nil {
			tx.Rollback()
			return 0, mperr.Wrap(mperr.CodeQueryFailed, err, "insert event row")
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, mperr.Wrap(mperr.CodeQueryFailed, err, "commit batch")
	}
	return inserted, nil
}

func (e *Engine) insertProfilesBatched(ctx context.Context, name string, rows ProfileSeq, opts CreateOptions) (int64, error) {
	batchSize := opts.batchSize()
	var total int64
	var batch []ProfileRow

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, err := e.insertProfileBatch(ctx, name, batch)
		if err != nil {
			return err
		}
		total += inserted
		batch = batch[:0]
		if opts.Progress != nil {
			opts.Progress(total)
		}
		return nil
	}

	for row, rowErr := range rows {
		if rowErr != nil {
			_ = flush()
			return total, mperr.Wrap(mperr.CodeQueryFailed, rowErr, "read profile row")
		}
		batch = append(batch, row)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

// insertProfileBatch upserts batch in one transaction and returns the
// number of rows actually inserted, not the batch length: an "ON CONFLICT
// DO UPDATE" touches a row whether or not it was new, so that would
// overcount a re-append of already-present distinct_ids the same way a
// naive len(batch) count would for events. The insert and the
// already-exists update are issued as separate statements so only the
// former contributes to the returned count.
func (e *Engine) insertProfileBatch(ctx context.Context, name string, batch []ProfileRow) (int64, error) {
	tx, err := e.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, mperr.Wrap(mperr.CodeQueryFailed, err, "begin batch transaction")
	}

	insertStmt, err := tx.PrepareContext(ctx, `INSERT INTO `+quoteIdent(name)+`
		(distinct_id, properties, last_seen)
		VALUES (?, ?, ?)
		ON CONFLICT (distinct_id) DO NOTHING`)
	if err != nil {
		tx.Rollback()
		return 0, mperr.Wrap(mperr.CodeQueryFailed, err, "prepare profile insert")
	}
	defer insertStmt.Close()

	updateStmt, err := tx.PrepareContext(ctx, `UPDATE `+quoteIdent(name)+`
		SET properties = ?, last_seen = ?
		WHERE distinct_id = ?`)
	if err != nil {
		tx.Rollback()
		return 0, mperr.Wrap(mperr.CodeQueryFailed, err, "prepare profile update")
	}
	defer updateStmt.Close()

	var inserted int64
	for _, row := range batch {
		props := row.Properties
		if props == nil {
			props = json.RawMessage("{}")
		}
		var lastSeen any
		if row.LastSeen != nil {
			lastSeen = row.LastSeen.UTC()
		}

		res, err := insertStmt.ExecContext(ctx, row.DistinctID, string(props), lastSeen)
		if err != nil {
			tx.Rollback()
			return 0, mperr.Wrap(mperr.CodeQueryFailed, err, "insert profile row")
		}
		n, _ := res.RowsAffected()
		if n > 0 {
			inserted += n
			continue
		}
		if _, err := updateStmt.ExecContext(ctx, string(props), lastSeen, row.DistinctID); err != nil {
			tx.Rollback()
			return 0, mperr.Wrap(mperr.CodeQueryFailed, err, "update profile row")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, mperr.Wrap(mperr.CodeQueryFailed, err, "commit batch")
	}
	return inserted, nil
}

func (e *Engine) upsertMetadata(ctx context.Context, meta Metadata) error {
	_, err := e.conn.ExecContext(ctx, `INSERT INTO `+metadataTable+`
		(table_name, type, fetched_at, from_date, to_date, filter_events, filter_where, filter_cohort_id, filter_group_id, filter_behaviors, row_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (table_name) DO UPDATE SET
			type = excluded.type,
			fetched_at = excluded.fetched_at,
			from_date = excluded.from_date,
			to_date = excluded.to_date,
			filter_events = excluded.filter_events,
			filter_where = excluded.filter_where,
			filter_cohort_id = excluded.filter_cohort_id,
			filter_group_id = excluded.filter_group_id,
			filter_behaviors = excluded.filter_behaviors,
			row_count = excluded.row_count`,
		meta.TableName, string(meta.Type), meta.FetchedAt, nullableTime(meta.FromDate), nullableTime(meta.ToDate),
		meta.FilterEvents, meta.FilterWhere, meta.FilterCohortID, meta.FilterGroupID, meta.FilterBehaviors, meta.RowCount)
	if err != nil {
		return mperr.Wrap(mperr.CodeQueryFailed, err, "upsert metadata").WithDetails(map[string]any{"table": meta.TableName})
	}
	return nil
}

// widenMetadataRange bumps row_count by appended and, when minTime/maxTime
// are supplied, widens from_date/to_date to cover them rather than leaving
// the append's date range unreflected in _metadata (spec §4.3 append).
// LEAST/GREATEST ignore a NULL argument only via the COALESCE fallback to
// the incoming value, so a table with no prior from_date/to_date picks up
// the appended range outright.
func (e *Engine) widenMetadataRange(ctx context.Context, name string, appended int64, minTime, maxTime *time.Time) error {
	_, err := e.conn.ExecContext(ctx, `UPDATE `+metadataTable+` SET
			row_count = row_count + ?,
			from_date = CASE WHEN ? IS NULL THEN from_date ELSE LEAST(COALESCE(from_date, ?), ?) END,
			to_date = CASE WHEN ? IS NULL THEN to_date ELSE GREATEST(COALESCE(to_date, ?), ?) END
		WHERE table_name = ?`,
		appended,
		nullableTime(minTime), nullableTime(minTime), nullableTime(minTime),
		nullableTime(maxTime), nullableTime(maxTime), nullableTime(maxTime),
		name)
	if err != nil {
		return mperr.Wrap(mperr.CodeQueryFailed, err, "widen metadata row_count").WithDetails(map[string]any{"table": name})
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// DropTable removes a user table and its metadata row atomically (I3).
func (e *Engine) DropTable(ctx context.Context, name string) error {
	exists, err := tableExists(ctx, e, name)
	if err != nil {
		return err
	}
	if !exists {
		return mperr.New(mperr.CodeTableNotFound, "table does not exist").WithDetails(map[string]any{"table": name})
	}

	tx, err := e.conn.BeginTx(ctx, nil)
	if err != nil {
		return mperr.Wrap(mperr.CodeQueryFailed, err, "begin drop transaction")
	}
	if _, err := tx.ExecContext(ctx, `DROP TABLE `+quoteIdent(name)); err != nil {
		tx.Rollback()
		return mperr.Wrap(mperr.CodeQueryFailed, err, "drop table").WithDetails(map[string]any{"table": name})
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+metadataTable+` WHERE table_name = ?`, name); err != nil {
		tx.Rollback()
		return mperr.Wrap(mperr.CodeQueryFailed, err, "delete metadata row").WithDetails(map[string]any{"table": name})
	}
	if err := tx.Commit(); err != nil {
		return mperr.Wrap(mperr.CodeQueryFailed, err, "commit drop")
	}
	return nil
}

// DropAll removes every user table and their metadata rows.
func (e *Engine) DropAll(ctx context.Context) error {
	tables, err := e.ListTables(ctx)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if err := e.DropTable(ctx, t.Name); err != nil {
			return err
		}
	}
	return nil
}
