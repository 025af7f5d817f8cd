// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// TableType distinguishes the two user table schemas.
type TableType string

const (
	TableEvents   TableType = "events"
	TableProfiles TableType = "profiles"
)

const metadataTable = "_metadata"

const metadataDDL = `CREATE TABLE IF NOT EXISTS ` + metadataTable + ` (
	table_name TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	fetched_at TIMESTAMP NOT NULL,
	from_date TIMESTAMP,
	to_date TIMESTAMP,
	filter_events TEXT,
	filter_where TEXT,
	filter_cohort_id TEXT,
	filter_group_id TEXT,
	filter_behaviors TEXT,
	row_count BIGINT NOT NULL DEFAULT 0
)`

func (e *Engine) ensureMetadataTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err := e.conn.ExecContext(ctx, metadataDDL)
	if err != nil {
		return mperr.Wrap(mperr.CodeQueryFailed, err, "create metadata table")
	}
	return nil
}

func eventsTableDDL(name string) string {
	return fmt.Sprintf(`CREATE TABLE %s (
		event_name TEXT NOT NULL,
		event_time TIMESTAMP NOT NULL,
		distinct_id TEXT NOT NULL,
		insert_id TEXT PRIMARY KEY,
		properties JSON
	)`, quoteIdent(name))
}

func profilesTableDDL(name string) string {
	return fmt.Sprintf(`CREATE TABLE %s (
		distinct_id TEXT PRIMARY KEY,
		properties JSON,
		last_seen TIMESTAMP
	)`, quoteIdent(name))
}

// quoteIdent double-quotes an identifier for safe interpolation into DDL;
// table names never come from untrusted input but still must not break
// on names containing spaces or punctuation.
func quoteIdent(name string) string {
	return `"` + name + `"`
}

func tableExists(ctx context.Context, e *Engine, name string) (bool, error) {
	var count int
	row := e.conn.QueryRowContext(ctx, `SELECT count(*) FROM information_schema.tables WHERE table_name = ?`, name)
	if err := row.Scan(&count); err != nil {
		return false, mperr.Wrap(mperr.CodeQueryFailed, err, "check table existence")
	}
	return count > 0, nil
}

// Metadata is the internal per-table provenance record: fetch window,
// filters, and row count.
type Metadata struct {
	TableName       string
	Type            TableType
	FetchedAt       time.Time
	FromDate        *time.Time
	ToDate          *time.Time
	FilterEvents    string
	FilterWhere     string
	FilterCohortID  string
	FilterGroupID   string
	FilterBehaviors string
	RowCount        int64
}
