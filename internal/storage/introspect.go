// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// TableInfo is one row of ListTables' output.
type TableInfo struct {
	Name      string
	Type      TableType
	RowCount  int64
	FetchedAt time.Time
}

// ColumnInfo is one row of GetSchema's output.
type ColumnInfo struct {
	Column   string
	Type     string
	Nullable bool
}

// ListTables returns user tables only, excluding _metadata.
func (e *Engine) ListTables(ctx context.Context) ([]TableInfo, error) {
	rows, err := e.conn.QueryContext(ctx, `SELECT table_name, type, row_count, fetched_at FROM `+metadataTable+` ORDER BY table_name`)
	if err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "list tables")
	}
	defer rows.Close()

	var out []TableInfo
	for rows.Next() {
		var t TableInfo
		var typ string
		if err := rows.Scan(&t.Name, &typ, &t.RowCount, &t.FetchedAt); err != nil {
			return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "scan table metadata")
		}
		t.Type = TableType(typ)
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetSchema returns the ordered column descriptions for name.
func (e *Engine) GetSchema(ctx context.Context, name string) ([]ColumnInfo, error) {
	exists, err := tableExists(ctx, e, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, mperr.New(mperr.CodeTableNotFound, "table does not exist").WithDetails(map[string]any{"table": name})
	}

	rows, err := e.conn.QueryContext(ctx, `SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position`, name)
	if err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "read schema").WithDetails(map[string]any{"table": name})
	}
	defer rows.Close()

	var out []ColumnInfo
	for rows.Next() {
		var c ColumnInfo
		var nullable string
		if err := rows.Scan(&c.Column, &c.Type, &nullable); err != nil {
			return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "scan schema row")
		}
		c.Nullable = nullable == "YES"
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetMetadata returns the stored _metadata row for name.
func (e *Engine) GetMetadata(ctx context.Context, name string) (*Metadata, error) {
	row := e.conn.QueryRowContext(ctx, `SELECT table_name, type, fetched_at, from_date, to_date, filter_events, filter_where, filter_cohort_id, filter_group_id, filter_behaviors, row_count FROM `+metadataTable+` WHERE table_name = ?`, name)

	var m Metadata
	var typ string
	if err := row.Scan(&m.TableName, &typ, &m.FetchedAt, &m.FromDate, &m.ToDate, &m.FilterEvents, &m.FilterWhere, &m.FilterCohortID, &m.FilterGroupID, &m.FilterBehaviors, &m.RowCount); err != nil {
		return nil, mperr.New(mperr.CodeTableNotFound, "table does not exist").WithDetails(map[string]any{"table": name})
	}
	m.Type = TableType(typ)
	return &m, nil
}

// Sample returns up to n rows chosen at random from name, not a prefix.
func (e *Engine) Sample(ctx context.Context, name string, n int) (*TabularResult, error) {
	exists, err := tableExists(ctx, e, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, mperr.New(mperr.CodeTableNotFound, "table does not exist").WithDetails(map[string]any{"table": name})
	}
	query := fmt.Sprintf(`SELECT * FROM %s USING SAMPLE %d ROWS`, quoteIdent(name), n)
	return e.ExecuteDF(ctx, query)
}

// ColumnSummary is one column's entry in Summarize's output.
type ColumnSummary struct {
	Column       string
	Type         string
	Min          any
	Max          any
	ApproxUnique int64
	Count        int64
	NullPct      float64
	Mean         *float64
	Std          *float64
	Q25          *float64
	Q50          *float64
	Q75          *float64
}

// Summarize returns a per-column profile plus the total row count.
func (e *Engine) Summarize(ctx context.Context, name string) ([]ColumnSummary, int64, error) {
	schema, err := e.GetSchema(ctx, name)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := e.conn.QueryRowContext(ctx, `SELECT count(*) FROM `+quoteIdent(name)).Scan(&total); err != nil {
		return nil, 0, mperr.Wrap(mperr.CodeQueryFailed, err, "count rows").WithDetails(map[string]any{"table": name})
	}

	table := quoteIdent(name)
	summaries := make([]ColumnSummary, 0, len(schema))
	for _, col := range schema {
		colExpr := quoteIdent(col.Column)
		cs := ColumnSummary{Column: col.Column, Type: col.Type, Count: total}

		var nulls int64
		row := e.conn.QueryRowContext(ctx, fmt.Sprintf(`
			SELECT min(%[1]s), max(%[1]s), approx_count_distinct(%[1]s),
			       count(*) FILTER (WHERE %[1]s IS NULL)
			FROM %[2]s`, colExpr, table))
		if err := row.Scan(&cs.Min, &cs.Max, &cs.ApproxUnique, &nulls); err != nil {
			return nil, 0, mperr.Wrap(mperr.CodeQueryFailed, err, "summarize column").WithDetails(map[string]any{"table": name, "column": col.Column})
		}
		if total > 0 {
			cs.NullPct = float64(nulls) / float64(total) * 100
		}

		if isNumericType(col.Type) {
			numRow := e.conn.QueryRowContext(ctx, fmt.Sprintf(`
				SELECT avg(%[1]s), stddev(%[1]s),
				       quantile_cont(%[1]s, 0.25), quantile_cont(%[1]s, 0.5), quantile_cont(%[1]s, 0.75)
				FROM %[2]s`, colExpr, table))
			var mean, std, q25, q50, q75 sql.NullFloat64
			if err := numRow.Scan(&mean, &std, &q25, &q50, &q75); err == nil {
				cs.Mean = nullFloatPtr(mean)
				cs.Std = nullFloatPtr(std)
				cs.Q25 = nullFloatPtr(q25)
				cs.Q50 = nullFloatPtr(q50)
				cs.Q75 = nullFloatPtr(q75)
			}
		}

		summaries = append(summaries, cs)
	}
	return summaries, total, nil
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func isNumericType(duckdbType string) bool {
	switch duckdbType {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT",
		"FLOAT", "DOUBLE", "DECIMAL":
		return true
	default:
		return false
	}
}

// EventBreakdown returns per-event counts/unique-users/first-last-seen
// for name, requiring the fixed events schema.
type EventBreakdownRow struct {
	EventName   string
	Count       int64
	UniqueUsers int64
	FirstSeen   time.Time
	LastSeen    time.Time
	PctOfTotal  float64
}

type EventBreakdown struct {
	Rows      []EventBreakdownRow
	Total     int64
	FromDate  time.Time
	ToDate    time.Time
}

func (e *Engine) EventBreakdown(ctx context.Context, name string) (*EventBreakdown, error) {
	exists, err := tableExists(ctx, e, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, mperr.New(mperr.CodeTableNotFound, "table does not exist").WithDetails(map[string]any{"table": name})
	}

	rows, err := e.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT event_name, count(*) AS cnt, count(DISTINCT distinct_id) AS uniq,
		       min(event_time) AS first_seen, max(event_time) AS last_seen
		FROM %s
		GROUP BY event_name
		ORDER BY cnt DESC`, quoteIdent(name)))
	if err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "event breakdown").WithDetails(map[string]any{"table": name})
	}
	defer rows.Close()

	var breakdown EventBreakdown
	for rows.Next() {
		var r EventBreakdownRow
		if err := rows.Scan(&r.EventName, &r.Count, &r.UniqueUsers, &r.FirstSeen, &r.LastSeen); err != nil {
			return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "scan breakdown row")
		}
		breakdown.Rows = append(breakdown.Rows, r)
		breakdown.Total += r.Count
		if breakdown.FromDate.IsZero() || r.FirstSeen.Before(breakdown.FromDate) {
			breakdown.FromDate = r.FirstSeen
		}
		if r.LastSeen.After(breakdown.ToDate) {
			breakdown.ToDate = r.LastSeen
		}
	}
	if err := rows.Err(); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "iterate breakdown rows")
	}
	for i := range breakdown.Rows {
		if breakdown.Total > 0 {
			breakdown.Rows[i].PctOfTotal = float64(breakdown.Rows[i].Count) / float64(breakdown.Total) * 100
		}
	}
	return &breakdown, nil
}

// PropertyKeys returns the alphabetically sorted set of top-level JSON
// keys seen in properties, optionally scoped to one event.
func (e *Engine) PropertyKeys(ctx context.Context, name string, event string) ([]string, error) {
	exists, err := tableExists(ctx, e, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, mperr.New(mperr.CodeTableNotFound, "table does not exist").WithDetails(map[string]any{"table": name})
	}

	query := fmt.Sprintf(`SELECT properties FROM %s`, quoteIdent(name))
	var args []any
	if event != "" {
		query += ` WHERE event_name = ?`
		args = append(args, event)
	}

	rows, err := e.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "read properties").WithDetails(map[string]any{"table": name})
	}
	defer rows.Close()

	seen := map[string]struct{}{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "scan properties")
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			continue
		}
		for k := range obj {
			seen[k] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "iterate properties")
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// ColumnValueCount is one entry of ColumnStats' top_values list.
type ColumnValueCount struct {
	Value any
	Count int64
}

// ColumnStats is the per-column summary returned by ColumnStats.
type ColumnStats struct {
	Count       int64
	NullCount   int64
	NullPct     float64
	UniqueCount int64
	UniquePct   float64
	TopValues   []ColumnValueCount
	Min         any
	Max         any
	Mean        *float64
	Std         *float64
}

// ColumnStats accepts a raw column reference or a JSON path expression
// (e.g. properties->>'$.country') and returns distribution statistics.
func (e *Engine) ColumnStats(ctx context.Context, name, columnExpr string, topN int) (*ColumnStats, error) {
	exists, err := tableExists(ctx, e, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, mperr.New(mperr.CodeTableNotFound, "table does not exist").WithDetails(map[string]any{"table": name})
	}

	table := quoteIdent(name)
	var stats ColumnStats
	row := e.conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT count(*) AS total,
		       count(*) FILTER (WHERE %[1]s IS NULL) AS nulls,
		       approx_count_distinct(%[1]s) AS uniq
		FROM %[2]s`, columnExpr, table))
	if err := row.Scan(&stats.Count, &stats.NullCount, &stats.UniqueCount); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "column stats").WithDetails(map[string]any{"table": name, "column": columnExpr})
	}
	if stats.Count > 0 {
		stats.NullPct = float64(stats.NullCount) / float64(stats.Count) * 100
		stats.UniquePct = float64(stats.UniqueCount) / float64(stats.Count) * 100
	}

	numRow := e.conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT min(%[1]s), max(%[1]s), avg(try_cast(%[1]s AS DOUBLE)), stddev(try_cast(%[1]s AS DOUBLE))
		FROM %[2]s`, columnExpr, table))
	var mean, std sql.NullFloat64
	if err := numRow.Scan(&stats.Min, &stats.Max, &mean, &std); err == nil {
		if mean.Valid {
			v := mean.Float64
			stats.Mean = &v
		}
		if std.Valid {
			v := std.Float64
			stats.Std = &v
		}
	}

	if topN > 0 {
		rows, err := e.conn.QueryContext(ctx, fmt.Sprintf(`
			SELECT %[1]s AS v, count(*) AS cnt
			FROM %[2]s
			WHERE %[1]s IS NOT NULL
			GROUP BY v
			ORDER BY cnt DESC
			LIMIT ?`, columnExpr, table), topN)
		if err != nil {
			return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "top values").WithDetails(map[string]any{"table": name, "column": columnExpr})
		}
		defer rows.Close()
		for rows.Next() {
			var v ColumnValueCount
			if err := rows.Scan(&v.Value, &v.Count); err != nil {
				return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "scan top value")
			}
			stats.TopValues = append(stats.TopValues, v)
		}
		if err := rows.Err(); err != nil {
			return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "iterate top values")
		}
	}

	return &stats, nil
}
