// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package storage

import (
	"context"
	"database/sql"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// TabularResult is the execute_df shape: typed columns plus rows.
type TabularResult struct {
	Columns []string
	Rows    [][]any
}

// RowsResult is the execute_rows shape: the canonical CLI-facing result,
// column names preserved exactly as the engine reports them.
type RowsResult struct {
	Columns []string
	Rows    [][]any
}

// ExecuteDF runs sql and returns a tabular result with typed columns.
func (e *Engine) ExecuteDF(ctx context.Context, query string, args ...any) (*TabularResult, error) {
	cols, rows, err := e.queryAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &TabularResult{Columns: cols, Rows: rows}, nil
}

// ExecuteRows runs sql and returns {columns, rows}, the canonical shape
// for CLI consumers.
func (e *Engine) ExecuteRows(ctx context.Context, query string, args ...any) (*RowsResult, error) {
	cols, rows, err := e.queryAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &RowsResult{Columns: cols, Rows: rows}, nil
}

// ExecuteScalar runs sql and returns its single cell value. It fails if
// the query does not produce exactly one row and one column.
func (e *Engine) ExecuteScalar(ctx context.Context, query string, args ...any) (any, error) {
	cols, rows, err := e.queryAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(cols) != 1 || len(rows) != 1 {
		return nil, mperr.New(mperr.CodeQueryFailed, "query did not produce exactly one row and one column").
			WithDetails(map[string]any{"query": query, "columns": len(cols), "rows": len(rows)})
	}
	return rows[0][0], nil
}

// ExecuteRaw runs sql and returns the engine-native *sql.Rows for
// advanced composition; the caller owns closing it.
func (e *Engine) ExecuteRaw(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := e.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "execute raw query").WithDetails(map[string]any{"query": query})
	}
	return rows, nil
}

func (e *Engine) queryAll(ctx context.Context, query string, args ...any) ([]string, [][]any, error) {
	rows, err := e.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, mperr.Wrap(mperr.CodeQueryFailed, err, "execute query").WithDetails(map[string]any{"query": query})
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, mperr.Wrap(mperr.CodeQueryFailed, err, "read result columns").WithDetails(map[string]any{"query": query})
	}

	var out [][]any
	for rows.Next() {
		scanTargets := make([]any, len(cols))
		scanDest := make([]any, len(cols))
		for i := range scanTargets {
			scanDest[i] = &scanTargets[i]
		}
		if err := rows.Scan(scanDest...); err != nil {
			return nil, nil, mperr.Wrap(mperr.CodeQueryFailed, err, "scan result row").WithDetails(map[string]any{"query": query})
		}
		out = append(out, scanTargets)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mperr.Wrap(mperr.CodeQueryFailed, err, "iterate result rows").WithDetails(map[string]any{"query": query})
	}
	return cols, out, nil
}
