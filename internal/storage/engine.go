// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

// Package storage is the embedded analytical store: persistent,
// ephemeral, and in-memory DuckDB lifecycle, explicit table creation and
// deduplicating append, and query execution in four result shapes.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// Config tunes the DuckDB connection. The zero value opens an in-process
// default suitable for tests.
type Config struct {
	Path                   string
	Threads                int
	MaxMemory              string
	PreserveInsertionOrder bool
	// ReadOnly opens the store without write intent, which DuckDB allows
	// concurrently alongside an existing writer (spec §5, scenario 6).
	ReadOnly bool
}

// Engine wraps one DuckDB connection. It owns the file it was opened
// against; callers never open a second writable handle to the same path,
// though a ReadOnly open may coexist with it.
type Engine struct {
	conn      *sql.DB
	path      string
	ephemeral bool

	mu sync.Mutex
}

var exitHandlersMu sync.Mutex
var exitHandlers = map[string]func(){}

// Open opens a persistent store at cfg.Path, or the default
// `${HOME}/.mixpanel_data/{project_id}.db` when cfg.Path is empty and
// projectID is supplied. A read-only open (cfg.ReadOnly) against a file
// that doesn't exist yet fails with DATABASE_NOT_FOUND rather than
// creating it, since a reader has nothing to create.
func Open(cfg Config, projectID string) (*Engine, error) {
	path := cfg.Path
	if path == "" {
		path = defaultPath(projectID)
	}

	if cfg.ReadOnly {
		if _, err := os.Stat(path); err != nil {
			return nil, mperr.New(mperr.CodeDatabaseNotFound, "database file does not exist").
				WithDetails(map[string]any{"path": path})
		}
		return openConn(path, cfg, false)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "create database directory")
		}
	}
	return openConn(path, cfg, false)
}

// OpenEphemeral opens a store in a fresh temp file and registers a
// process-exit cleanup handler that removes it. Engine.Close also
// removes the file, so normal shutdown leaves nothing on disk (I4).
func OpenEphemeral(projectID string) (*Engine, error) {
	f, err := os.CreateTemp("", fmt.Sprintf("mixpanel_data-%s-*.db", projectID))
	if err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "create ephemeral database file")
	}
	path := f.Name()
	f.Close()
	os.Remove(path) // DuckDB creates the file itself; it must not pre-exist.

	eng, err := openConn(path, Config{}, true)
	if err != nil {
		return nil, err
	}

	exitHandlersMu.Lock()
	exitHandlers[path] = func() { os.Remove(path) }
	exitHandlersMu.Unlock()
	registerExitHandlerOnce()

	return eng, nil
}

// OpenMemory opens a zero-disk-footprint in-memory store.
func OpenMemory() (*Engine, error) {
	return openConn(":memory:", Config{}, false)
}

func defaultPath(projectID string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	name := projectID
	if name == "" {
		name = "default"
	}
	return filepath.Join(home, ".mixpanel_data", name+".db")
}

func openConn(path string, cfg Config, ephemeral bool) (*Engine, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "4GB"
	}
	preserveOrder := "false"
	if cfg.PreserveInsertionOrder {
		preserveOrder = "true"
	}

	accessMode := "read_write"
	if cfg.ReadOnly {
		accessMode = "read_only"
	}

	connStr := path
	if path != ":memory:" {
		connStr = fmt.Sprintf(
			"%s?access_mode=%s&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
			path, accessMode, threads, maxMemory, preserveOrder,
		)
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, classifyOpenErr(err, path)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, classifyOpenErr(err, path)
	}

	if cfg.ReadOnly {
		// Multiple read-only connections may coexist with one writer;
		// only the single-writer engine needs the pool pinned to one conn.
		conn.SetMaxOpenConns(runtime.NumCPU())
	} else {
		conn.SetMaxOpenConns(1) // single-writer engine; DuckDB itself is not safe for concurrent writers per connection pool.
		conn.SetMaxIdleConns(1)
	}
	conn.SetConnMaxLifetime(time.Hour)

	eng := &Engine{conn: conn, path: path, ephemeral: ephemeral}
	if !cfg.ReadOnly {
		if err := eng.ensureMetadataTable(); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return eng, nil
}

// classifyOpenErr turns DuckDB's low-level lock-contention message into
// DATABASE_LOCKED rather than a cryptic driver error.
func classifyOpenErr(err error, path string) *mperr.Error {
	msg := err.Error()
	if strings.Contains(msg, "lock") || strings.Contains(msg, "Conflicting lock") || strings.Contains(msg, "used by another process") {
		return mperr.New(mperr.CodeDatabaseLocked, "database is locked by another process").
			WithDetails(map[string]any{"path": path})
	}
	return mperr.Wrap(mperr.CodeQueryFailed, err, "open database").WithDetails(map[string]any{"path": path})
}

// Close closes the underlying connection. For ephemeral engines it also
// removes the backing file, leaving no trace on a normal exit path.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.conn.Close()
	if e.ephemeral {
		exitHandlersMu.Lock()
		delete(exitHandlers, e.path)
		exitHandlersMu.Unlock()
		os.Remove(e.path)
	}
	if err != nil {
		return mperr.Wrap(mperr.CodeQueryFailed, err, "close database")
	}
	return nil
}

// Ping verifies the connection is alive.
func (e *Engine) Ping(ctx context.Context) error {
	return e.conn.PingContext(ctx)
}

func newInsertID() string {
	return uuid.NewString()
}

var registerExitHandlerOnceGuard sync.Once

// registerExitHandlerOnce installs a signal handler that removes every
// still-registered ephemeral database file on SIGINT/SIGTERM, so an
// ephemeral store leaves no file behind even when the caller never
// reaches an explicit Close (I4). A forceful SIGKILL is accepted as
// uncleanable, per the same invariant.
func registerExitHandlerOnce() {
	registerExitHandlerOnceGuard.Do(func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			exitHandlersMu.Lock()
			for _, cleanup := range exitHandlers {
				cleanup()
			}
			exitHandlersMu.Unlock()
			os.Exit(1)
		}()
	})
}
