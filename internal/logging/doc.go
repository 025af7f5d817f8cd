// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

// Package logging provides centralized zerolog-based structured logging for mixpanel_data.
//
// This package implements a unified logging layer using zerolog, providing
// zero-allocation structured JSON logging for production and human-readable
// console output for development.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production (machine-parseable)
//   - Console output format for development (human-readable)
//   - Global logger configuration via environment variables
//   - Context-aware logging with correlation ID propagation
//   - A redacting writer so registered secrets never reach a sink
//
// # Quick Start
//
//	import "github.com/mixpanel-go/mixpanel_data/internal/logging"
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Caller: false,
//	})
//
//	// Log messages with structured fields
//	logging.Info().Str("table", "imported_events").Msg("create_events_table finished")
//	logging.Error().Err(err).Int("status", resp.StatusCode).Msg("export request failed")
//
//	// Context-aware logging
//	logging.Ctx(ctx).Info().Str("request_id", reqID).Msg("processing")
//
// # Configuration
//
// Environment Variables:
//
//	LOG_LEVEL   - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - Output format: json, console (default: json)
//	LOG_CALLER  - Include caller file:line: true, false (default: false)
//
// # Log Levels
//
// Supported log levels (from most to least verbose):
//
//	trace  - Very detailed diagnostic information
//	debug  - Detailed diagnostic information
//	info   - General operational information (default)
//	warn   - Warning conditions that should be addressed
//	error  - Error conditions requiring attention
//	fatal  - Fatal errors that terminate the program
//	panic  - Panic conditions that crash the program
//
// # Component Loggers
//
// Create component-specific loggers with default fields:
//
//	fetchLogger := logging.With().Str("component", "fetcher").Logger()
//	fetchLogger.Info().Msg("starting parallel fetch")
//
// # Secret Redaction
//
// Any value that must never appear in a log line — a Mixpanel project
// secret, for instance — is registered once via RegisterSecret and is then
// masked on every subsequent write, regardless of which field carried it:
//
//	logging.RegisterSecret(creds.Secret.Reveal())
//	logging.Info().Str("secret", creds.Secret.Reveal()).Msg("this line redacts the secret")
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger
// is protected by sync.RWMutex for configuration changes.
//
// # Testing
//
// Create test loggers that capture output:
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
//	logger.Info().Msg("test message")
//	output := buf.String()
//
// # See Also
//
//   - github.com/rs/zerolog: Underlying logging library
//   - internal/mperr: Boundary error type whose serialized form omits the
//     wrapped cause
package logging
