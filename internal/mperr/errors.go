// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

// Package mperr defines the boundary error taxonomy for mixpanel_data.
//
// Every error that crosses a public API boundary (credential resolution,
// the API client, the storage engine, the fetcher/discovery/live-query
// services) is either returned as, or wrapped into, an *Error carrying a
// stable Code, a human message, and optional structured Details. Call
// sites wrap a lower-level cause with fmt.Errorf("...: %w", err)-style
// chaining, collapsed here into a single boundary type so every caller
// gets the same {code, message, details} shape regardless of which
// internal layer produced the failure.
package mperr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Code is a stable identifier for a boundary error condition. Codes are
// part of the module's public contract: callers match on Code, never on
// Message text.
type Code string

// The error taxonomy, partitioned by who must recover: config/account
// errors are the caller's to fix before retrying, server/rate-limit
// errors are the API's, and table/database errors are the storage
// engine's.
const (
	CodeConfigError      Code = "CONFIG_ERROR"
	CodeAccountNotFound  Code = "ACCOUNT_NOT_FOUND"
	CodeAccountExists    Code = "ACCOUNT_EXISTS"
	CodeAuthFailed       Code = "AUTH_FAILED"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodeQueryFailed      Code = "QUERY_FAILED"
	CodeJQLSyntax        Code = "JQL_SYNTAX"
	CodeServerError      Code = "SERVER_ERROR"
	CodeTableExists      Code = "TABLE_EXISTS"
	CodeTableNotFound    Code = "TABLE_NOT_FOUND"
	CodeDatabaseLocked   Code = "DATABASE_LOCKED"
	CodeDatabaseNotFound Code = "DATABASE_NOT_FOUND"

	// CodeInvalidArgument covers mutual-exclusion and malformed-parameter
	// precondition failures caught before a request reaches the network.
	// A dedicated code is clearer for callers than overloading
	// QUERY_FAILED for something that never reached the API.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
)

// Error is the boundary error type. Its zero value is not useful; build
// one with New or Wrap. Error never holds a secret value in Message or
// Details — callers that need to pass a raw secret through Details must
// redact it first (see internal/logging.RegisterSecret for the
// log-sink-side half of this guarantee).
type Error struct {
	Code    Code
	Message string
	Details map[string]any

	cause error
}

// New builds an *Error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds an *Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error that chains an underlying cause. The cause is
// preserved for errors.Unwrap/errors.Is/errors.As but is never rendered
// by Error() beyond its own message text, so callers that want the raw
// cause must use errors.Unwrap explicitly rather than string-matching.
func Wrap(code Code, cause error, message string) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithDetails attaches structured context and returns the receiver for
// chaining at the construction site.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is lets errors.Is(err, mperr.New(CodeX, "")) match purely on Code,
// which is how callers are expected to branch on boundary errors.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// boundaryView is the serializable {code, message, details} shape. It
// never includes the unwrapped cause, so a secret buried in a
// lower-level driver error cannot leak through MarshalJSON.
type boundaryView struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) view() boundaryView {
	return boundaryView{Code: e.Code, Message: e.Message, Details: e.Details}
}

// MarshalJSON implements the redaction-safe serialized form.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.view())
}

// As reports whether err is (or wraps) an *Error and, if so, stores its
// Code in *code — used by callers that prefer a plain switch over
// errors.Is chains.
func As(err error, code *Code) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	*code = e.Code
	return true
}

// CodeOf extracts the Code from err if it is (or wraps) an *Error,
// returning ("", false) otherwise.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
