// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

// Package logging — redaction support.
//
// mixpanel_data never prints a Mixpanel project secret, whether the secret
// reaches a log line via an explicit field, an interpolated error, or a
// nested struct dumped with .Interface(). Rather than audit every call
// site, every configured logger writes through a redactingWriter that
// scans the serialized line for registered secret values and masks them.
// This keeps redaction centralized at the sink rather than scattered
// across every call site that might touch a secret.
package logging

import (
	"bytes"
	"io"
	"sync"
)

const redactedPlaceholder = "[REDACTED]"

var secretRegistry = struct {
	mu      sync.RWMutex
	secrets [][]byte
}{}

// RegisterSecret adds a value that must never appear verbatim in log
// output. It is safe to call concurrently and safe to call more than once
// with the same value. Empty strings are ignored (they would redact
// nothing and cost a scan on every line).
func RegisterSecret(value string) {
	if value == "" {
		return
	}
	secretRegistry.mu.Lock()
	defer secretRegistry.mu.Unlock()
	for _, s := range secretRegistry.secrets {
		if bytes.Equal(s, []byte(value)) {
			return
		}
	}
	secretRegistry.secrets = append(secretRegistry.secrets, []byte(value))
}

// ForgetSecret removes a previously registered secret, e.g. after an
// account is removed from the credential store.
func ForgetSecret(value string) {
	secretRegistry.mu.Lock()
	defer secretRegistry.mu.Unlock()
	for i, s := range secretRegistry.secrets {
		if bytes.Equal(s, []byte(value)) {
			secretRegistry.secrets = append(secretRegistry.secrets[:i], secretRegistry.secrets[i+1:]...)
			return
		}
	}
}

func redact(line []byte) []byte {
	secretRegistry.mu.RLock()
	defer secretRegistry.mu.RUnlock()
	if len(secretRegistry.secrets) == 0 {
		return line
	}
	out := line
	for _, s := range secretRegistry.secrets {
		if len(s) == 0 {
			continue
		}
		out = bytes.ReplaceAll(out, s, []byte(redactedPlaceholder))
	}
	return out
}

// redactingWriter wraps an io.Writer, masking registered secrets in every
// write before it reaches the underlying writer.
type redactingWriter struct {
	w io.Writer
}

func newRedactingWriter(w io.Writer) *redactingWriter {
	return &redactingWriter{w: w}
}

func (r *redactingWriter) Write(p []byte) (int, error) {
	if _, err := r.w.Write(redact(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}
