// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

// Package credentials resolves and stores Mixpanel account credentials.
//
// Credentials are immutable once constructed: a Resolver builds one per
// session from, in order, the process environment, a named account, or
// the configured default account. The project secret never appears in a
// String/GoString/Error form; Reveal is the one explicit accessor, used
// only when building an HTTP request.
package credentials

// Secret wraps a Mixpanel project secret so it cannot leak through a
// default string conversion, a %v format verb, or a struct dump. Reveal
// is the only way to get the raw value back out.
type Secret struct {
	value string
}

// NewSecret wraps a raw secret value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Reveal returns the raw secret value. Callers should use this only when
// constructing an outbound request, and should register the value with
// logging.RegisterSecret beforehand so it cannot leak into a log line.
func (s Secret) Reveal() string {
	return s.value
}

// IsZero reports whether the secret was never set.
func (s Secret) IsZero() bool {
	return s.value == ""
}

// String satisfies fmt.Stringer without printing the secret.
func (s Secret) String() string {
	if s.value == "" {
		return "<empty secret>"
	}
	return "<redacted secret>"
}

// GoString satisfies fmt.GoStringer for %#v without printing the secret.
func (s Secret) GoString() string {
	return "credentials.Secret{<redacted>}"
}

// MarshalJSON always serializes to a fixed placeholder so Secret never
// leaks through a struct dumped to JSON.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}
