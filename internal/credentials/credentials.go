// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package credentials

import "github.com/mixpanel-go/mixpanel_data/internal/mperr"

// Region is one of the three Mixpanel API authorities.
type Region string

const (
	RegionUS Region = "us"
	RegionEU Region = "eu"
	RegionIN Region = "in"
)

// BaseURL returns the HTTPS authority for the region.
func (r Region) BaseURL() string {
	switch r {
	case RegionEU:
		return "https://eu.mixpanel.com"
	case RegionIN:
		return "https://in.mixpanel.com"
	default:
		return "https://mixpanel.com"
	}
}

// Valid reports whether r is one of the three allowed regions.
func (r Region) Valid() bool {
	switch r {
	case RegionUS, RegionEU, RegionIN:
		return true
	default:
		return false
	}
}

// Credentials is the frozen, session-scoped identity used to authenticate
// against the Mixpanel API. It is built once by a Resolver and never
// mutated afterward.
type Credentials struct {
	Username  string
	Secret    Secret
	ProjectID string
	Region    Region
}

// Account is the persisted form of a named credential set. At most one
// account in a Config may have IsDefault set.
type Account struct {
	Name      string
	Username  string
	Secret    Secret
	ProjectID string
	Region    Region
	IsDefault bool
}

// AccountInfo is Account with the secret redacted; it is the only account
// shape exposed at a process boundary other than a Resolver's output.
type AccountInfo struct {
	Name      string
	Username  string
	ProjectID string
	Region    Region
	IsDefault bool
}

func (a Account) Info() AccountInfo {
	return AccountInfo{
		Name:      a.Name,
		Username:  a.Username,
		ProjectID: a.ProjectID,
		Region:    a.Region,
		IsDefault: a.IsDefault,
	}
}

func (a Account) toCredentials() Credentials {
	return Credentials{
		Username:  a.Username,
		Secret:    a.Secret,
		ProjectID: a.ProjectID,
		Region:    a.Region,
	}
}

func accountNotFound(name string) *mperr.Error {
	return mperr.New(mperr.CodeAccountNotFound, "account not found").WithDetails(map[string]any{"name": name})
}

func accountExists(name string) *mperr.Error {
	return mperr.New(mperr.CodeAccountExists, "account already exists").WithDetails(map[string]any{"name": name})
}
