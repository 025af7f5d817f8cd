// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package credentials

import (
	"sort"

	"github.com/mixpanel-go/mixpanel_data/internal/config"
	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// Store is the external collaborator the Resolver depends on for account
// persistence. The resolver only ever talks to this interface; FileStore
// is the default TOML-backed implementation.
type Store interface {
	Load() (*Config, error)
	Save(*Config) error
	Path() string
}

// Config is the in-memory account set: the default account name and the
// full set of named accounts, keyed by name.
type Config struct {
	Default  string
	Accounts map[string]Account
}

// FileStore persists accounts to a TOML file via internal/config.
type FileStore struct {
	path string
}

// NewFileStore builds a FileStore rooted at path. An empty path resolves
// to config.DefaultPath() (which itself honors MP_CONFIG_PATH).
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = config.DefaultPath()
	}
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load() (*Config, error) {
	f, err := config.Load(s.path)
	if err != nil {
		return nil, mperr.Wrap(mperr.CodeConfigError, err, "load account file").WithDetails(map[string]any{"path": s.path})
	}

	cfg := &Config{Default: f.Default, Accounts: make(map[string]Account, len(f.Accounts))}
	for name, rec := range f.Accounts {
		cfg.Accounts[name] = Account{
			Name:      name,
			Username:  rec.Username,
			Secret:    NewSecret(rec.Secret),
			ProjectID: rec.ProjectID,
			Region:    Region(rec.Region),
			IsDefault: name == f.Default,
		}
	}
	return cfg, nil
}

func (s *FileStore) Save(cfg *Config) error {
	f := &config.File{Default: cfg.Default, Accounts: make(map[string]config.AccountRecord, len(cfg.Accounts))}
	for name, acc := range cfg.Accounts {
		f.Accounts[name] = config.AccountRecord{
			Username:  acc.Username,
			Secret:    acc.Secret.Reveal(),
			ProjectID: acc.ProjectID,
			Region:    string(acc.Region),
		}
	}
	if err := config.Save(s.path, f); err != nil {
		return mperr.Wrap(mperr.CodeConfigError, err, "save account file").WithDetails(map[string]any{"path": s.path})
	}
	return nil
}

// sortedNames returns account names in alphabetical order, used by List
// so repeated calls are deterministic.
func sortedNames(accounts map[string]Account) []string {
	names := make([]string, 0, len(accounts))
	for n := range accounts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
