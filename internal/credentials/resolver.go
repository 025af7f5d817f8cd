// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package credentials

import (
	"context"
	"os"
	"sync"

	"github.com/mixpanel-go/mixpanel_data/internal/logging"
	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// Resolver resolves a frozen Credentials record and manages the account
// lifecycle (add/remove/set-default/get/list) backed by a Store.
type Resolver struct {
	store Store

	mu  sync.Mutex
	cfg *Config
}

// NewResolver builds a Resolver over store. The account file is read
// lazily, on first use.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

func (r *Resolver) load() (*Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg != nil {
		return r.cfg, nil
	}
	cfg, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	r.cfg = cfg
	return cfg, nil
}

func (r *Resolver) save(cfg *Config) error {
	if err := r.store.Save(cfg); err != nil {
		return err
	}
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
	return nil
}

// envCredentials returns env-sourced Credentials and true only when all
// four of MP_USERNAME, MP_SECRET, MP_PROJECT_ID, MP_REGION are set.
func envCredentials() (Credentials, bool) {
	username := os.Getenv("MP_USERNAME")
	secret := os.Getenv("MP_SECRET")
	projectID := os.Getenv("MP_PROJECT_ID")
	region := os.Getenv("MP_REGION")
	if username == "" || secret == "" || projectID == "" || region == "" {
		return Credentials{}, false
	}
	logging.RegisterSecret(secret)
	return Credentials{
		Username:  username,
		Secret:    NewSecret(secret),
		ProjectID: projectID,
		Region:    Region(region),
	}, true
}

// Resolve implements the env -> named account -> default account order.
// account may be empty, in which case only env and the default account
// are considered.
func (r *Resolver) Resolve(_ context.Context, account string) (Credentials, error) {
	if creds, ok := envCredentials(); ok {
		return creds, nil
	}

	cfg, err := r.load()
	if err != nil {
		return Credentials{}, err
	}

	name := account
	if name == "" {
		name = cfg.Default
	}
	if name == "" {
		return Credentials{}, mperr.New(mperr.CodeAccountNotFound, "no account name given and no default account configured")
	}

	acc, ok := cfg.Accounts[name]
	if !ok {
		return Credentials{}, accountNotFound(name)
	}
	logging.RegisterSecret(acc.Secret.Reveal())
	return acc.toCredentials(), nil
}

// Add creates a new named account. Fails with ACCOUNT_EXISTS if the name
// is already taken.
func (r *Resolver) Add(name, username, secret, projectID string, region Region) error {
	if !region.Valid() {
		return mperr.New(mperr.CodeInvalidArgument, "invalid region").WithDetails(map[string]any{"region": string(region)})
	}

	cfg, err := r.load()
	if err != nil {
		return err
	}
	if _, exists := cfg.Accounts[name]; exists {
		return accountExists(name)
	}

	next := cloneConfig(cfg)
	isDefault := len(next.Accounts) == 0
	next.Accounts[name] = Account{
		Name:      name,
		Username:  username,
		Secret:    NewSecret(secret),
		ProjectID: projectID,
		Region:    region,
		IsDefault: isDefault,
	}
	if isDefault {
		next.Default = name
	}
	return r.save(next)
}

// Remove deletes a named account. Fails with ACCOUNT_NOT_FOUND if absent.
func (r *Resolver) Remove(name string) error {
	cfg, err := r.load()
	if err != nil {
		return err
	}
	if _, exists := cfg.Accounts[name]; !exists {
		return accountNotFound(name)
	}

	next := cloneConfig(cfg)
	delete(next.Accounts, name)
	if next.Default == name {
		next.Default = ""
	}
	return r.save(next)
}

// SetDefault marks name as the default account.
func (r *Resolver) SetDefault(name string) error {
	cfg, err := r.load()
	if err != nil {
		return err
	}
	if _, exists := cfg.Accounts[name]; !exists {
		return accountNotFound(name)
	}

	next := cloneConfig(cfg)
	for n, acc := range next.Accounts {
		acc.IsDefault = n == name
		next.Accounts[n] = acc
	}
	next.Default = name
	return r.save(next)
}

// Get returns the redacted info for a named account.
func (r *Resolver) Get(name string) (AccountInfo, error) {
	cfg, err := r.load()
	if err != nil {
		return AccountInfo{}, err
	}
	acc, ok := cfg.Accounts[name]
	if !ok {
		return AccountInfo{}, accountNotFound(name)
	}
	return acc.Info(), nil
}

// List returns every account's redacted info, alphabetically by name.
func (r *Resolver) List() ([]AccountInfo, error) {
	cfg, err := r.load()
	if err != nil {
		return nil, err
	}
	names := sortedNames(cfg.Accounts)
	out := make([]AccountInfo, 0, len(names))
	for _, n := range names {
		out = append(out, cfg.Accounts[n].Info())
	}
	return out, nil
}

func cloneConfig(cfg *Config) *Config {
	next := &Config{Default: cfg.Default, Accounts: make(map[string]Account, len(cfg.Accounts))}
	for k, v := range cfg.Accounts {
		next.Accounts[k] = v
	}
	return next
}
