// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

// Package config loads and persists the mixpanel_data account file.
//
// Providers layer in order: struct defaults, then the TOML file, then
// environment overrides, narrowed to the one document this module
// persists — the account file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the account file location.
const ConfigPathEnvVar = "MP_CONFIG_PATH"

// AccountRecord is the on-disk shape of one named account, the
// `[accounts.<name>]` table described in the external configuration
// format.
type AccountRecord struct {
	Username  string `koanf:"username" toml:"username"`
	Secret    string `koanf:"secret" toml:"secret"`
	ProjectID string `koanf:"project_id" toml:"project_id"`
	Region    string `koanf:"region" toml:"region"`
}

// File is the on-disk shape of the whole account file: a top-level
// `default` key naming the default account, plus an `accounts` table.
type File struct {
	Default  string                   `koanf:"default" toml:"default"`
	Accounts map[string]AccountRecord `koanf:"accounts" toml:"accounts"`
}

func defaultFile() *File {
	return &File{Accounts: map[string]AccountRecord{}}
}

// DefaultPath returns ${HOME}/.mixpanel_data/config.toml, honoring
// MP_CONFIG_PATH when set.
func DefaultPath() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".mixpanel_data", "config.toml")
}

// Load reads and parses the account file at path. A missing file is not
// an error: it yields an empty File so that the first `add_account` call
// can create it.
func Load(path string) (*File, error) {
	f := defaultFile()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(f, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}

	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	// MP_DEFAULT overrides which named account Resolve() falls back to,
	// without touching the file on disk.
	if err := k.Load(env.Provider("MP_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: load env overrides: %w", err)
	}

	out := defaultFile()
	if err := k.Unmarshal("", out); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if out.Accounts == nil {
		out.Accounts = map[string]AccountRecord{}
	}
	return out, nil
}

// envTransform maps MP_-prefixed environment variables to koanf paths.
// Only MP_DEFAULT is recognized; account credentials are resolved
// separately (env -> named -> default, see credentials.Resolver) rather
// than through this file's account table.
func envTransform(key string) string {
	key = strings.TrimPrefix(strings.ToLower(key), "mp_")
	if key == "default" {
		return "default"
	}
	return ""
}

// Save writes f to path as TOML, creating parent directories as needed.
func Save(path string, f *File) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("config: mkdir %s: %w", dir, err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(f, "koanf"), nil); err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	data, err := k.Marshal(toml.Parser())
	if err != nil {
		return fmt.Errorf("config: encode toml: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
