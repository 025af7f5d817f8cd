// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

// Package mixpanel is the library surface of mixpanel_data: it composes
// the credential resolver, API client, storage engine, and
// fetcher/discovery/live-query services into one session object. The
// CLI command layer, MCP server wrapper, and any other host process are
// external collaborators that drive this package and are not
// implemented here.
package mixpanel

import (
	"context"

	"github.com/mixpanel-go/mixpanel_data/internal/apiclient"
	"github.com/mixpanel-go/mixpanel_data/internal/credentials"
	"github.com/mixpanel-go/mixpanel_data/internal/discovery"
	"github.com/mixpanel-go/mixpanel_data/internal/fetcher"
	"github.com/mixpanel-go/mixpanel_data/internal/livequery"
	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
	"github.com/mixpanel-go/mixpanel_data/internal/storage"
)

// Re-exported so callers outside this module never need to import the
// internal packages directly.
type (
	Credentials   = credentials.Credentials
	AccountInfo   = credentials.AccountInfo
	Region        = credentials.Region
	Error         = mperr.Error
	ErrorCode     = mperr.Code
	TableType     = storage.TableType
	EventRow      = storage.EventRow
	ProfileRow    = storage.ProfileRow
	CreateOptions = storage.CreateOptions
)

// StoreConfig controls the local store's lifecycle mode and tuning.
type StoreConfig struct {
	storage.Config
	Ephemeral bool
	Memory    bool
}

// Session is one resolved Mixpanel project: credentials, an API client,
// a local store, and the three services built on top of them.
type Session struct {
	Credentials Credentials

	API       *apiclient.Client
	Store     *storage.Engine
	Fetcher   *FetcherFacade
	Discovery *discovery.Service
	Live      *livequery.Service
}

// Open resolves credentials for account (env -> named -> default) and
// opens the local store per storeCfg, wiring every service
// over the resulting client/engine pair.
func Open(ctx context.Context, account string, storeCfg StoreConfig, resolver *credentials.Resolver) (*Session, error) {
	creds, err := resolver.Resolve(ctx, account)
	if err != nil {
		return nil, err
	}

	client := apiclient.NewClient(creds, apiclient.DefaultConfig())

	var engine *storage.Engine
	switch {
	case storeCfg.Memory:
		engine, err = storage.OpenMemory()
	case storeCfg.Ephemeral:
		engine, err = storage.OpenEphemeral(creds.ProjectID)
	default:
		engine, err = storage.Open(storeCfg.Config, creds.ProjectID)
	}
	if err != nil {
		return nil, err
	}

	return &Session{
		Credentials: creds,
		API:         client,
		Store:       engine,
		Fetcher:     &FetcherFacade{client: client, engine: engine},
		Discovery:   discovery.New(client),
		Live:        livequery.New(client),
	}, nil
}

// Close closes the session's store. Ephemeral/in-memory stores leave no
// file behind.
func (s *Session) Close() error {
	return s.Store.Close()
}

// FetcherFacade binds the session's client/engine pair to the
// package-level fetcher functions so callers don't have to thread both
// through every call.
type FetcherFacade struct {
	client *apiclient.Client
	engine *storage.Engine
}

func (f *FetcherFacade) FetchEvents(ctx context.Context, table string, opts fetcher.FetchEventsOptions) (*fetcher.FetchResult, error) {
	return fetcher.FetchEvents(ctx, f.client, f.engine, table, opts)
}

func (f *FetcherFacade) FetchProfiles(ctx context.Context, table string, opts fetcher.FetchProfilesOptions) (*fetcher.FetchResult, error) {
	return fetcher.FetchProfiles(ctx, f.client, f.engine, table, opts)
}

func (f *FetcherFacade) ParallelFetchEvents(ctx context.Context, table, from, to string, opts fetcher.ParallelFetchOptions) (*fetcher.ParallelFetchResult, error) {
	return fetcher.ParallelFetchEvents(ctx, f.client, f.engine, table, from, to, opts)
}

func (f *FetcherFacade) StreamEvents(ctx context.Context, opts apiclient.ExportOptions) (apiclient.RecordIter, error) {
	return fetcher.StreamEvents(ctx, f.client, opts)
}

func (f *FetcherFacade) StreamProfiles(ctx context.Context, opts apiclient.EngageOptions) (apiclient.RecordIter, error) {
	return fetcher.StreamProfiles(ctx, f.client, opts)
}
