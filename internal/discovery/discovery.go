// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

// Package discovery wraps the Mixpanel discovery endpoints (event names,
// event properties, property values, funnels, cohorts, bookmarks, lexicon
// schemas) with a session-scoped cache keyed by the full argument tuple
// of each call.
package discovery

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/mixpanel-go/mixpanel_data/internal/apiclient"
	"github.com/mixpanel-go/mixpanel_data/internal/metrics"
	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// Service wraps an apiclient.Client with a session-scoped, argument-keyed
// cache. Entries never expire within the process lifetime; ClearCache is
// the only way to drop them early.
type Service struct {
	client *apiclient.Client

	mu    sync.RWMutex
	cache map[string]any
}

// New builds a Service over client. The cache starts empty.
func New(client *apiclient.Client) *Service {
	return &Service{client: client, cache: make(map[string]any)}
}

// cacheKey hashes the method discriminant and its normalized argument
// tuple into one key, rather than relying on string concatenation that
// could collide across call sites.
func cacheKey(method string, args ...any) string {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%s:%v", method, args)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, sum[:16])
}

func (s *Service) getCached(method, key string) (any, bool) {
	s.mu.RLock()
	v, ok := s.cache[key]
	s.mu.RUnlock()
	metrics.RecordDiscoveryCache(method, ok)
	return v, ok
}

func (s *Service) setCached(key string, v any) {
	s.mu.Lock()
	s.cache[key] = v
	s.mu.Unlock()
}

// ClearCache empties the cache.
func (s *Service) ClearCache() {
	s.mu.Lock()
	s.cache = make(map[string]any)
	s.mu.Unlock()
}

// ListEvents returns the project's distinct event names, sorted
// alphabetically at this layer. Cached.
func (s *Service) ListEvents(ctx context.Context) ([]string, error) {
	key := cacheKey("ListEvents")
	if cached, ok := s.getCached("ListEvents", key); ok {
		return cached.([]string), nil
	}

	raw, err := s.client.EventNames(ctx, "general", 0)
	if err != nil {
		return nil, err
	}
	names, err := decodeStringList(raw)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	s.setCached(key, names)
	return names, nil
}

// ListEventProperties returns the property names recorded against event,
// sorted alphabetically. Cached per event.
func (s *Service) ListEventProperties(ctx context.Context, event string) ([]string, error) {
	key := cacheKey("ListEventProperties", event)
	if cached, ok := s.getCached("ListEventProperties", key); ok {
		return cached.([]string), nil
	}

	raw, err := s.client.EventProperties(ctx, event, 0)
	if err != nil {
		return nil, err
	}
	names, err := decodeKeyList(raw)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	s.setCached(key, names)
	return names, nil
}

// ListPropertyValues returns the distinct values seen for an
// event/property pair. Cached; values themselves are not sorted (only
// event and property names are).
func (s *Service) ListPropertyValues(ctx context.Context, event, property string) ([]string, error) {
	key := cacheKey("ListPropertyValues", event, property)
	if cached, ok := s.getCached("ListPropertyValues", key); ok {
		return cached.([]string), nil
	}

	raw, err := s.client.PropertyValues(ctx, event, property, 0)
	if err != nil {
		return nil, err
	}
	values, err := decodeStringList(raw)
	if err != nil {
		return nil, err
	}
	s.setCached(key, values)
	return values, nil
}

// Funnel is one entry of ListFunnels' output.
type Funnel struct {
	FunnelID int64  `json:"funnel_id"`
	Name     string `json:"name"`
}

// ListFunnels enumerates saved funnels, sorted alphabetically by name.
// Cached.
func (s *Service) ListFunnels(ctx context.Context) ([]Funnel, error) {
	key := cacheKey("ListFunnels")
	if cached, ok := s.getCached("ListFunnels", key); ok {
		return cached.([]Funnel), nil
	}

	raw, err := s.client.FunnelsList(ctx)
	if err != nil {
		return nil, err
	}
	var funnels []Funnel
	if err := json.Unmarshal(raw, &funnels); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode funnels list")
	}
	sort.Slice(funnels, func(i, j int) bool { return funnels[i].Name < funnels[j].Name })
	s.setCached(key, funnels)
	return funnels, nil
}

// Cohort is one entry of ListCohorts' output.
type Cohort struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// ListCohorts enumerates saved cohorts, sorted alphabetically by name.
// Cached.
func (s *Service) ListCohorts(ctx context.Context) ([]Cohort, error) {
	key := cacheKey("ListCohorts")
	if cached, ok := s.getCached("ListCohorts", key); ok {
		return cached.([]Cohort), nil
	}

	raw, err := s.client.CohortsList(ctx)
	if err != nil {
		return nil, err
	}
	var cohorts []Cohort
	if err := json.Unmarshal(raw, &cohorts); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode cohorts list")
	}
	sort.Slice(cohorts, func(i, j int) bool { return cohorts[i].Name < cohorts[j].Name })
	s.setCached(key, cohorts)
	return cohorts, nil
}

// Bookmark is one entry of ListBookmarks' output.
type Bookmark struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ListBookmarks enumerates saved report bookmarks. Never cached:
// bookmarks are frequently created/edited interactively and a stale
// list would be actively misleading.
func (s *Service) ListBookmarks(ctx context.Context) ([]Bookmark, error) {
	raw, err := s.client.Bookmarks(ctx)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Bookmarks []Bookmark `json:"bookmarks"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode bookmarks")
	}
	return payload.Bookmarks, nil
}

// ListLexiconSchemas fetches the project's lexicon event/property schema
// catalog as a raw JSON payload; the schema's own shape is opaque to this
// layer. Cached.
func (s *Service) ListLexiconSchemas(ctx context.Context) (json.RawMessage, error) {
	key := cacheKey("ListLexiconSchemas")
	if cached, ok := s.getCached("ListLexiconSchemas", key); ok {
		return cached.(json.RawMessage), nil
	}

	raw, err := s.client.LexiconSchemas(ctx)
	if err != nil {
		return nil, err
	}
	s.setCached(key, raw)
	return raw, nil
}

// TopEvent is one entry of ListTopEvents' output.
type TopEvent struct {
	Event string `json:"event"`
	Count int64  `json:"amount"`
}

// ListTopEvents returns the project's most frequent events. Never
// cached: it reflects a time-of-day signal, so a cache hit would
// silently go stale within the same session.
func (s *Service) ListTopEvents(ctx context.Context, kind string, limit int) ([]TopEvent, error) {
	raw, err := s.client.TopEvents(ctx, kind, limit)
	if err != nil {
		return nil, err
	}
	var payload map[string]struct {
		Amount int64 `json:"amount"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode top events")
	}
	out := make([]TopEvent, 0, len(payload))
	for event, v := range payload {
		out = append(out, TopEvent{Event: event, Count: v.Amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

func decodeStringList(raw json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode discovery list")
	}
	return list, nil
}

// decodeKeyList decodes a {"name": count, ...}-shaped payload (the
// /events/properties/top wire shape) into just its key set, in map
// iteration order; callers sort it.
func decodeKeyList(raw json.RawMessage) ([]string, error) {
	var counts map[string]int64
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "decode discovery counts")
	}
	out := make([]string, 0, len(counts))
	for k := range counts {
		out = append(out, k)
	}
	return out, nil
}
