// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package livequery

import (
	"context"

	"github.com/mixpanel-go/mixpanel_data/internal/apiclient"
)

// Service sends one request per query family and normalizes the
// response into the matching immutable result record. It holds no
// state of its own beyond the API client; unlike Discovery it
// never caches, since live-query results are expected to change between
// calls.
type Service struct {
	client *apiclient.Client
}

// New builds a Service over client.
func New(client *apiclient.Client) *Service {
	return &Service{client: client}
}

// Segmentation runs a segmentation query.
func (s *Service) Segmentation(ctx context.Context, opts SegmentationOptions) (*SegmentationResult, error) {
	on := NormalizeOn(opts.SegmentProperty)
	raw, err := s.client.Segmentation(ctx, opts.Event, opts.FromDate, opts.ToDate, opts.Unit, on)
	if err != nil {
		return nil, err
	}
	return decodeSegmentation(raw, opts)
}

// Funnel fetches a saved funnel's conversion by id.
func (s *Service) Funnel(ctx context.Context, funnelID, fromDate, toDate string) (*FunnelResult, error) {
	raw, err := s.client.Funnel(ctx, funnelID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	return decodeFunnel(raw, funnelID, fromDate, toDate)
}

// Retention runs a born/return-event retention query.
func (s *Service) Retention(ctx context.Context, bornEvent, returnEvent, fromDate, toDate, unit string) (*RetentionResult, error) {
	raw, err := s.client.Retention(ctx, bornEvent, returnEvent, fromDate, toDate, unit)
	if err != nil {
		return nil, err
	}
	return decodeRetention(raw, bornEvent, returnEvent, fromDate, toDate, unit)
}

// JQL executes a JQL script. Any 422 response surfaces as JQL_SYNTAX
// rather than the generic QUERY_FAILED (the response body is not
// inspected); that
// reclassification happens in apiclient.Client.JQL, which has access to
// the raw status code.
func (s *Service) JQL(ctx context.Context, script string, params map[string]any) (*JQLResult, error) {
	raw, err := s.client.JQL(ctx, script, params)
	if err != nil {
		return nil, err
	}
	return decodeJQL(raw)
}

// EventCounts runs the /events counts query.
func (s *Service) EventCounts(ctx context.Context, events []string, fromDate, toDate, unit string) (*EventCountsResult, error) {
	raw, err := s.client.EventCounts(ctx, events, fromDate, toDate, unit)
	if err != nil {
		return nil, err
	}
	return decodeEventCounts(raw, fromDate, toDate, unit)
}

// PropertyCounts runs the /events/properties counts query.
func (s *Service) PropertyCounts(ctx context.Context, event, property, fromDate, toDate, unit string) (*PropertyCountsResult, error) {
	raw, err := s.client.PropertyCounts(ctx, event, property, fromDate, toDate, unit)
	if err != nil {
		return nil, err
	}
	return decodePropertyCounts(raw, event, property, fromDate, toDate, unit)
}

// Frequency runs the frequency bucketed-aggregation query.
func (s *Service) Frequency(ctx context.Context, event, from, to string, unit NumericUnit, on string) (*NumericResult, error) {
	normOn := NormalizeOn(on)
	raw, err := s.client.Frequency(ctx, event, from, to, string(unit), normOn)
	if err != nil {
		return nil, err
	}
	return decodeNumeric(raw, NumericFrequency, event, from, to, unit, on)
}

// NumericBucket runs the numeric-bucket aggregation query.
func (s *Service) NumericBucket(ctx context.Context, event, from, to string, unit NumericUnit, on string) (*NumericResult, error) {
	normOn := NormalizeOn(on)
	raw, err := s.client.NumericBucket(ctx, event, from, to, string(unit), normOn)
	if err != nil {
		return nil, err
	}
	return decodeNumeric(raw, NumericBucket, event, from, to, unit, on)
}

// NumericSum runs the numeric-sum aggregation query.
func (s *Service) NumericSum(ctx context.Context, event, from, to string, unit NumericUnit, on string) (*NumericResult, error) {
	normOn := NormalizeOn(on)
	raw, err := s.client.NumericSum(ctx, event, from, to, string(unit), normOn)
	if err != nil {
		return nil, err
	}
	return decodeNumeric(raw, NumericSum, event, from, to, unit, on)
}

// NumericAverage runs the numeric-average aggregation query.
func (s *Service) NumericAverage(ctx context.Context, event, from, to string, unit NumericUnit, on string) (*NumericResult, error) {
	normOn := NormalizeOn(on)
	raw, err := s.client.NumericAverage(ctx, event, from, to, string(unit), normOn)
	if err != nil {
		return nil, err
	}
	return decodeNumeric(raw, NumericAverage, event, from, to, unit, on)
}

// ActivityFeed fetches the activity stream for one or more distinct ids.
func (s *Service) ActivityFeed(ctx context.Context, distinctIDs []string, fromDate, toDate string) (*ActivityFeedResult, error) {
	raw, err := s.client.ActivityFeed(ctx, distinctIDs, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	return decodeActivityFeed(raw, distinctIDs)
}

// QuerySavedReport issues against the insights endpoint regardless of
// the underlying bookmark type (insights, retention, or funnel).
func (s *Service) QuerySavedReport(ctx context.Context, bookmarkID string) (*InsightsResult, error) {
	raw, err := s.client.Insights(ctx, bookmarkID)
	if err != nil {
		return nil, err
	}
	return decodeInsights(raw)
}

// QueryFlows issues against the arb_funnels endpoint with the given
// flows query type ("flows" or "flows_sankey").
func (s *Service) QueryFlows(ctx context.Context, bookmarkID, queryType string) (*FlowsResult, error) {
	raw, err := s.client.Flows(ctx, bookmarkID, queryType)
	if err != nil {
		return nil, err
	}
	return decodeFlows(raw)
}
