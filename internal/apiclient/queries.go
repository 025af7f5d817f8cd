// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package apiclient

import (
	"context"
	"net/url"

	json "github.com/goccy/go-json"
)

// Each method below is a thin params-builder plus a doJSON call; wire
// shaping into typed results happens one layer up, in internal/livequery,
// keeping the transport methods here free of family-specific decoding.

func setIf(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

// Segmentation queries /api/query/segmentation.
func (c *Client) Segmentation(ctx context.Context, event, fromDate, toDate, unit, on string) (json.RawMessage, error) {
	params := url.Values{"event": {event}, "from_date": {fromDate}, "to_date": {toDate}}
	setIf(params, "unit", unit)
	setIf(params, "on", on)
	return c.doJSON(ctx, "/api/query/segmentation", params)
}

// Funnel queries /funnels for a saved funnel id.
func (c *Client) Funnel(ctx context.Context, funnelID, fromDate, toDate string) (json.RawMessage, error) {
	params := url.Values{"funnel_id": {funnelID}, "from_date": {fromDate}, "to_date": {toDate}}
	return c.doJSON(ctx, "/funnels", params)
}

// Retention queries /retention.
func (c *Client) Retention(ctx context.Context, bornEvent, returnEvent, fromDate, toDate, unit string) (json.RawMessage, error) {
	params := url.Values{"from_date": {fromDate}, "to_date": {toDate}}
	setIf(params, "born_event", bornEvent)
	setIf(params, "event", returnEvent)
	setIf(params, "unit", unit)
	return c.doJSON(ctx, "/retention", params)
}

// JQL executes a JQL script against /jql. A 422 response is reclassified
// as JQL_SYNTAX rather than the generic QUERY_FAILED.
func (c *Client) JQL(ctx context.Context, script string, params map[string]any) (json.RawMessage, error) {
	form := url.Values{"script": {script}}
	if params != nil {
		raw, err := json.Marshal(params)
		if err == nil {
			form.Set("params", string(raw))
		}
	}
	raw, err := c.doJSON(ctx, "/jql", form)
	if err != nil {
		return nil, reclassifyJQLSyntax(err)
	}
	return raw, nil
}

// Insights fetches the unified insights/retention/funnel bookmark
// endpoint.
func (c *Client) Insights(ctx context.Context, bookmarkID string) (json.RawMessage, error) {
	return c.doJSON(ctx, "/query/insights", url.Values{"bookmark_id": {bookmarkID}})
}

// Flows fetches /arb_funnels with the given flows query type.
func (c *Client) Flows(ctx context.Context, bookmarkID, queryType string) (json.RawMessage, error) {
	if queryType == "" {
		queryType = "flows"
	}
	return c.doJSON(ctx, "/arb_funnels", url.Values{"bookmark_id": {bookmarkID}, "query_type": {queryType}})
}

// EventCounts queries /events.
func (c *Client) EventCounts(ctx context.Context, events []string, fromDate, toDate, unit string) (json.RawMessage, error) {
	params := url.Values{"from_date": {fromDate}, "to_date": {toDate}}
	if len(events) > 0 {
		raw, _ := json.Marshal(events)
		params.Set("event", string(raw))
	}
	setIf(params, "unit", unit)
	return c.doJSON(ctx, "/events", params)
}

// PropertyCounts queries /events/properties.
func (c *Client) PropertyCounts(ctx context.Context, event, property, fromDate, toDate, unit string) (json.RawMessage, error) {
	params := url.Values{"event": {event}, "name": {property}, "from_date": {fromDate}, "to_date": {toDate}}
	setIf(params, "unit", unit)
	return c.doJSON(ctx, "/events/properties", params)
}

// ActivityFeed queries the activity stream endpoint for one or more
// distinct ids.
func (c *Client) ActivityFeed(ctx context.Context, distinctIDs []string, fromDate, toDate string) (json.RawMessage, error) {
	raw, _ := json.Marshal(distinctIDs)
	params := url.Values{"distinct_ids": {string(raw)}}
	setIf(params, "from_date", fromDate)
	setIf(params, "to_date", toDate)
	return c.doJSON(ctx, "/stream/query", params)
}

// Frequency queries /events/properties/values style aggregation for
// {hour,day} bucketed frequency series.
func (c *Client) Frequency(ctx context.Context, event, from, to, unit, on string) (json.RawMessage, error) {
	params := url.Values{"event": {event}, "from_date": {from}, "to_date": {to}, "unit": {unit}}
	setIf(params, "on", on)
	return c.doJSON(ctx, "/events/properties/values", params)
}

// NumericBucket, NumericSum, NumericAverage share one request shape
// against the segmentation-numeric family, distinguished by the `type`
// query parameter.
func (c *Client) numericSegmentation(ctx context.Context, kind, event, from, to, unit, on string) (json.RawMessage, error) {
	params := url.Values{"event": {event}, "from_date": {from}, "to_date": {to}, "unit": {unit}, "type": {kind}}
	setIf(params, "on", on)
	return c.doJSON(ctx, "/api/query/segmentation/numeric", params)
}

func (c *Client) NumericBucket(ctx context.Context, event, from, to, unit, on string) (json.RawMessage, error) {
	return c.numericSegmentation(ctx, "general", event, from, to, unit, on)
}

func (c *Client) NumericSum(ctx context.Context, event, from, to, unit, on string) (json.RawMessage, error) {
	return c.numericSegmentation(ctx, "sum", event, from, to, unit, on)
}

func (c *Client) NumericAverage(ctx context.Context, event, from, to, unit, on string) (json.RawMessage, error) {
	return c.numericSegmentation(ctx, "average", event, from, to, unit, on)
}

// TopEvents queries /events/top.
func (c *Client) TopEvents(ctx context.Context, kind string, limit int) (json.RawMessage, error) {
	params := url.Values{}
	setIf(params, "type", kind)
	if limit > 0 {
		setIf(params, "limit", jsonInt(limit))
	}
	return c.doJSON(ctx, "/events/top", params)
}

func jsonInt(n int) string {
	raw, _ := json.Marshal(n)
	return string(raw)
}
