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

// EventNames lists distinct event names seen in the project.
func (c *Client) EventNames(ctx context.Context, kind string, limit int) (json.RawMessage, error) {
	params := url.Values{}
	setIf(params, "type", kind)
	if limit > 0 {
		params.Set("limit", jsonInt(limit))
	}
	return c.doJSON(ctx, "/events/names", params)
}

// EventProperties lists property names recorded against a given event.
func (c *Client) EventProperties(ctx context.Context, event string, limit int) (json.RawMessage, error) {
	params := url.Values{"event": {event}}
	if limit > 0 {
		params.Set("limit", jsonInt(limit))
	}
	return c.doJSON(ctx, "/events/properties/top", params)
}

// PropertyValues lists the distinct values seen for an event/property
// pair.
func (c *Client) PropertyValues(ctx context.Context, event, property string, limit int) (json.RawMessage, error) {
	params := url.Values{"event": {event}, "name": {property}}
	if limit > 0 {
		params.Set("limit", jsonInt(limit))
	}
	return c.doJSON(ctx, "/events/properties/values", params)
}

// FunnelsList enumerates saved funnels for the project.
func (c *Client) FunnelsList(ctx context.Context) (json.RawMessage, error) {
	return c.doJSON(ctx, "/funnels/list", nil)
}

// CohortsList enumerates saved cohorts for the project.
func (c *Client) CohortsList(ctx context.Context) (json.RawMessage, error) {
	return c.doJSON(ctx, "/cohorts/list", nil)
}

// Bookmarks enumerates saved report bookmarks for the project.
func (c *Client) Bookmarks(ctx context.Context) (json.RawMessage, error) {
	return c.doJSON(ctx, "/app/projects/"+c.creds.ProjectID+"/bookmarks", nil)
}

// LexiconSchemas fetches the project's lexicon event/property schema
// catalog.
func (c *Client) LexiconSchemas(ctx context.Context) (json.RawMessage, error) {
	return c.doJSON(ctx, "/app/projects/"+c.creds.ProjectID+"/schemas", nil)
}
