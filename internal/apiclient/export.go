// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package apiclient

import (
	"context"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// ExportOptions selects the Export (events) date range and filters.
type ExportOptions struct {
	FromDate string
	ToDate   string
	Event    []string
	Where    string
	Limit    int
}

func (o ExportOptions) params() (url.Values, error) {
	if o.FromDate == "" || o.ToDate == "" {
		return nil, mperr.New(mperr.CodeInvalidArgument, "from_date and to_date are required")
	}
	params := url.Values{}
	params.Set("from_date", o.FromDate)
	params.Set("to_date", o.ToDate)
	if len(o.Event) > 0 {
		raw, err := json.Marshal(o.Event)
		if err != nil {
			return nil, mperr.Wrap(mperr.CodeInvalidArgument, err, "encode event filter")
		}
		params.Set("event", string(raw))
	}
	if o.Where != "" {
		params.Set("where", o.Where)
	}
	if o.Limit > 0 {
		params.Set("limit", strconv.Itoa(o.Limit))
	}
	return params, nil
}

// Export streams events for the requested range as line-delimited JSON.
func (c *Client) Export(ctx context.Context, opts ExportOptions) (RecordIter, error) {
	params, err := opts.params()
	if err != nil {
		return nil, err
	}
	return c.StreamJSONL(ctx, "/export", params)
}

// DateRange validates a [from, to] pair is well formed (YYYY-MM-DD) and
// ordered, for callers that need the check outside ExportOptions.
func DateRange(from, to string) error {
	f, err := time.Parse("2006-01-02", from)
	if err != nil {
		return mperr.New(mperr.CodeInvalidArgument, "from_date must be YYYY-MM-DD").WithDetails(map[string]any{"from_date": from})
	}
	t, err := time.Parse("2006-01-02", to)
	if err != nil {
		return mperr.New(mperr.CodeInvalidArgument, "to_date must be YYYY-MM-DD").WithDetails(map[string]any{"to_date": to})
	}
	if t.Before(f) {
		return mperr.New(mperr.CodeInvalidArgument, "to_date must not be before from_date").
			WithDetails(map[string]any{"from_date": from, "to_date": to})
	}
	return nil
}
