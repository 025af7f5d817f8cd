// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package apiclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
	"github.com/mixpanel-go/mixpanel_data/internal/validation"
)

// EngageOptions selects the Engage (profiles) page described in the
// external interface. DistinctID and DistinctIDs are mutually exclusive,
// as are Behaviors and CohortID.
type EngageOptions struct {
	Where            string   `validate:"omitempty"`
	CohortID         string   `validate:"omitempty,excluded_with=Behaviors"`
	OutputProperties []string `validate:"omitempty"`
	DistinctID       string   `validate:"omitempty,excluded_with=DistinctIDs"`
	DistinctIDs      []string `validate:"omitempty,excluded_with=DistinctID"`
	DataGroupID      string   `validate:"omitempty"`
	Behaviors        string   `validate:"omitempty,excluded_with=CohortID"`
	AsOfTimestamp    int64    `validate:"omitempty"`
	// IncludeAllUsers is only meaningful alongside CohortID and defaults
	// to true per spec §4.2; nil means "unset" (true), so only an
	// explicit false suppresses it. Not enforced as a hard dependency on
	// CohortID here because the service tolerates it being set without a
	// cohort (a no-op upstream).
	IncludeAllUsers *bool
}

func (o EngageOptions) params() (url.Values, error) {
	if verr := validation.ValidateStruct(&o); verr != nil {
		return nil, verr.ToMPErr()
	}

	params := url.Values{}
	if o.Where != "" {
		params.Set("where", o.Where)
	}
	if o.CohortID != "" {
		params.Set("filter_by_cohort", fmt.Sprintf(`{"id":%s}`, o.CohortID))
	}
	if len(o.OutputProperties) > 0 {
		raw, err := json.Marshal(o.OutputProperties)
		if err != nil {
			return nil, mperr.Wrap(mperr.CodeInvalidArgument, err, "encode output_properties")
		}
		params.Set("output_properties", string(raw))
	}
	if o.DistinctID != "" {
		params.Set("distinct_id", o.DistinctID)
	}
	if len(o.DistinctIDs) > 0 {
		raw, err := json.Marshal(o.DistinctIDs)
		if err != nil {
			return nil, mperr.Wrap(mperr.CodeInvalidArgument, err, "encode distinct_ids")
		}
		params.Set("distinct_ids", string(raw))
	}
	if o.DataGroupID != "" {
		params.Set("data_group_id", o.DataGroupID)
	}
	if o.Behaviors != "" {
		params.Set("behaviors", o.Behaviors)
		asOf := o.AsOfTimestamp
		if asOf == 0 {
			asOf = time.Now().Unix()
		}
		params.Set("as_of_timestamp", strconv.FormatInt(asOf, 10))
	}
	if o.CohortID != "" {
		includeAllUsers := true
		if o.IncludeAllUsers != nil {
			includeAllUsers = *o.IncludeAllUsers
		}
		params.Set("include_all_users", strconv.FormatBool(includeAllUsers))
	}
	return params, nil
}

type engagePage struct {
	Results   []json.RawMessage `json:"results"`
	SessionID string            `json:"session_id"`
	Page      int               `json:"page"`
}

// engageIter pages through Engage via {session_id, page} cursors until a
// page returns zero results.
type engageIter struct {
	ctx       context.Context
	client    *Client
	base      url.Values
	sessionID string
	page      int
	started   bool

	buf []json.RawMessage
	idx int
	cur json.RawMessage
	err error
	done bool
}

func (it *engageIter) fetchPage() bool {
	if it.done {
		return false
	}
	if err := it.client.limiter.Wait(it.ctx); err != nil {
		it.err = err
		return false
	}

	params := url.Values{}
	for k, v := range it.base {
		params[k] = v
	}
	if it.started {
		params.Set("session_id", it.sessionID)
		params.Set("page", strconv.Itoa(it.page))
	}

	raw, err := it.client.doJSON(it.ctx, "/engage", params)
	if err != nil {
		it.err = err
		return false
	}

	var page engagePage
	if err := json.Unmarshal(raw, &page); err != nil {
		it.err = mperr.Wrap(mperr.CodeQueryFailed, err, "decode engage page")
		return false
	}

	if !it.started {
		it.sessionID = page.SessionID
	}
	it.started = true

	if len(page.Results) == 0 {
		it.done = true
		return false
	}

	it.buf = page.Results
	it.idx = 0
	it.page++
	return true
}

func (it *engageIter) Next() bool {
	if it.err != nil {
		return false
	}
	for it.idx >= len(it.buf) {
		if !it.fetchPage() {
			return false
		}
	}
	it.cur = it.buf[it.idx]
	it.idx++
	return true
}

func (it *engageIter) Record() json.RawMessage { return it.cur }
func (it *engageIter) Err() error               { return it.err }
func (it *engageIter) Close() error             { it.done = true; return nil }

// Engage pages through the Engage (profiles) endpoint. Mutually-exclusive
// parameter rules are validated before any network call.
func (c *Client) Engage(ctx context.Context, opts EngageOptions) (RecordIter, error) {
	params, err := opts.params()
	if err != nil {
		return nil, err
	}
	return &engageIter{ctx: ctx, client: c, base: params}, nil
}
