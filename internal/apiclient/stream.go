// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

package apiclient

import (
	"bufio"
	"context"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"

	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// RecordIter is the small iteration capability set streaming endpoints
// (Export, Engage) expose: advance, observe a record, observe an error,
// close. Callers must call Close once they stop advancing, including on
// early abandonment.
type RecordIter interface {
	// Next advances the iterator. It returns false when the stream is
	// exhausted or an error occurred; callers must check Err afterward.
	Next() bool
	// Record returns the most recently decoded record. Valid only after
	// a Next call that returned true.
	Record() json.RawMessage
	// Err returns the first error encountered, if any.
	Err() error
	// Close releases the underlying HTTP response body. Safe to call
	// more than once.
	Close() error
}

// jsonlIter decodes a line-delimited JSON body one record at a time
// without buffering the full body.
type jsonlIter struct {
	resp    *http.Response
	scanner *bufio.Scanner
	cur     json.RawMessage
	err     error
	closed  bool
}

func newJSONLIter(resp *http.Response) *jsonlIter {
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &jsonlIter{resp: resp, scanner: scanner}
}

func (it *jsonlIter) Next() bool {
	if it.err != nil || it.closed {
		return false
	}
	for it.scanner.Scan() {
		line := it.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		buf := make([]byte, len(line))
		copy(buf, line)
		it.cur = buf
		return true
	}
	if err := it.scanner.Err(); err != nil {
		it.err = mperr.Wrap(mperr.CodeQueryFailed, err, "stream decode failed")
	}
	return false
}

func (it *jsonlIter) Record() json.RawMessage { return it.cur }
func (it *jsonlIter) Err() error               { return it.err }

func (it *jsonlIter) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.resp.Body.Close()
}

// StreamJSONL issues a GET against path and returns a RecordIter over
// its line-delimited JSON body. The caller owns cancellation via ctx and
// must Close the iterator.
func (c *Client) StreamJSONL(ctx context.Context, path string, params url.Values) (RecordIter, error) {
	resp, err := c.doWithRetry(ctx, path, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, c.url(path, params), http.NoBody)
	})
	if err != nil {
		return nil, err
	}
	return newJSONLIter(resp), nil
}
