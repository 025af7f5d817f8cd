// mixpanel_data - Mixpanel Analytics Ingestion and Query Library
// Copyright 2026 mixpanel_data contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mixpanel-go/mixpanel_data

// Package apiclient drives all outbound HTTP traffic to the Mixpanel
// API: region routing, HTTP Basic auth, rate-limit retry with backoff,
// circuit breaking, and streaming JSONL decode across the segmentation,
// funnel, retention, JQL, engage, and export endpoint families.
package apiclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/mixpanel-go/mixpanel_data/internal/credentials"
	"github.com/mixpanel-go/mixpanel_data/internal/metrics"
	"github.com/mixpanel-go/mixpanel_data/internal/mperr"
)

// maxErrorBodySize bounds how much of a non-2xx body is read for the
// error message.
const maxErrorBodySize = 64 * 1024

// Config tunes retry/backoff and pacing. The zero value is usable;
// DefaultConfig documents the effective defaults.
type Config struct {
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	Timeout         time.Duration
	EngageRateLimit rate.Limit
	// BaseURL overrides the region-derived authority. Empty means use
	// creds.Region.BaseURL(); set for tests and self-hosted proxies.
	BaseURL string
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:      5,
		BaseDelay:       time.Second,
		MaxDelay:        60 * time.Second,
		Timeout:         60 * time.Second,
		EngageRateLimit: 3, // Engage pagination, requests/sec
	}
}

// Client talks to one Mixpanel project over one region's base authority.
type Client struct {
	baseURL string
	creds   credentials.Credentials
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[*http.Response]
	limiter *rate.Limiter
	cfg     Config
}

// NewClient builds a Client for creds using cfg's retry/timeout tuning.
func NewClient(creds credentials.Credentials, cfg Config) *Client {
	def := DefaultConfig()
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.EngageRateLimit == 0 {
		cfg.EngageRateLimit = def.EngageRateLimit
	}

	cb :=gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "mixpanel-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetCircuitBreakerState(int(to))
		},
	})

	baseURL := creds.Region.BaseURL()
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	return &Client{
		baseURL: baseURL,
		creds:   creds,
		http:    &http.Client{Timeout: cfg.Timeout},
		cb:      cb,
		limiter: rate.NewLimiter(cfg.EngageRateLimit, 1),
		cfg:     cfg,
	}
}

func (c *Client) url(path string, params url.Values) string {
	if params == nil {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + params.Encode()
}

func (c *Client) newRequest(ctx context.Context, method, reqURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Secret.Reveal())
	return req, nil
}

// doWithRetry executes req with exponential-backoff retry on 429 and
// retryable 5xx (excluding 501), honoring Retry-After, behind the
// circuit breaker. 401/403 fail immediately with AUTH_FAILED. endpoint
// labels the request/retry metrics only; it plays no part in routing.
func (c *Client) doWithRetry(ctx context.Context, endpoint string, buildReq func() (*http.Request, error)) (*http.Response, error) {
	start := time.Now()
	delay := c.cfg.BaseDelay
	var lastRetryAfter time.Duration
	var sawRateLimit bool

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := buildReq()
		if err != nil {
			return nil, err
		}

		resp, err := c.cb.Execute(func() (*http.Response, error) {
			resp, err := c.http.Do(req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode >= 500 && resp.StatusCode != 501 {
				body := readBodyForError(resp.Body)
				resp.Body.Close()
				return nil, mperr.New(mperr.CodeServerError, fmt.Sprintf("server error %d", resp.StatusCode)).
					WithDetails(map[string]any{"status": resp.StatusCode, "body": string(body)})
			}
			return resp, nil
		})
		if err != nil {
			if attempt == c.cfg.MaxRetries {
				metrics.RecordAPIRequest(endpoint, "failed", time.Since(start))
				return nil, err
			}
			wait := nextDelay(delay, attempt)
			metrics.RecordAPIRetry("server_error", wait)
			if waitOrErr := c.sleep(ctx, wait); waitOrErr != nil {
				return nil, waitOrErr
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			body := readBodyForError(resp.Body)
			resp.Body.Close()
			metrics.RecordAPIRequest(endpoint, "failed", time.Since(start))
			return nil, mperr.New(mperr.CodeAuthFailed, "authentication failed").
				WithDetails(map[string]any{"status": resp.StatusCode, "body": string(body)})

		case resp.StatusCode == http.StatusTooManyRequests:
			sawRateLimit = true
			retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
			resp.Body.Close()
			if attempt == c.cfg.MaxRetries {
				metrics.RecordAPIRequest(endpoint, "failed", time.Since(start))
				return nil, mperr.New(mperr.CodeRateLimited, "rate limit exceeded after retry budget").
					WithDetails(map[string]any{"retry_after_seconds": retryAfter.Seconds()})
			}
			wait := nextDelay(delay, attempt)
			if retryAfter > 0 {
				wait = retryAfter
			}
			lastRetryAfter = wait
			metrics.RecordAPIRetry("rate_limited", wait)
			if waitOrErr := c.sleep(ctx, wait); waitOrErr != nil {
				return nil, waitOrErr
			}

		case resp.StatusCode >= 400:
			body := readBodyForError(resp.Body)
			resp.Body.Close()
			metrics.RecordAPIRequest(endpoint, "failed", time.Since(start))
			return nil, mperr.New(mperr.CodeQueryFailed, fmt.Sprintf("request failed with status %d", resp.StatusCode)).
				WithDetails(map[string]any{"status": resp.StatusCode, "body": string(body)})

		default:
			outcome := "success"
			if attempt > 0 {
				outcome = "retried"
			}
			metrics.RecordAPIRequest(endpoint, outcome, time.Since(start))
			return resp, nil
		}
	}

	metrics.RecordAPIRequest(endpoint, "failed", time.Since(start))
	if sawRateLimit {
		return nil, mperr.New(mperr.CodeRateLimited, "rate limit exceeded after retry budget").
			WithDetails(map[string]any{"retry_after_seconds": lastRetryAfter.Seconds()})
	}
	return nil, mperr.New(mperr.CodeServerError, "retry budget exhausted")
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// nextDelay doubles the base delay per attempt, adds jitter, and caps at
// 60s: base 1s, factor 2, matching the documented backoff schedule.
func nextDelay(base time.Duration, attempt int) time.Duration {
	d := base * time.Duration(math.Pow(2, float64(attempt)))
	const cap = 60 * time.Second
	if d > cap {
		d = cap
	}
	jitter := time.Duration(rand.Int63n(int64(d)/4 + 1))
	return d + jitter
}

// parseRetryAfter accepts either a delta-seconds value or an HTTP-date.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := time.ParseDuration(value + "s"); err == nil {
		return secs
	}
	if t, err := http.ParseTime(value); err == nil {
		return time.Until(t)
	}
	return 0
}

func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

// doJSON issues a GET against path with params and decodes the body as a
// single JSON value.
func (c *Client) doJSON(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	resp, err := c.doWithRetry(ctx, path, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, c.url(path, params), http.NoBody)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mperr.Wrap(mperr.CodeQueryFailed, err, "read response body")
	}
	return json.RawMessage(body), nil
}

// reclassifyJQLSyntax turns a 422 QUERY_FAILED (as raised generically by
// doWithRetry) into JQL_SYNTAX when the status detail confirms it's a
// 422. Any other error or status passes through unchanged.
func reclassifyJQLSyntax(err error) error {
	var e *mperr.Error
	if !stderrors.As(err, &e) || e.Code != mperr.CodeQueryFailed {
		return err
	}
	status, _ := e.Details["status"].(int)
	if status != http.StatusUnprocessableEntity {
		return err
	}
	return mperr.New(mperr.CodeJQLSyntax, "JQL script failed to compile or execute").WithDetails(e.Details)
}
