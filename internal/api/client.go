// Package api implements the HTTP dispatch core for the CallHub REST API:
// authenticated request construction, retry with exponential backoff,
// response classification, and per-endpoint minimum-interval throttling.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/callhubmcp/callhubmcp/internal/account"
)

// RetryPolicy controls the retry/backoff loop. Read-only after construction.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

// DefaultRetryPolicy mirrors the process defaults (3 retries, 2s initial,
// 60s cap, factor 2).
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     60 * time.Second,
		BackoffFactor:  2,
	}
}

// RequestSpec describes one authenticated call. Constructed per call,
// never persisted.
type RequestSpec struct {
	Method  string
	Path    string
	Query   url.Values
	Form    url.Values // form-encoded body; mutually exclusive with JSON
	JSON    any        // JSON body; mutually exclusive with Form
	Account account.Account
	// MinInterval, when non-zero, declares a domain-specific rate limit
	// tighter than the generic retry policy. Calls arriving earlier than
	// MinInterval after the previous call to the same (account, path) fail
	// fast with *RateLimitError.
	MinInterval time.Duration
}

// Client dispatches RequestSpecs with retry/backoff. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	policy     RetryPolicy
	throttle   *throttle

	// Test seams.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
	now    func() time.Time
}

// NewClient creates a dispatch client with the given policy.
func NewClient(policy RetryPolicy) *Client {
	if policy.BackoffFactor < 1 {
		policy.BackoffFactor = 2
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		policy:     policy,
		throttle:   newThrottle(),
		sleep:      sleepCtx,
		jitter:     func() float64 { return 0.8 + rand.Float64()*0.4 },
		now:        time.Now,
	}
}

// Dispatch sends the request and returns the decoded JSON body.
// 204 and empty bodies decode to {"success": true}.
func (c *Client) Dispatch(ctx context.Context, spec RequestSpec) (map[string]any, error) {
	if spec.MinInterval > 0 {
		if err := c.throttle.reserve(spec.Account.Name, spec.Path, spec.MinInterval, c.now()); err != nil {
			return nil, err
		}
	}

	endpoint := spec.Method + " " + spec.Path
	backoff := c.policy.InitialBackoff
	attempts := 0

	for {
		attempts++
		result, retryable, retryAfter, err := c.attempt(ctx, spec, attempts)
		if err == nil {
			return result, nil
		}
		if !retryable || attempts > c.policy.MaxRetries {
			return nil, c.finalize(err, endpoint, spec.Account.Name, attempts)
		}

		delay := backoff
		if c.jitter != nil {
			delay = time.Duration(float64(backoff) * c.jitter())
		}
		if delay > c.policy.MaxBackoff {
			delay = c.policy.MaxBackoff
		}
		// A server-provided Retry-After hint always wins.
		if retryAfter > 0 {
			delay = retryAfter
			slog.Info("server requested delay via retry-after", "delay", delay, "endpoint", endpoint)
		}
		backoff = time.Duration(float64(backoff) * c.policy.BackoffFactor)
		if backoff > c.policy.MaxBackoff {
			backoff = c.policy.MaxBackoff
		}

		slog.Warn("request failed, retrying",
			"endpoint", endpoint, "account", spec.Account.Name,
			"attempt", attempts, "max", c.policy.MaxRetries+1, "delay", delay, "err", err)

		if serr := c.sleep(ctx, delay); serr != nil {
			return nil, serr
		}
	}
}

// attempt performs a single request. It returns (result, retryable,
// retryAfter, err); retryAfter is only meaningful when retryable.
func (c *Client) attempt(ctx context.Context, spec RequestSpec, attempt int) (map[string]any, bool, time.Duration, error) {
	req, err := c.buildRequest(ctx, spec)
	if err != nil {
		return nil, false, 0, err
	}

	slog.Debug("dispatching", "method", spec.Method, "url", req.URL.String(), "attempt", attempt)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Connection errors and timeouts are retryable.
		return nil, true, 0, &Error{Kind: KindServer, Err: err, Detail: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, 0, &Error{Kind: KindServer, Status: resp.StatusCode, Err: err, Detail: "reading response body"}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), c.now())
		return nil, true, retryAfter, &Error{
			Kind: KindRateLimited, Status: resp.StatusCode, Detail: flattenErrorBody(body),
		}

	case resp.StatusCode >= 500:
		return nil, true, 0, &Error{
			Kind: KindServer, Status: resp.StatusCode, Detail: flattenErrorBody(body),
		}

	case resp.StatusCode >= 400:
		return nil, false, 0, &Error{
			Kind: KindClient, Status: resp.StatusCode, Detail: flattenErrorBody(body),
		}
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{"success": true, "message": "Operation successful"}, false, 0, nil
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		// Some endpoints return bare arrays; wrap them.
		var arr []any
		if aerr := json.Unmarshal(body, &arr); aerr == nil {
			return map[string]any{"results": arr}, false, 0, nil
		}
		return nil, false, 0, &Error{
			Kind: KindDecode, Status: resp.StatusCode, Err: err,
			Detail: fmt.Sprintf("malformed JSON body (%d bytes)", len(body)),
		}
	}
	return result, false, 0, nil
}

func (c *Client) buildRequest(ctx context.Context, spec RequestSpec) (*http.Request, error) {
	u := BuildURL(spec.Account.BaseURL, spec.Path)
	if len(spec.Query) > 0 {
		u += "?" + spec.Query.Encode()
	}

	var body io.Reader
	contentType := "application/json"
	switch {
	case spec.JSON != nil:
		data, err := json.Marshal(spec.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	case len(spec.Form) > 0:
		body = strings.NewReader(spec.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+spec.Account.APIKey)
	req.Header.Set("Content-Type", contentType)
	return req, nil
}

// finalize attaches endpoint/account/attempt context to the terminal error.
func (c *Client) finalize(err error, endpoint, acct string, attempts int) error {
	if apiErr, ok := err.(*Error); ok {
		apiErr.Endpoint = endpoint
		apiErr.Account = acct
		apiErr.Attempts = attempts
		return apiErr
	}
	return &Error{Kind: KindServer, Endpoint: endpoint, Account: acct, Attempts: attempts, Err: err, Detail: err.Error()}
}

// BuildURL joins a base URL and a path without doubling slashes.
func BuildURL(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// parseRetryAfter accepts delta-seconds or an HTTP-date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// flattenErrorBody turns a CallHub field-error object into "field: msg; …".
// Non-JSON bodies are returned as-is, truncated.
func flattenErrorBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	var fields map[string]any
	if err := json.Unmarshal(trimmed, &fields); err == nil {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var parts []string
		for _, field := range keys {
			switch v := fields[field].(type) {
			case []any:
				for _, msg := range v {
					parts = append(parts, fmt.Sprintf("%s: %v", field, msg))
				}
			default:
				parts = append(parts, fmt.Sprintf("%s: %v", field, v))
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}

	s := string(trimmed)
	if len(s) > 500 {
		s = s[:500] + "..."
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
