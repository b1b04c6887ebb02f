package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/callhubmcp/callhubmcp/internal/account"
)

func testAccount(baseURL string) account.Account {
	return account.Account{
		Name:     "default",
		Username: "jane@example.org",
		APIKey:   "testkey",
		BaseURL:  baseURL,
	}
}

// newTestClient returns a client with jitter disabled and a sleep stub that
// records requested delays instead of waiting.
func newTestClient(t *testing.T, policy RetryPolicy) (*Client, *[]time.Duration) {
	t.Helper()
	c := NewClient(policy)
	c.jitter = nil
	var delays []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return c, &delays
}

// ─── Retry / backoff ───────────────────────────────────────────────────────

func TestDispatch_RetriesServerErrorsThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Authorization") != "Token testkey" {
			t.Errorf("missing auth header, got %q", r.Header.Get("Authorization"))
		}
		if calls <= 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	c, delays := newTestClient(t, RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     60 * time.Second,
		BackoffFactor:  2,
	})

	result, err := c.Dispatch(context.Background(), RequestSpec{
		Method: http.MethodGet, Path: "/v1/phonebooks/", Account: testAccount(srv.URL),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 attempts, got %d", calls)
	}
	if _, ok := result["results"]; !ok {
		t.Errorf("unexpected result: %v", result)
	}
	// Backoff doubles from the initial value: 2s, 4s, 8s.
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(*delays))
	}
	for i, d := range *delays {
		if d != want[i] {
			t.Errorf("sleep %d: expected %s, got %s", i, want[i], d)
		}
	}
}

func TestDispatch_BackoffCappedAtMax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, delays := newTestClient(t, RetryPolicy{
		MaxRetries:     4,
		InitialBackoff: 10 * time.Second,
		MaxBackoff:     25 * time.Second,
		BackoffFactor:  2,
	})

	_, err := c.Dispatch(context.Background(), RequestSpec{
		Method: http.MethodGet, Path: "/v1/agents/", Account: testAccount(srv.URL),
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	want := []time.Duration{10 * time.Second, 20 * time.Second, 25 * time.Second, 25 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %d: %v", len(want), len(*delays), *delays)
	}
	for i, d := range *delays {
		if d != want[i] {
			t.Errorf("sleep %d: expected %s, got %s", i, want[i], d)
		}
	}
}

func TestDispatch_ExhaustedRetriesReportsAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, RetryPolicy{MaxRetries: 2, InitialBackoff: time.Second, MaxBackoff: time.Minute, BackoffFactor: 2})
	_, err := c.Dispatch(context.Background(), RequestSpec{
		Method: http.MethodGet, Path: "/v1/teams/", Account: testAccount(srv.URL),
	})

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Kind != KindServer {
		t.Errorf("expected server kind, got %q", apiErr.Kind)
	}
	if apiErr.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", apiErr.Attempts)
	}
	if apiErr.Account != "default" {
		t.Errorf("expected account context, got %q", apiErr.Account)
	}
}

// ─── Retry-After ───────────────────────────────────────────────────────────

func TestDispatch_RetryAfterOverridesBackoff(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c, delays := newTestClient(t, RetryPolicy{MaxRetries: 3, InitialBackoff: time.Second, MaxBackoff: time.Minute, BackoffFactor: 2})
	if _, err := c.Dispatch(context.Background(), RequestSpec{
		Method: http.MethodGet, Path: "/v1/contacts/", Account: testAccount(srv.URL),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*delays) != 1 {
		t.Fatalf("expected 1 sleep, got %d", len(*delays))
	}
	if (*delays)[0] < 30*time.Second {
		t.Errorf("expected wait of at least 30s, got %s", (*delays)[0])
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if d := parseRetryAfter("5", now); d != 5*time.Second {
		t.Errorf("delta-seconds: expected 5s, got %s", d)
	}
	if d := parseRetryAfter("", now); d != 0 {
		t.Errorf("empty: expected 0, got %s", d)
	}
	httpDate := now.Add(90 * time.Second).Format(http.TimeFormat)
	if d := parseRetryAfter(httpDate, now); d != 90*time.Second {
		t.Errorf("http-date: expected 90s, got %s", d)
	}
	past := now.Add(-time.Hour).Format(http.TimeFormat)
	if d := parseRetryAfter(past, now); d != 0 {
		t.Errorf("past date: expected 0, got %s", d)
	}
}

// ─── Classification ────────────────────────────────────────────────────────

func TestDispatch_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail": "Not found."}`))
	}))
	defer srv.Close()

	c, delays := newTestClient(t, DefaultRetryPolicy())
	_, err := c.Dispatch(context.Background(), RequestSpec{
		Method: http.MethodGet, Path: "/v1/phonebooks/99/", Account: testAccount(srv.URL),
	})

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Kind != KindClient || apiErr.Status != 404 {
		t.Errorf("unexpected classification: %+v", apiErr)
	}
	if apiErr.Detail != "detail: Not found." {
		t.Errorf("unexpected detail: %q", apiErr.Detail)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", calls)
	}
	if len(*delays) != 0 {
		t.Errorf("expected no sleeps for client error")
	}
}

func TestDispatch_FieldErrorsFlattened(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"name": ["This field is required.", "Too short."], "contact": "invalid"}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, DefaultRetryPolicy())
	_, err := c.Dispatch(context.Background(), RequestSpec{
		Method: http.MethodPost, Path: "/v1/phonebooks/", Account: testAccount(srv.URL),
	})

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	want := "contact: invalid; name: This field is required.; name: Too short."
	if apiErr.Detail != want {
		t.Errorf("unexpected detail:\n got %q\nwant %q", apiErr.Detail, want)
	}
}

func TestDispatch_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, DefaultRetryPolicy())
	result, err := c.Dispatch(context.Background(), RequestSpec{
		Method: http.MethodDelete, Path: "/v1/tags/3/", Account: testAccount(srv.URL),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["success"] != true {
		t.Errorf("expected success marker, got %v", result)
	}
}

func TestDispatch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"broken`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, DefaultRetryPolicy())
	_, err := c.Dispatch(context.Background(), RequestSpec{
		Method: http.MethodGet, Path: "/v1/users/", Account: testAccount(srv.URL),
	})

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindDecode {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestDispatch_BareArrayWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"id": 1}, {"id": 2}]`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, DefaultRetryPolicy())
	result, err := c.Dispatch(context.Background(), RequestSpec{
		Method: http.MethodGet, Path: "/v1/numbers/validated_numbers/", Account: testAccount(srv.URL),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	arr, ok := result["results"].([]any)
	if !ok || len(arr) != 2 {
		t.Errorf("expected wrapped array of 2, got %v", result)
	}
}

// ─── Min-interval throttle ─────────────────────────────────────────────────

func TestDispatch_MinIntervalFailsFast(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, DefaultRetryPolicy())
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	spec := RequestSpec{
		Method: http.MethodPost, Path: "/v1/numbers/rent/",
		Account: testAccount(srv.URL), MinInterval: time.Minute,
	}
	if _, err := c.Dispatch(context.Background(), spec); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}

	c.now = func() time.Time { return base.Add(10 * time.Second) }
	_, err := c.Dispatch(context.Background(), spec)
	var rlErr *RateLimitError
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected *RateLimitError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("throttled call must not reach the server; got %d calls", calls)
	}

	// A different account is throttled independently.
	other := spec
	other.Account.Name = "client_a"
	if _, err := c.Dispatch(context.Background(), other); err != nil {
		t.Errorf("different account should pass: %v", err)
	}

	c.now = func() time.Time { return base.Add(61 * time.Second) }
	if _, err := c.Dispatch(context.Background(), spec); err != nil {
		t.Errorf("call after interval should pass: %v", err)
	}
}

// ─── Misc ──────────────────────────────────────────────────────────────────

func TestBuildURL(t *testing.T) {
	cases := map[[2]string]string{
		{"https://api.example.com", "v1/phonebooks/"}:   "https://api.example.com/v1/phonebooks/",
		{"https://api.example.com/", "/v1/phonebooks/"}: "https://api.example.com/v1/phonebooks/",
	}
	for in, want := range cases {
		if got := BuildURL(in[0], in[1]); got != want {
			t.Errorf("BuildURL(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestDispatch_QueryEncoded(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, DefaultRetryPolicy())
	q := url.Values{}
	q.Set("page", "2")
	q.Set("page_size", "50")
	if _, err := c.Dispatch(context.Background(), RequestSpec{
		Method: http.MethodGet, Path: "/v1/contacts/", Query: q, Account: testAccount(srv.URL),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery.Get("page") != "2" || gotQuery.Get("page_size") != "50" {
		t.Errorf("query not forwarded: %v", gotQuery)
	}
}
