package api

import (
	"fmt"
	"time"
)

// ErrorKind classifies a failed dispatch outcome.
type ErrorKind string

const (
	// KindClient is a non-retryable 4xx response (400/401/403/404, …).
	KindClient ErrorKind = "client"
	// KindRateLimited is a 429 that survived all retries.
	KindRateLimited ErrorKind = "rate_limited"
	// KindServer is a 5xx or transport failure that survived all retries.
	KindServer ErrorKind = "server"
	// KindDecode is a 2xx response whose body was not valid JSON.
	KindDecode ErrorKind = "decode"
)

// Error is the normalized remote-API error. It carries enough context
// (endpoint, account, attempt count) for a caller to decide whether to
// retry the whole operation.
type Error struct {
	Kind     ErrorKind
	Status   int
	Endpoint string
	Account  string
	Attempts int
	Detail   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("callhub api: %s %s (account %s)", e.Kind, e.Endpoint, e.Account)
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// RateLimitError reports a domain-specific throttle violation: the caller
// invoked an endpoint more frequently than its declared minimum interval.
// It is surfaced immediately, never retried or queued.
type RateLimitError struct {
	Endpoint    string
	Account     string
	MinInterval time.Duration
	Elapsed     time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf(
		"callhub api: %s (account %s) allows one call per %s; last call was %s ago",
		e.Endpoint, e.Account, e.MinInterval, e.Elapsed.Round(time.Millisecond),
	)
}
