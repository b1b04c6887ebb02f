// Package activation drives the agent activation workflow: parsing exported
// activation-URL CSVs, walking each URL in a headless browser to set the
// agent's password, and checkpointing progress so interrupted runs resume.
package activation

import "fmt"

// Record is one agent activation entry extracted from a CSV export.
type Record struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	URL      string `json:"url"`
}

// Key identifies the record in the state store. Username when present,
// otherwise the activation URL itself.
func (r Record) Key() string {
	if r.Username != "" {
		return r.Username
	}
	return r.URL
}

// Status of a record within a job.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// ValidationError reports bad input caught before any browser is opened.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// FormatError reports CSV content that cannot be interpreted as
// activation data.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return e.Reason }

// BrowserError reports a failure while driving the activation page.
// Step is one of navigate, form, submit, verify.
type BrowserError struct {
	Step   string
	URL    string
	Detail string
	Err    error
}

func (e *BrowserError) Error() string {
	msg := fmt.Sprintf("activation %s failed", e.Step)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BrowserError) Unwrap() error { return e.Err }
