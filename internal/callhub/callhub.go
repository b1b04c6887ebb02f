// Package callhub exposes thin typed wrappers over the CallHub REST API.
// Domain payloads (phonebooks, contacts, campaigns, …) stay opaque maps;
// the wrappers only shape parameters and pick endpoints. All transport
// concerns live in internal/api.
package callhub

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/callhubmcp/callhubmcp/internal/account"
	"github.com/callhubmcp/callhubmcp/internal/api"
)

// Result is the decoded JSON body of a successful API call.
type Result = map[string]any

// Service binds the dispatch core to the account resolver.
type Service struct {
	resolver *account.Resolver
	client   *api.Client
}

// NewService creates the endpoint wrapper service.
func NewService(resolver *account.Resolver, client *api.Client) *Service {
	return &Service{resolver: resolver, client: client}
}

// Page holds optional pagination parameters shared by list endpoints.
type Page struct {
	Page     int
	PageSize int
}

func (p Page) query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(p.PageSize))
	}
	return q
}

func (s *Service) get(ctx context.Context, acctName, path string, query url.Values) (Result, error) {
	acct, err := s.resolver.Resolve(acctName)
	if err != nil {
		return nil, err
	}
	return s.client.Dispatch(ctx, api.RequestSpec{
		Method: "GET", Path: path, Query: query, Account: acct,
	})
}

func (s *Service) postForm(ctx context.Context, acctName, path string, form url.Values) (Result, error) {
	acct, err := s.resolver.Resolve(acctName)
	if err != nil {
		return nil, err
	}
	return s.client.Dispatch(ctx, api.RequestSpec{
		Method: "POST", Path: path, Form: form, Account: acct,
	})
}

func (s *Service) postJSON(ctx context.Context, acctName, path string, body any, minInterval time.Duration) (Result, error) {
	acct, err := s.resolver.Resolve(acctName)
	if err != nil {
		return nil, err
	}
	return s.client.Dispatch(ctx, api.RequestSpec{
		Method: "POST", Path: path, JSON: body, Account: acct, MinInterval: minInterval,
	})
}

func (s *Service) patchForm(ctx context.Context, acctName, path string, form url.Values) (Result, error) {
	acct, err := s.resolver.Resolve(acctName)
	if err != nil {
		return nil, err
	}
	return s.client.Dispatch(ctx, api.RequestSpec{
		Method: "PATCH", Path: path, Form: form, Account: acct,
	})
}

func (s *Service) delete(ctx context.Context, acctName, path string) (Result, error) {
	acct, err := s.resolver.Resolve(acctName)
	if err != nil {
		return nil, err
	}
	return s.client.Dispatch(ctx, api.RequestSpec{
		Method: "DELETE", Path: path, Account: acct,
	})
}

// MissingFieldError reports a required parameter that was not supplied.
// It is caught before any request leaves the process.
type MissingFieldError struct{ Field string }

func (e *MissingFieldError) Error() string { return "'" + e.Field + "' is required" }
