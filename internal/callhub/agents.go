package callhub

import (
	"context"
	"net/url"
)

// ListAgents lists agents with optional pagination.
func (s *Service) ListAgents(ctx context.Context, acct string, page Page) (Result, error) {
	return s.get(ctx, acct, "v1/agents/", page.query())
}

// GetAgent retrieves a single agent by ID.
func (s *Service) GetAgent(ctx context.Context, acct, agentID string) (Result, error) {
	if agentID == "" {
		return nil, &MissingFieldError{Field: "agentId"}
	}
	return s.get(ctx, acct, "v1/agents/"+agentID+"/", nil)
}

// CreateAgent invites an agent by email and username. The agent completes
// registration through the activation workflow (see internal/activation).
func (s *Service) CreateAgent(ctx context.Context, acct, email, username, team string) (Result, error) {
	if email == "" {
		return nil, &MissingFieldError{Field: "email"}
	}
	if username == "" {
		return nil, &MissingFieldError{Field: "username"}
	}
	form := url.Values{}
	form.Set("email", email)
	form.Set("username", username)
	if team != "" {
		form.Set("team", team)
	}
	return s.postForm(ctx, acct, "v1/agents/", form)
}

// DeleteAgent deletes an agent by ID.
func (s *Service) DeleteAgent(ctx context.Context, acct, agentID string) (Result, error) {
	if agentID == "" {
		return nil, &MissingFieldError{Field: "agentId"}
	}
	return s.delete(ctx, acct, "v1/agents/"+agentID+"/")
}

// ListPendingAgents lists agents that have not yet completed activation.
func (s *Service) ListPendingAgents(ctx context.Context, acct string, page Page) (Result, error) {
	q := page.query()
	q.Set("pending", "true")
	return s.get(ctx, acct, "v1/agents/", q)
}
