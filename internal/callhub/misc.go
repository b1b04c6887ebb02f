package callhub

import (
	"context"
	"net/url"
)

// ─── Tags ──────────────────────────────────────────────────────────────────

// ListTags lists contact tags.
func (s *Service) ListTags(ctx context.Context, acct string, page Page) (Result, error) {
	return s.get(ctx, acct, "v1/tags/", page.query())
}

// CreateTag creates a tag.
func (s *Service) CreateTag(ctx context.Context, acct, name string) (Result, error) {
	if name == "" {
		return nil, &MissingFieldError{Field: "name"}
	}
	form := url.Values{}
	form.Set("tag", name)
	return s.postForm(ctx, acct, "v1/tags/", form)
}

// DeleteTag deletes a tag by ID.
func (s *Service) DeleteTag(ctx context.Context, acct, tagID string) (Result, error) {
	if tagID == "" {
		return nil, &MissingFieldError{Field: "tagId"}
	}
	return s.delete(ctx, acct, "v1/tags/"+tagID+"/")
}

// ─── Teams ─────────────────────────────────────────────────────────────────

// ListTeams lists agent teams.
func (s *Service) ListTeams(ctx context.Context, acct string, page Page) (Result, error) {
	return s.get(ctx, acct, "v1/teams/", page.query())
}

// CreateTeam creates a team.
func (s *Service) CreateTeam(ctx context.Context, acct, name string) (Result, error) {
	if name == "" {
		return nil, &MissingFieldError{Field: "name"}
	}
	form := url.Values{}
	form.Set("name", name)
	return s.postForm(ctx, acct, "v1/teams/", form)
}

// AddAgentToTeam assigns an agent to a team.
func (s *Service) AddAgentToTeam(ctx context.Context, acct, teamID, agentID string) (Result, error) {
	if teamID == "" {
		return nil, &MissingFieldError{Field: "teamId"}
	}
	if agentID == "" {
		return nil, &MissingFieldError{Field: "agentId"}
	}
	form := url.Values{}
	form.Set("agent", agentID)
	return s.postForm(ctx, acct, "v1/teams/"+teamID+"/agents/", form)
}

// ─── DNC ───────────────────────────────────────────────────────────────────

// ListDncLists lists Do-Not-Call lists. Contents stay opaque.
func (s *Service) ListDncLists(ctx context.Context, acct string, page Page) (Result, error) {
	return s.get(ctx, acct, "v1/dnc_lists/", page.query())
}

// CreateDncContact adds a phone number to a DNC list.
func (s *Service) CreateDncContact(ctx context.Context, acct, dncListID, phoneNumber string) (Result, error) {
	if dncListID == "" {
		return nil, &MissingFieldError{Field: "dncListId"}
	}
	if phoneNumber == "" {
		return nil, &MissingFieldError{Field: "phoneNumber"}
	}
	form := url.Values{}
	form.Set("dnc", dncListID)
	form.Set("phone_number", phoneNumber)
	return s.postForm(ctx, acct, "v1/dnc_contacts/", form)
}

// DeleteDncContact removes an entry from a DNC list.
func (s *Service) DeleteDncContact(ctx context.Context, acct, dncContactID string) (Result, error) {
	if dncContactID == "" {
		return nil, &MissingFieldError{Field: "dncContactId"}
	}
	return s.delete(ctx, acct, "v1/dnc_contacts/"+dncContactID+"/")
}

// ─── Webhooks ──────────────────────────────────────────────────────────────

// ListWebhooks lists registered webhooks.
func (s *Service) ListWebhooks(ctx context.Context, acct string) (Result, error) {
	return s.get(ctx, acct, "v1/webhooks/", nil)
}

// CreateWebhook registers a webhook for an event target.
func (s *Service) CreateWebhook(ctx context.Context, acct, event, target string) (Result, error) {
	if event == "" {
		return nil, &MissingFieldError{Field: "event"}
	}
	if target == "" {
		return nil, &MissingFieldError{Field: "target"}
	}
	form := url.Values{}
	form.Set("event", event)
	form.Set("target", target)
	return s.postForm(ctx, acct, "v1/webhooks/", form)
}

// DeleteWebhook removes a webhook by ID.
func (s *Service) DeleteWebhook(ctx context.Context, acct, webhookID string) (Result, error) {
	if webhookID == "" {
		return nil, &MissingFieldError{Field: "webhookId"}
	}
	return s.delete(ctx, acct, "v1/webhooks/"+webhookID+"/")
}

// ─── Users / campaigns ─────────────────────────────────────────────────────

// GetCurrentUser returns the authenticated user's profile.
func (s *Service) GetCurrentUser(ctx context.Context, acct string) (Result, error) {
	return s.get(ctx, acct, "v1/users/", nil)
}

// ListCallCampaigns lists call-center campaigns.
func (s *Service) ListCallCampaigns(ctx context.Context, acct string, page Page) (Result, error) {
	return s.get(ctx, acct, "v1/callcenter_campaigns/", page.query())
}

// UpdateCampaignStatus transitions a campaign (start/pause/abort/end).
func (s *Service) UpdateCampaignStatus(ctx context.Context, acct, campaignID, status string) (Result, error) {
	if campaignID == "" {
		return nil, &MissingFieldError{Field: "campaignId"}
	}
	if status == "" {
		return nil, &MissingFieldError{Field: "status"}
	}
	form := url.Values{}
	form.Set("status", status)
	return s.patchForm(ctx, acct, "v1/callcenter_campaigns/"+campaignID+"/", form)
}

// ListSmsCampaigns lists SMS campaigns.
func (s *Service) ListSmsCampaigns(ctx context.Context, acct string, page Page) (Result, error) {
	return s.get(ctx, acct, "v1/sms_campaigns/", page.query())
}
