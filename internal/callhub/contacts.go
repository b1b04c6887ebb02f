package callhub

import (
	"context"
	"net/url"
	"time"
)

// bulkCreateMinInterval is CallHub's documented limit of one bulk contact
// upload per minute, tighter than the generic retry policy.
const bulkCreateMinInterval = time.Minute

// ListContacts lists contacts with optional pagination.
func (s *Service) ListContacts(ctx context.Context, acct string, page Page) (Result, error) {
	return s.get(ctx, acct, "v1/contacts/", page.query())
}

// GetContact retrieves a single contact by ID.
func (s *Service) GetContact(ctx context.Context, acct, contactID string) (Result, error) {
	if contactID == "" {
		return nil, &MissingFieldError{Field: "contactId"}
	}
	return s.get(ctx, acct, "v1/contacts/"+contactID+"/", nil)
}

// CreateContact creates a single contact from opaque field values.
// "contact" (the phone number) is the only field CallHub requires.
func (s *Service) CreateContact(ctx context.Context, acct string, fields map[string]string) (Result, error) {
	if fields["contact"] == "" {
		return nil, &MissingFieldError{Field: "contact"}
	}
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	return s.postForm(ctx, acct, "v1/contacts/", form)
}

// BulkCreateContacts uploads many contacts into a phonebook in one call.
// Subject to the one-per-minute domain rate limit.
func (s *Service) BulkCreateContacts(ctx context.Context, acct, phonebookID string, contacts []map[string]any) (Result, error) {
	if phonebookID == "" {
		return nil, &MissingFieldError{Field: "phonebookId"}
	}
	if len(contacts) == 0 {
		return nil, &MissingFieldError{Field: "contacts"}
	}
	body := map[string]any{
		"phonebook_id": phonebookID,
		"contacts":     contacts,
	}
	return s.postJSON(ctx, acct, "v1/contacts/bulk_create/", body, bulkCreateMinInterval)
}

// UpdateContact patches contact fields by ID.
func (s *Service) UpdateContact(ctx context.Context, acct, contactID string, fields map[string]string) (Result, error) {
	if contactID == "" {
		return nil, &MissingFieldError{Field: "contactId"}
	}
	form := url.Values{}
	for k, v := range fields {
		form.Set(k, v)
	}
	return s.patchForm(ctx, acct, "v1/contacts/"+contactID+"/", form)
}

// DeleteContact deletes a contact by ID.
func (s *Service) DeleteContact(ctx context.Context, acct, contactID string) (Result, error) {
	if contactID == "" {
		return nil, &MissingFieldError{Field: "contactId"}
	}
	return s.delete(ctx, acct, "v1/contacts/"+contactID+"/")
}
