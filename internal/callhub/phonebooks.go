package callhub

import (
	"context"
	"net/url"
)

// ListPhonebooks lists phonebooks with optional pagination.
func (s *Service) ListPhonebooks(ctx context.Context, acct string, page Page) (Result, error) {
	return s.get(ctx, acct, "v1/phonebooks/", page.query())
}

// GetPhonebook retrieves a single phonebook by ID.
func (s *Service) GetPhonebook(ctx context.Context, acct, phonebookID string) (Result, error) {
	if phonebookID == "" {
		return nil, &MissingFieldError{Field: "phonebookId"}
	}
	return s.get(ctx, acct, "v1/phonebooks/"+phonebookID+"/", nil)
}

// CreatePhonebook creates a phonebook. Name is required.
func (s *Service) CreatePhonebook(ctx context.Context, acct, name, description string) (Result, error) {
	if name == "" {
		return nil, &MissingFieldError{Field: "name"}
	}
	form := url.Values{}
	form.Set("name", name)
	if description != "" {
		form.Set("description", description)
	}
	return s.postForm(ctx, acct, "v1/phonebooks/", form)
}

// UpdatePhonebook updates name and/or description of a phonebook.
func (s *Service) UpdatePhonebook(ctx context.Context, acct, phonebookID, name, description string) (Result, error) {
	if phonebookID == "" {
		return nil, &MissingFieldError{Field: "phonebookId"}
	}
	form := url.Values{}
	if name != "" {
		form.Set("name", name)
	}
	if description != "" {
		form.Set("description", description)
	}
	return s.patchForm(ctx, acct, "v1/phonebooks/"+phonebookID+"/", form)
}

// DeletePhonebook deletes a phonebook by ID.
func (s *Service) DeletePhonebook(ctx context.Context, acct, phonebookID string) (Result, error) {
	if phonebookID == "" {
		return nil, &MissingFieldError{Field: "phonebookId"}
	}
	return s.delete(ctx, acct, "v1/phonebooks/"+phonebookID+"/")
}
