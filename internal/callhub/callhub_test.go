package callhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/callhubmcp/callhubmcp/internal/account"
	"github.com/callhubmcp/callhubmcp/internal/api"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	resolver := account.NewResolverFromEnviron([]string{
		"CALLHUB_API_KEY=test-key-1234",
		"CALLHUB_USERNAME=ops@example.com",
		"CALLHUB_BASE_URL=" + srv.URL,
	})
	return NewService(resolver, api.NewClient(api.DefaultRetryPolicy()))
}

// ─── Request shaping ───────────────────────────────────────────────────────

func TestCreatePhonebookPostsForm(t *testing.T) {
	var gotPath, gotAuth, gotName string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotName = r.PostFormValue("name")
		w.Write([]byte(`{"id": "42", "name": "spring drive"}`))
	})

	res, err := svc.CreatePhonebook(context.Background(), "", "spring drive", "")
	if err != nil {
		t.Fatalf("CreatePhonebook: %v", err)
	}
	if gotPath != "/v1/phonebooks/" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Token test-key-1234" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotName != "spring drive" {
		t.Errorf("name = %q", gotName)
	}
	if res["id"] != "42" {
		t.Errorf("result = %v", res)
	}
}

func TestListPhonebooksPagination(t *testing.T) {
	var gotQuery string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"count": 0, "results": []}`))
	})

	if _, err := svc.ListPhonebooks(context.Background(), "", Page{Page: 2, PageSize: 50}); err != nil {
		t.Fatalf("ListPhonebooks: %v", err)
	}
	if gotQuery != "page=2&page_size=50" {
		t.Errorf("query = %q", gotQuery)
	}
}

// ─── Parameter validation ──────────────────────────────────────────────────

func TestCreatePhonebookRequiresName(t *testing.T) {
	called := false
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	_, err := svc.CreatePhonebook(context.Background(), "", "", "")
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) || mfe.Field != "name" {
		t.Fatalf("err = %v, want MissingFieldError{name}", err)
	}
	if called {
		t.Error("request was sent despite missing field")
	}
}

func TestCreateContactRequiresPhoneNumber(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := svc.CreateContact(context.Background(), "", map[string]string{"name": "Alice"})
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) || mfe.Field != "contact" {
		t.Fatalf("err = %v, want MissingFieldError{contact}", err)
	}
}

// ─── Domain rate limits ────────────────────────────────────────────────────

func TestBulkCreateContactsMinInterval(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"message": "accepted"}`))
	})
	contacts := []map[string]any{{"contact": "15551234567"}}

	if _, err := svc.BulkCreateContacts(context.Background(), "", "7", contacts); err != nil {
		t.Fatalf("first bulk create: %v", err)
	}

	// Back-to-back call must fail fast without touching the server.
	_, err := svc.BulkCreateContacts(context.Background(), "", "7", contacts)
	var rle *api.RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("err = %v, want *api.RateLimitError", err)
	}
}

// ─── Unknown account ───────────────────────────────────────────────────────

func TestUnknownAccountFailsBeforeRequest(t *testing.T) {
	called := false
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	_, err := svc.ListPhonebooks(context.Background(), "nosuch", Page{})
	var cfg *account.ConfigError
	if !errors.As(err, &cfg) {
		t.Fatalf("err = %v, want *account.ConfigError", err)
	}
	if called {
		t.Error("request was sent for an unknown account")
	}
}
