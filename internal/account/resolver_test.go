package account

import (
	"errors"
	"testing"
)

func testEnviron() []string {
	return []string{
		"CALLHUB_DEFAULT_USERNAME=jane@example.org",
		"CALLHUB_DEFAULT_API_KEY=abcdef123456",
		"CALLHUB_DEFAULT_BASE_URL=https://api-na1.callhub.io",
		"CALLHUB_CLIENT_A_USERNAME=ops@client-a.org",
		"CALLHUB_CLIENT_A_API_KEY=zzzz9999",
		"CALLHUB_CLIENT_A_BASE_URL=https://api-eu1.callhub.io",
		"PATH=/usr/bin",
	}
}

func TestResolve_Default(t *testing.T) {
	r := NewResolverFromEnviron(testEnviron())
	acct, err := r.Resolve("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.Name != "default" {
		t.Errorf("expected default account, got %q", acct.Name)
	}
	if acct.APIKey != "abcdef123456" {
		t.Errorf("unexpected api key: %q", acct.APIKey)
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	r := NewResolverFromEnviron(testEnviron())
	acct, err := r.Resolve("Client_A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.BaseURL != "https://api-eu1.callhub.io" {
		t.Errorf("unexpected base url: %q", acct.BaseURL)
	}
}

func TestResolve_Unknown(t *testing.T) {
	r := NewResolverFromEnviron(testEnviron())
	_, err := r.Resolve("nope")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Account != "nope" {
		t.Errorf("unexpected account in error: %q", cfgErr.Account)
	}
}

func TestResolve_MissingUsername(t *testing.T) {
	r := NewResolverFromEnviron([]string{
		"CALLHUB_X_API_KEY=k12345678",
	})
	_, err := r.Resolve("x")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestResolve_EmptyBaseURLFails(t *testing.T) {
	// A present-but-empty _BASE_URL must fail resolution, while an absent
	// one falls back to the platform default.
	r := NewResolverFromEnviron([]string{
		"CALLHUB_X_USERNAME=u",
		"CALLHUB_X_API_KEY=k12345678",
		"CALLHUB_X_BASE_URL=",
	})
	if _, err := r.Resolve("x"); err == nil {
		t.Fatal("expected error for empty base_url")
	}

	r = NewResolverFromEnviron([]string{
		"CALLHUB_X_USERNAME=u",
		"CALLHUB_X_API_KEY=k12345678",
	})
	acct, err := r.Resolve("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.BaseURL != DefaultBaseURL {
		t.Errorf("expected default base url, got %q", acct.BaseURL)
	}
}

func TestResolve_LegacyUnprefixed(t *testing.T) {
	r := NewResolverFromEnviron([]string{
		"CALLHUB_USERNAME=legacy@example.org",
		"CALLHUB_API_KEY=legacykey",
	})
	acct, err := r.Resolve("default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.Username != "legacy@example.org" {
		t.Errorf("unexpected username: %q", acct.Username)
	}
}

func TestResolve_NoCredentials(t *testing.T) {
	r := NewResolverFromEnviron([]string{"PATH=/usr/bin"})
	if _, err := r.Resolve(""); err == nil {
		t.Fatal("expected error with no credentials configured")
	}
}

func TestList_MasksKeys(t *testing.T) {
	r := NewResolverFromEnviron(testEnviron())
	infos := r.List()
	if len(infos) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(infos))
	}
	for _, info := range infos {
		if info.APIKeyMasked == "abcdef123456" || info.APIKeyMasked == "zzzz9999" {
			t.Errorf("api key not masked: %q", info.APIKeyMasked)
		}
	}
}
