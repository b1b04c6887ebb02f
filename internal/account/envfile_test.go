package account

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
)

// setenvForCleanup registers the staging trio with the test so Save's
// os.Setenv side effects are undone afterwards.
func setenvForCleanup(t *testing.T, name string) {
	t.Helper()
	t.Setenv("CALLHUB_"+name+"_USERNAME", "")
	t.Setenv("CALLHUB_"+name+"_API_KEY", "")
	t.Setenv("CALLHUB_"+name+"_BASE_URL", "")
}

func TestEnvFileSave_CreatesFile(t *testing.T) {
	setenvForCleanup(t, "STAGING")
	path := filepath.Join(t.TempDir(), "creds", ".env")
	f := NewEnvFile(path)

	updated, err := f.Save(Account{Name: "Staging", Username: "ops@example.org", APIKey: "k12345678"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if updated {
		t.Error("first Save reported an existing account")
	}

	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatalf("read written file: %v", err)
	}
	if env["CALLHUB_STAGING_API_KEY"] != "k12345678" {
		t.Errorf("api key = %q", env["CALLHUB_STAGING_API_KEY"])
	}
	if env["CALLHUB_STAGING_USERNAME"] != "ops@example.org" {
		t.Errorf("username = %q", env["CALLHUB_STAGING_USERNAME"])
	}
	if env["CALLHUB_STAGING_BASE_URL"] != DefaultBaseURL {
		t.Errorf("base url = %q, want platform default", env["CALLHUB_STAGING_BASE_URL"])
	}
	if os.Getenv("CALLHUB_STAGING_API_KEY") != "k12345678" {
		t.Error("process environment not updated")
	}
}

func TestEnvFileSave_ReloadResolvesNewAccount(t *testing.T) {
	setenvForCleanup(t, "STAGING")
	f := NewEnvFile(filepath.Join(t.TempDir(), ".env"))

	if _, err := f.Save(Account{Name: "staging", Username: "ops@example.org", APIKey: "k12345678"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r := NewResolverFromEnviron([]string{"PATH=/usr/bin"})
	if _, err := r.Resolve("staging"); err == nil {
		t.Fatal("resolved before Reload")
	}
	r.Reload()
	acct, err := r.Resolve("staging")
	if err != nil {
		t.Fatalf("Resolve after Reload: %v", err)
	}
	if acct.Username != "ops@example.org" {
		t.Errorf("username = %q", acct.Username)
	}
}

func TestEnvFileSave_UpdateReportsExisting(t *testing.T) {
	setenvForCleanup(t, "STAGING")
	f := NewEnvFile(filepath.Join(t.TempDir(), ".env"))

	if _, err := f.Save(Account{Name: "staging", Username: "ops@example.org", APIKey: "old-key-1"}); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	updated, err := f.Save(Account{Name: "STAGING", Username: "ops@example.org", APIKey: "new-key-2"})
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if !updated {
		t.Error("second Save did not report the existing account")
	}

	env, err := godotenv.Read(f.Path())
	if err != nil {
		t.Fatal(err)
	}
	if env["CALLHUB_STAGING_API_KEY"] != "new-key-2" {
		t.Errorf("api key = %q, want new-key-2", env["CALLHUB_STAGING_API_KEY"])
	}
}

func TestEnvFileSave_PreservesUnrelatedVars(t *testing.T) {
	setenvForCleanup(t, "STAGING")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("OTHER_SETTING=keep\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewEnvFile(path)

	if _, err := f.Save(Account{Name: "staging", Username: "u", APIKey: "k12345678"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	env, err := godotenv.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if env["OTHER_SETTING"] != "keep" {
		t.Errorf("unrelated var lost: %q", env["OTHER_SETTING"])
	}
}

func TestEnvFileSave_Validation(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	f := NewEnvFile(path)

	bad := []Account{
		{Name: "", Username: "u", APIKey: "k"},
		{Name: "account", Username: "u", APIKey: "k"},
		{Name: "bad-name", Username: "u", APIKey: "k"},
		{Name: "staging", Username: "", APIKey: "k"},
		{Name: "staging", Username: "u", APIKey: ""},
	}
	for _, acct := range bad {
		_, err := f.Save(acct)
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Save(%+v): err = %v, want ConfigError", acct, err)
		}
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("rejected Save still wrote the file")
	}
}

func TestEnvFileRemove(t *testing.T) {
	setenvForCleanup(t, "STAGING")
	f := NewEnvFile(filepath.Join(t.TempDir(), ".env"))

	if _, err := f.Save(Account{Name: "staging", Username: "u", APIKey: "k12345678"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := f.Remove("Staging"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	env, err := godotenv.Read(f.Path())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := env["CALLHUB_STAGING_API_KEY"]; ok {
		t.Error("api key still present in file")
	}
	if os.Getenv("CALLHUB_STAGING_API_KEY") != "" {
		t.Error("api key still present in process environment")
	}
}

func TestEnvFileRemove_Unknown(t *testing.T) {
	f := NewEnvFile(filepath.Join(t.TempDir(), ".env"))
	err := f.Remove("nosuch")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want ConfigError", err)
	}
}
