package account

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

var accountNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// EnvFile persists account credential trios to a dotenv file. Writes are
// mirrored into the process environment so a running server resolves the
// change immediately after Resolver.Reload.
type EnvFile struct {
	path string
}

// NewEnvFile creates a credential writer backed by the dotenv file at path.
func NewEnvFile(path string) *EnvFile {
	return &EnvFile{path: path}
}

// Path returns the backing dotenv file path.
func (f *EnvFile) Path() string { return f.path }

// Save upserts the credential trio for acct.Name, preserving unrelated
// variables in the file. A missing BaseURL falls back to DefaultBaseURL.
// It reports whether an entry for the account already existed.
func (f *EnvFile) Save(acct Account) (updated bool, err error) {
	name := strings.ToLower(acct.Name)
	if err := validateAccountName(name); err != nil {
		return false, err
	}
	if acct.Username == "" {
		return false, &ConfigError{Account: name, Reason: "missing username"}
	}
	if acct.APIKey == "" {
		return false, &ConfigError{Account: name, Reason: "missing api_key"}
	}
	baseURL := acct.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	env, err := f.read()
	if err != nil {
		return false, err
	}
	prefix := "CALLHUB_" + strings.ToUpper(name) + "_"
	_, updated = env[prefix+"API_KEY"]
	env[prefix+"USERNAME"] = acct.Username
	env[prefix+"API_KEY"] = acct.APIKey
	env[prefix+"BASE_URL"] = baseURL

	if err := f.write(env); err != nil {
		return updated, err
	}
	os.Setenv(prefix+"USERNAME", acct.Username)
	os.Setenv(prefix+"API_KEY", acct.APIKey)
	os.Setenv(prefix+"BASE_URL", baseURL)
	return updated, nil
}

// Remove deletes the account's credential trio from the file and the
// process environment.
func (f *EnvFile) Remove(name string) error {
	name = strings.ToLower(name)
	if err := validateAccountName(name); err != nil {
		return err
	}

	env, err := f.read()
	if err != nil {
		return err
	}
	prefix := "CALLHUB_" + strings.ToUpper(name) + "_"
	if _, ok := env[prefix+"API_KEY"]; !ok {
		return &ConfigError{Account: name, Reason: "does not exist"}
	}
	delete(env, prefix+"USERNAME")
	delete(env, prefix+"API_KEY")
	delete(env, prefix+"BASE_URL")

	if err := f.write(env); err != nil {
		return err
	}
	os.Unsetenv(prefix + "USERNAME")
	os.Unsetenv(prefix + "API_KEY")
	os.Unsetenv(prefix + "BASE_URL")
	return nil
}

func (f *EnvFile) read() (map[string]string, error) {
	env, err := godotenv.Read(f.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return env, nil
}

func (f *EnvFile) write(env map[string]string) error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := godotenv.Write(env, f.path); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}

func validateAccountName(name string) error {
	if name == "" {
		return &ConfigError{Account: name, Reason: "account name is required"}
	}
	// CALLHUB_ACCOUNT selects the active account; it cannot name one.
	if name == "account" {
		return &ConfigError{Account: name, Reason: "name is reserved"}
	}
	if !accountNameRe.MatchString(name) {
		return &ConfigError{Account: name, Reason: "name may only contain letters, digits and underscore"}
	}
	return nil
}
