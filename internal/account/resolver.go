// Package account resolves named CallHub credential sets from the process
// environment.
//
// Credentials follow the pattern
//
//	CALLHUB_<NAME>_USERNAME=jane
//	CALLHUB_<NAME>_API_KEY=abc123
//	CALLHUB_<NAME>_BASE_URL=https://api-na1.callhub.io
//
// where <NAME> is case-insensitive and restricted to letters, digits and
// underscore. The unprefixed legacy trio (CALLHUB_API_KEY etc.) maps to the
// "default" account.
package account

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

// DefaultBaseURL is used when an account has no _BASE_URL variable at all.
const DefaultBaseURL = "https://api-na1.callhub.io"

// Account is a named credential set for the remote platform.
// Immutable once resolved for a call.
type Account struct {
	Name     string
	Username string
	APIKey   string
	BaseURL  string
}

// ConfigError reports a missing or incomplete account configuration.
type ConfigError struct {
	Account string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("account %q: %s", e.Account, e.Reason)
}

// Info is a masked view of an Account, safe to return to callers.
type Info struct {
	Name         string `json:"name"`
	Username     string `json:"username"`
	APIKeyMasked string `json:"apiKey"`
	BaseURL      string `json:"baseUrl"`
	Default      bool   `json:"default"`
}

var accountKeyRe = regexp.MustCompile(`^CALLHUB_([A-Za-z0-9_]+)_API_KEY$`)

// Resolver looks up accounts by name. The table is rebuilt from the
// environment by Reload after credential changes.
type Resolver struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewResolver scans the environment and builds the account table.
// Call config.LoadDotenv first if credentials live in a .env file.
func NewResolver() *Resolver {
	return &Resolver{accounts: scanEnviron(os.Environ())}
}

// NewResolverFromEnviron builds a resolver from an explicit environment
// snapshot ("KEY=value" pairs). Used by tests.
func NewResolverFromEnviron(environ []string) *Resolver {
	return &Resolver{accounts: scanEnviron(environ)}
}

func scanEnviron(environ []string) map[string]Account {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}

	accounts := make(map[string]Account)
	for key, apiKey := range env {
		m := accountKeyRe.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		name := strings.ToLower(m[1])
		// CALLHUB_ACCOUNT selects the active account; it is not an account.
		if name == "account" {
			continue
		}
		baseURL, haveBase := env["CALLHUB_"+m[1]+"_BASE_URL"]
		if !haveBase {
			baseURL = DefaultBaseURL
		}
		accounts[name] = Account{
			Name:     name,
			Username: env["CALLHUB_"+m[1]+"_USERNAME"],
			APIKey:   apiKey,
			BaseURL:  baseURL,
		}
	}

	// Legacy unprefixed variables map to "default" unless it already exists.
	if _, ok := accounts["default"]; !ok {
		if apiKey := env["CALLHUB_API_KEY"]; apiKey != "" {
			baseURL, haveBase := env["CALLHUB_BASE_URL"]
			if !haveBase {
				baseURL = DefaultBaseURL
			}
			accounts["default"] = Account{
				Name:     "default",
				Username: env["CALLHUB_USERNAME"],
				APIKey:   apiKey,
				BaseURL:  baseURL,
			}
		}
	}
	return accounts
}

// Reload rescans the process environment and replaces the account table.
// Call it after EnvFile.Save or EnvFile.Remove.
func (r *Resolver) Reload() {
	accounts := scanEnviron(os.Environ())
	r.mu.Lock()
	r.accounts = accounts
	r.mu.Unlock()
}

// Resolve returns the account for name. An empty name falls back to the
// CALLHUB_ACCOUNT environment variable, then "default". Names are
// case-insensitive.
func (r *Resolver) Resolve(name string) (Account, error) {
	if name == "" {
		name = os.Getenv("CALLHUB_ACCOUNT")
	}
	if name == "" {
		name = "default"
	}
	name = strings.ToLower(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.accounts) == 0 {
		return Account{}, &ConfigError{Account: name, Reason: "no CallHub credentials found; set CALLHUB_<NAME>_API_KEY in the environment or a .env file"}
	}
	acct, ok := r.accounts[name]
	if !ok {
		return Account{}, &ConfigError{Account: name, Reason: "not found in credentials"}
	}
	if acct.Username == "" {
		return Account{}, &ConfigError{Account: name, Reason: "missing username"}
	}
	if acct.APIKey == "" {
		return Account{}, &ConfigError{Account: name, Reason: "missing api_key"}
	}
	if acct.BaseURL == "" {
		return Account{}, &ConfigError{Account: name, Reason: "missing base_url"}
	}
	return acct, nil
}

// List returns masked info for all configured accounts. Order is not
// guaranteed; callers sort if they need stable output.
func (r *Resolver) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, Info{
			Name:         a.Name,
			Username:     a.Username,
			APIKeyMasked: maskKey(a.APIKey),
			BaseURL:      a.BaseURL,
			Default:      a.Name == "default",
		})
	}
	return out
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
