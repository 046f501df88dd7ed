package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Secret reference errors.
var (
	// ErrEmptySecretRef reports a secret reference with no name or path.
	ErrEmptySecretRef = errors.New("config: empty secret reference")

	// ErrSecretNotFound reports a reference whose environment variable
	// is not set.
	ErrSecretNotFound = errors.New("config: secret not found")
)

// Secret reference schemes.
const (
	secretSchemeEnv  = "env:"
	secretSchemeFile = "file:"
)

// ResolveSecret resolves a credential value that may be a secret
// reference:
//
//	env:API_KEY      the value of the API_KEY environment variable
//	file:/etc/key    the contents of /etc/key, surrounding space trimmed
//
// Any other value is returned unchanged, so inlined credentials keep
// working in development. A reference that cannot be resolved is an
// error rather than a silently empty credential.
func ResolveSecret(value string) (string, error) {
	switch {
	case strings.HasPrefix(value, secretSchemeEnv):
		name := strings.TrimPrefix(value, secretSchemeEnv)
		if name == "" {
			return "", fmt.Errorf("%w: %q", ErrEmptySecretRef, value)
		}
		resolved, ok := os.LookupEnv(name)
		if !ok {
			return "", fmt.Errorf("%w: environment variable %s is not set", ErrSecretNotFound, name)
		}
		return resolved, nil

	case strings.HasPrefix(value, secretSchemeFile):
		path := strings.TrimPrefix(value, secretSchemeFile)
		if path == "" {
			return "", fmt.Errorf("%w: %q", ErrEmptySecretRef, value)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("config: read secret file: %w", err)
		}
		return strings.TrimSpace(string(data)), nil

	default:
		return value, nil
	}
}

// resolveSecrets resolves every credential field in place. Non-credential
// fields never go through resolution, so ordinary values containing a
// colon stay untouched.
func (c *Config) resolveSecrets() error {
	apiKey, err := ResolveSecret(c.Provider.APIKey)
	if err != nil {
		return fmt.Errorf("provider api key: %w", err)
	}
	c.Provider.APIKey = apiKey

	authToken, err := ResolveSecret(c.Storage.LibSQL.AuthToken)
	if err != nil {
		return fmt.Errorf("libsql auth token: %w", err)
	}
	c.Storage.LibSQL.AuthToken = authToken
	return nil
}
