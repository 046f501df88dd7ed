package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestResolveSecret_Env(t *testing.T) {
	t.Setenv("PAX_TEST_API_KEY", "sk-live-12345")

	got, err := ResolveSecret("env:PAX_TEST_API_KEY")
	if err != nil {
		t.Fatalf("ResolveSecret() error: %v", err)
	}
	if got != "sk-live-12345" {
		t.Errorf("ResolveSecret() = %q, want %q", got, "sk-live-12345")
	}
}

func TestResolveSecret_EnvMissing(t *testing.T) {
	_, err := ResolveSecret("env:PAX_TEST_DEFINITELY_UNSET")
	if !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("ResolveSecret() error = %v, want ErrSecretNotFound", err)
	}
}

func TestResolveSecret_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api-key")
	if err := os.WriteFile(path, []byte("sk-live-12345\n"), 0o600); err != nil {
		t.Fatalf("write secret file: %v", err)
	}

	got, err := ResolveSecret("file:" + path)
	if err != nil {
		t.Fatalf("ResolveSecret() error: %v", err)
	}
	// The trailing newline most editors leave behind must not end up in
	// the credential.
	if got != "sk-live-12345" {
		t.Errorf("ResolveSecret() = %q, want %q", got, "sk-live-12345")
	}
}

func TestResolveSecret_FileMissing(t *testing.T) {
	_, err := ResolveSecret("file:" + filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ResolveSecret() error = %v, want wrapped fs.ErrNotExist", err)
	}
}

func TestResolveSecret_Literal(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"plain value", "inline-dev-key"},
		{"empty value", ""},
		{"colon but no scheme", "libsql://host/db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSecret(tt.value)
			if err != nil {
				t.Fatalf("ResolveSecret(%q) error: %v", tt.value, err)
			}
			if got != tt.value {
				t.Errorf("ResolveSecret(%q) = %q, want the value unchanged", tt.value, got)
			}
		})
	}
}

func TestResolveSecret_EmptyRef(t *testing.T) {
	for _, value := range []string{"env:", "file:"} {
		t.Run(value, func(t *testing.T) {
			_, err := ResolveSecret(value)
			if !errors.Is(err, ErrEmptySecretRef) {
				t.Errorf("ResolveSecret(%q) error = %v, want ErrEmptySecretRef", value, err)
			}
		})
	}
}

func TestLoad_ResolvesSecrets(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(tokenPath, []byte("tok-67890\n"), 0o600); err != nil {
		t.Fatalf("write secret file: %v", err)
	}
	t.Setenv("PAX_TEST_API_KEY", "sk-live-12345")

	path := writeConfigFile(t, `
storage:
  backend: libsql
  libsql:
    url: libsql://pax.example.com
    auth_token: file:`+tokenPath+`
provider:
  api_key: env:PAX_TEST_API_KEY
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Provider.APIKey != "sk-live-12345" {
		t.Errorf("Provider.APIKey = %q, want the resolved secret", cfg.Provider.APIKey)
	}
	if cfg.Storage.LibSQL.AuthToken != "tok-67890" {
		t.Errorf("Storage.LibSQL.AuthToken = %q, want the resolved secret", cfg.Storage.LibSQL.AuthToken)
	}
}

func TestLoad_MissingSecretFails(t *testing.T) {
	path := writeConfigFile(t, "provider:\n  api_key: env:PAX_TEST_DEFINITELY_UNSET\n")

	_, err := Load(path)
	if !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("Load() error = %v, want ErrSecretNotFound", err)
	}
}

func TestLoad_LiteralCredentialUntouched(t *testing.T) {
	path := writeConfigFile(t, "provider:\n  api_key: inline-dev-key\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Provider.APIKey != "inline-dev-key" {
		t.Errorf("Provider.APIKey = %q, want the literal value", cfg.Provider.APIKey)
	}
}
