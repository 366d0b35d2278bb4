package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
server:
  port: 9000
database:
  dsn: postgres://adreset:pw@db:5432/adreset
ad:
  uri: ldaps://dc.example.local
  domain: example.local
  service_username: svc-adreset
  service_password: hunter2
  user_groups:
    - Self Service
  admin_groups:
    - Help Desk
token:
  secret: not-a-real-secret
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load returned an error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want the default", cfg.Server.Host)
	}
	if cfg.Reset.RequiredAnswers != 3 {
		t.Errorf("Reset.RequiredAnswers = %d, want the default 3", cfg.Reset.RequiredAnswers)
	}
	if cfg.Reset.AnswersMinimumLength != 2 {
		t.Errorf("Reset.AnswersMinimumLength = %d, want the default 2", cfg.Reset.AnswersMinimumLength)
	}
	if cfg.Reset.LockoutMinutes != 15 || cfg.Reset.AttemptsBeforeLockout != 3 {
		t.Error("the lockout defaults were not applied")
	}
	if cfg.Token.LifetimeMinutes != 60 {
		t.Errorf("Token.LifetimeMinutes = %d, want the default 60", cfg.Token.LifetimeMinutes)
	}
	if !cfg.AD.AccountStatusEnabled() {
		t.Error("the account status endpoint is not enabled by default")
	}
}

func TestLoadAccountStatusDisabled(t *testing.T) {
	content := strings.Replace(validYAML, "ad:\n", "ad:\n  account_status_enabled: false\n", 1)
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load returned an error: %v", err)
	}
	if cfg.AD.AccountStatusEnabled() {
		t.Error("account_status_enabled: false was ignored")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		mangle  func(string) string
		wantErr string
	}{
		{
			"missing uri",
			func(s string) string { return strings.Replace(s, "uri: ldaps://dc.example.local", "", 1) },
			"ad.uri",
		},
		{
			"plain ldap uri",
			func(s string) string {
				return strings.Replace(s, "ldaps://dc.example.local", "ldap://dc.example.local", 1)
			},
			"ldaps://",
		},
		{
			"missing domain",
			func(s string) string { return strings.Replace(s, "domain: example.local", "", 1) },
			"ad.domain",
		},
		{
			"missing service credentials",
			func(s string) string { return strings.Replace(s, "service_password: hunter2", "", 1) },
			"service_password",
		},
		{
			"missing user groups",
			func(s string) string {
				return strings.Replace(s, "user_groups:\n    - Self Service\n", "", 1)
			},
			"user_groups",
		},
		{
			"missing admin groups",
			func(s string) string {
				return strings.Replace(s, "admin_groups:\n    - Help Desk\n", "", 1)
			},
			"admin_groups",
		},
		{
			"missing token secret",
			func(s string) string { return strings.Replace(s, "secret: not-a-real-secret", "", 1) },
			"token.secret",
		},
	}
	for _, tt := range tests {
		_, err := Load(writeConfig(t, tt.mangle(validYAML)))
		if err == nil {
			t.Errorf("%s: Load did not return an error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: Load error %q does not mention %q", tt.name, err, tt.wantErr)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load did not fail on a missing file")
	}
}
