package sitekit

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIsAllowedAdmin(t *testing.T) {
	cfg := SiteConfig{AdminEmails: []string{"Ops@ArcLabs.example", " dana@arclabs.example "}}

	tests := []struct {
		email string
		want  bool
	}{
		{"ops@arclabs.example", true},
		{"OPS@ARCLABS.EXAMPLE", true},
		{"dana@arclabs.example", true},
		{"  dana@arclabs.example  ", true},
		{"intruder@arclabs.example", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := cfg.IsAllowedAdmin(tt.email); got != tt.want {
			t.Errorf("IsAllowedAdmin(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestIsAllowedAdminEmptyList(t *testing.T) {
	cfg := SiteConfig{}
	if cfg.IsAllowedAdmin("anyone@x.com") {
		t.Error("empty allow-list should admit nobody")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	data := `name: Arc Labs
url: https://arclabs.example
addr: ":8080"
admin_emails:
  - ops@arclabs.example
admin_password: filepass
session_secret: filesecret
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "Arc Labs" || cfg.Addr != ":8080" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.AdminEmails) != 1 || cfg.AdminEmails[0] != "ops@arclabs.example" {
		t.Errorf("AdminEmails = %v", cfg.AdminEmails)
	}
	if cfg.AdminPassword != "filepass" {
		t.Errorf("AdminPassword = %q", cfg.AdminPassword)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	if err := os.WriteFile(path, []byte("name: X\nadmin_password: filepass\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ADMIN_PASSWORD", "envpass")
	t.Setenv("SESSION_SECRET", "envsecret")
	t.Setenv("ADMIN_EMAILS", "a@x.com, b@x.com,")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.AdminPassword != "envpass" {
		t.Errorf("env should override file password, got %q", cfg.AdminPassword)
	}
	if cfg.SessionSecret != "envsecret" {
		t.Errorf("SessionSecret = %q", cfg.SessionSecret)
	}
	if len(cfg.AdminEmails) != 2 || cfg.AdminEmails[1] != "b@x.com" {
		t.Errorf("AdminEmails = %v, want [a@x.com b@x.com]", cfg.AdminEmails)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing config file should error")
	}
}

func TestSetDefaults(t *testing.T) {
	var cfg SiteConfig
	cfg.setDefaults()
	if cfg.Addr != ":3000" || cfg.DatabasePath != "data/site.db" || cfg.MediaBaseURL != "/media" {
		t.Errorf("defaults = %+v", cfg)
	}
}
