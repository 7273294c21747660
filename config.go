package sitekit

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SiteConfig holds all configuration for a sitekit site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Site")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Author name for JSON-LD

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // Document database path (default "data/site.db")
	MediaDir     string `yaml:"media_dir"`     // Blob storage root (default "data/media")
	MediaBaseURL string `yaml:"media_base_url"`

	AdminEmails   []string `yaml:"admin_emails"`   // Required: emails allowed into the admin console
	AdminPassword string   `yaml:"admin_password"` // Required: admin login password
	SessionSecret string   `yaml:"session_secret"` // Required: session encryption secret
	CookieSecure  bool     `yaml:"cookie_secure"`  // Set true for HTTPS
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Site"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/site.db"
	}
	if c.MediaDir == "" {
		c.MediaDir = "data/media"
	}
	if c.MediaBaseURL == "" {
		c.MediaBaseURL = "/media"
	}
}

// LoadConfig reads a YAML config file into a SiteConfig. Secrets may be left
// out of the file and supplied through the environment (ADMIN_PASSWORD,
// SESSION_SECRET, ADMIN_EMAILS as comma-separated addresses).
func LoadConfig(path string) (SiteConfig, error) {
	var c SiteConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		c.AdminPassword = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.SessionSecret = v
	}
	if v := os.Getenv("ADMIN_EMAILS"); v != "" {
		c.AdminEmails = splitEmails(v)
	}
	return c, nil
}

func splitEmails(v string) []string {
	parts := strings.Split(v, ",")
	var out []string
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsAllowedAdmin reports whether email belongs to the configured admin
// allow-list. The check is plain set membership, case-insensitive on the
// address as identity providers report emails with varying case.
func (c *SiteConfig) IsAllowedAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, allowed := range c.AdminEmails {
		if strings.ToLower(strings.TrimSpace(allowed)) == email {
			return true
		}
	}
	return false
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}
