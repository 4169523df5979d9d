package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be > 0 (got %v)", c.Auth.AccessTokenTTL)
	}

	if err := c.Templates.validate(); err != nil {
		return fmt.Errorf("templates: %w", err)
	}
	if err := c.Storage.validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Dashboard.validate(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	if c.Notify.ShortTTL <= 0 || c.Notify.LongTTL <= 0 {
		return fmt.Errorf("notify: ttls must be > 0 (got %v, %v)", c.Notify.ShortTTL, c.Notify.LongTTL)
	}

	return nil
}

func (t *TemplatesConfig) validate() error {
	bases, err := ParseBaseURLs(t.BaseURLsRaw)
	if err != nil {
		return fmt.Errorf("base_urls: %w", err)
	}
	if len(bases) == 0 {
		return fmt.Errorf("base_urls: at least one base URL is required")
	}
	t.BaseURLs = bases

	if t.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", t.Timeout)
	}
	return nil
}

func (s *StorageConfig) validate() error {
	if s.MaxLogoBytes <= 0 {
		return fmt.Errorf("max_logo_bytes must be > 0 (got %d)", s.MaxLogoBytes)
	}
	if s.MaxCertBytes <= 0 {
		return fmt.Errorf("max_cert_bytes must be > 0 (got %d)", s.MaxCertBytes)
	}
	if s.LogoBucket == "" || s.CertificateBucket == "" {
		return fmt.Errorf("bucket names must not be empty")
	}
	return nil
}

func (d *DashboardConfig) validate() error {
	if d.ReviewsWindow <= 0 {
		return fmt.Errorf("reviews_window must be > 0 (got %d)", d.ReviewsWindow)
	}
	if d.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout must be > 0 (got %v)", d.IdleTimeout)
	}
	for name, spec := range map[string]string{
		"sweep_schedule":       d.SweepSchedule,
		"token_purge_schedule": d.TokenPurgeSchedule,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// ParseBaseURLs parses a comma-separated list of absolute http(s) URLs.
// Trailing slashes are trimmed. An empty string returns a nil slice.
func ParseBaseURLs(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	bases := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		u, err := url.Parse(p)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("invalid base URL %q", p)
		}
		bases = append(bases, strings.TrimRight(p, "/"))
	}

	return bases, nil
}
