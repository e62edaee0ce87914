package config

import "testing"

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("COOKIE_SECRET", testSecret)

	if _, err := Load(); err == nil {
		t.Error("Load() succeeded without DATABASE_URL")
	}
}

func TestLoadRequiresCookieSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/authkit")
	t.Setenv("COOKIE_SECRET", "too-short")

	if _, err := Load(); err == nil {
		t.Error("Load() accepted a short COOKIE_SECRET")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/authkit")
	t.Setenv("COOKIE_SECRET", testSecret)
	t.Setenv("SERVER_PORT", "")
	t.Setenv("AUTH_RATE_LIMIT", "")
	t.Setenv("SECURE_COOKIES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.AuthRateLimit != "10-M" {
		t.Errorf("AuthRateLimit = %q, want 10-M", cfg.AuthRateLimit)
	}
	if !cfg.SecureCookies {
		t.Error("SecureCookies should default to true")
	}
	if cfg.SweepIntervalHours != 24 {
		t.Errorf("SweepIntervalHours = %d, want 24", cfg.SweepIntervalHours)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/authkit")
	t.Setenv("COOKIE_SECRET", testSecret)
	t.Setenv("SECURE_COOKIES", "false")
	t.Setenv("SWEEP_INTERVAL_HOURS", "6")
	t.Setenv("GOOGLE_CLIENT_ID", "gid")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SecureCookies {
		t.Error("SECURE_COOKIES=false not honored")
	}
	if cfg.SweepIntervalHours != 6 {
		t.Errorf("SweepIntervalHours = %d, want 6", cfg.SweepIntervalHours)
	}
	if cfg.GoogleClientID != "gid" {
		t.Errorf("GoogleClientID = %q", cfg.GoogleClientID)
	}
}
