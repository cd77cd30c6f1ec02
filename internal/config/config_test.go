package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("NATS_RECEIVED_SUBJECT", "")
	t.Setenv("NATS_UPDATED_SUBJECT", "")
	t.Setenv("STATS_WINDOW_DAYS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NATSReceivedSubject != "documents.received" {
		t.Fatalf("expected default received subject, got %q", cfg.NATSReceivedSubject)
	}
	if cfg.NATSUpdatedSubject != "documents.updated" {
		t.Fatalf("expected default updated subject, got %q", cfg.NATSUpdatedSubject)
	}
	if cfg.StatsWindowDays != 30 {
		t.Fatalf("expected default stats window 30, got %d", cfg.StatsWindowDays)
	}
	if cfg.SearchIndexMode != "memory" {
		t.Fatalf("expected default search index mode memory, got %q", cfg.SearchIndexMode)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "api_port: \"9999\"\nstats_window_days: 7\nrate_limit_rps: 5.5\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "")
	t.Setenv("STATS_WINDOW_DAYS", "")
	t.Setenv("RATE_LIMIT_RPS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIPort != "9999" {
		t.Fatalf("expected file override for api port, got %q", cfg.APIPort)
	}
	if cfg.StatsWindowDays != 7 {
		t.Fatalf("expected file override for stats window, got %d", cfg.StatsWindowDays)
	}
	if cfg.RateLimitRPS != 5.5 {
		t.Fatalf("expected file override for rate limit, got %v", cfg.RateLimitRPS)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_port: \"9999\"\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIPort != "7070" {
		t.Fatalf("expected env to win over file, got %q", cfg.APIPort)
	}
}

func TestLoadBadFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(": not yaml"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
