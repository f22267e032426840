package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RADAR_PORT", "")
	t.Setenv("RADAR_API_URL", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8090" {
		t.Errorf("expected default port 8090, got %s", cfg.Server.Port)
	}
	if cfg.Upstream.BaseURL != "http://localhost:5000/api" {
		t.Errorf("unexpected default base URL: %s", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.TimeoutSeconds != 30 {
		t.Errorf("expected timeout 30, got %d", cfg.Upstream.TimeoutSeconds)
	}
	if cfg.Refresh.IntervalSeconds != 120 {
		t.Errorf("expected refresh interval 120, got %d", cfg.Refresh.IntervalSeconds)
	}
	if cfg.Refresh.Limit != 50 {
		t.Errorf("expected refresh limit 50, got %d", cfg.Refresh.Limit)
	}
}

func TestLoadFileWithEnvExpansion(t *testing.T) {
	t.Setenv("TEST_RADAR_URL", "https://radar.example.com/api")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("upstream:\n  base_url: \"${TEST_RADAR_URL}\"\n  rate_limit_rps: 2\nrefresh:\n  limit: 20\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Upstream.BaseURL != "https://radar.example.com/api" {
		t.Errorf("env expansion failed, got %s", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.RateLimitRPS != 2 {
		t.Errorf("expected rate limit 2, got %v", cfg.Upstream.RateLimitRPS)
	}
	if cfg.Refresh.Limit != 20 {
		t.Errorf("expected limit 20, got %d", cfg.Refresh.Limit)
	}
	// Unset values still fall back to defaults
	if cfg.Server.Port != "8090" {
		t.Errorf("expected default port, got %s", cfg.Server.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
