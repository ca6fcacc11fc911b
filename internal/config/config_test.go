package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"platter/internal/config"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.MinInterval() != time.Second {
		t.Fatalf("default min interval should be 1s, got %v", cfg.MinInterval())
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %s", resolved)
	}
	if cfg.Sequencer.MaxRetries != 3 {
		t.Fatalf("defaults not applied: %+v", cfg.Sequencer)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + dir + `/data"

[sequencer]
min_interval_ms = 250

[providers.musicbrainz]
enabled = true
base_url = "https://mb.example.test/ws/2/"

[logging]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.MinInterval() != 250*time.Millisecond {
		t.Fatalf("min interval not applied: %v", cfg.MinInterval())
	}
	if strings.HasSuffix(cfg.Providers.MusicBrainz.BaseURL, "/") {
		t.Fatalf("base URL should be trimmed: %q", cfg.Providers.MusicBrainz.BaseURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging level not normalized: %q", cfg.Logging.Level)
	}
	if cfg.DatabasePath() != filepath.Join(dir, "data", "albums.db") {
		t.Fatalf("unexpected database path: %s", cfg.DatabasePath())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero interval", func(c *config.Config) { c.Sequencer.MinIntervalMS = 0 }},
		{"negative retries", func(c *config.Config) { c.Sequencer.MaxRetries = -1 }},
		{"threshold above one", func(c *config.Config) { c.Providers.SimilarityThreshold = 1.5 }},
		{"zero workers", func(c *config.Config) { c.Pools.CoverWorkers = 0 }},
		{"bad cover format", func(c *config.Config) { c.Covers.Format = "webp" }},
		{"enabled endpoint without URL", func(c *config.Config) { c.Providers.Deezer.BaseURL = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
	if !exists {
		t.Fatal("sample config file missing")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}
