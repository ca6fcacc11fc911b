// Package testsupport provides shared fixtures for package tests: temp-backed
// configs, open stores, and synthetic cover images.
package testsupport

import (
	"path/filepath"
	"testing"

	"platter/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	// Keep timing-sensitive tests fast.
	cfg.Sequencer.MinIntervalMS = 10
	cfg.Sequencer.RequestTimeout = 5
	cfg.Providers.SearchTimeout = 5

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithSimilarityThreshold overrides the fuzzy-match gate on the test config.
func WithSimilarityThreshold(threshold float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Providers.SimilarityThreshold = threshold
	}
}
