package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Sequencer configures the single-lane rate-limited request pipeline used for
// providers with a hard request-rate ceiling.
type Sequencer struct {
	MinIntervalMS  int `toml:"min_interval_ms"`
	RequestTimeout int `toml:"request_timeout"`
	MaxRetries     int `toml:"max_retries"`
}

// Pools configures the bounded-concurrency pools backing the enrichment
// orchestrators.
type Pools struct {
	CoverWorkers int `toml:"cover_workers"`
	TrackWorkers int `toml:"track_workers"`
}

// ProviderEndpoint configures one external source.
type ProviderEndpoint struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

// Providers contains external source configuration shared by both
// orchestrators.
type Providers struct {
	SimilarityThreshold float64          `toml:"similarity_threshold"`
	SearchTimeout       int              `toml:"search_timeout"`
	UserAgent           string           `toml:"user_agent"`
	MusicBrainz         ProviderEndpoint `toml:"musicbrainz"`
	CoverArtArchive     ProviderEndpoint `toml:"coverartarchive"`
	ITunes              ProviderEndpoint `toml:"itunes"`
	Deezer              ProviderEndpoint `toml:"deezer"`
}

// Covers configures cover art normalization.
type Covers struct {
	TargetSize int    `toml:"target_size"`
	Format     string `toml:"format"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the engine.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Sequencer Sequencer `toml:"sequencer"`
	Pools     Pools     `toml:"pools"`
	Providers Providers `toml:"providers"`
	Covers    Covers    `toml:"covers"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/platter/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return value
// is the resolved path, the third reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("platter.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the engine writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the canonical store's SQLite file location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "albums.db")
}

// LockPath returns the lock file guarding exclusive write access.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "platter.lock")
}

// MinInterval returns the sequencer dispatch spacing.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Sequencer.MinIntervalMS) * time.Millisecond
}

// RequestTimeout returns the sequencer per-request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Sequencer.RequestTimeout) * time.Second
}

// SearchTimeout returns the orchestrators' per-provider soft deadline.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Providers.SearchTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
