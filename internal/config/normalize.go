package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProviders()
	c.normalizeLogging()
	c.normalizeCovers()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProviders() {
	c.Providers.UserAgent = strings.TrimSpace(c.Providers.UserAgent)
	if c.Providers.UserAgent == "" {
		c.Providers.UserAgent = defaultUserAgent
	}
	for _, endpoint := range []*ProviderEndpoint{
		&c.Providers.MusicBrainz,
		&c.Providers.CoverArtArchive,
		&c.Providers.ITunes,
		&c.Providers.Deezer,
	} {
		endpoint.BaseURL = strings.TrimRight(strings.TrimSpace(endpoint.BaseURL), "/")
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeCovers() {
	c.Covers.Format = strings.ToLower(strings.TrimSpace(c.Covers.Format))
	if c.Covers.Format == "" {
		c.Covers.Format = defaultCoverFormat
	}
	if c.Covers.TargetSize == 0 {
		c.Covers.TargetSize = defaultCoverTargetSize
	}
}
