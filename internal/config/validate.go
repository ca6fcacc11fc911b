package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSequencer(); err != nil {
		return err
	}
	if err := c.validatePools(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateCovers(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSequencer() error {
	if c.Sequencer.MinIntervalMS <= 0 {
		return errors.New("sequencer.min_interval_ms must be positive")
	}
	if c.Sequencer.RequestTimeout <= 0 {
		return errors.New("sequencer.request_timeout must be positive")
	}
	if c.Sequencer.MaxRetries < 0 {
		return errors.New("sequencer.max_retries must not be negative")
	}
	return nil
}

func (c *Config) validatePools() error {
	if err := ensurePositiveMap(map[string]int{
		"pools.cover_workers":     c.Pools.CoverWorkers,
		"pools.track_workers":     c.Pools.TrackWorkers,
		"providers.search_timeout": c.Providers.SearchTimeout,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProviders() error {
	if c.Providers.SimilarityThreshold < 0 || c.Providers.SimilarityThreshold > 1 {
		return errors.New("providers.similarity_threshold must be between 0 and 1")
	}
	for name, endpoint := range map[string]ProviderEndpoint{
		"providers.musicbrainz":     c.Providers.MusicBrainz,
		"providers.coverartarchive": c.Providers.CoverArtArchive,
		"providers.itunes":          c.Providers.ITunes,
		"providers.deezer":          c.Providers.Deezer,
	} {
		if endpoint.Enabled && endpoint.BaseURL == "" {
			return fmt.Errorf("%s.base_url must be set when enabled", name)
		}
	}
	return nil
}

func (c *Config) validateCovers() error {
	if c.Covers.TargetSize <= 0 {
		return errors.New("covers.target_size must be positive")
	}
	switch c.Covers.Format {
	case "jpeg", "png":
		return nil
	default:
		return fmt.Errorf("covers.format: unsupported value %q", c.Covers.Format)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
