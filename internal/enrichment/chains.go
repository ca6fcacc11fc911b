package enrichment

import (
	"fmt"

	"platter/internal/config"
	"platter/internal/providers"
	"platter/internal/providers/caa"
	"platter/internal/providers/deezer"
	"platter/internal/providers/itunes"
	"platter/internal/providers/musicbrainz"
	"platter/internal/sequencer"
)

// Chains assembles the provider fallback chains from configuration. The
// cover chain prefers the direct-lookup archive before falling back to
// search; the track chain prefers MusicBrainz, which is routed through the
// shared sequencer to respect its request pacing.
func Chains(cfg *config.Config, seq *sequencer.Sequencer) (cover, tracks []providers.Provider, err error) {
	threshold := cfg.Providers.SimilarityThreshold

	if cfg.Providers.CoverArtArchive.Enabled {
		client, err := caa.New(cfg.Providers.CoverArtArchive.BaseURL, cfg.Providers.UserAgent)
		if err != nil {
			return nil, nil, fmt.Errorf("coverartarchive: %w", err)
		}
		cover = append(cover, client)
	}
	if cfg.Providers.ITunes.Enabled {
		client, err := itunes.New(cfg.Providers.ITunes.BaseURL, threshold)
		if err != nil {
			return nil, nil, fmt.Errorf("itunes: %w", err)
		}
		cover = append(cover, client)
	}

	var deezerClient *deezer.Client
	if cfg.Providers.Deezer.Enabled {
		deezerClient, err = deezer.New(cfg.Providers.Deezer.BaseURL, threshold)
		if err != nil {
			return nil, nil, fmt.Errorf("deezer: %w", err)
		}
		cover = append(cover, deezerClient)
	}

	if cfg.Providers.MusicBrainz.Enabled {
		client, err := musicbrainz.New(cfg.Providers.MusicBrainz.BaseURL, cfg.Providers.UserAgent, threshold,
			musicbrainz.WithSequencer(seq))
		if err != nil {
			return nil, nil, fmt.Errorf("musicbrainz: %w", err)
		}
		tracks = append(tracks, client)
	}
	if deezerClient != nil {
		tracks = append(tracks, deezerClient)
	}

	return cover, tracks, nil
}
