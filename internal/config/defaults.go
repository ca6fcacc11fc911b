package config

const (
	defaultDataDir             = "~/.local/share/platter"
	defaultLogDir              = "~/.local/share/platter/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultMinIntervalMS       = 1000
	defaultRequestTimeout      = 30
	defaultMaxRetries          = 3
	defaultCoverWorkers        = 4
	defaultTrackWorkers        = 4
	defaultSimilarityThreshold = 0.55
	defaultSearchTimeout       = 10
	defaultUserAgent           = "platter/dev (+https://github.com/platter)"
	defaultMusicBrainzBaseURL  = "https://musicbrainz.org/ws/2"
	defaultCAABaseURL          = "https://coverartarchive.org"
	defaultITunesBaseURL       = "https://itunes.apple.com"
	defaultDeezerBaseURL       = "https://api.deezer.com"
	defaultCoverTargetSize     = 1200
	defaultCoverFormat         = "jpeg"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Sequencer: Sequencer{
			MinIntervalMS:  defaultMinIntervalMS,
			RequestTimeout: defaultRequestTimeout,
			MaxRetries:     defaultMaxRetries,
		},
		Pools: Pools{
			CoverWorkers: defaultCoverWorkers,
			TrackWorkers: defaultTrackWorkers,
		},
		Providers: Providers{
			SimilarityThreshold: defaultSimilarityThreshold,
			SearchTimeout:       defaultSearchTimeout,
			UserAgent:           defaultUserAgent,
			MusicBrainz:         ProviderEndpoint{Enabled: true, BaseURL: defaultMusicBrainzBaseURL},
			CoverArtArchive:     ProviderEndpoint{Enabled: true, BaseURL: defaultCAABaseURL},
			ITunes:              ProviderEndpoint{Enabled: true, BaseURL: defaultITunesBaseURL},
			Deezer:              ProviderEndpoint{Enabled: true, BaseURL: defaultDeezerBaseURL},
		},
		Covers: Covers{
			TargetSize: defaultCoverTargetSize,
			Format:     defaultCoverFormat,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
