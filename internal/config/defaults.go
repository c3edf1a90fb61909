package config

const (
	defaultConfigPath           = "~/.config/autouploader/config.toml"
	defaultStateDir             = "~/.local/share/autouploader"
	defaultQueueDir             = "~/.local/share/autouploader/queue"
	defaultLogDir               = "~/.local/share/autouploader/logs"
	defaultPostStatus           = "publish"
	defaultWordPressTimeout     = 30
	defaultWordPressRate        = 5
	defaultTMDBBaseURL          = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL     = "https://image.tmdb.org/t/p/w500"
	defaultTMDBLanguage         = "en-US"
	defaultOMDBBaseURL          = "https://www.omdbapi.com/"
	defaultAniListURL           = "https://graphql.anilist.co"
	defaultMetadataRate         = 4
	defaultMetadataTimeout      = 10
	defaultPreferredImage       = "poster"
	defaultMaxImageBytes        = 5 * 1024 * 1024
	defaultLockAttempts         = 5
	defaultLockInitialBackoffMS = 100
	defaultRetryAttempts        = 3
	defaultRetryInitialDelayMS  = 1000
	defaultRetryFactor          = 2.0
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogMaxSizeMB         = 10
	defaultLogMaxBackups        = 5
	defaultLogMaxAgeDays        = 28
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			QueueDir: defaultQueueDir,
			LogDir:   defaultLogDir,
		},
		WordPress: WordPress{
			PostStatus:               defaultPostStatus,
			Categories:               []string{"Movies"},
			Tags:                     []string{"HD"},
			StrictResolutionMatching: true,
			RequestTimeout:           defaultWordPressTimeout,
			RequestsPerSecond:        defaultWordPressRate,
		},
		Metadata: Metadata{
			TMDBBaseURL:              defaultTMDBBaseURL,
			TMDBImageBaseURL:         defaultTMDBImageBaseURL,
			TMDBLanguage:             defaultTMDBLanguage,
			OMDBBaseURL:              defaultOMDBBaseURL,
			EnableAniList:            true,
			AniListURL:               defaultAniListURL,
			RequestsPerSecond:        defaultMetadataRate,
			RequestTimeout:           defaultMetadataTimeout,
			SkipLookupIfUnrecognized: true,
		},
		Posting: Posting{
			RequireAllPrimaryHosts: true,
			IncludeThumbnails:      true,
			PreferredImage:         defaultPreferredImage,
			MaxImageBytes:          defaultMaxImageBytes,
		},
		Templates: map[string]string{},
		Locking: Locking{
			Attempts:         defaultLockAttempts,
			InitialBackoffMS: defaultLockInitialBackoffMS,
		},
		Retry: Retry{
			Attempts:       defaultRetryAttempts,
			InitialDelayMS: defaultRetryInitialDelayMS,
			Factor:         defaultRetryFactor,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Published:      true,
			Merged:         true,
			Queue:          true,
			Errors:         true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
