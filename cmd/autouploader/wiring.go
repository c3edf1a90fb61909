package main

import (
	"fmt"
	"log/slog"
	"time"

	"autouploader/internal/config"
	"autouploader/internal/history"
	"autouploader/internal/logging"
	"autouploader/internal/metadata"
	"autouploader/internal/metadata/anilist"
	"autouploader/internal/metadata/omdb"
	"autouploader/internal/metadata/tmdb"
	"autouploader/internal/notifications"
	"autouploader/internal/pipeline"
	"autouploader/internal/retry"
	"autouploader/internal/wordpress"
)

const maxRetryDelay = 30 * time.Second

func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		Attempts:     cfg.Retry.Attempts,
		InitialDelay: cfg.RetryDelay(),
		MaxDelay:     maxRetryDelay,
		Factor:       cfg.Retry.Factor,
	}
}

func newBackend(cfg *config.Config, logger *slog.Logger) (*wordpress.Client, error) {
	if err := cfg.RequirePublishing(); err != nil {
		return nil, err
	}
	return wordpress.New(wordpress.Options{
		URL:               cfg.WordPress.URL,
		User:              cfg.WordPress.User,
		AppPassword:       cfg.WordPress.AppPassword,
		Timeout:           cfg.WordPressTimeout(),
		RequestsPerSecond: cfg.WordPress.RequestsPerSecond,
		Retry:             retryPolicy(cfg),
		StrictQuality:     cfg.WordPress.StrictResolutionMatching,
	}, logger)
}

// newMetadata builds the lookup chain from whichever providers are enabled
// and configured. It returns nil when none are.
func newMetadata(cfg *config.Config, logger *slog.Logger) metadata.Provider {
	m := cfg.Metadata
	policy := retryPolicy(cfg)
	timeout := cfg.MetadataTimeout()

	var anilistProvider, tmdbProvider, omdbProvider metadata.Provider
	if m.EnableAniList {
		client, err := anilist.New(m.AniListURL, timeout, m.RequestsPerSecond, policy, nil)
		if err != nil {
			logger.Warn("anilist disabled", logging.Error(err))
		} else {
			anilistProvider = client
		}
	}
	if m.TMDBAPIKey != "" {
		client, err := tmdb.New(m.TMDBAPIKey, m.TMDBBaseURL, m.TMDBLanguage,
			tmdb.WithTimeout(timeout),
			tmdb.WithRateLimit(m.RequestsPerSecond),
			tmdb.WithImageBaseURL(m.TMDBImageBaseURL),
			tmdb.WithRetry(policy),
		)
		if err != nil {
			logger.Warn("tmdb disabled", logging.Error(err))
		} else {
			tmdbProvider = client
		}
	}
	if m.EnableOMDBFallback && m.OMDBAPIKey != "" {
		client, err := omdb.New(m.OMDBAPIKey, m.OMDBBaseURL, timeout, m.RequestsPerSecond, policy, nil)
		if err != nil {
			logger.Warn("omdb disabled", logging.Error(err))
		} else {
			omdbProvider = client
		}
	}
	if anilistProvider == nil && tmdbProvider == nil && omdbProvider == nil {
		return nil
	}
	return metadata.NewChain(anilistProvider, tmdbProvider, omdbProvider, logger)
}

// openUploader wires the production collaborators. The returned func
// releases the history store.
func (c *commandContext) openUploader() (*pipeline.Uploader, func(), error) {
	e, err := c.env()
	if err != nil {
		return nil, nil, err
	}
	backend, err := newBackend(e.cfg, e.logger)
	if err != nil {
		return nil, nil, err
	}

	opts := pipeline.Options{
		Backend:  backend,
		Metadata: newMetadata(e.cfg, e.logger),
		Notifier: notifications.NewService(e.cfg),
	}
	closeFn := func() {}
	store, err := history.Open(e.cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(e.logger, "history unavailable", "history_open_failed",
			logging.String("path", e.cfg.HistoryPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "outcomes are not recorded for this run"),
		)
	} else {
		opts.History = store
		closeFn = func() { _ = store.Close() }
	}

	uploader, err := pipeline.New(e.cfg, opts, e.logger)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("build uploader: %w", err)
	}
	return uploader, closeFn, nil
}
