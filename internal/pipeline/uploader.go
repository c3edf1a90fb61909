package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"autouploader/internal/config"
	"autouploader/internal/history"
	"autouploader/internal/ledger"
	"autouploader/internal/linkstore"
	"autouploader/internal/logging"
	"autouploader/internal/metadata"
	"autouploader/internal/notifications"
	"autouploader/internal/release"
	"autouploader/internal/render"
	"autouploader/internal/statefile"
	"autouploader/internal/thumbnail"
	"autouploader/internal/wordpress"
)

// Backend is the publishing site as the pipeline uses it.
type Backend interface {
	Search(ctx context.Context, id release.Identity) (int64, bool, error)
	Create(ctx context.Context, post wordpress.NewPost) (wordpress.Post, error)
	Update(ctx context.Context, id int64, content string) (wordpress.Post, error)
	Fetch(ctx context.Context, id int64) (wordpress.Post, error)
	Delete(ctx context.Context, id int64) error
	ResolveTerms(ctx context.Context, names []string, taxonomy string) ([]int64, error)
	thumbnail.MediaStore
}

// Recorder stores the audit trail.
type Recorder interface {
	Record(ctx context.Context, ev history.Event) error
}

// Options carries the collaborators of an Uploader. Metadata and History
// may be nil; a nil Notifier falls back to notifications.NewService.
type Options struct {
	Backend  Backend
	Metadata metadata.Provider
	Notifier notifications.Service
	History  Recorder
}

// Uploader runs invocations against shared on-disk state.
type Uploader struct {
	cfg      *config.Config
	backend  Backend
	metadata metadata.Provider
	notifier notifications.Service
	history  Recorder

	links    *linkstore.Store
	ledger   *ledger.Ledger
	renderer *render.Renderer
	thumbs   *thumbnail.Acquirer
	lockOpts statefile.Options

	base   *slog.Logger
	logger *slog.Logger
}

// LockOptions maps the [locking] section onto state file lock options.
func LockOptions(cfg *config.Config) statefile.Options {
	return statefile.Options{
		Attempts:       cfg.Locking.Attempts,
		InitialBackoff: cfg.LockBackoff(),
	}
}

// New builds an Uploader over the state files named by cfg.
func New(cfg *config.Config, opts Options, logger *slog.Logger) (*Uploader, error) {
	if cfg == nil {
		return nil, errors.New("pipeline requires a config")
	}
	if opts.Backend == nil {
		return nil, errors.New("pipeline requires a publishing backend")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	lockOpts := LockOptions(cfg)

	return &Uploader{
		cfg:      cfg,
		backend:  opts.Backend,
		metadata: opts.Metadata,
		notifier: notifier,
		history:  opts.History,
		links:    linkstore.NewStore(cfg.AggregatePath(), lockOpts, logger),
		ledger:   ledger.New(cfg.LedgerPath(), lockOpts, logger),
		renderer: render.NewRenderer(cfg.Templates, logger),
		thumbs: thumbnail.New(opts.Backend, thumbnail.Options{
			Enabled:        cfg.Posting.IncludeThumbnails,
			PreferredImage: cfg.Posting.PreferredImage,
			MaxImageBytes:  cfg.Posting.MaxImageBytes,
			ThumbnailDir:   cfg.Paths.ThumbnailDir,
			Timeout:        cfg.MetadataTimeout(),
		}, logger),
		lockOpts: lockOpts,
		base:     logger,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}
