package testsupport

import (
	"path/filepath"
	"testing"

	"autouploader/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Locks and retries are tuned so contention tests finish quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.QueueDir = filepath.Join(base, "queue")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Hosts.ConfigPath = filepath.Join(base, "state", "host_config.json")
	cfgVal.WordPress.URL = "http://wordpress.invalid"
	cfgVal.WordPress.User = "editor"
	cfgVal.WordPress.AppPassword = "secret"
	cfgVal.Locking.Attempts = 3
	cfgVal.Locking.InitialBackoffMS = 1
	cfgVal.Retry.Attempts = 1
	cfgVal.Retry.InitialDelayMS = 1
	cfgVal.Posting.IncludeThumbnails = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithRequireAllPrimaryHosts toggles the readiness gate.
func WithRequireAllPrimaryHosts(require bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Posting.RequireAllPrimaryHosts = require
	}
}

// WithPostDeletion toggles removal of duplicate posts during reconciliation.
func WithPostDeletion(allow bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.WordPress.AllowPostDeletion = allow
	}
}

// WithThumbnails enables thumbnail handling and points the thumbnail folder
// at a directory inside the test's temp dir.
func WithThumbnails() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Posting.IncludeThumbnails = true
		b.cfg.Paths.ThumbnailDir = filepath.Join(b.baseDir, "thumbs")
	}
}

// BaseDir returns the temp directory backing cfg's state directory.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
