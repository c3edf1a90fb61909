package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"autouploader/internal/config"
)

func TestLoadDefaultConfigUsesEnvSecretsAndExpandsPaths(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-key")
	t.Setenv("WP_APP_PASSWORD", "app-pass")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "autouploader")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.QueueDir != filepath.Join(wantState, "queue") {
		t.Fatalf("unexpected queue dir: %q", cfg.Paths.QueueDir)
	}
	if cfg.Metadata.TMDBAPIKey != "test-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.Metadata.TMDBAPIKey)
	}
	if cfg.WordPress.AppPassword != "app-pass" {
		t.Fatalf("expected app password from env, got %q", cfg.WordPress.AppPassword)
	}
	if cfg.AggregatePath() != filepath.Join(wantState, "pending_links.json") {
		t.Fatalf("unexpected aggregate path: %q", cfg.AggregatePath())
	}
	if cfg.HostConfigPath() != filepath.Join(wantState, "host_config.json") {
		t.Fatalf("unexpected host config path: %q", cfg.HostConfigPath())
	}
	if !cfg.Posting.RequireAllPrimaryHosts {
		t.Fatal("expected all primary hosts to be required by default")
	}
	if cfg.Retry.Attempts != 3 || cfg.Retry.Factor != 2 {
		t.Fatalf("unexpected retry defaults: %+v", cfg.Retry)
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")

	content := `
[paths]
state_dir = "` + filepath.ToSlash(filepath.Join(tempDir, "state")) + `"

[wordpress]
url = "https://example.com/"
user = "poster"
app_password = "secret"
post_status = "Draft"
categories = ["TV", " TV ", ""]
allow_post_deletion = true

[templates]
Movie = "{title}"
anime = "   "

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.WordPress.URL != "https://example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.WordPress.URL)
	}
	if cfg.WordPress.PostStatus != "draft" {
		t.Fatalf("expected lowercased post status, got %q", cfg.WordPress.PostStatus)
	}
	if len(cfg.WordPress.Categories) != 1 || cfg.WordPress.Categories[0] != "TV" {
		t.Fatalf("expected deduplicated categories, got %v", cfg.WordPress.Categories)
	}
	if !cfg.WordPress.AllowPostDeletion {
		t.Fatal("expected allow_post_deletion to be true")
	}
	if cfg.Templates["movie"] != "{title}" {
		t.Fatalf("expected lowercased template key, got %v", cfg.Templates)
	}
	if _, ok := cfg.Templates["anime"]; ok {
		t.Fatal("expected blank template to be dropped")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if err := cfg.RequirePublishing(); err != nil {
		t.Fatalf("RequirePublishing returned error: %v", err)
	}
}

func TestLoadReadsDotEnvNextToConfig(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "")
	os.Unsetenv("OMDB_API_KEY")

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[metadata]\nenable_omdb_fallback = true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte("OMDB_API_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Metadata.OMDBAPIKey != "from-dotenv" {
		t.Fatalf("expected OMDb key from .env, got %q", cfg.Metadata.OMDBAPIKey)
	}
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "from-env")

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")
	if err := os.WriteFile(configPath, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte("TMDB_API_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Metadata.TMDBAPIKey != "from-env" {
		t.Fatalf("expected environment to win, got %q", cfg.Metadata.TMDBAPIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"bad url", func(c *config.Config) { c.WordPress.URL = "ftp://site" }, "wordpress.url"},
		{"bad status", func(c *config.Config) { c.WordPress.PostStatus = "scheduled" }, "wordpress.post_status"},
		{"omdb without key", func(c *config.Config) { c.Metadata.EnableOMDBFallback = true }, "metadata.omdb_api_key"},
		{"bad image", func(c *config.Config) { c.Posting.PreferredImage = "banner" }, "posting.preferred_image"},
		{"no lock attempts", func(c *config.Config) { c.Locking.Attempts = 0 }, "locking.attempts"},
		{"shrinking retry", func(c *config.Config) { c.Retry.Factor = 0.5 }, "retry.factor"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRequirePublishingNamesMissingKey(t *testing.T) {
	cfg := config.Default()
	cfg.WordPress.User = "admin"
	err := cfg.RequirePublishing()
	if err == nil || !strings.Contains(err.Error(), "wordpress.url must be set") {
		t.Fatalf("expected missing url error, got %v", err)
	}
	cfg.WordPress.URL = "https://example.com"
	err = cfg.RequirePublishing()
	if err == nil || !strings.Contains(err.Error(), "wordpress.app_password") {
		t.Fatalf("expected missing password error, got %v", err)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if cfg.Retry.Attempts != 3 {
		t.Fatalf("unexpected sample retry attempts: %d", cfg.Retry.Attempts)
	}

	t.Setenv("HOME", tempDir)
	loaded, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(sample) returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if loaded.WordPress.URL != "https://your-site.com" {
		t.Fatalf("unexpected sample url: %q", loaded.WordPress.URL)
	}
}

func TestExpandPathHandlesTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/queue")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "queue") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
