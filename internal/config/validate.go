package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. Credentials are checked
// separately by RequirePublishing so offline commands work without them.
func (c *Config) Validate() error {
	if err := c.validateWordPress(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validatePosting(); err != nil {
		return err
	}
	if err := c.validateLocking(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequirePublishing reports whether the site credentials needed to create or
// update posts are present.
func (c *Config) RequirePublishing() error {
	if c.WordPress.URL == "" {
		return errors.New("wordpress.url must be set")
	}
	if c.WordPress.User == "" {
		return errors.New("wordpress.user must be set")
	}
	if c.WordPress.AppPassword == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("wordpress.app_password is required. Set WP_APP_PASSWORD env var or edit %s (create with 'autouploader config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateWordPress() error {
	if c.WordPress.URL != "" {
		parsed, err := url.Parse(c.WordPress.URL)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return fmt.Errorf("wordpress.url must be an http(s) URL, got %q", c.WordPress.URL)
		}
	}
	switch c.WordPress.PostStatus {
	case "publish", "draft", "pending", "private":
	default:
		return fmt.Errorf("wordpress.post_status: unsupported value %q", c.WordPress.PostStatus)
	}
	return nil
}

func (c *Config) validateMetadata() error {
	if c.Metadata.EnableOMDBFallback && strings.TrimSpace(c.Metadata.OMDBAPIKey) == "" {
		return errors.New("metadata.omdb_api_key must be set when metadata.enable_omdb_fallback is true")
	}
	return nil
}

func (c *Config) validatePosting() error {
	switch c.Posting.PreferredImage {
	case "poster", "backdrop":
	default:
		return fmt.Errorf("posting.preferred_image: unsupported value %q", c.Posting.PreferredImage)
	}
	return nil
}

func (c *Config) validateLocking() error {
	if c.Locking.Attempts < 1 {
		return errors.New("locking.attempts must be at least 1")
	}
	if c.Locking.InitialBackoffMS < 0 {
		return errors.New("locking.initial_backoff_ms must be non-negative")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.Attempts < 1 {
		return errors.New("retry.attempts must be at least 1")
	}
	if c.Retry.InitialDelayMS < 0 {
		return errors.New("retry.initial_delay_ms must be non-negative")
	}
	if c.Retry.Factor < 1 {
		return errors.New("retry.factor must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
