package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWordPress()
	c.normalizeMetadata()
	c.normalizePosting()
	c.normalizeTemplates()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.QueueDir) == "" {
		c.Paths.QueueDir = defaultQueueDir
	}
	if c.Paths.QueueDir, err = expandPath(c.Paths.QueueDir); err != nil {
		return fmt.Errorf("paths.queue_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.ThumbnailDir, err = expandPath(c.Paths.ThumbnailDir); err != nil {
		return fmt.Errorf("paths.thumbnail_dir: %w", err)
	}
	if c.Hosts.ConfigPath, err = expandPath(c.Hosts.ConfigPath); err != nil {
		return fmt.Errorf("hosts.config_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeWordPress() {
	c.WordPress.URL = strings.TrimRight(strings.TrimSpace(c.WordPress.URL), "/")
	c.WordPress.User = strings.TrimSpace(c.WordPress.User)
	if c.WordPress.AppPassword == "" {
		if value, ok := os.LookupEnv("WP_APP_PASSWORD"); ok {
			c.WordPress.AppPassword = value
		}
	}
	c.WordPress.PostStatus = strings.ToLower(strings.TrimSpace(c.WordPress.PostStatus))
	if c.WordPress.PostStatus == "" {
		c.WordPress.PostStatus = defaultPostStatus
	}
	c.WordPress.Categories = trimList(c.WordPress.Categories)
	c.WordPress.Tags = trimList(c.WordPress.Tags)
	if c.WordPress.RequestTimeout <= 0 {
		c.WordPress.RequestTimeout = defaultWordPressTimeout
	}
	if c.WordPress.RequestsPerSecond <= 0 {
		c.WordPress.RequestsPerSecond = defaultWordPressRate
	}
}

func (c *Config) normalizeMetadata() {
	if c.Metadata.TMDBAPIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.Metadata.TMDBAPIKey = value
		}
	}
	if c.Metadata.OMDBAPIKey == "" {
		if value, ok := os.LookupEnv("OMDB_API_KEY"); ok {
			c.Metadata.OMDBAPIKey = value
		}
	}
	c.Metadata.TMDBBaseURL = strings.TrimSpace(c.Metadata.TMDBBaseURL)
	if c.Metadata.TMDBBaseURL == "" {
		c.Metadata.TMDBBaseURL = defaultTMDBBaseURL
	}
	c.Metadata.TMDBImageBaseURL = strings.TrimSpace(c.Metadata.TMDBImageBaseURL)
	if c.Metadata.TMDBImageBaseURL == "" {
		c.Metadata.TMDBImageBaseURL = defaultTMDBImageBaseURL
	}
	c.Metadata.TMDBLanguage = strings.TrimSpace(c.Metadata.TMDBLanguage)
	if c.Metadata.TMDBLanguage == "" {
		c.Metadata.TMDBLanguage = defaultTMDBLanguage
	}
	c.Metadata.OMDBBaseURL = strings.TrimSpace(c.Metadata.OMDBBaseURL)
	if c.Metadata.OMDBBaseURL == "" {
		c.Metadata.OMDBBaseURL = defaultOMDBBaseURL
	}
	c.Metadata.AniListURL = strings.TrimSpace(c.Metadata.AniListURL)
	if c.Metadata.AniListURL == "" {
		c.Metadata.AniListURL = defaultAniListURL
	}
	if c.Metadata.RequestsPerSecond <= 0 {
		c.Metadata.RequestsPerSecond = defaultMetadataRate
	}
	if c.Metadata.RequestTimeout <= 0 {
		c.Metadata.RequestTimeout = defaultMetadataTimeout
	}
}

func (c *Config) normalizePosting() {
	c.Posting.PreferredImage = strings.ToLower(strings.TrimSpace(c.Posting.PreferredImage))
	if c.Posting.PreferredImage == "" {
		c.Posting.PreferredImage = defaultPreferredImage
	}
	if c.Posting.MaxImageBytes <= 0 {
		c.Posting.MaxImageBytes = defaultMaxImageBytes
	}
}

func (c *Config) normalizeTemplates() {
	if c.Templates == nil {
		c.Templates = map[string]string{}
	}
	for kind, body := range c.Templates {
		key := strings.ToLower(strings.TrimSpace(kind))
		if key != kind {
			delete(c.Templates, kind)
		}
		if strings.TrimSpace(body) == "" {
			delete(c.Templates, key)
			continue
		}
		c.Templates[key] = body
	}
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = value
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
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
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = defaultLogMaxBackups
	}
	if c.Logging.MaxAgeDays <= 0 {
		c.Logging.MaxAgeDays = defaultLogMaxAgeDays
	}
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
