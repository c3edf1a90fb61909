package hosts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"

	"autouploader/internal/logging"
	"autouploader/internal/statefile"
	"autouploader/internal/textutil"
)

// Unknown is returned by Detect when no pattern matches.
const Unknown = "unknown"

// Config is the persisted host table.
type Config struct {
	PrimaryHosts []string          `json:"primary_hosts"`
	MirrorHosts  []string          `json:"mirror_hosts"`
	DisplayNames map[string]string `json:"host_display_names"`
	Patterns     map[string]string `json:"host_patterns"`
}

// Default returns the built-in table: two premium primaries and three mirrors.
func Default() Config {
	return Config{
		PrimaryHosts: []string{"rapidgator", "nitroflare"},
		MirrorHosts:  []string{"uploadgig", "filefactory", "keep2share"},
		DisplayNames: map[string]string{
			"rapidgator":  "Rapidgator",
			"nitroflare":  "Nitroflare",
			"uploadgig":   "Uploadgig",
			"filefactory": "FileFactory",
			"keep2share":  "Keep2Share",
		},
		Patterns: map[string]string{
			"rapidgator":  `rapidgator\.net`,
			"nitroflare":  `nitroflare\.com`,
			"uploadgig":   `uploadgig\.com`,
			"filefactory": `filefactory\.com`,
			"keep2share":  `keep2share\.cc`,
		},
	}
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := Config{
		PrimaryHosts: slices.Clone(c.PrimaryHosts),
		MirrorHosts:  slices.Clone(c.MirrorHosts),
		DisplayNames: make(map[string]string, len(c.DisplayNames)),
		Patterns:     make(map[string]string, len(c.Patterns)),
	}
	for k, v := range c.DisplayNames {
		out.DisplayNames[k] = v
	}
	for k, v := range c.Patterns {
		out.Patterns[k] = v
	}
	return out
}

// IsPrimary reports whether host is in the primary list.
func (c Config) IsPrimary(host string) bool {
	return slices.Contains(c.PrimaryHosts, host)
}

// DisplayName returns the configured label for host, or a title-cased id.
func (c Config) DisplayName(host string) string {
	if name := strings.TrimSpace(c.DisplayNames[host]); name != "" {
		return name
	}
	return textutil.TitleCase(host)
}

// Validate checks that every pattern compiles and every primary host has one.
func (c Config) Validate() error {
	var errs []error
	for host, pattern := range c.Patterns {
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fmt.Errorf("host_patterns.%s: %w", host, err))
		}
	}
	for _, host := range c.PrimaryHosts {
		if _, ok := c.Patterns[host]; !ok {
			errs = append(errs, fmt.Errorf("primary host %q has no entry in host_patterns", host))
		}
	}
	return errors.Join(errs...)
}

// SetPrimary replaces the primary list. Promoted hosts leave the mirror list;
// demoted primaries become mirrors so their links are still recognized.
func (c Config) SetPrimary(hosts []string) (Config, error) {
	next := c.Clone()
	primaries := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = normalizeID(h)
		if h == "" || slices.Contains(primaries, h) {
			continue
		}
		if _, ok := next.Patterns[h]; !ok {
			return c, fmt.Errorf("host %q has no pattern; add it with add-mirror first", h)
		}
		primaries = append(primaries, h)
	}
	if len(primaries) == 0 {
		return c, errors.New("at least one primary host is required")
	}

	mirrors := make([]string, 0, len(next.MirrorHosts)+len(next.PrimaryHosts))
	for _, h := range next.MirrorHosts {
		if !slices.Contains(primaries, h) {
			mirrors = append(mirrors, h)
		}
	}
	for _, h := range next.PrimaryHosts {
		if !slices.Contains(primaries, h) && !slices.Contains(mirrors, h) {
			mirrors = append(mirrors, h)
		}
	}
	next.PrimaryHosts = primaries
	next.MirrorHosts = mirrors
	return next, nil
}

// AddMirror registers host as a mirror with its URL pattern. An empty display
// name defaults to the title-cased id. Re-adding a host updates its pattern.
func (c Config) AddMirror(host, pattern, display string) (Config, error) {
	host = normalizeID(host)
	pattern = strings.TrimSpace(pattern)
	if host == "" || host == Unknown {
		return c, fmt.Errorf("invalid host id %q", host)
	}
	if pattern == "" {
		return c, errors.New("pattern is required")
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return c, fmt.Errorf("invalid pattern for %s: %w", host, err)
	}

	next := c.Clone()
	if !next.IsPrimary(host) && !slices.Contains(next.MirrorHosts, host) {
		next.MirrorHosts = append(next.MirrorHosts, host)
	}
	next.Patterns[host] = pattern
	if display = strings.TrimSpace(display); display == "" {
		display = textutil.TitleCase(host)
	}
	next.DisplayNames[host] = display
	return next, nil
}

// Remove drops host from both lists and its pattern and display name. The
// bool reports whether anything was removed.
func (c Config) Remove(host string) (Config, bool) {
	host = normalizeID(host)
	next := c.Clone()
	removed := false
	if i := slices.Index(next.PrimaryHosts, host); i >= 0 {
		next.PrimaryHosts = slices.Delete(next.PrimaryHosts, i, i+1)
		removed = true
	}
	if i := slices.Index(next.MirrorHosts, host); i >= 0 {
		next.MirrorHosts = slices.Delete(next.MirrorHosts, i, i+1)
		removed = true
	}
	if _, ok := next.Patterns[host]; ok {
		delete(next.Patterns, host)
		removed = true
	}
	if _, ok := next.DisplayNames[host]; ok {
		delete(next.DisplayNames, host)
		removed = true
	}
	return next, removed
}

func normalizeID(host string) string {
	if strings.TrimSpace(host) == "" {
		return ""
	}
	return textutil.SanitizeToken(host)
}

// Load reads the host table at path. A missing file is created with the
// defaults. Sections that are absent or of the wrong shape are replaced by
// their defaults individually; an undecodable file is left on disk and the
// defaults are used. Load never fails: the table is configuration, and the
// defaults are always usable.
func Load(ctx context.Context, path string, opts statefile.Options, logger *slog.Logger) Config {
	logger = logging.NewComponentLogger(logger, "hosts")

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeDefaults(ctx, path, opts, logger)
			return Default()
		}
		logging.WarnWithContext(logger, "host config unreadable; using defaults", "host_config_unreadable",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check file permissions"),
			logging.String(logging.FieldImpact, "built-in host table in use"),
		)
		return Default()
	}

	cfg, repaired, err := decode(data)
	if err != nil {
		logging.WarnWithContext(logger, "host config corrupt; using defaults", "host_config_corrupt",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the JSON or delete the file to regenerate it"),
			logging.String(logging.FieldImpact, "built-in host table in use"),
		)
		return Default()
	}
	if len(repaired) > 0 {
		logging.WarnWithContext(logger, "host config sections replaced by defaults", "host_config_repaired",
			logging.String("path", path),
			logging.String("sections", strings.Join(repaired, ",")),
			logging.String(logging.FieldErrorHint, "each section must be a list or an object of strings"),
		)
	}
	return cfg
}

func decode(data []byte) (Config, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, nil, err
	}
	def := Default()
	var cfg Config
	var repaired []string

	if !decodeSection(raw, "primary_hosts", &cfg.PrimaryHosts) {
		cfg.PrimaryHosts = def.PrimaryHosts
		repaired = append(repaired, "primary_hosts")
	}
	if !decodeSection(raw, "mirror_hosts", &cfg.MirrorHosts) {
		cfg.MirrorHosts = def.MirrorHosts
		repaired = append(repaired, "mirror_hosts")
	}
	if !decodeSection(raw, "host_display_names", &cfg.DisplayNames) {
		cfg.DisplayNames = def.DisplayNames
		repaired = append(repaired, "host_display_names")
	}
	if !decodeSection(raw, "host_patterns", &cfg.Patterns) {
		cfg.Patterns = def.Patterns
		repaired = append(repaired, "host_patterns")
	}
	return cfg, repaired, nil
}

// decodeSection reports false when key is missing, null, or the wrong shape.
func decodeSection[T any](raw map[string]json.RawMessage, key string, dst *T) bool {
	value, ok := raw[key]
	if !ok || string(value) == "null" {
		return false
	}
	var decoded T
	if err := json.Unmarshal(value, &decoded); err != nil {
		return false
	}
	*dst = decoded
	return true
}

func writeDefaults(ctx context.Context, path string, opts statefile.Options, logger *slog.Logger) {
	unlock, err := statefile.Lock(ctx, path, opts)
	if err != nil {
		logger.Debug("skipped writing default host config", logging.String("path", path), logging.Error(err))
		return
	}
	defer unlock()
	if _, err := os.Stat(path); err == nil {
		return
	}
	if err := statefile.WriteAtomic(path, Default()); err != nil {
		logging.WarnWithContext(logger, "failed to write default host config", "host_config_write_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "defaults used in memory only"),
		)
		return
	}
	logger.Info("created default host config", logging.String("path", path))
}

// Save validates cfg and atomically replaces the file at path.
func Save(ctx context.Context, path string, opts statefile.Options, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid host config: %w", err)
	}
	unlock, err := statefile.Lock(ctx, path, opts)
	if err != nil {
		return err
	}
	defer unlock()
	if err := statefile.WriteAtomic(path, cfg); err != nil {
		return fmt.Errorf("save host config: %w", err)
	}
	return nil
}
