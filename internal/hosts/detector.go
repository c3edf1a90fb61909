package hosts

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type rule struct {
	host string
	re   *regexp.Regexp
}

// Detector classifies URLs against a fixed snapshot of a Config.
type Detector struct {
	cfg   Config
	rules []rule
}

// NewDetector compiles the patterns of cfg. Rules are ordered primary hosts
// first, then mirrors, then any remaining patterns by id, so a URL that
// matches two patterns always resolves the same way. Patterns that do not
// compile are skipped and reported in the returned error; the Detector is
// usable either way.
func NewDetector(cfg Config) (*Detector, error) {
	snapshot := cfg.Clone()
	d := &Detector{cfg: snapshot}

	order := make([]string, 0, len(snapshot.Patterns))
	seen := make(map[string]struct{}, len(snapshot.Patterns))
	add := func(host string) {
		if _, ok := snapshot.Patterns[host]; !ok {
			return
		}
		if _, dup := seen[host]; dup {
			return
		}
		seen[host] = struct{}{}
		order = append(order, host)
	}
	for _, h := range snapshot.PrimaryHosts {
		add(h)
	}
	for _, h := range snapshot.MirrorHosts {
		add(h)
	}
	rest := make([]string, 0)
	for h := range snapshot.Patterns {
		if _, ok := seen[h]; !ok {
			rest = append(rest, h)
		}
	}
	sort.Strings(rest)
	for _, h := range rest {
		add(h)
	}

	var errs []error
	for _, host := range order {
		re, err := regexp.Compile(snapshot.Patterns[host])
		if err != nil {
			errs = append(errs, fmt.Errorf("host %s: %w", host, err))
			continue
		}
		d.rules = append(d.rules, rule{host: host, re: re})
	}
	return d, errors.Join(errs...)
}

// Detect returns the host id whose pattern matches the lowercased url, or
// Unknown.
func (d *Detector) Detect(url string) string {
	url = strings.ToLower(strings.TrimSpace(url))
	if url == "" {
		return Unknown
	}
	for _, r := range d.rules {
		if r.re.MatchString(url) {
			return r.host
		}
	}
	return Unknown
}

// Config returns the snapshot the Detector was built from.
func (d *Detector) Config() Config {
	return d.cfg
}

// PrimaryHosts returns the primary host ids of the snapshot.
func (d *Detector) PrimaryHosts() []string {
	return d.cfg.PrimaryHosts
}

// DisplayName returns the label for host in the snapshot.
func (d *Detector) DisplayName(host string) string {
	return d.cfg.DisplayName(host)
}
