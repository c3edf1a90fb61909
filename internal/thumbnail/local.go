package thumbnail

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var imageExtensions = []string{"jpg", "jpeg", "png", "webp"}

var (
	qualitySuffix = regexp.MustCompile(`\.\d{3,4}p\..*$`)
	dottedEpisode = regexp.MustCompile(`(?i)s(\d{1,2})[._]e(\d{2,4})`)
)

// corePattern strips the quality token and everything after it, then
// normalizes "s1.e05" style markers to S01E05.
func corePattern(base string) string {
	core := qualitySuffix.ReplaceAllString(base, "")
	return dottedEpisode.ReplaceAllStringFunc(core, func(m string) string {
		parts := dottedEpisode.FindStringSubmatch(m)
		season, _ := strconv.Atoi(parts[1])
		episode, _ := strconv.Atoi(parts[2])
		return fmt.Sprintf("S%02dE%02d", season, episode)
	})
}

// FindLocal looks for "<base>_thumb_1.<ext>" in each dir, then for any
// "<core>.<anything>.<ext>" file. Directories are searched in order and
// missing ones are skipped.
func FindLocal(dirs []string, base string) (string, bool) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", false
	}
	dirs = uniqueDirs(dirs)

	exact := base + "_thumb_1"
	for _, dir := range dirs {
		for _, ext := range imageExtensions {
			candidate := filepath.Join(dir, exact+"."+ext)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, true
			}
		}
	}

	pattern, err := regexp.Compile(`(?i)^` + regexp.QuoteMeta(corePattern(base)) + `\.(.*?)\.(jpg|jpeg|png|webp)$`)
	if err != nil {
		return "", false
	}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.Type().IsRegular() && pattern.MatchString(entry.Name()) {
				return filepath.Join(dir, entry.Name()), true
			}
		}
	}
	return "", false
}

func uniqueDirs(dirs []string) []string {
	seen := make(map[string]struct{}, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		dir = filepath.Clean(dir)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		out = append(out, dir)
	}
	return out
}
