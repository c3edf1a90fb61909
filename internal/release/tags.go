package release

import (
	"fmt"
	"sort"
	"strings"

	"github.com/moistari/rls"
)

// Tags derives taxonomy keywords from the lowercased title, the resolution,
// source, and codec rls reads from the release name, and the season and
// episode markers. The result is deduplicated and sorted.
func (id Identity) Tags() []string {
	parsed := rls.ParseString(id.RawKey)
	tags := make([]string, 0, 8)

	tags = append(tags, strings.ToLower(id.CleanTitle))
	tags = append(tags, resolutionTag(parsed.Resolution, id.Quality))
	tags = append(tags, sourceTag(parsed.Source))
	for _, codec := range parsed.Codec {
		tags = append(tags, codecTag(codec))
	}

	if id.Episode != nil {
		tags = append(tags, fmt.Sprintf("S%02d", id.Episode.Season), fmt.Sprintf("Ep%02d", id.Episode.Episode))
	}

	out := dedupe(tags)
	sort.Strings(out)
	return out
}

func resolutionTag(resolution string, fallback Quality) string {
	switch r := strings.ToLower(strings.TrimSpace(resolution)); r {
	case "":
	case "2160p", "4k", "uhd":
		return string(Quality4K)
	default:
		return r
	}
	switch fallback {
	case Quality4K, Quality1080p, Quality720p, Quality480p:
		return string(fallback)
	}
	return ""
}

func sourceTag(source string) string {
	switch key := compact(source); key {
	case "webdl":
		return "web-dl"
	case "bluray":
		return "blu-ray"
	default:
		return key
	}
}

func codecTag(codec string) string {
	key := compact(codec)
	switch {
	case strings.Contains(key, "265"), strings.Contains(key, "hevc"):
		return "x265"
	case strings.Contains(key, "264"), strings.Contains(key, "avc"):
		return "x264"
	default:
		return key
	}
}

// compact lowercases s and drops everything but letters and digits.
func compact(s string) string {
	return strings.ToLower(nonWordRun.ReplaceAllString(s, ""))
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if len(v) < 2 {
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
