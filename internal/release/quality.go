package release

import (
	"regexp"
	"strings"
)

type qualityRule struct {
	re      *regexp.Regexp
	quality Quality
}

// qualityRules is checked in order against the lowercased filename; the first
// bounded match wins.
var qualityRules = []qualityRule{
	{boundedToken("2160p"), Quality4K},
	{boundedToken("1080p"), Quality1080p},
	{boundedToken("720p"), Quality720p},
	{boundedToken("480p"), Quality480p},
	{boundedToken("4k"), Quality4K},
	{boundedToken("hd"), QualityHD},
	{boundedToken("sd"), QualitySD},
}

func boundedToken(token string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^a-z0-9])` + regexp.QuoteMeta(token) + `(?:[^a-z0-9]|$)`)
}

func detectQuality(name string) Quality {
	lower := strings.ToLower(name)
	for _, rule := range qualityRules {
		if rule.re.MatchString(lower) {
			return rule.quality
		}
	}
	return QualityUnknown
}
