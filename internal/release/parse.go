package release

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/moistari/rls"
)

// episodeRule recognizes one season/episode notation. Rules are tried in
// order and the first match wins; the "token" group is the span removed from
// the title before noise stripping.
type episodeRule struct {
	name string
	re   *regexp.Regexp
}

var episodeRules = []episodeRule{
	{"s-sep-e", regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?P<token>s(?P<season>\d{1,2})[._ ]e(?P<episode>\d{1,4}))(?:[^0-9]|$)`)},
	{"s-e", regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?P<token>s(?P<season>\d{1,2})e(?P<episode>\d{1,4}))(?:[^0-9]|$)`)},
	{"n-x-n", regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?P<token>(?P<season>\d{1,2})x(?P<episode>\d{2,4}))(?:[^a-z0-9]|$)`)},
	{"season-episode", regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?P<token>season[._ -]*(?P<season>\d{1,2})[._ -]*episode[._ -]*(?P<episode>\d{1,4}))(?:[^0-9]|$)`)},
}

// noiseRules strip technical tokens after the episode token is gone. Tokens
// are matched on word boundaries so they never eat parts of title words.
var noiseRules = []*regexp.Regexp{
	regexp.MustCompile(`\[[^\]]*\]`),
	regexp.MustCompile(`(?i)\b(?:x26[45]|h\.?26[45]|hevc|avc|xvid|divx|web[\W]?dl|web[\W]?rip|blu[\W]?ray|bdrip|brrip|dvdrip|hdtv|hdrip|remux)\b-[a-z0-9]+$`),
	regexp.MustCompile(`(?i)\b\d{3,4}p\b`),
	regexp.MustCompile(`(?i)\b(?:4k|uhd|x26[45]|h\.?26[45]|hevc|avc|xvid|divx|10bit|8bit|hdr10|hdr)\b`),
	regexp.MustCompile(`(?i)\b(?:web[\W]?dl|web[\W]?rip|blu[\W]?ray|bdrip|brrip|dvdrip|hdtv|hdrip|remux|amzn|dsnp|hmax|atvp)\b`),
	regexp.MustCompile(`(?i)\b(?:ddp?5\.1|aac(?:2\.0)?|ac3|dts|truehd|atmos|mp3)\b`),
	regexp.MustCompile(`(?i)\b(?:cd\d|subs?|[a-z]{2}subs?|dubbed|proper|repack)\b`),
	regexp.MustCompile(`(?i)\be\d{2,4}\b`),
}

// tailRules only run on the part of the name after the episode token or
// year, where short uppercase words are language and service markers rather
// than title words.
var tailRules = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:EN|ENG|SPA|KOR|FR|DE|JPN|JP|CN|RUM|RUS|RO|RU|ES|IT|SUB|DUB|NF|WEB)\b`),
}

var (
	nonWordRun       = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	numericDotPrefix = regexp.MustCompile(`^\d+\.\d+\.`)
	yearToken        = regexp.MustCompile(`^\d{4}$`)
	animeWords       = regexp.MustCompile(`(?i)(?:^|[^a-z])(?:anime|episode|season)(?:[^a-z]|$)`)
	yearInName       = regexp.MustCompile(`(?:^|[^0-9])((?:19|20)\d{2})(?:[^0-9]|$)`)
	trailingGroup    = regexp.MustCompile(`-([A-Za-z0-9]+)$`)
	hyphenatedSource = regexp.MustCompile(`(?i)^(?:web-dl|web-rip|blu-ray|dts-hd|dts-x|h-26[45]|x-26[45])$`)
	markerRules      = []*regexp.Regexp{noiseRules[2], noiseRules[3], noiseRules[4], noiseRules[5]}
)

// animeGroups are release-group brackets that mark anime releases.
var animeGroups = []string{
	"[subsplease]",
	"[erai-raws]",
	"[horriblesubs]",
	"[judas]",
	"[ember]",
	"[asw]",
	"[tsundere-raws]",
	"[anime time]",
	"[yameii]",
	"[nandesuka]",
}

var knownExtensions = map[string]struct{}{
	"mkv": {}, "mp4": {}, "avi": {}, "m4v": {}, "mov": {}, "wmv": {},
	"ts": {}, "m2ts": {}, "webm": {}, "flv": {}, "mpg": {}, "mpeg": {},
	"rar": {}, "zip": {}, "7z": {}, "iso": {}, "srt": {}, "nfo": {},
}

// Parse resolves a filename into its release identity. It is total and
// deterministic: the same input always yields the same Identity.
func Parse(filename string) Identity {
	name, base := splitName(filename)
	parsed := rls.ParseString(base)

	id := Identity{
		RawKey:   base,
		Filename: name,
		Quality:  detectQuality(name),
	}

	episode, tokenStart, tokenEnd := detectEpisode(base)
	id.CleanTitle = cleanTitle(base, tokenStart, tokenEnd, groupStart(base, parsed.Group))
	if episode == nil {
		episode = episodeFromRelease(parsed)
	}
	id.Episode = episode

	switch {
	case isAnime(name):
		id.Kind = KindAnime
	case episode != nil:
		id.Kind = KindTVEpisode
	default:
		id.Kind = KindMovie
	}
	return id
}

func splitName(filename string) (name, base string) {
	name = strings.TrimSpace(filename)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	base = name
	if dot := strings.LastIndexByte(name, '.'); dot > 0 {
		if _, ok := knownExtensions[strings.ToLower(name[dot+1:])]; ok {
			base = name[:dot]
		}
	}
	return name, base
}

// detectEpisode returns the first matching season/episode pair and the byte
// span of the matched token, or nil and -1 when nothing matches.
func detectEpisode(s string) (*EpisodeNumber, int, int) {
	for _, rule := range episodeRules {
		m := rule.re.FindStringSubmatchIndex(s)
		if m == nil {
			continue
		}
		season, errS := strconv.Atoi(group(s, m, rule.re, "season"))
		episode, errE := strconv.Atoi(group(s, m, rule.re, "episode"))
		if errS != nil || errE != nil {
			continue
		}
		tok := rule.re.SubexpIndex("token")
		return &EpisodeNumber{Season: season, Episode: episode}, m[2*tok], m[2*tok+1]
	}
	return nil, -1, -1
}

// episodeFromRelease accepts the season/episode pair rls reports when none of
// the local rules matched. Both numbers must be set; a bare episode number is
// too ambiguous to post under.
func episodeFromRelease(r rls.Release) *EpisodeNumber {
	if r.Type != rls.Episode && r.Type != rls.Series {
		return nil
	}
	if r.Series <= 0 || r.Episode <= 0 {
		return nil
	}
	return &EpisodeNumber{Season: r.Series, Episode: r.Episode}
}

// groupStart returns the byte offset of a trailing "-GROUP" suffix, or -1.
// The rls group is preferred; a generic trailing rule covers names it does
// not recognize. The suffix is only treated as a group when release markers
// precede it, so hyphenated titles such as "Spider-Man" survive.
func groupStart(base, releaseGroup string) int {
	start := -1
	if g := strings.TrimSpace(releaseGroup); g != "" && len(g) < len(base) &&
		strings.EqualFold(base[len(base)-len(g)-1:], "-"+g) {
		start = len(base) - len(g) - 1
	} else if m := trailingGroup.FindStringSubmatchIndex(base); m != nil {
		start = m[0]
	}
	if start <= 0 {
		return -1
	}

	suffix := base[start+1:]
	if isDigits(suffix) {
		return -1
	}
	head := base[:start]
	last := head[strings.LastIndexAny(head, "._ ()[]")+1:]
	if hyphenatedSource.MatchString(last + "-" + suffix) {
		return -1
	}
	if !hasReleaseMarkers(head) {
		return -1
	}
	return start
}

func hasReleaseMarkers(s string) bool {
	if ep, _, _ := detectEpisode(s); ep != nil {
		return true
	}
	if detectQuality(s) != QualityUnknown {
		return true
	}
	if m := yearInName.FindStringSubmatchIndex(s); m != nil && m[2] > 0 {
		return true
	}
	for _, rule := range markerRules {
		if rule.MatchString(s) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func group(s string, m []int, re *regexp.Regexp, name string) string {
	idx := re.SubexpIndex(name)
	if idx < 0 || m[2*idx] < 0 {
		return ""
	}
	return s[m[2*idx]:m[2*idx+1]]
}

func cleanTitle(base string, tokenStart, tokenEnd, groupAt int) string {
	if base == "" {
		return "unknown"
	}

	trimmed := base
	if groupAt > tokenEnd {
		trimmed = base[:groupAt]
	}

	// head holds the title candidate; tail starts at the episode token or the
	// first year that is not the whole name.
	head, tail := trimmed, ""
	if tokenStart >= 0 {
		head, tail = trimmed[:tokenStart], trimmed[tokenEnd:]
	} else if m := yearInName.FindStringSubmatchIndex(trimmed); m != nil && m[2] > 0 {
		head, tail = trimmed[:m[2]], trimmed[m[2]:]
	}
	head, tail = stripNoise(head, noiseRules), stripNoise(tail, noiseRules)
	working := head + " " + stripNoise(tail, tailRules)

	fields := strings.Fields(nonWordRun.ReplaceAllString(working, " "))
	if len(fields) > 1 && yearToken.MatchString(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	cleaned := strings.Join(fields, " ")

	if numericDotPrefix.MatchString(base) {
		parts := strings.Split(base, ".")
		if last := parts[len(parts)-1]; len(parts) > 2 && isAlpha(last) {
			cleaned = last
		}
	}

	if cleaned == "" {
		return base
	}
	return cleaned
}

func stripNoise(s string, rules []*regexp.Regexp) string {
	s = strings.ReplaceAll(s, "_", " ")
	for _, rule := range rules {
		s = rule.ReplaceAllString(s, " ")
	}
	return s
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isAnime(name string) bool {
	if animeWords.MatchString(name) {
		return true
	}
	lower := strings.ToLower(name)
	for _, g := range animeGroups {
		if strings.Contains(lower, g) {
			return true
		}
	}
	return false
}
