package release

import (
	"fmt"
	"strings"
)

// Kind classifies a release for metadata routing and template selection.
type Kind string

const (
	KindMovie     Kind = "movie"
	KindTVEpisode Kind = "tv_episode"
	KindAnime     Kind = "anime"
)

// Quality is the resolution class detected from a filename.
type Quality string

const (
	QualityUnknown Quality = ""
	Quality4K      Quality = "4K"
	Quality1080p   Quality = "1080p"
	Quality720p    Quality = "720p"
	Quality480p    Quality = "480p"
	QualityHD      Quality = "HD"
	QualitySD      Quality = "SD"
)

// EpisodeNumber pairs a season with an episode. Identities carry it as a
// pointer so the two are always present or absent together.
type EpisodeNumber struct {
	Season  int
	Episode int
}

// String renders the canonical SxxEyy token.
func (n EpisodeNumber) String() string {
	return fmt.Sprintf("S%02dE%02d", n.Season, n.Episode)
}

// Identity is the canonical view of a release filename. RawKey is the stable
// correlation key for aggregates and the ledger; CleanTitle is for humans and
// remote lookups.
type Identity struct {
	RawKey     string
	Filename   string
	CleanTitle string
	Episode    *EpisodeNumber
	Quality    Quality
	Kind       Kind
}

// Episodic reports whether a season/episode pair was detected.
func (id Identity) Episodic() bool {
	return id.Episode != nil
}

// IsAnime reports whether anime markers were found in the filename.
func (id Identity) IsAnime() bool {
	return id.Kind == KindAnime
}

// Season returns the season number, or 0 when not episodic.
func (id Identity) Season() int {
	if id.Episode == nil {
		return 0
	}
	return id.Episode.Season
}

// EpisodeIndex returns the episode number, or 0 when not episodic.
func (id Identity) EpisodeIndex() int {
	if id.Episode == nil {
		return 0
	}
	return id.Episode.Episode
}

// DisplayTitle is the clean title followed by SxxEyy for episodic releases.
func (id Identity) DisplayTitle() string {
	if id.Episode == nil {
		return id.CleanTitle
	}
	return id.CleanTitle + " " + id.Episode.String()
}

// PostTitle is the title used for remote posts: DisplayTitle plus quality.
func (id Identity) PostTitle() string {
	if id.Quality == QualityUnknown {
		return id.DisplayTitle()
	}
	return id.DisplayTitle() + " " + string(id.Quality)
}

// SearchTerm is the query sent to the publishing backend when looking for an
// existing post.
func (id Identity) SearchTerm() string {
	return id.DisplayTitle()
}

// WithTitle returns a copy with CleanTitle replaced. RawKey is unchanged so
// the release keeps correlating with its aggregate and ledger entry.
func (id Identity) WithTitle(title string) Identity {
	title = strings.TrimSpace(title)
	if title == "" {
		return id
	}
	id.CleanTitle = title
	return id
}

// MatchesPostTitle reports whether a remote post title describes the same
// release: the clean title appears in it, the season/episode pair is equal,
// and, when strictQuality is set, the detected quality is equal too.
func (id Identity) MatchesPostTitle(postTitle string, strictQuality bool) bool {
	if strings.TrimSpace(postTitle) == "" {
		return false
	}
	postEpisode, _, _ := detectEpisode(postTitle)
	if !sameEpisode(id.Episode, postEpisode) {
		return false
	}
	want := " " + normalizeWords(id.CleanTitle) + " "
	have := " " + normalizeWords(postTitle) + " "
	if strings.TrimSpace(want) == "" || !strings.Contains(have, want) {
		return false
	}
	if strictQuality && detectQuality(postTitle) != id.Quality {
		return false
	}
	return true
}

func sameEpisode(a, b *EpisodeNumber) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func normalizeWords(s string) string {
	return strings.Join(strings.Fields(nonWordRun.ReplaceAllString(strings.ToLower(s), " ")), " ")
}
