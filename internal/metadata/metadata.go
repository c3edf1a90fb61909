// Package metadata looks up catalog information (title, overview, rating,
// artwork) for a parsed release.
//
// Each catalog implements Provider. Chain routes anime to AniList first and
// everything else through TMDb with an optional OMDb fallback. Catalog data
// decorates a post but is not required to publish it, so Chain logs provider
// failures and reports "not found" instead of failing the upload.
package metadata

import (
	"context"
	"log/slog"
	"strings"

	"autouploader/internal/logging"
	"autouploader/internal/release"
)

// Query is what a provider searches for.
type Query struct {
	Title   string
	Season  int
	Episode int
	Anime   bool
}

// QueryFor builds a Query from a parsed identity.
func QueryFor(id release.Identity) Query {
	return Query{
		Title:   id.CleanTitle,
		Season:  id.Season(),
		Episode: id.EpisodeIndex(),
		Anime:   id.IsAnime(),
	}
}

// Info is the normalized catalog record.
type Info struct {
	Source       string
	Title        string
	RomajiTitle  string
	EnglishTitle string
	Overview     string
	Year         string
	ReleaseDate  string
	Rating       string
	PosterURL    string
	BackdropURL  string
	Episodes     string
	Studio       string
	Season       string
	MediaType    string
}

// Image returns the preferred artwork URL: "backdrop" prefers the backdrop,
// anything else prefers the poster. Either falls back to the other.
func (i Info) Image(preferred string) string {
	first, second := i.PosterURL, i.BackdropURL
	if strings.EqualFold(preferred, "backdrop") {
		first, second = second, first
	}
	if first != "" {
		return first
	}
	return second
}

// Provider is a single catalog.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, q Query) (Info, bool, error)
}

// Chain queries providers in order. Nil providers are skipped.
type Chain struct {
	AniList Provider
	TMDB    Provider
	OMDB    Provider
	logger  *slog.Logger
}

// NewChain builds a Chain. Any provider may be nil.
func NewChain(anilist, tmdb, omdb Provider, logger *slog.Logger) *Chain {
	return &Chain{AniList: anilist, TMDB: tmdb, OMDB: omdb, logger: logging.NewComponentLogger(logger, "metadata")}
}

// Name identifies the chain in logs.
func (c *Chain) Name() string { return "chain" }

// Lookup returns the first hit. Provider errors are logged and skipped; only
// context cancellation is returned.
func (c *Chain) Lookup(ctx context.Context, q Query) (Info, bool, error) {
	if strings.TrimSpace(q.Title) == "" {
		return Info{}, false, nil
	}
	order := make([]Provider, 0, 3)
	if q.Anime && c.AniList != nil {
		order = append(order, c.AniList)
	}
	if c.TMDB != nil {
		order = append(order, c.TMDB)
	}
	if c.OMDB != nil {
		order = append(order, c.OMDB)
	}

	for _, p := range order {
		info, ok, err := p.Lookup(ctx, q)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Info{}, false, ctxErr
			}
			logging.WarnWithContext(c.logger, "metadata provider failed", "metadata_lookup_failed",
				logging.String("provider", p.Name()),
				logging.String("query", q.Title),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the API key and provider status"),
				logging.String(logging.FieldImpact, "trying the next provider"),
			)
			continue
		}
		if ok {
			if info.Source == "" {
				info.Source = p.Name()
			}
			c.logger.Debug("metadata found",
				logging.String("provider", p.Name()),
				logging.String("query", q.Title),
				logging.String("title", info.Title),
			)
			return info, true, nil
		}
	}
	return Info{}, false, nil
}
