// Package omdb is a metadata.Provider for the OMDb title endpoint.
package omdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"autouploader/internal/apiclient"
	"autouploader/internal/metadata"
	"autouploader/internal/retry"
)

type movie struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Released   string `json:"Released"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating"`
	Type       string `json:"Type"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// Client queries OMDb by exact title.
type Client struct {
	apiKey  string
	baseURL string
	api     *apiclient.Client
}

var _ metadata.Provider = (*Client)(nil)

// New builds a client. rps <= 0 disables rate limiting.
func New(apiKey, baseURL string, timeout time.Duration, rps float64, policy retry.Policy, httpClient *http.Client) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("omdb base url required")
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		api:     apiclient.New(timeout, rps, apiclient.WithHTTPClient(httpClient), apiclient.WithRetry(policy)),
	}, nil
}

// Name implements metadata.Provider.
func (c *Client) Name() string { return "omdb" }

// Lookup implements metadata.Provider. Episodic queries search series.
func (c *Client) Lookup(ctx context.Context, q metadata.Query) (metadata.Info, bool, error) {
	title := strings.TrimSpace(q.Title)
	if title == "" {
		return metadata.Info{}, false, nil
	}
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return metadata.Info{}, false, fmt.Errorf("parse omdb url: %w", err)
	}
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("t", title)
	params.Set("plot", "full")
	if q.Season > 0 || q.Episode > 0 {
		params.Set("type", "series")
	} else {
		params.Set("type", "movie")
	}
	endpoint.RawQuery = params.Encode()

	var m movie
	err = c.api.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	}, &m)
	if err != nil {
		return metadata.Info{}, false, fmt.Errorf("omdb lookup: %w", err)
	}
	if !strings.EqualFold(m.Response, "true") {
		return metadata.Info{}, false, nil
	}
	return metadata.Info{
		Source:      "omdb",
		Title:       m.Title,
		Overview:    clean(m.Plot),
		Year:        clean(m.Year),
		ReleaseDate: clean(m.Released),
		Rating:      clean(m.ImdbRating),
		PosterURL:   clean(m.Poster),
		MediaType:   m.Type,
	}, true, nil
}

// clean drops OMDb's "N/A" placeholder.
func clean(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "N/A") {
		return ""
	}
	return s
}
