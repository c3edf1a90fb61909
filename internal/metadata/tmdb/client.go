package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"autouploader/internal/apiclient"
	"autouploader/internal/metadata"
	"autouploader/internal/retry"
)

// Result represents a single TMDB search match.
type Result struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	MediaType    string  `json:"media_type"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
}

// DisplayTitle returns Title for movies and Name for TV.
func (r Result) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Date returns the release or first air date.
func (r Result) Date() string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Client provides access to the TMDB API for searches.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	api          *apiclient.Client
}

var _ metadata.Provider = (*Client)(nil)

type options struct {
	httpClient   *http.Client
	timeout      time.Duration
	rps          float64
	imageBaseURL string
	retry        *retry.Policy
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRateLimit caps requests per second.
func WithRateLimit(rps float64) Option {
	return func(o *options) { o.rps = rps }
}

// WithImageBaseURL sets the prefix for poster_path and backdrop_path.
func WithImageBaseURL(base string) Option {
	return func(o *options) { o.imageBaseURL = base }
}

// WithRetry overrides the retry policy.
func WithRetry(p retry.Policy) Option {
	return func(o *options) { o.retry = &p }
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	o := options{timeout: 10 * time.Second, imageBaseURL: "https://image.tmdb.org/t/p/w500"}
	for _, opt := range opts {
		opt(&o)
	}
	apiOpts := []apiclient.Option{apiclient.WithHTTPClient(o.httpClient)}
	if o.retry != nil {
		apiOpts = append(apiOpts, apiclient.WithRetry(*o.retry))
	}
	return &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: strings.TrimRight(strings.TrimSpace(o.imageBaseURL), "/"),
		language:     strings.TrimSpace(language),
		api:          apiclient.New(o.timeout, o.rps, apiOpts...),
	}, nil
}

// SearchMulti searches movies and TV together.
func (c *Client) SearchMulti(ctx context.Context, query string) (*Response, error) {
	return c.search(ctx, "/search/multi", query, 0)
}

// SearchMovie searches TMDB movies, optionally by release year.
func (c *Client) SearchMovie(ctx context.Context, query string, year int) (*Response, error) {
	return c.search(ctx, "/search/movie", query, year)
}

// SearchTV searches TMDB TV shows, optionally by first air year.
func (c *Client) SearchTV(ctx context.Context, query string, year int) (*Response, error) {
	return c.search(ctx, "/search/tv", query, year)
}

func (c *Client) search(ctx context.Context, path, query string, year int) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("api_key", c.apiKey)
	params.Set("include_adult", "false")
	if c.language != "" {
		params.Set("language", c.language)
	}
	if year > 0 {
		switch path {
		case "/search/movie":
			params.Set("primary_release_year", strconv.Itoa(year))
		case "/search/tv":
			params.Set("first_air_date_year", strconv.Itoa(year))
		}
	}
	endpoint.RawQuery = params.Encode()

	var payload Response
	err = c.api.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("tmdb %s: %w", strings.TrimPrefix(path, "/"), err)
	}
	return &payload, nil
}

// Name implements metadata.Provider.
func (c *Client) Name() string { return "tmdb" }

// Lookup implements metadata.Provider using a multi search and the first
// movie or TV result.
func (c *Client) Lookup(ctx context.Context, q metadata.Query) (metadata.Info, bool, error) {
	resp, err := c.SearchMulti(ctx, q.Title)
	if err != nil {
		return metadata.Info{}, false, err
	}
	for _, r := range resp.Results {
		if r.MediaType == "person" {
			continue
		}
		return c.toInfo(r), true, nil
	}
	return metadata.Info{}, false, nil
}

func (c *Client) toInfo(r Result) metadata.Info {
	info := metadata.Info{
		Source:      "tmdb",
		Title:       r.DisplayTitle(),
		Overview:    r.Overview,
		ReleaseDate: r.Date(),
		MediaType:   r.MediaType,
		PosterURL:   c.imageURL(r.PosterPath),
		BackdropURL: c.imageURL(r.BackdropPath),
	}
	if d := r.Date(); len(d) >= 4 {
		info.Year = d[:4]
	}
	if r.VoteAverage > 0 {
		info.Rating = strconv.FormatFloat(r.VoteAverage, 'f', 1, 64)
	}
	return info
}

func (c *Client) imageURL(path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	default:
		return c.imageBaseURL + "/" + strings.TrimLeft(path, "/")
	}
}
