// Package anilist is a metadata.Provider backed by the AniList GraphQL API.
// Romaji titles are preferred so posts use the name fansub groups release
// under.
package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"autouploader/internal/apiclient"
	"autouploader/internal/metadata"
	"autouploader/internal/retry"
)

const mediaQuery = `query ($search: String) {
  Media(search: $search, type: ANIME) {
    title { romaji english native }
    description(asHtml: false)
    season
    seasonYear
    episodes
    averageScore
    coverImage { extraLarge }
    bannerImage
    studios(isMain: true) { nodes { name } }
  }
}`

type response struct {
	Data struct {
		Media *media `json:"Media"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"errors"`
}

type media struct {
	Title struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
		Native  string `json:"native"`
	} `json:"title"`
	Description  string `json:"description"`
	Season       string `json:"season"`
	SeasonYear   int    `json:"seasonYear"`
	Episodes     int    `json:"episodes"`
	AverageScore int    `json:"averageScore"`
	CoverImage   *struct {
		ExtraLarge string `json:"extraLarge"`
	} `json:"coverImage"`
	BannerImage string `json:"bannerImage"`
	Studios     struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"studios"`
}

// Client posts GraphQL queries to AniList.
type Client struct {
	endpoint string
	api      *apiclient.Client
}

var _ metadata.Provider = (*Client)(nil)

// New builds a client for endpoint.
func New(endpoint string, timeout time.Duration, rps float64, policy retry.Policy, httpClient *http.Client) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("anilist url required")
	}
	return &Client{
		endpoint: endpoint,
		api:      apiclient.New(timeout, rps, apiclient.WithHTTPClient(httpClient), apiclient.WithRetry(policy)),
	}, nil
}

// Name implements metadata.Provider.
func (c *Client) Name() string { return "anilist" }

// Lookup implements metadata.Provider. AniList answers an unknown title with
// a 404 carrying a GraphQL error; that is reported as not found.
func (c *Client) Lookup(ctx context.Context, q metadata.Query) (metadata.Info, bool, error) {
	title := strings.TrimSpace(q.Title)
	if title == "" {
		return metadata.Info{}, false, nil
	}
	body, err := json.Marshal(map[string]any{
		"query":     mediaQuery,
		"variables": map[string]any{"search": title},
	})
	if err != nil {
		return metadata.Info{}, false, fmt.Errorf("encode anilist query: %w", err)
	}

	var resp response
	err = c.api.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, &resp)
	if err != nil {
		if apiclient.NotFound(err) {
			return metadata.Info{}, false, nil
		}
		return metadata.Info{}, false, fmt.Errorf("anilist lookup: %w", err)
	}
	if resp.Data.Media == nil {
		if len(resp.Errors) > 0 && resp.Errors[0].Status != http.StatusNotFound {
			return metadata.Info{}, false, fmt.Errorf("anilist: %s", resp.Errors[0].Message)
		}
		return metadata.Info{}, false, nil
	}
	return toInfo(resp.Data.Media), true, nil
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

func toInfo(m *media) metadata.Info {
	display := m.Title.Romaji
	if display == "" {
		display = m.Title.English
	}
	if display == "" {
		display = m.Title.Native
	}
	info := metadata.Info{
		Source:       "anilist",
		Title:        display,
		RomajiTitle:  m.Title.Romaji,
		EnglishTitle: m.Title.English,
		Overview:     strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(m.Description, ""))),
		Season:       titleCase(m.Season),
		BackdropURL:  m.BannerImage,
		MediaType:    "anime",
	}
	if m.CoverImage != nil {
		info.PosterURL = m.CoverImage.ExtraLarge
	}
	if m.SeasonYear > 0 {
		info.Year = strconv.Itoa(m.SeasonYear)
	}
	if m.AverageScore > 0 {
		info.Rating = strconv.Itoa(m.AverageScore)
	}
	if m.Episodes > 0 {
		info.Episodes = strconv.Itoa(m.Episodes)
	}
	if len(m.Studios.Nodes) > 0 {
		info.Studio = m.Studios.Nodes[0].Name
	}
	return info
}

// titleCase turns AniList's FALL into Fall.
func titleCase(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
