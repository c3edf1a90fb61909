package wordpress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"autouploader/internal/apiclient"
	"autouploader/internal/logging"
	"autouploader/internal/retry"
)

// StatusError is a non-2xx response from WordPress.
type StatusError = apiclient.StatusError

// Options configures a Client.
type Options struct {
	URL               string
	User              string
	AppPassword       string
	Timeout           time.Duration
	RequestsPerSecond float64
	Retry             retry.Policy
	HTTPClient        *http.Client
	// StrictQuality requires a matching quality token when searching for an
	// existing post.
	StrictQuality bool
}

// Client is a WordPress REST client.
type Client struct {
	baseURL  string
	user     string
	password string
	strict   bool
	api      *apiclient.Client
	logger   *slog.Logger
}

// New validates opts and builds a Client.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.URL), "/")
	if base == "" {
		return nil, errors.New("wordpress url required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse wordpress url: %w", err)
	}
	if strings.TrimSpace(opts.User) == "" || strings.TrimSpace(opts.AppPassword) == "" {
		return nil, errors.New("wordpress credentials required")
	}
	policy := opts.Retry
	if policy.Attempts == 0 {
		policy = retry.Default()
	}
	return &Client{
		baseURL:  base + "/wp-json/wp/v2",
		user:     strings.TrimSpace(opts.User),
		password: strings.TrimSpace(opts.AppPassword),
		strict:   opts.StrictQuality,
		api:      apiclient.New(opts.Timeout, opts.RequestsPerSecond, apiclient.WithHTTPClient(opts.HTTPClient), apiclient.WithRetry(policy)),
		logger:   logging.NewComponentLogger(logger, "wordpress"),
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// call sends a request with a replayable body and decodes the response.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body func() (io.Reader, string), out any) error {
	target := c.endpoint(path, query)
	return c.api.DoJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		var (
			reader      io.Reader
			contentType string
		)
		if body != nil {
			reader, contentType = body()
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.user, c.password)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		return req, nil
	}, out)
}

func idPath(collection string, id int64) string {
	return collection + "/" + strconv.FormatInt(id, 10)
}
