// Package apiclient is the HTTP plumbing shared by the catalog and
// publishing clients: a per-client token bucket, JSON decoding, typed status
// errors, and retries of transient failures.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"autouploader/internal/retry"
)

const userAgent = "autouploader/1.0"

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Latency    time.Duration
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s returned %d (latency=%v)", e.Method, e.URL, e.StatusCode, e.Latency)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Temporary reports whether the status is worth retrying: 408, 429 and 5xx.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}

// NotFound reports whether err is a 404 StatusError.
func NotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

type transportError struct {
	err     error
	latency time.Duration
}

func (e *transportError) Error() string {
	return fmt.Sprintf("execute request (latency=%v): %v", e.latency, e.err)
}
func (e *transportError) Unwrap() error   { return e.err }
func (e *transportError) Temporary() bool { return true }

// Client wraps http.Client with rate limiting and retries.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	policy  retry.Policy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetry overrides the retry policy. Retryable is always IsTemporary.
func WithRetry(p retry.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// New builds a client with the given timeout and request rate. A
// non-positive rate disables limiting.
func New(timeout time.Duration, requestsPerSecond float64, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	burst := 1
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
		if requestsPerSecond > 1 {
			burst = int(requestsPerSecond)
		}
	}
	c := &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		policy:  retry.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.policy.Retryable = retry.IsTemporary
	return c
}

// Do sends one request after waiting for the limiter. Non-2xx responses are
// drained, closed and returned as *StatusError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	latency := time.Since(start)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &transportError{err: err, latency: latency}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{
			Method:     req.Method,
			URL:        redact(req),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			Latency:    latency,
		}
	}
	return resp, nil
}

// DoJSON builds and sends a request with retries, decoding a 2xx body into
// out when out is non-nil. build is called once per attempt so request bodies
// can be replayed.
func (c *Client) DoJSON(ctx context.Context, build func(context.Context) (*http.Request, error), out any) error {
	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		req, err := build(ctx)
		if err != nil {
			return retry.Permanent(fmt.Errorf("build request: %w", err))
		}
		if req.Header.Get("Accept") == "" {
			req.Header.Set("Accept", "application/json")
		}
		resp, err := c.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Permanent(fmt.Errorf("decode %s response: %w", req.URL.Path, err))
		}
		return nil
	})
}

// redact drops the query string so API keys never reach logs.
func redact(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
