// Package retry runs an operation with capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy bounds a retry loop. Delay doubles (or grows by Factor) after each
// failed attempt up to MaxDelay.
type Policy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Factor       float64
	// Retryable decides whether err is worth another attempt. Nil retries
	// every error.
	Retryable func(error) bool
}

// Default is three attempts starting at one second, doubling.
func Default() Policy {
	return Policy{Attempts: 3, InitialDelay: time.Second, MaxDelay: 30 * time.Second, Factor: 2}
}

// Temporary is implemented by errors that know whether they are transient.
type Temporary interface {
	Temporary() bool
}

// IsTemporary reports whether err, or an error it wraps, says it is
// temporary. Context cancellation is never temporary.
func IsTemporary(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var t Temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return false
}

type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks err so Do returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err: err}
}

// Do calls op until it succeeds, returns a non-retryable error, or the
// attempts run out. The last error is returned unwrapped.
func Do(ctx context.Context, p Policy, op func(context.Context) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.Factor < 1 {
		p.Factor = 2
	}
	delay := p.InitialDelay

	var lastErr error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		var perm permanent
		if errors.As(lastErr, &perm) {
			return perm.err
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.Attempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = time.Duration(float64(delay) * p.Factor)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return lastErr
}
