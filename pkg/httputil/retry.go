package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RetryableError marks a failure that [Retry] may attempt again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a [RetryableError]. It returns nil for nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is wrapped with [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// maxRetryAfter caps how long a server's Retry-After hint may stall a retry.
const maxRetryAfter = time.Minute

// Retry runs fn until it succeeds, fails with an error not marked
// [Retryable], or has run attempts times. The wait between attempts starts
// at delay and doubles. A [*StatusError] carrying a longer Retry-After hint
// stretches that wait. Cancelling ctx ends the wait with ctx.Err().
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	for n := 1; ; n++ {
		err := fn()
		if err == nil || !IsRetryable(err) || n >= attempts {
			return err
		}
		if err := sleep(ctx, backoff(err, delay)); err != nil {
			return err
		}
		delay *= 2
	}
}

// backoff returns the wait before retrying after err.
func backoff(err error, delay time.Duration) time.Duration {
	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > delay {
		return max(delay, min(se.RetryAfter, maxRetryAfter))
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string

	// RetryAfter is the server's Retry-After hint, or zero.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// CheckResponse returns nil for 2xx responses. Otherwise it returns a
// [*StatusError] carrying up to 512 bytes of the body and any Retry-After
// hint, wrapped as retryable for 429 and 5xx.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := &StatusError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return Retryable(err)
	}
	return err
}

// parseRetryAfter reads a Retry-After value given either as delay seconds
// or as an HTTP date. Unparseable and past values yield zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
