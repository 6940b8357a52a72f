// Package remote fetches pages from a flashlight items server.
//
// The server exposes GET /v1/items?key=<cursor>&limit=<n> and answers with
// the page wire format described in package source. Transient failures
// (network errors, 429, 5xx) are retried with exponential backoff.
package remote

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matzehuels/flashlight/pkg/buildinfo"
	"github.com/matzehuels/flashlight/pkg/errors"
	"github.com/matzehuels/flashlight/pkg/httputil"
	"github.com/matzehuels/flashlight/pkg/observability"
	"github.com/matzehuels/flashlight/pkg/source"
)

// Defaults for [Options].
const (
	DefaultTimeout      = 10 * time.Second
	DefaultAttempts     = 3
	DefaultRetryBackoff = 200 * time.Millisecond
)

// Options configures a [Client].
type Options struct {
	// HTTPClient defaults to a client with DefaultTimeout.
	HTTPClient *http.Client

	// Attempts is the number of tries per page.
	Attempts int

	// Backoff is the delay before the first retry. It doubles per retry.
	Backoff time.Duration

	// Headers are added to every request.
	Headers map[string]string
}

// Client is a [source.Source] over HTTP.
type Client struct {
	base     *url.URL
	http     *http.Client
	attempts int
	backoff  time.Duration
	headers  map[string]string
}

var _ source.Source = (*Client)(nil)

// New returns a client for the server at baseURL.
func New(baseURL string, opts Options) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "parse url")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultRetryBackoff
	}
	return &Client{
		base:     u,
		http:     opts.HTTPClient,
		attempts: opts.Attempts,
		backoff:  opts.Backoff,
		headers:  opts.Headers,
	}, nil
}

// Name implements [source.Source].
func (c *Client) Name() string { return "remote:" + c.base.String() }

// Page implements [source.Source].
func (c *Client) Page(ctx context.Context, cursor string, limit int) (source.Page, error) {
	if err := errors.ValidateCursor(cursor); err != nil {
		return source.Page{}, err
	}
	limit, err := source.ValidateLimit(limit)
	if err != nil {
		return source.Page{}, err
	}

	u := c.base.JoinPath("v1", "items")
	q := u.Query()
	if cursor != "" {
		q.Set("key", cursor)
	}
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	var page source.Page
	err = httputil.Retry(ctx, c.attempts, c.backoff, func() error {
		p, err := c.get(ctx, u)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return source.Page{}, classify(err)
	}
	return page, nil
}

func (c *Client) get(ctx context.Context, u *url.URL) (source.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return source.Page{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		return source.Page{}, httputil.Retryable(fmt.Errorf("get %s: %w", u.Path, err))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := httputil.CheckResponse(resp); err != nil {
		return source.Page{}, err
	}
	return source.DecodePage(resp.Body)
}

// classify maps transport failures onto error codes. A coded error body
// from the server keeps its code.
func classify(err error) error {
	if errors.GetCode(err) != "" {
		return err
	}
	var se *httputil.StatusError
	if stderrors.As(err, &se) {
		if code, msg, ok := serverError(se.Body); ok {
			return errors.Wrap(code, err, "server: %s", msg)
		}
		switch se.StatusCode {
		case http.StatusNotFound:
			return errors.Wrap(errors.ErrCodeNotFound, err, "items endpoint")
		case http.StatusBadRequest:
			return errors.Wrap(errors.ErrCodeInvalidCursor, err, "rejected by server")
		}
	}
	var ne net.Error
	switch {
	case stderrors.As(err, &ne) && ne.Timeout():
		return errors.Wrap(errors.ErrCodeTimeout, err, "fetch page")
	case httputil.IsRetryable(err):
		return errors.Wrap(errors.ErrCodeNetwork, err, "fetch page")
	}
	return errors.Wrap(errors.ErrCodeFetchFailed, err, "fetch page")
}

// serverError decodes a {"code", "error"} body.
func serverError(body string) (errors.Code, string, bool) {
	var b struct {
		Code  errors.Code `json:"code"`
		Error string      `json:"error"`
	}
	if json.Unmarshal([]byte(body), &b) != nil || b.Code == "" {
		return "", "", false
	}
	return b.Code, b.Error, true
}
