package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL of the results site
	DefaultBaseURL = "https://regiowyniki.pl"

	// UserAgent identifies the client to the results site
	UserAgent = "clubsync/1.0 (+https://github.com/fortuna/clubsync)"

	// AcceptHTML is sent with every request
	AcceptHTML = "text/html,application/xhtml+xml"

	// DefaultTimeout bounds a single fetch so one hung request cannot stall a batch
	DefaultTimeout = 20 * time.Second

	maxBodySize = 8 << 20
)

// Fetcher retrieves raw markup for a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetchError is returned for a failed fetch. StatusCode is set for non-2xx
// responses; Err is set for transport failures.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status code %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether the request never produced an HTTP response
func (e *FetchError) IsTransport() bool {
	return e.Err != nil
}

// IsRateLimited reports whether the site asked us to slow down
func (e *FetchError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

// AsFetchError unwraps err into a *FetchError if it is one
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// Client fetches pages over plain HTTP
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a fetcher with the given per-request timeout.
// A zero timeout falls back to DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  UserAgent,
	}
}

// WithUserAgent overrides the identifying User-Agent header
func (c *Client) WithUserAgent(ua string) *Client {
	if strings.TrimSpace(ua) != "" {
		c.userAgent = ua
	}
	return c
}

// Fetch performs a GET request and returns the response body
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", AcceptHTML)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}

	log.Debug().
		Str("url", url).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched page")

	return body, nil
}

// ParseHTML converts raw markup to a goquery Document for parsing
func ParseHTML(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}
