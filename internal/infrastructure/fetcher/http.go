// Package fetcher downloads raw image bytes over HTTP.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hszk-dev/recipebox/internal/domain/repository"
)

// httpDoer abstracts *http.Client for testability.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultMaxBytes caps a single image download.
const DefaultMaxBytes int64 = 20 << 20

// Config holds configuration for HTTPFetcher.
type Config struct {
	UserAgent string
	// MaxBytes is the largest body accepted. Zero or less uses DefaultMaxBytes.
	MaxBytes int64
}

// HTTPFetcher implements repository.ImageFetcher.
// It imposes no timeout of its own; the injected client's settings apply.
type HTTPFetcher struct {
	http      httpDoer
	userAgent string
	maxBytes  int64
}

// Compile-time verification that HTTPFetcher implements repository.ImageFetcher.
var _ repository.ImageFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher. A nil httpClient uses http.DefaultClient.
func NewHTTPFetcher(httpClient *http.Client, cfg Config) *HTTPFetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return newHTTPFetcherWithDoer(httpClient, cfg)
}

// newHTTPFetcherWithDoer creates an HTTPFetcher with a given httpDoer.
// This is used for dependency injection in tests.
func newHTTPFetcherWithDoer(doer httpDoer, cfg Config) *HTTPFetcher {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &HTTPFetcher{
		http:      doer,
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
	}
}

// Fetch GETs u and returns the body. Transport errors are returned as-is;
// a status outside 200-299 yields a *repository.StatusError and a body
// larger than the configured limit yields repository.ErrInvalidData.
func (f *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Body == nil {
		return nil, repository.ErrInvalidResponse
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &repository.StatusError{Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", repository.ErrInvalidData, f.maxBytes)
	}

	return data, nil
}
