// Package catalog fetches and decodes the remote recipe catalog.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hszk-dev/recipebox/internal/domain/model"
	"github.com/hszk-dev/recipebox/internal/domain/repository"
	"github.com/hszk-dev/recipebox/internal/infrastructure/metrics"
)

const (
	defaultBaseURL   = "https://d3jbb8n5wk0qxi.cloudfront.net"
	defaultUserAgent = "recipebox/0.1"

	// DefaultMaxBytes caps a catalog response body.
	DefaultMaxBytes int64 = 10 << 20
)

// httpDoer abstracts *http.Client for testability.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the catalog client.
type ClientConfig struct {
	// Endpoints maps each logical selector to its catalog URL.
	Endpoints map[model.Endpoint]string
	UserAgent string
	// MaxBytes is the largest body accepted. Zero or less uses DefaultMaxBytes.
	MaxBytes int64
}

// DefaultEndpoints returns the production, malformed and empty catalogs.
func DefaultEndpoints() map[model.Endpoint]string {
	return map[model.Endpoint]string{
		model.EndpointNormal:    defaultBaseURL + "/recipes.json",
		model.EndpointMalformed: defaultBaseURL + "/recipes-malformed.json",
		model.EndpointEmpty:     defaultBaseURL + "/recipes-empty.json",
	}
}

// DefaultClientConfig returns a ClientConfig pointing at DefaultEndpoints.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Endpoints: DefaultEndpoints(),
		UserAgent: defaultUserAgent,
		MaxBytes:  DefaultMaxBytes,
	}
}

// Client implements repository.RecipeCatalog over HTTP.
type Client struct {
	http      httpDoer
	endpoints map[model.Endpoint]string
	userAgent string
	maxBytes  int64
	logger    *slog.Logger
}

// Compile-time verification that Client implements repository.RecipeCatalog.
var _ repository.RecipeCatalog = (*Client)(nil)

// NewClient creates a catalog client. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client, cfg ClientConfig, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return newClientWithDoer(httpClient, cfg, logger)
}

// newClientWithDoer creates a Client with a given httpDoer.
// This is used for dependency injection in tests.
func newClientWithDoer(doer httpDoer, cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	endpoints := make(map[model.Endpoint]string, len(cfg.Endpoints))
	for k, v := range cfg.Endpoints {
		endpoints[k] = v
	}

	return &Client{
		http:      doer,
		endpoints: endpoints,
		userAgent: userAgent,
		maxBytes:  maxBytes,
		logger:    logger,
	}
}

// FetchRecipes performs one GET against the selected endpoint, validates the
// reply and decodes the recipe envelope.
//
// Error kinds (match with errors.Is):
//   - repository.ErrInvalidEndpoint: selector unknown or URL unusable, no request made
//   - repository.ErrTransport: the request could not complete
//   - repository.ErrInvalidResponse: no response, unreadable or oversized body
//   - repository.ErrHTTPStatus: status outside 200-299 (errors.As a *repository.StatusError)
//   - repository.ErrDecoding: malformed JSON or a record missing a mandatory field
func (c *Client) FetchRecipes(ctx context.Context, endpoint model.Endpoint) ([]model.Recipe, error) {
	recipes, err := c.fetch(ctx, endpoint)
	if err != nil {
		metrics.CatalogFetchesTotal.WithLabelValues(endpoint.String(), metrics.ResultError).Inc()
		return nil, err
	}
	metrics.CatalogFetchesTotal.WithLabelValues(endpoint.String(), metrics.ResultSuccess).Inc()
	return recipes, nil
}

func (c *Client) fetch(ctx context.Context, endpoint model.Endpoint) ([]model.Recipe, error) {
	target, err := c.resolve(endpoint)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrInvalidEndpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrTransport, err)
	}
	if resp == nil || resp.Body == nil {
		return nil, repository.ErrInvalidResponse
	}
	defer func() { _ = resp.Body.Close() }()

	if err := validate(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", repository.ErrInvalidResponse, err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", repository.ErrInvalidResponse, c.maxBytes)
	}

	recipes, err := decodeRecipes(body)
	if err != nil {
		c.logger.Debug("catalog decoding failed",
			"endpoint", endpoint.String(),
			"error", err,
		)
		return nil, err
	}

	c.logger.Debug("catalog fetched",
		"endpoint", endpoint.String(),
		"count", len(recipes),
	)
	return recipes, nil
}

// resolve looks up the endpoint URL. It never touches the network.
func (c *Client) resolve(endpoint model.Endpoint) (*url.URL, error) {
	raw, ok := c.endpoints[endpoint]
	if !ok || raw == "" {
		return nil, fmt.Errorf("%w: no url configured for %q", repository.ErrInvalidEndpoint, endpoint)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrInvalidEndpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute url", repository.ErrInvalidEndpoint, raw)
	}

	return u, nil
}

// validate checks the status line before any decode attempt.
func validate(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &repository.StatusError{Code: resp.StatusCode}
	}
	return nil
}
