package repository

import (
	"context"
	"net/url"
	"time"
)

// ImageFetcher retrieves raw image bytes from the network.
// Implementations should be provided by the infrastructure layer (e.g., net/http).
type ImageFetcher interface {
	// Fetch performs a single GET and returns the body.
	// Returns a *StatusError for non-2xx replies.
	Fetch(ctx context.Context, u *url.URL) ([]byte, error)
}

// WarmLock guards a cache key so only one worker warms it at a time.
type WarmLock interface {
	// Acquire returns true when the caller now holds the lock for key.
	// The lock expires after ttl even if never released.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops the lock. Releasing an unheld key is not an error.
	Release(ctx context.Context, key string) error
}
