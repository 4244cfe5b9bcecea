package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/hszk-dev/recipebox/internal/domain/model"
	"github.com/hszk-dev/recipebox/internal/domain/repository"
	"github.com/hszk-dev/recipebox/internal/infrastructure/cache"
	"github.com/hszk-dev/recipebox/internal/infrastructure/imaging"
	"github.com/hszk-dev/recipebox/internal/infrastructure/metrics"
	"golang.org/x/sync/singleflight"
)

// ImageLoader resolves image URLs through memory, disk and network tiers.
type ImageLoader interface {
	// LoadImage returns the image for rawURL, trying memory, then disk, then
	// the network. A network hit is written back to memory synchronously and
	// to disk in the background.
	LoadImage(ctx context.Context, rawURL string) (*model.Image, error)

	// LoadFromDisk reads the disk tier only.
	LoadFromDisk(ctx context.Context, rawURL string) (*model.Image, error)

	// SaveToDisk writes raw bytes to the disk tier synchronously.
	SaveToDisk(ctx context.Context, rawURL string, data []byte) error

	// CachedImage looks up the memory tier only.
	CachedImage(rawURL string) (*model.Image, bool)

	// Close waits for pending background disk writes.
	Close(ctx context.Context) error
}

// DiskCache is the persistent tier used by ImageLoader.
type DiskCache interface {
	Save(ctx context.Context, rawURL string, data []byte) error
	Load(ctx context.Context, rawURL string) (*model.Image, error)
}

// DiskWriter schedules fire-and-forget disk writes.
type DiskWriter interface {
	Enqueue(rawURL string, data []byte) bool
	Close(ctx context.Context) error
}

// ImageLoaderConfig holds configuration for ImageLoader.
type ImageLoaderConfig struct {
	// DedupInFlight coalesces concurrent cold loads of the same URL into a
	// single disk read and network fetch.
	DedupInFlight bool
}

// DefaultImageLoaderConfig returns the default configuration.
func DefaultImageLoaderConfig() ImageLoaderConfig {
	return ImageLoaderConfig{
		DedupInFlight: true,
	}
}

type imageLoader struct {
	memory  cache.ImageCache
	disk    DiskCache
	writer  DiskWriter
	fetcher repository.ImageFetcher
	sfGroup singleflight.Group
	dedup   bool
	logger  *slog.Logger

	// onJoin, when set, runs once a caller has joined a flight.
	onJoin func()
}

// NewImageLoader creates a new ImageLoader.
func NewImageLoader(
	memory cache.ImageCache,
	disk DiskCache,
	writer DiskWriter,
	fetcher repository.ImageFetcher,
	cfg ImageLoaderConfig,
	logger *slog.Logger,
) ImageLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &imageLoader{
		memory:  memory,
		disk:    disk,
		writer:  writer,
		fetcher: fetcher,
		dedup:   cfg.DedupInFlight,
		logger:  logger,
	}
}

// LoadImage implements the tiered lookup.
//
// Error kinds (match with errors.Is):
//   - repository.ErrInvalidURL: rawURL has no scheme or host, no request made
//   - repository.ErrNetwork: the fetch failed (wraps the transport error or *StatusError)
//   - repository.ErrInvalidData: the fetched bytes are not an image or exceed the size limit
func (l *imageLoader) LoadImage(ctx context.Context, rawURL string) (*model.Image, error) {
	if img, ok := l.memory.Get(rawURL); ok {
		metrics.ImageLookupsTotal.WithLabelValues(metrics.TierMemory, metrics.ResultHit).Inc()
		return img, nil
	}
	metrics.ImageLookupsTotal.WithLabelValues(metrics.TierMemory, metrics.ResultMiss).Inc()

	if !l.dedup {
		return l.loadCold(ctx, rawURL)
	}

	// The shared load must outlive any single caller that gives up.
	flightCtx := context.WithoutCancel(ctx)
	ch := l.sfGroup.DoChan(rawURL, func() (any, error) {
		return l.loadCold(flightCtx, rawURL)
	})
	if l.onJoin != nil {
		l.onJoin()
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", repository.ErrNetwork, ctx.Err())
	case res := <-ch:
		if res.Shared {
			metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
		} else {
			metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Image), nil
	}
}

// loadCold runs the disk and network stages after a memory miss.
func (l *imageLoader) loadCold(ctx context.Context, rawURL string) (*model.Image, error) {
	img, err := l.disk.Load(ctx, rawURL)
	if err == nil {
		metrics.ImageLookupsTotal.WithLabelValues(metrics.TierDisk, metrics.ResultHit).Inc()
		l.memory.Set(rawURL, img)
		return img, nil
	}
	// Disk failures are a miss, not an error.
	metrics.ImageLookupsTotal.WithLabelValues(metrics.TierDisk, metrics.ResultMiss).Inc()
	l.logger.Debug("disk cache miss",
		"url", rawURL,
		"error", err,
	)

	u, err := parseImageURL(rawURL)
	if err != nil {
		return nil, err
	}

	data, err := l.fetcher.Fetch(ctx, u)
	if err != nil {
		metrics.ImageLookupsTotal.WithLabelValues(metrics.TierNetwork, metrics.ResultError).Inc()
		if errors.Is(err, repository.ErrInvalidData) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", repository.ErrNetwork, err)
	}

	img, err = imaging.Decode(data)
	if err != nil {
		metrics.ImageLookupsTotal.WithLabelValues(metrics.TierNetwork, metrics.ResultError).Inc()
		return nil, err
	}
	metrics.ImageLookupsTotal.WithLabelValues(metrics.TierNetwork, metrics.ResultHit).Inc()

	l.memory.Set(rawURL, img)
	l.writer.Enqueue(rawURL, data)

	return img, nil
}

// parseImageURL accepts only absolute URLs with a scheme and host.
func parseImageURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", repository.ErrInvalidURL, rawURL)
	}
	return u, nil
}

func (l *imageLoader) LoadFromDisk(ctx context.Context, rawURL string) (*model.Image, error) {
	return l.disk.Load(ctx, rawURL)
}

func (l *imageLoader) SaveToDisk(ctx context.Context, rawURL string, data []byte) error {
	return l.disk.Save(ctx, rawURL, data)
}

func (l *imageLoader) CachedImage(rawURL string) (*model.Image, bool) {
	return l.memory.Get(rawURL)
}

func (l *imageLoader) Close(ctx context.Context) error {
	return l.writer.Close(ctx)
}
