package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hszk-dev/recipebox/internal/domain/repository"
	"github.com/hszk-dev/recipebox/internal/infrastructure/diskcache"
	"github.com/hszk-dev/recipebox/internal/infrastructure/metrics"
)

const (
	// DefaultMaxRetries is the default maximum number of retry attempts before a task is dropped.
	DefaultMaxRetries = 3

	// DefaultLockTTL bounds how long one worker may hold a warm lock.
	DefaultLockTTL = 30 * time.Second
)

// WarmServiceConfig holds configuration for WarmService.
type WarmServiceConfig struct {
	// MaxRetries is the maximum number of retry attempts before a task is dropped.
	MaxRetries int
	// LockTTL is how long a warm lock is held before it expires on its own.
	LockTTL time.Duration
}

// DefaultWarmServiceConfig returns the default configuration.
func DefaultWarmServiceConfig() WarmServiceConfig {
	return WarmServiceConfig{
		MaxRetries: DefaultMaxRetries,
		LockTTL:    DefaultLockTTL,
	}
}

// WarmService defines the interface for cache warming.
type WarmService interface {
	// ProcessTask pulls one image into the cache.
	// Returns nil on success, on a permanent failure, or when the task is
	// dropped after MaxRetries. Returns error for transient failures that
	// should trigger a retry.
	ProcessTask(ctx context.Context, task repository.WarmTask) error
}

type warmService struct {
	loader ImageLoader
	// lock is optional; nil disables cross-worker coordination.
	lock   repository.WarmLock
	logger *slog.Logger

	maxRetries int
	lockTTL    time.Duration
}

// NewWarmService creates a new WarmService instance.
func NewWarmService(
	loader ImageLoader,
	lock repository.WarmLock,
	cfg WarmServiceConfig,
	logger *slog.Logger,
) WarmService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	return &warmService{
		loader:     loader,
		lock:       lock,
		logger:     logger,
		maxRetries: cfg.MaxRetries,
		lockTTL:    cfg.LockTTL,
	}
}

func (s *warmService) ProcessTask(ctx context.Context, task repository.WarmTask) error {
	// Max retries exceeded - drop and ack
	if task.RetryCount >= s.maxRetries {
		metrics.WarmTasksTotal.WithLabelValues(metrics.ResultDropped).Inc()
		s.logger.Warn("dropping warm task after max retries",
			"task_id", task.ID,
			"url", task.ImageURL,
			"retry_count", task.RetryCount,
		)
		return nil
	}

	key := diskcache.CacheFilename(task.ImageURL)

	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, key, s.lockTTL)
		if err != nil {
			metrics.WarmTasksTotal.WithLabelValues(metrics.WarmRetry).Inc()
			return fmt.Errorf("acquire warm lock: %w", err)
		}
		if !acquired {
			metrics.WarmTasksTotal.WithLabelValues(metrics.WarmSkipped).Inc()
			s.logger.Debug("image already being warmed",
				"url", task.ImageURL,
				"filename", key,
			)
			return nil
		}
		defer s.release(context.WithoutCancel(ctx), key)
	}

	_, err := s.loader.LoadImage(ctx, task.ImageURL)
	switch {
	case err == nil:
		metrics.WarmTasksTotal.WithLabelValues(metrics.WarmWarmed).Inc()
		s.logger.Debug("image warmed",
			"url", task.ImageURL,
			"filename", key,
		)
		return nil

	case errors.Is(err, repository.ErrInvalidURL), errors.Is(err, repository.ErrInvalidData):
		// Retrying cannot fix a bad URL or a non-image payload.
		metrics.WarmTasksTotal.WithLabelValues(metrics.WarmSkipped).Inc()
		s.logger.Warn("skipping unwarmable image",
			"task_id", task.ID,
			"url", task.ImageURL,
			"error", err,
		)
		return nil

	default:
		metrics.WarmTasksTotal.WithLabelValues(metrics.WarmRetry).Inc()
		return fmt.Errorf("warm image: %w", err)
	}
}

func (s *warmService) release(ctx context.Context, key string) {
	if err := s.lock.Release(ctx, key); err != nil {
		s.logger.Warn("failed to release warm lock",
			"filename", key,
			"error", err,
		)
	}
}
