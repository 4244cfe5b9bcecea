package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/recipebox/internal/config"
	"github.com/hszk-dev/recipebox/internal/domain/repository"
	"github.com/hszk-dev/recipebox/internal/infrastructure/cache"
	"github.com/hszk-dev/recipebox/internal/infrastructure/diskcache"
	"github.com/hszk-dev/recipebox/internal/infrastructure/fetcher"
	"github.com/hszk-dev/recipebox/internal/infrastructure/queue"
	"github.com/hszk-dev/recipebox/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	// Redis coordinates workers so one image is only warmed once at a time.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	dir := cfg.ImageCache.ResolvedDir()
	store := diskcache.NewStore(dir, logger)
	writer := diskcache.NewAsyncWriter(store, diskcache.WriterConfig{
		Workers:   cfg.ImageCache.WriteWorkers,
		QueueSize: cfg.ImageCache.WriteQueue,
	}, logger)
	imageFetcher := fetcher.NewHTTPFetcher(
		&http.Client{Timeout: cfg.ImageCache.FetchTimeout},
		fetcher.Config{
			UserAgent: cfg.Catalog.UserAgent,
			MaxBytes:  cfg.ImageCache.MaxBytes,
		},
	)
	loader := usecase.NewImageLoader(
		cache.NewMemoryImageCache(),
		store,
		writer,
		imageFetcher,
		usecase.ImageLoaderConfig{DedupInFlight: cfg.ImageCache.DedupInFlight},
		logger,
	)
	logger.Info("image cache ready", slog.String("dir", dir))

	warmSvc := usecase.NewWarmService(
		loader,
		cache.NewRedisWarmLock(redisClient),
		usecase.WarmServiceConfig{
			MaxRetries: cfg.Worker.MaxRetries,
			LockTTL:    cfg.Worker.LockTTL,
		},
		logger,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// WaitGroup to track in-flight tasks
	var wg sync.WaitGroup

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting worker, consuming warm tasks")
		err := queueClient.ConsumeWarmTasks(ctx, func(task repository.WarmTask) error {
			wg.Add(1)
			defer wg.Done()

			logger.Info("processing task",
				slog.String("task_id", task.ID.String()),
				slog.String("recipe_id", task.RecipeID),
				slog.Int("retry_count", task.RetryCount),
			)

			if err := warmSvc.ProcessTask(ctx, task); err != nil {
				logger.Error("task processing failed",
					slog.String("task_id", task.ID.String()),
					slog.Int("retry_count", task.RetryCount),
					slog.String("error", err.Error()),
				)
				return err
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	// Stop consuming new messages.
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all in-flight tasks completed")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, some tasks may not have completed")
	}

	if err := loader.Close(shutdownCtx); err != nil {
		logger.Warn("pending disk writes abandoned", slog.String("error", err.Error()))
	}

	logger.Info("worker stopped")
	return nil
}
