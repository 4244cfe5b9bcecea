package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hszk-dev/recipebox/internal/api/handler"
	"github.com/hszk-dev/recipebox/internal/api/middleware"
	"github.com/hszk-dev/recipebox/internal/config"
	"github.com/hszk-dev/recipebox/internal/domain/model"
	"github.com/hszk-dev/recipebox/internal/domain/repository"
	"github.com/hszk-dev/recipebox/internal/infrastructure/cache"
	"github.com/hszk-dev/recipebox/internal/infrastructure/catalog"
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

	checks := make(map[string]handler.HealthCheck)

	// The queue is only needed to hand warm tasks to the worker.
	var messageQueue repository.MessageQueue
	if cfg.Server.WarmOnRefresh {
		queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()), logger)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer queueClient.Close()
		logger.Info("connected to RabbitMQ")

		messageQueue = queueClient
		checks["rabbitmq"] = queueClient.Ping
	}

	catalogClient := catalog.NewClient(
		&http.Client{Timeout: cfg.Catalog.Timeout},
		catalog.ClientConfig{
			Endpoints: cfg.Catalog.Endpoints(),
			UserAgent: cfg.Catalog.UserAgent,
			MaxBytes:  cfg.Catalog.MaxBytes,
		},
		logger,
	)
	catalogSvc := usecase.NewCatalogService(catalogClient, messageQueue, logger)

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
	checks["image_cache"] = func(context.Context) error {
		_, err := os.Stat(store.Dir())
		return err
	}
	logger.Info("image cache ready", slog.String("dir", dir))

	if cfg.Server.RefreshOnStart {
		go func() {
			if err := catalogSvc.Refresh(ctx, model.EndpointNormal); err != nil {
				logger.Warn("initial catalog refresh failed", slog.String("error", err.Error()))
			}
		}()
	}

	r := setupRouter(logger, routerDeps{
		recipes: handler.NewRecipeHandler(catalogSvc),
		images:  handler.NewImageHandler(loader),
		health:  handler.NewHealthHandler(checks),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := loader.Close(shutdownCtx); err != nil {
		logger.Warn("pending disk writes abandoned", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return nil
}

type routerDeps struct {
	recipes *handler.RecipeHandler
	images  *handler.ImageHandler
	health  *handler.HealthHandler
}

func setupRouter(logger *slog.Logger, deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Metrics)

	r.Get("/health", deps.health.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/recipes", deps.recipes.List)
		r.Post("/recipes/refresh", deps.recipes.Refresh)
		r.Get("/recipes/{id}", deps.recipes.Get)
		r.Get("/images", deps.images.Get)
	})

	return r
}
