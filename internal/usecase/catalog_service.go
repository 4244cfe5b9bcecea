package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hszk-dev/recipebox/internal/domain/model"
	"github.com/hszk-dev/recipebox/internal/domain/repository"
)

// CatalogState is a point-in-time view of the held catalog.
type CatalogState struct {
	Recipes   []model.Recipe
	Loading   bool
	Err       error
	Endpoint  model.Endpoint
	UpdatedAt time.Time
}

// CatalogService holds the most recently fetched recipe list.
type CatalogService interface {
	// Refresh fetches the catalog once. On success the held list is replaced
	// wholesale and the error cleared; on failure the list is cleared and
	// the error recorded and returned.
	Refresh(ctx context.Context, endpoint model.Endpoint) error

	// Snapshot returns a copy of the current state.
	Snapshot() CatalogState
}

type catalogService struct {
	catalog repository.RecipeCatalog
	// queue is optional; nil disables cache warming.
	queue  repository.MessageQueue
	logger *slog.Logger
	now    func() time.Time

	// refreshMu serializes refreshes so the held state follows call order.
	refreshMu sync.Mutex

	mu    sync.RWMutex
	state CatalogState
}

// NewCatalogService creates a new CatalogService.
// A nil queue disables publishing warm tasks.
func NewCatalogService(
	catalog repository.RecipeCatalog,
	queue repository.MessageQueue,
	logger *slog.Logger,
) CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &catalogService{
		catalog: catalog,
		queue:   queue,
		logger:  logger,
		now:     time.Now,
		state: CatalogState{
			Recipes: []model.Recipe{},
		},
	}
}

func (s *catalogService) Refresh(ctx context.Context, endpoint model.Endpoint) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.mu.Lock()
	s.state.Loading = true
	s.mu.Unlock()

	recipes, err := s.catalog.FetchRecipes(ctx, endpoint)

	s.mu.Lock()
	s.state.Loading = false
	s.state.Endpoint = endpoint
	s.state.UpdatedAt = s.now()
	if err != nil {
		s.state.Recipes = []model.Recipe{}
		s.state.Err = err
	} else {
		s.state.Recipes = recipes
		s.state.Err = nil
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("catalog refresh failed",
			"endpoint", endpoint.String(),
			"error", err,
		)
		return err
	}

	s.logger.Info("catalog refreshed",
		"endpoint", endpoint.String(),
		"count", len(recipes),
	)

	s.publishWarmTasks(ctx, recipes)
	return nil
}

// publishWarmTasks enqueues one task per distinct thumbnail URL.
// Failures are logged and never fail the refresh.
func (s *catalogService) publishWarmTasks(ctx context.Context, recipes []model.Recipe) {
	if s.queue == nil {
		return
	}

	seen := make(map[string]struct{}, len(recipes))
	published := 0
	for _, r := range recipes {
		imageURL := r.ThumbnailURL()
		if imageURL == "" {
			continue
		}
		if _, dup := seen[imageURL]; dup {
			continue
		}
		seen[imageURL] = struct{}{}

		task := repository.WarmTask{
			ID:       uuid.New(),
			RecipeID: r.ID,
			ImageURL: imageURL,
		}
		if err := s.queue.PublishWarmTask(ctx, task); err != nil {
			s.logger.Warn("failed to publish warm task",
				"recipe_id", r.ID,
				"url", imageURL,
				"error", err,
			)
			continue
		}
		published++
	}

	s.logger.Debug("warm tasks published", "count", published)
}

func (s *catalogService) Snapshot() CatalogState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state
	snapshot.Recipes = make([]model.Recipe, len(s.state.Recipes))
	copy(snapshot.Recipes, s.state.Recipes)
	return snapshot
}
