package repository

import (
	"context"

	"github.com/hszk-dev/recipebox/internal/domain/model"
)

// RecipeCatalog fetches the remote recipe catalog.
// Implementations perform exactly one round trip per call and never retry.
type RecipeCatalog interface {
	// FetchRecipes returns every record of the selected catalog endpoint.
	// Returns an empty slice, not an error, for an empty catalog.
	FetchRecipes(ctx context.Context, endpoint model.Endpoint) ([]model.Recipe, error)
}
