package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hszk-dev/recipebox/internal/api/middleware"
	"github.com/hszk-dev/recipebox/internal/domain/model"
	"github.com/hszk-dev/recipebox/internal/usecase"
)

// Request/Response types

type RecipeResponse struct {
	ID            string `json:"uuid"`
	Name          string `json:"name"`
	Cuisine       string `json:"cuisine"`
	PhotoURLLarge string `json:"photo_url_large,omitempty"`
	PhotoURLSmall string `json:"photo_url_small,omitempty"`
	SourceURL     string `json:"source_url,omitempty"`
	YouTubeURL    string `json:"youtube_url,omitempty"`
	// ThumbnailURL and DetailImageURL are the images list and detail views load.
	ThumbnailURL   string `json:"thumbnail_url,omitempty"`
	DetailImageURL string `json:"detail_image_url,omitempty"`
}

type CatalogResponse struct {
	Recipes   []RecipeResponse `json:"recipes"`
	Loading   bool             `json:"loading"`
	Error     string           `json:"error,omitempty"`
	Endpoint  string           `json:"endpoint,omitempty"`
	UpdatedAt string           `json:"updated_at,omitempty"`
}

// RecipeHandler handles catalog HTTP requests.
type RecipeHandler struct {
	svc usecase.CatalogService
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(svc usecase.CatalogService) *RecipeHandler {
	return &RecipeHandler{svc: svc}
}

// List handles GET /v1/recipes
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, toCatalogResponse(h.svc.Snapshot()))
}

// Get handles GET /v1/recipes/{id}
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, recipe := range h.svc.Snapshot().Recipes {
		if recipe.ID == id {
			JSON(w, http.StatusOK, toRecipeResponse(recipe))
			return
		}
	}
	Error(w, http.StatusNotFound, "recipe_not_found", "Recipe not found")
}

// Refresh handles POST /v1/recipes/refresh?endpoint=normal|malformed|empty
func (h *RecipeHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	endpoint, err := model.ParseEndpoint(r.URL.Query().Get("endpoint"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_endpoint", "Endpoint must be one of normal, malformed, empty")
		return
	}

	if err := h.svc.Refresh(r.Context(), endpoint); err != nil {
		status, code := errorCode(err)
		middleware.RequestLogger(r.Context()).Warn("catalog refresh failed",
			"endpoint", endpoint.String(),
			"status", status,
			"error", err,
		)
		Error(w, status, code, errorMessage(status, err))
		return
	}

	JSON(w, http.StatusOK, toCatalogResponse(h.svc.Snapshot()))
}

func toCatalogResponse(state usecase.CatalogState) CatalogResponse {
	resp := CatalogResponse{
		Recipes:  make([]RecipeResponse, 0, len(state.Recipes)),
		Loading:  state.Loading,
		Endpoint: string(state.Endpoint),
	}
	for _, r := range state.Recipes {
		resp.Recipes = append(resp.Recipes, toRecipeResponse(r))
	}
	if state.Err != nil {
		resp.Error = state.Err.Error()
	}
	if !state.UpdatedAt.IsZero() {
		resp.UpdatedAt = state.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toRecipeResponse(r model.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:            r.ID,
		Name:          r.Name,
		Cuisine:       r.Cuisine,
		PhotoURLLarge: r.PhotoURLLarge,
		PhotoURLSmall: r.PhotoURLSmall,
		SourceURL:     r.SourceURL,
		YouTubeURL:    r.YouTubeURL,

		ThumbnailURL:   r.ThumbnailURL(),
		DetailImageURL: r.DetailImageURL(),
	}
}
