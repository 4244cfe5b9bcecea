package catalog

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hszk-dev/recipebox/internal/domain/model"
	"github.com/hszk-dev/recipebox/internal/domain/repository"
)

// envelopeJSON is the wire shape of a catalog response.
type envelopeJSON struct {
	Recipes *[]recipeJSON `json:"recipes"`
}

// recipeJSON is the wire shape of one record.
// Pointers distinguish a missing or null field from an empty string.
type recipeJSON struct {
	UUID          *string `json:"uuid"`
	Name          *string `json:"name"`
	Cuisine       *string `json:"cuisine"`
	PhotoURLLarge *string `json:"photo_url_large"`
	PhotoURLSmall *string `json:"photo_url_small"`
	SourceURL     *string `json:"source_url"`
	YouTubeURL    *string `json:"youtube_url"`
}

// MissingFieldError reports a mandatory field absent from a record.
type MissingFieldError struct {
	Index int
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("recipes[%d]: missing required field %q", e.Index, e.Field)
}

var errMissingRecipes = errors.New(`missing required field "recipes"`)

// decodeRecipes decodes a catalog body. Any failure rejects the whole body.
func decodeRecipes(body []byte) ([]model.Recipe, error) {
	var env envelopeJSON
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrDecoding, err)
	}
	if env.Recipes == nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrDecoding, errMissingRecipes)
	}

	recipes := make([]model.Recipe, 0, len(*env.Recipes))
	for i, r := range *env.Recipes {
		recipe, err := r.toModel(i)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", repository.ErrDecoding, err)
		}
		recipes = append(recipes, recipe)
	}

	return recipes, nil
}

func (r recipeJSON) toModel(index int) (model.Recipe, error) {
	switch {
	case r.UUID == nil:
		return model.Recipe{}, &MissingFieldError{Index: index, Field: "uuid"}
	case r.Name == nil:
		return model.Recipe{}, &MissingFieldError{Index: index, Field: "name"}
	case r.Cuisine == nil:
		return model.Recipe{}, &MissingFieldError{Index: index, Field: "cuisine"}
	}

	return model.Recipe{
		ID:            *r.UUID,
		Name:          *r.Name,
		Cuisine:       *r.Cuisine,
		PhotoURLLarge: deref(r.PhotoURLLarge),
		PhotoURLSmall: deref(r.PhotoURLSmall),
		SourceURL:     deref(r.SourceURL),
		YouTubeURL:    deref(r.YouTubeURL),
	}, nil
}

// deref returns "" for nil.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
