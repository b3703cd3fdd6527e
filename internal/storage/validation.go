// Package storage persists the recipe catalog in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/saucier/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrEmptySlice    = errors.New("slice cannot be empty")
	ErrInvalidRecipe = errors.New("invalid recipe")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRecipes validates a batch of recipes and rejects duplicate titles.
func validateRecipes(recipes []model.Recipe) error {
	if len(recipes) == 0 {
		return fmt.Errorf("%w: recipes", ErrEmptySlice)
	}

	seen := make(map[string]int, len(recipes))
	for i := range recipes {
		if err := validateRecipe(&recipes[i]); err != nil {
			return fmt.Errorf("recipe at index %d: %w", i, err)
		}
		title := strings.TrimSpace(recipes[i].Title)
		if prev, ok := seen[title]; ok {
			return fmt.Errorf("%w: title %q repeated at index %d and %d", ErrInvalidRecipe, title, prev, i)
		}
		seen[title] = i
	}
	return nil
}

// validateRecipe validates a single recipe.
func validateRecipe(r *model.Recipe) error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidRecipe)
	}
	if r.Duration < 0 || r.Amount < 0 || r.People < 0 {
		return fmt.Errorf("%w: %q has a negative count", ErrInvalidRecipe, r.Title)
	}
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return fmt.Errorf("%w: %q ingredient %d has no name", ErrInvalidRecipe, r.Title, i)
		}
		if ing.Quantity < 0 || math.IsNaN(ing.Quantity) || math.IsInf(ing.Quantity, 0) {
			return fmt.Errorf("%w: %q ingredient %q has quantity %v", ErrInvalidRecipe, r.Title, ing.Name, ing.Quantity)
		}
	}
	return nil
}
