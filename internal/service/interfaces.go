// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/saucier/internal/model"
)

// RecipeFilter narrows catalog queries.
type RecipeFilter struct {
	Search string
	Limit  int
	Offset int
}

// SaveResult reports what SaveRecipes did with each recipe.
type SaveResult struct {
	Created   int
	Updated   int
	Unchanged int
}

// Storage defines the contract for the recipe catalog.
type Storage interface {
	// Recipe operations
	SaveRecipes(ctx context.Context, recipes []model.Recipe) (SaveResult, error)
	GetRecipes(ctx context.Context) ([]model.Recipe, error)
	GetRecipeByTitle(ctx context.Context, title string) (*model.Recipe, error)
	SearchRecipes(ctx context.Context, filter RecipeFilter) ([]model.Recipe, error)
	DeleteRecipe(ctx context.Context, title string) error
	GetRecipeCount(ctx context.Context) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
	Close() error
}

// RecipeFinder is the lookup-by-title collaborator of a recipe page.
type RecipeFinder interface {
	GetRecipeByTitle(ctx context.Context, title string) (*model.Recipe, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
