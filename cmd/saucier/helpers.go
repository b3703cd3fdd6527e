package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/saucier/internal/common"
	"github.com/Veraticus/saucier/internal/config"
	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/scaling"
	"github.com/Veraticus/saucier/internal/service"
	"github.com/Veraticus/saucier/internal/storage"
)

// loadConfig resolves the settings from flags, environment and config file.
func loadConfig() (*config.Config, error) {
	config.SetDefaults(viper.GetViper())
	return config.Load(viper.GetViper())
}

// initStorage opens the catalog and brings its schema up to date.
func initStorage(ctx context.Context, cfg *config.Config) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// findRecipe looks a recipe up by its exact title.
func findRecipe(ctx context.Context, store service.RecipeFinder, title string) (*model.Recipe, error) {
	recipe, err := store.GetRecipeByTitle(ctx, title)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NewUserError(fmt.Sprintf("No recipe titled %q. Try 'saucier list'.", title), err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	return recipe, nil
}

// findIngredient returns the index of the ingredient called name, ignoring
// case and the œ ligature.
func findIngredient(session *scaling.Session, name string) (int, error) {
	want := model.FoldSearch(strings.TrimSpace(name))
	for _, ing := range session.Ingredients() {
		if model.FoldSearch(ing.Name()) == want {
			return ing.Index(), nil
		}
	}
	return 0, common.NewUserError(fmt.Sprintf("No ingredient called %q in this recipe.", name), common.ErrNotFound)
}
