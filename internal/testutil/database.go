// Package testutil provides shared test fixtures and an in-memory catalog
// for tests of the packages built on top of storage.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/service"
	"github.com/Veraticus/saucier/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
	Recipes []model.Recipe
}

// SetupTestDB creates a new in-memory test database seeded with recipes.
// It automatically handles migrations and cleanup.
//
// Example:
//
//	db := testutil.SetupTestDB(t, testutil.Crepes(), testutil.Quiche())
func SetupTestDB(t *testing.T, recipes ...model.Recipe) *TestDB {
	t.Helper()

	return SetupTestDBWithOptions(t, TestDBOptions{Recipes: recipes})
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, service.Storage) error
	Recipes        []model.Recipe
	SkipMigrations bool
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	ctx := context.Background()

	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if len(opts.Recipes) > 0 {
		if _, err := store.SaveRecipes(ctx, opts.Recipes); err != nil {
			t.Fatalf("failed to seed recipes: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{
		Storage: store,
		Recipes: opts.Recipes,
		t:       t,
	}
}

// MustGetRecipe returns the stored recipe with the given title or fails the test.
func (db *TestDB) MustGetRecipe(title string) *model.Recipe {
	db.t.Helper()
	r, err := db.Storage.GetRecipeByTitle(context.Background(), title)
	if err != nil {
		db.t.Fatalf("recipe %q not found: %v", title, err)
	}
	return r
}
