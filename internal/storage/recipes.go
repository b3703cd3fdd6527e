package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Veraticus/saucier/internal/common"
	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/service"
)

// SaveRecipes upserts recipes by title. Recipes whose content hash is
// unchanged are left alone. IDs and hashes are written back into recipes.
func (s *SQLiteStorage) SaveRecipes(ctx context.Context, recipes []model.Recipe) (service.SaveResult, error) {
	var result service.SaveResult
	if err := validateContext(ctx); err != nil {
		return result, err
	}
	if err := validateRecipes(recipes); err != nil {
		return result, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := range recipes {
		r := &recipes[i]
		r.Title = strings.TrimSpace(r.Title)
		r.Hash = r.GenerateHash()

		var outcome saveOutcome
		outcome, err = s.saveRecipeTx(ctx, tx, r)
		if err != nil {
			return service.SaveResult{}, err
		}
		switch outcome {
		case outcomeCreated:
			result.Created++
		case outcomeUpdated:
			result.Updated++
		default:
			result.Unchanged++
		}
	}

	if err = tx.Commit(); err != nil {
		return service.SaveResult{}, fmt.Errorf("failed to commit recipes: %w", err)
	}

	slog.Debug("Saved recipes",
		"created", result.Created,
		"updated", result.Updated,
		"unchanged", result.Unchanged)
	return result, nil
}

type saveOutcome int

const (
	outcomeUnchanged saveOutcome = iota
	outcomeCreated
	outcomeUpdated
)

func (s *SQLiteStorage) saveRecipeTx(ctx context.Context, tx *sql.Tx, r *model.Recipe) (saveOutcome, error) {
	steps, err := json.Marshal(nonNilSteps(r.Steps))
	if err != nil {
		return outcomeUnchanged, fmt.Errorf("failed to encode steps of %q: %w", r.Title, err)
	}

	var existingID int64
	var existingHash string
	err = tx.QueryRowContext(ctx, `SELECT id, hash FROM recipes WHERE title = ?`, r.Title).Scan(&existingID, &existingHash)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, insertErr := tx.ExecContext(ctx, `
			INSERT INTO recipes (title, hash, duration, amount, people, steps)
			VALUES (?, ?, ?, ?, ?, ?)
		`, r.Title, r.Hash, r.Duration, r.Amount, r.People, string(steps))
		if insertErr != nil {
			return outcomeUnchanged, fmt.Errorf("failed to insert recipe %q: %w", r.Title, insertErr)
		}
		id, idErr := res.LastInsertId()
		if idErr != nil {
			return outcomeUnchanged, fmt.Errorf("failed to get recipe id: %w", idErr)
		}
		r.ID = id
		if err := insertIngredients(ctx, tx, id, r.Ingredients); err != nil {
			return outcomeUnchanged, err
		}
		return outcomeCreated, nil

	case err != nil:
		return outcomeUnchanged, fmt.Errorf("failed to look up recipe %q: %w", r.Title, err)
	}

	r.ID = existingID
	if existingHash == r.Hash {
		return outcomeUnchanged, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE recipes
		SET hash = ?, duration = ?, amount = ?, people = ?, steps = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, r.Hash, r.Duration, r.Amount, r.People, string(steps), existingID); err != nil {
		return outcomeUnchanged, fmt.Errorf("failed to update recipe %q: %w", r.Title, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, existingID); err != nil {
		return outcomeUnchanged, fmt.Errorf("failed to clear ingredients of %q: %w", r.Title, err)
	}
	if err := insertIngredients(ctx, tx, existingID, r.Ingredients); err != nil {
		return outcomeUnchanged, err
	}
	return outcomeUpdated, nil
}

func insertIngredients(ctx context.Context, tx *sql.Tx, recipeID int64, ingredients []model.Ingredient) error {
	if len(ingredients) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recipe_ingredients (recipe_id, position, name, quantity, unit)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for pos, ing := range ingredients {
		if _, err := stmt.ExecContext(ctx, recipeID, pos, ing.Name, ing.Quantity, ing.Unit); err != nil {
			return fmt.Errorf("failed to insert ingredient %q: %w", ing.Name, err)
		}
	}
	return nil
}

func nonNilSteps(steps []string) []string {
	if steps == nil {
		return []string{}
	}
	return steps
}

const recipeColumns = `id, title, hash, duration, amount, people, steps, created_at, updated_at`

// GetRecipes returns the whole catalog ordered by title.
func (s *SQLiteStorage) GetRecipes(ctx context.Context) ([]model.Recipe, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getRecipes(ctx, s.db)
}

func (s *SQLiteStorage) getRecipes(ctx context.Context, q queryable) ([]model.Recipe, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY title COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recipes []model.Recipe
	index := make(map[int64]int)
	for rows.Next() {
		r, scanErr := scanRecipe(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		index[r.ID] = len(recipes)
		recipes = append(recipes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}

	ingRows, err := q.QueryContext(ctx, `
		SELECT recipe_id, name, quantity, unit
		FROM recipe_ingredients
		ORDER BY recipe_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer func() { _ = ingRows.Close() }()

	for ingRows.Next() {
		var recipeID int64
		var ing model.Ingredient
		if err := ingRows.Scan(&recipeID, &ing.Name, &ing.Quantity, &ing.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		if i, ok := index[recipeID]; ok {
			recipes[i].Ingredients = append(recipes[i].Ingredients, ing)
		}
	}
	if err := ingRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingredients: %w", err)
	}

	return recipes, nil
}

// GetRecipeByTitle looks a recipe up by its exact title.
func (s *SQLiteStorage) GetRecipeByTitle(ctx context.Context, title string) (*model.Recipe, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(title, "title"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE title = ?`, strings.TrimSpace(title))
	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recipe %q: %w", title, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	ingredients, err := s.getIngredients(ctx, s.db, r.ID)
	if err != nil {
		return nil, err
	}
	r.Ingredients = ingredients
	return r, nil
}

func (s *SQLiteStorage) getIngredients(ctx context.Context, q queryable, recipeID int64) ([]model.Ingredient, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT name, quantity, unit
		FROM recipe_ingredients
		WHERE recipe_id = ?
		ORDER BY position
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ingredients []model.Ingredient
	for rows.Next() {
		var ing model.Ingredient
		if err := rows.Scan(&ing.Name, &ing.Quantity, &ing.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row scanner) (*model.Recipe, error) {
	var r model.Recipe
	var steps string
	err := row.Scan(
		&r.ID,
		&r.Title,
		&r.Hash,
		&r.Duration,
		&r.Amount,
		&r.People,
		&steps,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan recipe: %w", err)
	}

	if steps != "" {
		if err := json.Unmarshal([]byte(steps), &r.Steps); err != nil {
			return nil, fmt.Errorf("failed to parse steps of %q: %w", r.Title, err)
		}
	}
	return &r, nil
}

// SearchRecipes returns recipes whose title or ingredient names contain the
// filter's search text, then applies offset and limit.
func (s *SQLiteStorage) SearchRecipes(ctx context.Context, filter service.RecipeFilter) ([]model.Recipe, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	all, err := s.getRecipes(ctx, s.db)
	if err != nil {
		return nil, err
	}

	matched := make([]model.Recipe, 0, len(all))
	for i := range all {
		if all[i].Matches(filter.Search) {
			matched = append(matched, all[i])
		}
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []model.Recipe{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// DeleteRecipe removes a recipe and its ingredients.
func (s *SQLiteStorage) DeleteRecipe(ctx context.Context, title string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(title, "title"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE title = ?`, strings.TrimSpace(title))
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recipe %q: %w", title, common.ErrNotFound)
	}
	return nil
}

// GetRecipeCount returns the number of recipes in the catalog.
func (s *SQLiteStorage) GetRecipeCount(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}
