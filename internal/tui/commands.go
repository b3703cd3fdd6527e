package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// loadRecipes loads the catalog from storage.
func (m Model) loadRecipes() tea.Cmd {
	storage := m.storage
	return func() tea.Msg {
		if storage == nil {
			return recipesLoadedMsg{err: fmt.Errorf("storage not configured")}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		recipes, err := storage.GetRecipes(ctx)
		return recipesLoadedMsg{recipes: recipes, err: err}
	}
}

// loadRecipe fetches the full recipe behind a catalog row by its title.
func (m Model) loadRecipe(title string) tea.Cmd {
	storage := m.storage
	return func() tea.Msg {
		if storage == nil {
			return recipeLoadedMsg{title: title, err: fmt.Errorf("storage not configured")}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		recipe, err := storage.GetRecipeByTitle(ctx, title)
		return recipeLoadedMsg{title: title, recipe: recipe, err: err}
	}
}
