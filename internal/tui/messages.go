package tui

import "github.com/Veraticus/saucier/internal/model"

// Data loading messages.
type recipesLoadedMsg struct {
	err     error
	recipes []model.Recipe
}

type recipeLoadedMsg struct {
	err    error
	recipe *model.Recipe
	title  string
}
