package components

import "github.com/Veraticus/saucier/internal/model"

// RecipeSelectedMsg is sent when a recipe is picked from the catalog.
type RecipeSelectedMsg struct {
	Recipe model.Recipe
	Index  int
}

// BackMsg is sent when the recipe page is left.
type BackMsg struct{}
