package testutil

import "github.com/Veraticus/saucier/internal/model"

// Crepes serves four and mixes volume, mass and plain counts.
func Crepes() model.Recipe {
	return model.Recipe{
		Title:    "Crêpes",
		Duration: 40,
		Amount:   12,
		People:   4,
		Ingredients: []model.Ingredient{
			{Name: "farine", Quantity: 250, Unit: "g"},
			{Name: "lait", Quantity: 0.5, Unit: "L"},
			{Name: "œufs", Quantity: 4},
			{Name: "beurre", Quantity: 50, Unit: "g"},
			{Name: "sucre vanillé", Quantity: 1, Unit: "sachet"},
		},
		Steps: []string{
			"Mélanger la farine et les œufs.",
			"Ajouter le lait petit à petit.",
			"Laisser reposer une heure.",
		},
	}
}

// Quiche uses spoon and handful units.
func Quiche() model.Recipe {
	return model.Recipe{
		Title:    "Quiche lorraine",
		Duration: 75,
		People:   6,
		Ingredients: []model.Ingredient{
			{Name: "pâte brisée", Quantity: 1},
			{Name: "lardons", Quantity: 200, Unit: "g"},
			{Name: "crème fraîche", Quantity: 20, Unit: "cL"},
			{Name: "gruyère", Quantity: 1, Unit: "poignée"},
			{Name: "muscade", Quantity: 1, Unit: "cuillère à café"},
		},
		Steps: []string{"Étaler la pâte.", "Cuire 35 minutes à 180°C."},
	}
}

// Bourguignon is a long recipe with large quantities.
func Bourguignon() model.Recipe {
	return model.Recipe{
		Title:    "Bœuf bourguignon",
		Duration: 210,
		People:   6,
		Ingredients: []model.Ingredient{
			{Name: "bœuf", Quantity: 1.5, Unit: "kg"},
			{Name: "vin rouge", Quantity: 0.75, Unit: "L"},
			{Name: "carottes", Quantity: 4},
		},
		Steps: []string{"Faire revenir la viande.", "Mouiller au vin et laisser mijoter."},
	}
}

// Catalog returns every fixture recipe.
func Catalog() []model.Recipe {
	return []model.Recipe{Crepes(), Quiche(), Bourguignon()}
}
