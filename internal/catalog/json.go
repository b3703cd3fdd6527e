package catalog

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Veraticus/saucier/internal/common"
	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/units"
)

type jsonRecipe struct {
	Title       *string          `json:"title"`
	Ingredients []jsonIngredient `json:"ingredients"`
	Steps       []string         `json:"steps"`
	Duration    int              `json:"duration,omitempty"`
	Amount      int              `json:"amount,omitempty"`
	People      int              `json:"people,omitempty"`
}

type jsonIngredient struct {
	Name     string       `json:"name"`
	Unit     string       `json:"unit,omitempty"`
	Quantity jsonQuantity `json:"quantity"`
}

// jsonQuantity accepts a number or a string such as "200g".
type jsonQuantity struct {
	unit  string
	value float64
}

func (q *jsonQuantity) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		value, unit, err := ParseQuantity(text)
		if err != nil {
			return err
		}
		q.value, q.unit = value, unit
		return nil
	}
	value, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("%w: quantity %s", common.ErrInvalidFormat, data)
	}
	q.value = value
	return nil
}

func (q jsonQuantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.value)
}

// LoadJSON reads a recipes.json array. Recipes without a title are skipped.
func LoadJSON(r io.Reader) ([]model.Recipe, error) {
	var raw []jsonRecipe
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidFormat, err)
	}

	recipes := make([]model.Recipe, 0, len(raw))
	for i, jr := range raw {
		if jr.Title == nil || strings.TrimSpace(*jr.Title) == "" {
			slog.Warn("Skipping recipe without title", "index", i)
			continue
		}
		recipe := model.Recipe{
			Title:    strings.TrimSpace(*jr.Title),
			Steps:    jr.Steps,
			Duration: jr.Duration,
			Amount:   jr.Amount,
			People:   jr.People,
		}
		for _, ji := range jr.Ingredients {
			unit := ji.Quantity.unit
			if ji.Unit != "" {
				unit = units.Canonical(ji.Unit)
			}
			recipe.Ingredients = append(recipe.Ingredients, model.Ingredient{
				Name:     strings.TrimSpace(ji.Name),
				Quantity: ji.Quantity.value,
				Unit:     unit,
			})
		}
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

// WriteJSON writes recipes in the format LoadJSON reads.
func WriteJSON(w io.Writer, recipes []model.Recipe) error {
	out := make([]jsonRecipe, 0, len(recipes))
	for _, r := range recipes {
		title := r.Title
		jr := jsonRecipe{
			Title:    &title,
			Steps:    r.Steps,
			Duration: r.Duration,
			Amount:   r.Amount,
			People:   r.People,
		}
		for _, ing := range r.Ingredients {
			jr.Ingredients = append(jr.Ingredients, jsonIngredient{
				Name:     ing.Name,
				Unit:     ing.Unit,
				Quantity: jsonQuantity{value: ing.Quantity},
			})
		}
		out = append(out, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(out)
}
