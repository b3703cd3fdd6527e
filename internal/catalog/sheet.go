package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Veraticus/saucier/internal/common"
	"github.com/Veraticus/saucier/internal/model"
)

// sheetColumns is the layout of the form responses sheet: timestamp, title,
// ingredients, steps.
const sheetColumns = 4

// ParseSheet parses the tab-separated export of the recipe sheet. Rows that
// do not have exactly four columns are skipped. Each ingredient line is
// "name quantity", split on the first space.
func ParseSheet(r io.Reader) ([]model.Recipe, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var recipes []model.Recipe
	line := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", common.ErrInvalidFormat, line, err)
		}
		if len(row) != sheetColumns {
			slog.Debug("Skipping sheet row", "line", line, "columns", len(row))
			continue
		}

		title := strings.TrimSpace(row[1])
		if title == "" {
			slog.Debug("Skipping sheet row without title", "line", line)
			continue
		}

		recipes = append(recipes, model.Recipe{
			Title:       title,
			Ingredients: parseIngredientLines(title, row[2]),
			Steps:       splitLines(row[3]),
		})
	}
	return recipes, nil
}

func parseIngredientLines(title, text string) []model.Ingredient {
	var ingredients []model.Ingredient
	for _, line := range splitLines(text) {
		name, quantity, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		q, unit, err := ParseQuantity(quantity)
		if err != nil {
			slog.Warn("Keeping ingredient without a numeric quantity",
				"recipe", title,
				"ingredient", name,
				"quantity", quantity)
			q, unit = 0, strings.TrimSpace(quantity)
		}
		ingredients = append(ingredients, model.Ingredient{
			Name:     name,
			Quantity: q,
			Unit:     unit,
		})
	}
	return ingredients
}

func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Dedupe keeps the last recipe of each title, in first-seen order.
func Dedupe(recipes []model.Recipe) []model.Recipe {
	index := make(map[string]int, len(recipes))
	out := make([]model.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if i, ok := index[r.Title]; ok {
			out[i] = r
			continue
		}
		index[r.Title] = len(out)
		out = append(out, r)
	}
	return out
}
