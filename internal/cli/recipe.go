package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/scaling"
)

// FormatQuantity renders a quantity without trailing zeros.
func FormatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

// RecipeHeader renders the title line and the duration, amount and people
// facts that are known.
func RecipeHeader(r *model.Recipe) string {
	var facts []string
	if d := model.FormatDuration(r.Duration); d != "" {
		facts = append(facts, TimerIcon+" "+d)
	}
	if r.People > 0 {
		facts = append(facts, fmt.Sprintf("%s %d", PeopleIcon, r.People))
	}
	if r.Amount > 0 {
		facts = append(facts, fmt.Sprintf("× %d", r.Amount))
	}

	header := FormatTitle(r.Title)
	if len(facts) > 0 {
		header = lipgloss.JoinVertical(lipgloss.Left, header, SubtitleStyle.Render(strings.Join(facts, "   ")))
	}
	return header
}

// IngredientTable renders the ingredients of a session as aligned columns.
// Quantities that differ from the recipe are highlighted.
func IngredientTable(s *scaling.Session) string {
	ingredients := s.Ingredients()

	nameWidth := len("Ingredient")
	for _, ing := range ingredients {
		nameWidth = max(nameWidth, lipgloss.Width(ing.Name()))
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-*s  %10s  %s", nameWidth, "Ingredient", "Quantity", "Unit")))
	b.WriteString("\n")
	for _, ing := range ingredients {
		qty := fmt.Sprintf("%10s", FormatQuantity(ing.DisplayQuantity()))
		if ing.Quantity() != ing.OriginalQuantity() {
			qty = ScaledStyle.Render(qty)
		}
		name := ing.Name() + strings.Repeat(" ", nameWidth-lipgloss.Width(ing.Name()))
		b.WriteString(TableCellStyle.Render(name) + qty + "  " + ing.Unit() + "\n")
	}
	return b.String()
}

// Steps renders numbered recipe steps.
func Steps(steps []string) string {
	var b strings.Builder
	for i, step := range steps {
		fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render(fmt.Sprintf("%d.", i+1)), step)
	}
	return b.String()
}
