package components

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/scaling"
	"github.com/Veraticus/saucier/internal/tui/themes"
)

// errNoOtherUnit is shown when u is pressed on a unitless ingredient.
var errNoOtherUnit = errors.New("this ingredient has no other unit")

// scaleStatus is shared with the bus listener so it survives model copies.
type scaleStatus struct {
	factor  float64
	updates int
}

// RecipeViewModel is the recipe page: header, editable ingredients and steps.
type RecipeViewModel struct {
	theme       themes.Theme
	err         error
	recipe      *model.Recipe
	session     *scaling.Session
	status      *scaleStatus
	unsubscribe func()
	input       textinput.Model
	cursor      int
	width       int
	height      int
	editing     bool
}

// NewRecipeView opens a scaling session for recipe.
func NewRecipeView(recipe *model.Recipe, theme themes.Theme, opts ...scaling.Option) RecipeViewModel {
	session := scaling.NewSession(recipe.Ingredients, opts...)
	status := &scaleStatus{factor: 1}
	unsubscribe := session.Bus().Subscribe(scaling.ListenerFunc(func(ev scaling.ProportionUpdated) {
		status.factor = ev.Factor
		status.updates++
	}))

	input := textinput.New()
	input.CharLimit = 12
	input.Placeholder = "quantity"

	return RecipeViewModel{
		theme:       theme,
		recipe:      recipe,
		session:     session,
		status:      status,
		unsubscribe: unsubscribe,
		input:       input,
		width:       80,
		height:      24,
	}
}

// Session returns the scaling session behind the page.
func (m RecipeViewModel) Session() *scaling.Session {
	return m.session
}

// Recipe returns the displayed recipe.
func (m RecipeViewModel) Recipe() *model.Recipe {
	return m.recipe
}

// Cursor returns the index of the highlighted ingredient.
func (m RecipeViewModel) Cursor() int {
	return m.cursor
}

// Editing reports whether the quantity input has focus.
func (m RecipeViewModel) Editing() bool {
	return m.editing
}

// Err returns the last edit error, if any.
func (m RecipeViewModel) Err() error {
	return m.err
}

// Updates returns how many factor broadcasts the page has seen.
func (m RecipeViewModel) Updates() int {
	return m.status.updates
}

// Resize sets the available space.
func (m *RecipeViewModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

// Close detaches the page from its session.
func (m RecipeViewModel) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.session.Close()
}

// Update handles messages.
func (m RecipeViewModel) Update(msg tea.Msg) (RecipeViewModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.editing {
		return m, m.handleEditMode(keyMsg)
	}

	switch keyMsg.String() {
	case "j", "down":
		m.cursor = min(m.cursor+1, m.session.Len()-1)
		m.err = nil

	case "k", "up":
		m.cursor = max(m.cursor-1, 0)
		m.err = nil

	case "e", "enter":
		ing, err := m.session.Ingredient(m.cursor)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.editing = true
		m.err = nil
		m.input.SetValue(strconv.FormatFloat(ing.DisplayQuantity(), 'f', -1, 64))
		m.input.CursorEnd()
		m.input.Focus()
		return m, textinput.Blink

	case "u":
		m.err = m.cycleUnit()

	case "r":
		m.session.Reset()
		m.err = nil

	case "esc":
		return m, func() tea.Msg { return BackMsg{} }
	}

	return m, nil
}

// handleEditMode feeds the quantity input and applies it on enter.
func (m *RecipeViewModel) handleEditMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.editing = false
		m.input.Blur()
		m.err = m.session.SetQuantityText(m.cursor, m.input.Value())
		return nil

	case "esc":
		m.editing = false
		m.input.Blur()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// cycleUnit moves the highlighted ingredient to the next unit of its category.
func (m *RecipeViewModel) cycleUnit() error {
	ing, err := m.session.Ingredient(m.cursor)
	if err != nil {
		return err
	}
	choices := ing.UnitChoices()
	if len(choices) < 2 {
		return errNoOtherUnit
	}

	next := 0
	for i, u := range choices {
		if u == ing.Unit() {
			next = (i + 1) % len(choices)
			break
		}
	}
	return ing.SetUnit(choices[next])
}

// View renders the recipe page.
func (m RecipeViewModel) View() string {
	sections := []string{m.renderHeader(), m.renderIngredients()}

	if len(m.recipe.Steps) > 0 {
		var steps strings.Builder
		for i, step := range m.recipe.Steps {
			fmt.Fprintf(&steps, "%s %s\n", m.theme.Bold.Render(fmt.Sprintf("%d.", i+1)), step)
		}
		sections = append(sections, m.theme.Bold.Render("Steps"), strings.TrimRight(steps.String(), "\n"))
	}

	if m.err != nil {
		sections = append(sections, m.theme.StatusError.Render(m.err.Error()))
	}
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m RecipeViewModel) renderHeader() string {
	title := m.theme.Title.Render(m.recipe.Title)

	var facts []string
	if d := model.FormatDuration(m.recipe.Duration); d != "" {
		facts = append(facts, d)
	}
	if m.recipe.People > 0 {
		facts = append(facts, fmt.Sprintf("%d people", m.recipe.People))
	}
	if m.recipe.Amount > 0 {
		facts = append(facts, fmt.Sprintf("makes %d", m.recipe.Amount))
	}
	scale := fmt.Sprintf("scale ×%s", strconv.FormatFloat(m.session.Factor(), 'f', -1, 64))
	if m.session.State() == scaling.StateScaled {
		scale = m.theme.Scaled.Render(scale)
	}
	facts = append(facts, scale)

	return lipgloss.JoinVertical(lipgloss.Left, title, m.theme.Subtitle.Render(strings.Join(facts, " · ")))
}

func (m RecipeViewModel) renderIngredients() string {
	ingredients := m.session.Ingredients()

	nameWidth := 0
	for _, ing := range ingredients {
		nameWidth = max(nameWidth, lipgloss.Width(ing.Name()))
	}

	lines := make([]string, 0, len(ingredients))
	for i, ing := range ingredients {
		qty := strconv.FormatFloat(ing.DisplayQuantity(), 'f', -1, 64)
		if m.editing && i == m.cursor {
			qty = m.input.View()
		} else if ing.Quantity() != ing.OriginalQuantity() {
			qty = m.theme.Scaled.Render(qty)
		}

		name := ing.Name() + strings.Repeat(" ", nameWidth-lipgloss.Width(ing.Name()))
		line := fmt.Sprintf("%s  %s %s", name, qty, ing.Unit())
		if i == m.cursor {
			line = m.theme.Selected.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return m.theme.BorderedBox.Render(strings.Join(lines, "\n"))
}

func (m RecipeViewModel) renderFooter() string {
	hints := []string{"[↑↓] Move", "[e] Edit", "[u] Unit", "[r] Reset", "[Esc] Back", "[?] Help"}
	if m.editing {
		hints = []string{"[Enter] Apply", "[Esc] Cancel"}
	}
	return lipgloss.NewStyle().Foreground(m.theme.Muted).Render(strings.Join(hints, "  "))
}
