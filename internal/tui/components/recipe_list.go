package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/saucier/internal/model"
	"github.com/Veraticus/saucier/internal/tui/themes"
)

// ListMode represents the current mode of the list.
type ListMode int

// List modes.
const (
	ModeNormal ListMode = iota
	ModeSearch
)

// RecipeListModel manages the catalog table and its live search box.
type RecipeListModel struct {
	theme       themes.Theme
	recipes     []model.Recipe
	filtered    []model.Recipe
	searchInput textinput.Model
	table       table.Model
	mode        ListMode
	width       int
	height      int
}

// NewRecipeList creates a new catalog list.
func NewRecipeList(recipes []model.Recipe, theme themes.Theme) RecipeListModel {
	columns := []table.Column{
		{Title: "Recipe", Width: 36},
		{Title: "Duration", Width: 14},
		{Title: "People", Width: 8},
		{Title: "Ingredients", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(false)
	s.Selected = theme.Selected
	t.SetStyles(s)

	searchInput := textinput.New()
	searchInput.Placeholder = "Search by title or ingredient..."
	searchInput.CharLimit = 50

	m := RecipeListModel{
		theme:       theme,
		table:       t,
		searchInput: searchInput,
		mode:        ModeNormal,
		width:       80,
		height:      24,
	}
	m.SetRecipes(recipes)
	return m
}

// SetRecipes replaces the catalog, keeping the current search.
func (m *RecipeListModel) SetRecipes(recipes []model.Recipe) {
	m.recipes = recipes
	m.applyFilter()
}

// SetSearch sets the search text and filters the catalog.
func (m *RecipeListModel) SetSearch(query string) {
	m.searchInput.SetValue(query)
	m.applyFilter()
}

// Filtered returns the recipes matching the current search.
func (m RecipeListModel) Filtered() []model.Recipe {
	return m.filtered
}

// Search returns the current search text.
func (m RecipeListModel) Search() string {
	return m.searchInput.Value()
}

// Searching reports whether the search box has focus.
func (m RecipeListModel) Searching() bool {
	return m.mode == ModeSearch
}

// Cursor returns the index of the highlighted recipe.
func (m RecipeListModel) Cursor() int {
	return m.table.Cursor()
}

// Resize sets the available space.
func (m *RecipeListModel) Resize(width, height int) {
	m.width = width
	m.height = height
	// Header (3), search line (1), footer (1).
	m.table.SetHeight(max(height-5, 3))
}

// Update handles messages.
func (m RecipeListModel) Update(msg tea.Msg) (RecipeListModel, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.mode == ModeSearch {
		return m, m.handleSearchMode(keyMsg)
	}

	switch keyMsg.String() {
	case "/":
		m.mode = ModeSearch
		m.searchInput.Focus()
		return m, textinput.Blink

	case "enter":
		cursor := m.table.Cursor()
		if cursor >= 0 && cursor < len(m.filtered) {
			selected := m.filtered[cursor]
			return m, func() tea.Msg {
				return RecipeSelectedMsg{Recipe: selected, Index: cursor}
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// handleSearchMode filters the catalog on every keystroke.
func (m *RecipeListModel) handleSearchMode(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.mode = ModeNormal
		m.searchInput.Blur()
		return nil

	case "esc":
		m.mode = ModeNormal
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.applyFilter()
		return nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.applyFilter()
	return cmd
}

func (m *RecipeListModel) applyFilter() {
	query := m.searchInput.Value()
	m.filtered = make([]model.Recipe, 0, len(m.recipes))
	for _, r := range m.recipes {
		if r.Matches(query) {
			m.filtered = append(m.filtered, r)
		}
	}
	m.table.SetRows(m.buildTableRows())
	if m.table.Cursor() >= len(m.filtered) {
		m.table.SetCursor(max(len(m.filtered)-1, 0))
	}
}

// buildTableRows builds rows for the table.
func (m RecipeListModel) buildTableRows() []table.Row {
	rows := make([]table.Row, 0, len(m.filtered))
	for _, r := range m.filtered {
		duration := model.FormatDuration(r.Duration)
		if duration == "" {
			duration = "-"
		}
		people := "-"
		if r.People > 0 {
			people = strconv.Itoa(r.People)
		}
		rows = append(rows, table.Row{
			truncate(r.Title, 36),
			duration,
			people,
			strconv.Itoa(len(r.Ingredients)),
		})
	}
	return rows
}

// View renders the catalog.
func (m RecipeListModel) View() string {
	title := m.theme.Title.Render("Recettes")

	status := fmt.Sprintf("%d of %d recipes", len(m.filtered), len(m.recipes))
	if q := m.searchInput.Value(); q != "" && m.mode != ModeSearch {
		status += fmt.Sprintf(" | Search: %q", q)
	}
	header := lipgloss.JoinVertical(lipgloss.Left, title, m.theme.Subtitle.Render(status))

	var body string
	if len(m.filtered) == 0 {
		body = lipgloss.NewStyle().Foreground(m.theme.Muted).Render("No recipe matches your search.")
	} else {
		body = m.table.View()
	}

	parts := []string{header}
	if m.mode == ModeSearch {
		parts = append(parts, m.searchInput.View())
	}
	parts = append(parts, body, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderFooter renders the list footer.
func (m RecipeListModel) renderFooter() string {
	var hints []string
	switch m.mode {
	case ModeNormal:
		hints = []string{
			"[↑↓] Navigate",
			"[Enter] Open",
			"[/] Search",
			"[?] Help",
			"[q] Quit",
		}
	case ModeSearch:
		hints = []string{
			"[Enter] Done",
			"[Esc] Clear",
		}
	}
	return lipgloss.NewStyle().Foreground(m.theme.Muted).Render(strings.Join(hints, "  "))
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
