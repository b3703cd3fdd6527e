// Package tui is the terminal recipe browser: a searchable catalog and a
// recipe page whose quantities rescale as they are edited.
package tui

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/saucier/internal/common"
	"github.com/Veraticus/saucier/internal/scaling"
	"github.com/Veraticus/saucier/internal/service"
	"github.com/Veraticus/saucier/internal/tui/components"
	"github.com/Veraticus/saucier/internal/tui/themes"
)

// State represents the current state of the TUI.
type State int

const (
	StateLoading State = iota
	StateCatalog
	StateRecipe
)

// Model holds the main TUI state.
type Model struct {
	theme     themes.Theme
	lastError error
	storage   service.Storage
	list      components.RecipeListModel
	page      components.RecipeViewModel
	help      help.Model
	spinner   spinner.Model
	config    Config
	keymap    KeyMap
	width     int
	height    int
	state     State
	showHelp  bool
	hasPage   bool
	quitting  bool
}

// newModel creates a new model with the given configuration.
func newModel(cfg Config) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		state:   StateLoading,
		config:  cfg,
		keymap:  DefaultKeyMap(),
		theme:   cfg.Theme,
		storage: cfg.Storage,
		help:    help.New(),
		spinner: s,
		list:    components.NewRecipeList(nil, cfg.Theme),
		width:   cfg.Width,
		height:  cfg.Height,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadRecipes())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKeys(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case spinner.TickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case recipesLoadedMsg:
		if msg.err != nil {
			m.lastError = fmt.Errorf("failed to load recipes: %w", msg.err)
		}
		m.list.SetRecipes(msg.recipes)
		if m.config.Search != "" {
			m.list.SetSearch(m.config.Search)
		}
		m.state = StateCatalog
		return m, nil

	case components.RecipeSelectedMsg:
		return m, m.loadRecipe(msg.Recipe.Title)

	case recipeLoadedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, common.ErrNotFound) {
				m.lastError = fmt.Errorf("recipe %q not found", msg.title)
			} else {
				m.lastError = msg.err
			}
			return m, nil
		}
		m.openRecipe(msg)
		return m, nil

	case components.BackMsg:
		m.closeRecipe()
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case StateCatalog:
		m.list, cmd = m.list.Update(msg)
	case StateRecipe:
		m.page, cmd = m.page.Update(msg)
	}
	return m, cmd
}

// handleGlobalKeys handles keys that work in any state. Keys are left to the
// active component while it captures text input.
func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		m.closeRecipe()
		return tea.Quit, true
	}
	if m.capturingInput() {
		return nil, false
	}

	switch msg.String() {
	case "q":
		if m.state != StateRecipe {
			m.quitting = true
			return tea.Quit, true
		}
	case "?":
		m.showHelp = !m.showHelp
		return nil, true
	}

	if m.showHelp {
		// Any other key closes the help overlay.
		m.showHelp = false
		return nil, true
	}
	m.lastError = nil
	return nil, false
}

func (m Model) capturingInput() bool {
	switch m.state {
	case StateCatalog:
		return m.list.Searching()
	case StateRecipe:
		return m.page.Editing()
	default:
		return false
	}
}

func (m *Model) openRecipe(msg recipeLoadedMsg) {
	m.closeRecipe()

	var opts []scaling.Option
	if m.config.ShowFactor {
		opts = append(opts, scaling.WithFactorIngredient(m.config.FactorLabel))
	}
	opts = append(opts, scaling.WithLogger(slog.Default().With("recipe", msg.recipe.Title)))

	m.page = components.NewRecipeView(msg.recipe, m.theme, opts...)
	m.page.Resize(m.width, m.height)
	m.hasPage = true
	m.state = StateRecipe
	m.lastError = nil
}

func (m *Model) closeRecipe() {
	if m.hasPage {
		m.page.Close()
		m.hasPage = false
	}
	if m.state == StateRecipe {
		m.state = StateCatalog
	}
}

// handleResize adjusts component sizes when terminal resizes.
func (m *Model) handleResize() {
	m.help.Width = m.width
	m.list.Resize(m.width-2, m.height-2)
	if m.hasPage {
		m.page.Resize(m.width-2, m.height-2)
	}
}
