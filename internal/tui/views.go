package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch {
	case m.state == StateLoading:
		content = m.renderLoading()
	case m.showHelp:
		content = m.renderHelp()
	case m.state == StateRecipe:
		content = m.page.View()
	default:
		content = m.list.View()
	}

	if m.lastError != nil {
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.theme.StatusError.Render(m.lastError.Error()))
	}
	return m.theme.Box.Render(content)
}

// renderLoading renders the loading screen.
func (m Model) renderLoading() string {
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		m.theme.Title.Render("Saucier"),
		m.spinner.View()+" Loading recipes...",
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}

// renderHelp renders the full key binding reference.
func (m Model) renderHelp() string {
	return m.theme.BorderedBox.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.theme.Title.Render("Keyboard shortcuts"),
		m.help.FullHelpView(m.keymap.FullHelp()),
	))
}
