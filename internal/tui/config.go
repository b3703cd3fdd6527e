package tui

import (
	"github.com/Veraticus/saucier/internal/service"
	"github.com/Veraticus/saucier/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Theme       themes.Theme
	Storage     service.Storage
	FactorLabel string
	Search      string
	Width       int
	Height      int
	ShowFactor  bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:       themes.Default,
		Width:       80,
		Height:      24,
		ShowFactor:  true,
		FactorLabel: "Facteur de proportionnalité",
	}
}

// WithStorage sets the catalog storage.
func WithStorage(storage service.Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithFactorIngredient controls the editable proportionality line shown
// at the top of every recipe.
func WithFactorIngredient(show bool, label string) Option {
	return func(c *Config) {
		c.ShowFactor = show
		if label != "" {
			c.FactorLabel = label
		}
	}
}

// WithSearch pre-fills the catalog search box.
func WithSearch(query string) Option {
	return func(c *Config) {
		c.Search = query
	}
}
