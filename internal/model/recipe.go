// Package model defines the recipe catalog types.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Recipe is one entry of the catalog.
type Recipe struct {
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Title       string
	Hash        string
	Ingredients []Ingredient
	Steps       []string
	ID          int64
	Duration    int // minutes, 0 when unknown
	Amount      int
	People      int
}

// Ingredient is a single ingredient line as written in the recipe.
type Ingredient struct {
	Name     string
	Unit     string // empty when the quantity is a plain count
	Quantity float64
}

// GenerateHash fingerprints the recipe content so unchanged imports can be skipped.
func (r *Recipe) GenerateHash() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%d|%d|%d", r.Title, r.Duration, r.Amount, r.People)
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&b, "|i:%s:%g:%s", ing.Name, ing.Quantity, ing.Unit)
	}
	for _, step := range r.Steps {
		fmt.Fprintf(&b, "|s:%s", step)
	}
	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", hash)
}

// IngredientNames returns the ingredient names in recipe order.
func (r *Recipe) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}

// Matches reports whether query occurs in the title or any ingredient name,
// ignoring case and the œ ligature. An empty query matches every recipe.
func (r *Recipe) Matches(query string) bool {
	query = FoldSearch(query)
	if query == "" {
		return true
	}
	haystack := FoldSearch(r.Title + " " + strings.Join(r.IngredientNames(), ", "))
	return strings.Contains(haystack, query)
}

// FoldSearch normalizes text for catalog search.
func FoldSearch(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "œ", "oe")
}

// FormatDuration renders minutes as "1 hr 30 min", omitting zero parts.
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	hours := minutes / 60
	mins := minutes % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hr", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%d min", mins))
	}
	return strings.Join(parts, " ")
}
