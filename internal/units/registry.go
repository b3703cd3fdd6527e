// Package units holds the fixed unit table used by recipes and the conversion
// engine built on top of it.
package units

import (
	"fmt"
	"strings"
)

// Category groups units that convert into each other.
type Category string

const (
	// Volume units, base liter.
	Volume Category = "volume"
	// Mass units, factors relative to the gram.
	Mass Category = "mass"
	// SachetCount counts packets of an ingredient.
	SachetCount Category = "sachet-count"
	// Unitless covers empty and unrecognized unit labels.
	Unitless Category = "unitless"
)

// Definition describes a single unit inside its category.
type Definition struct {
	Name         string
	Category     Category
	FactorToBase float64
}

// Registry maps categories to their ordered unit tables. It is immutable once built.
type Registry struct {
	units      map[Category][]Definition
	byName     map[string]Definition
	folded     map[string]string
	aliases    map[string]string
	categories []Category
}

// Default is the unit table recipes are written against.
var Default = NewRegistry()

// NewRegistry builds the fixed registry. Order inside each category follows
// increasing unit size and is the order offered to users.
func NewRegistry() *Registry {
	r := &Registry{
		units:   make(map[Category][]Definition),
		byName:  make(map[string]Definition),
		folded:  make(map[string]string),
		aliases: make(map[string]string),
	}

	r.add(Volume, "mL", 0.001)
	r.add(Volume, "teaspoon", 0.005)
	r.add(Volume, "cL", 0.01)
	r.add(Volume, "tablespoon", 0.015)
	r.add(Volume, "dL", 0.1)
	r.add(Volume, "L", 1)

	r.add(Mass, "mg", 0.001)
	r.add(Mass, "g", 1)
	r.add(Mass, "handful", 30)
	r.add(Mass, "kg", 1000)

	r.add(SachetCount, "sachet", 1)

	r.add(Unitless, "", 1)

	// Recipes in the catalog are written in French.
	r.alias("cuillère à café", "teaspoon")
	r.alias("cuillère à soupe", "tablespoon")
	r.alias("cuillères à café", "teaspoon")
	r.alias("cuillères à soupe", "tablespoon")
	r.alias("poignée", "handful")
	r.alias("poignées", "handful")
	r.alias("sachets", "sachet")

	return r
}

func (r *Registry) add(cat Category, name string, factor float64) {
	if _, ok := r.units[cat]; !ok {
		r.categories = append(r.categories, cat)
	}
	def := Definition{Name: name, Category: cat, FactorToBase: factor}
	r.units[cat] = append(r.units[cat], def)
	if name != "" {
		r.byName[name] = def
		r.folded[strings.ToLower(name)] = name
	}
}

func (r *Registry) alias(alias, canonical string) {
	r.aliases[strings.ToLower(alias)] = canonical
}

// Categories returns the categories in registration order.
func (r *Registry) Categories() []Category {
	out := make([]Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// Units returns the unit table for a category, smallest unit first.
func (r *Registry) Units(cat Category) []Definition {
	defs := r.units[cat]
	out := make([]Definition, len(defs))
	copy(out, defs)
	return out
}

// Canonical resolves an alias or a differently cased spelling ("ml") to its
// registered unit name. Unknown names are returned trimmed but otherwise untouched.
func (r *Registry) Canonical(name string) string {
	name = strings.TrimSpace(name)
	if _, ok := r.byName[name]; ok {
		return name
	}
	lower := strings.ToLower(name)
	if canonical, ok := r.aliases[lower]; ok {
		return canonical
	}
	if canonical, ok := r.folded[lower]; ok {
		return canonical
	}
	return name
}

func (r *Registry) lookup(name string) (Definition, bool) {
	def, ok := r.byName[r.Canonical(name)]
	return def, ok
}

// CategoryOf returns the category a unit belongs to. Empty and unknown names
// fall back to Unitless.
func (r *Registry) CategoryOf(name string) Category {
	if strings.TrimSpace(name) == "" {
		return Unitless
	}
	if def, ok := r.lookup(name); ok {
		return def.Category
	}
	return Unitless
}

// FactorToBase returns how many base units one unit of name equals.
// Every label that resolves to Unitless has factor 1; asking any category
// for a unit registered elsewhere fails with ErrUnitNotInCategory.
func (r *Registry) FactorToBase(cat Category, name string) (float64, error) {
	if cat == Unitless {
		if r.CategoryOf(name) != Unitless {
			return 0, fmt.Errorf("%w: %q is not %s", ErrUnitNotInCategory, name, cat)
		}
		return 1, nil
	}

	def, ok := r.lookup(name)
	if !ok || def.Category != cat {
		return 0, fmt.Errorf("%w: %q is not %s", ErrUnitNotInCategory, name, cat)
	}
	return def.FactorToBase, nil
}

// CategoryOf resolves name against the Default registry.
func CategoryOf(name string) Category {
	return Default.CategoryOf(name)
}

// FactorToBase resolves name against the Default registry.
func FactorToBase(cat Category, name string) (float64, error) {
	return Default.FactorToBase(cat, name)
}

// Canonical resolves aliases against the Default registry.
func Canonical(name string) string {
	return Default.Canonical(name)
}
