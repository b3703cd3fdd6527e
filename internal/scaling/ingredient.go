package scaling

import (
	"fmt"
	"math"

	"github.com/Veraticus/saucier/internal/units"
)

// Ingredient is one reactive line of a recipe view. It listens for
// ProportionUpdated on its session's bus and rescales itself.
type Ingredient struct {
	session     *Session
	unsubscribe func()
	name        string
	unit        string
	quantity    float64
	original    float64
	index       int
	isFactor    bool
}

// Name returns the ingredient name.
func (ing *Ingredient) Name() string {
	return ing.name
}

// Index returns the position of the ingredient in its session.
func (ing *Ingredient) Index() int {
	return ing.index
}

// IsFactor reports whether this is the factor pseudo-ingredient.
func (ing *Ingredient) IsFactor() bool {
	return ing.isFactor
}

// Quantity returns the current, unrounded quantity.
func (ing *Ingredient) Quantity() float64 {
	return ing.quantity
}

// DisplayQuantity returns the quantity rounded to two decimals.
func (ing *Ingredient) DisplayQuantity() float64 {
	return units.Round2(ing.quantity)
}

// OriginalQuantity returns the quantity the recipe was loaded with, expressed
// in the current unit.
func (ing *Ingredient) OriginalQuantity() float64 {
	return ing.original
}

// Unit returns the current unit name.
func (ing *Ingredient) Unit() string {
	return ing.unit
}

// Category returns the category of the current unit.
func (ing *Ingredient) Category() units.Category {
	return ing.session.registry.CategoryOf(ing.unit)
}

// UnitChoices lists the units the ingredient may switch to. Unitless
// ingredients have none.
func (ing *Ingredient) UnitChoices() []string {
	cat := ing.Category()
	if cat == units.Unitless {
		return nil
	}
	defs := ing.session.registry.Units(cat)
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Name)
	}
	return out
}

// SetQuantity records a user edit. Unless the session is broadcasting, the
// edit derives a new factor from quantity/original and notifies every other
// ingredient. A zero original quantity disables scaling for the edit.
func (ing *Ingredient) SetQuantity(q float64) error {
	if q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidQuantity, q)
	}
	ing.assignQuantity(q)
	return nil
}

func (ing *Ingredient) assignQuantity(q float64) {
	ing.quantity = q
	ing.session.quantityEdited(ing)
}

// SetOriginalQuantity replaces the reference quantity. It does not rescale.
func (ing *Ingredient) SetOriginalQuantity(q float64) error {
	if q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidQuantity, q)
	}
	ing.original = q
	return nil
}

// SetUnit re-expresses the current and original quantities in unit. The
// factor is left untouched. Conversions that cannot be made fail before
// anything changes. The target must share the current unit's category even
// when both quantities are zero.
func (ing *Ingredient) SetUnit(unit string) error {
	reg := ing.session.registry
	unit = reg.Canonical(unit)
	if unit == ing.unit {
		return nil
	}

	from, to := reg.CategoryOf(ing.unit), reg.CategoryOf(unit)
	switch {
	case from == to:
	case from == units.Unitless:
		return fmt.Errorf("converting %s: %w: %q is not %s", ing.name, units.ErrUnitNotInCategory, unit, from)
	default:
		return fmt.Errorf("converting %s: %w", ing.name,
			&units.ConversionError{From: ing.unit, To: unit, FromCategory: from, ToCategory: to})
	}

	original, err := reg.Convert(ing.original, ing.unit, unit)
	if err != nil {
		return fmt.Errorf("converting %s: %w", ing.name, err)
	}
	current, err := reg.Convert(ing.quantity, ing.unit, unit)
	if err != nil {
		return fmt.Errorf("converting %s: %w", ing.name, err)
	}

	ing.unit = unit
	ing.original = original
	ing.quantity = current
	return nil
}

// OnProportionUpdated rescales the ingredient to original × factor and picks
// the most readable unit for the result.
func (ing *Ingredient) OnProportionUpdated(ev ProportionUpdated) {
	ing.assignQuantity(ing.original * ev.Factor)
	ing.renormalize()
}

// renormalize switches to the best unit of the current category. Free-text
// labels of unitless ingredients are kept as they are.
func (ing *Ingredient) renormalize() {
	reg := ing.session.registry
	cat := reg.CategoryOf(ing.unit)
	if cat == units.Unitless {
		return
	}

	base, _, err := reg.ToBase(ing.quantity, ing.unit)
	if err != nil {
		ing.session.log.Warn("cannot normalize unit", "ingredient", ing.name, "unit", ing.unit, "error", err)
		return
	}
	if err := ing.SetUnit(reg.PickBestUnit(base, cat)); err != nil {
		ing.session.log.Warn("cannot normalize unit", "ingredient", ing.name, "unit", ing.unit, "error", err)
	}
}
