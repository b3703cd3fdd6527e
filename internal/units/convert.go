package units

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrCrossCategoryConversion is returned when converting between two real
	// categories, such as volume to mass.
	ErrCrossCategoryConversion = errors.New("can't convert across different unit categories")
	// ErrUnitNotInCategory is returned when a unit is asked for a factor in a
	// category it does not belong to.
	ErrUnitNotInCategory = errors.New("unit not in category")
)

// ConversionError carries the units involved in a rejected conversion.
type ConversionError struct {
	From         string
	To           string
	FromCategory Category
	ToCategory   Category
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: %q (%s) to %q (%s)",
		ErrCrossCategoryConversion, e.From, e.FromCategory, e.To, e.ToCategory)
}

// Is reports ErrCrossCategoryConversion as the sentinel of every ConversionError.
func (e *ConversionError) Is(target error) bool {
	return target == ErrCrossCategoryConversion
}

// Convert expresses quantity, given in from, in the to unit. A zero quantity
// short-circuits to 0 before any unit checks. The category check only fires
// when from belongs to a real category: a unitless source is accepted as a
// wildcard. Results are not rounded.
func (r *Registry) Convert(quantity float64, from, to string) (float64, error) {
	if quantity == 0 || math.IsNaN(quantity) {
		return 0, nil
	}

	cat := r.CategoryOf(from)
	if toCat := r.CategoryOf(to); cat != Unitless && toCat != cat {
		return 0, &ConversionError{From: from, To: to, FromCategory: cat, ToCategory: toCat}
	}

	fromFactor, err := r.FactorToBase(cat, from)
	if err != nil {
		return 0, err
	}
	toFactor, err := r.FactorToBase(cat, to)
	if err != nil {
		return 0, err
	}

	return quantity * fromFactor / toFactor, nil
}

// ToBase expresses quantity in the base unit of unit's category.
func (r *Registry) ToBase(quantity float64, unit string) (float64, Category, error) {
	cat := r.CategoryOf(unit)
	factor, err := r.FactorToBase(cat, unit)
	if err != nil {
		return 0, cat, err
	}
	return quantity * factor, cat, nil
}

// PickBestUnit chooses the unit of cat that shows baseQuantity most readably:
// the largest unit whose value rounds to a non-zero whole number at two
// decimals. When none does, the smallest unit is used. Unitless always yields "".
func (r *Registry) PickBestUnit(baseQuantity float64, cat Category) string {
	defs := r.units[cat]
	if len(defs) == 0 {
		return ""
	}

	candidates := make([]Definition, len(defs))
	copy(candidates, defs)

	// Ascending by displayed number, then reversed so the smallest unit comes
	// first. Ties (a zero quantity) therefore end up in reverse table order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return baseQuantity/candidates[i].FactorToBase < baseQuantity/candidates[j].FactorToBase
	})
	for i, j := 0, len(candidates)-1; i < j; i, j = i+1, j-1 {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	best := candidates[0].Name
	for _, def := range candidates {
		shown := Round2(baseQuantity / def.FactorToBase)
		// A non-zero quantity that rounds down to 0 is not a readable value.
		if isWhole(shown) && (shown != 0 || baseQuantity == 0) {
			best = def.Name
		}
	}
	return best
}

// Round2 rounds q to two decimals, the precision quantities are shown with.
func Round2(q float64) float64 {
	return math.Round(q*100) / 100
}

func isWhole(q float64) bool {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return false
	}
	return q == math.Trunc(q)
}

// Convert uses the Default registry.
func Convert(quantity float64, from, to string) (float64, error) {
	return Default.Convert(quantity, from, to)
}

// PickBestUnit uses the Default registry.
func PickBestUnit(baseQuantity float64, cat Category) string {
	return Default.PickBestUnit(baseQuantity, cat)
}
