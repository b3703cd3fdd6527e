package units

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		unit string
		want Category
	}{
		{name: "milliliter", unit: "mL", want: Volume},
		{name: "liter", unit: "L", want: Volume},
		{name: "lowercase spelling", unit: "ml", want: Volume},
		{name: "french tablespoon", unit: "cuillère à soupe", want: Volume},
		{name: "gram", unit: "g", want: Mass},
		{name: "french handful", unit: "poignée", want: Mass},
		{name: "sachet", unit: "sachet", want: SachetCount},
		{name: "empty", unit: "", want: Unitless},
		{name: "blank", unit: "   ", want: Unitless},
		{name: "unknown label", unit: "pincée", want: Unitless},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryOf(tt.unit))
		})
	}
}

func TestFactorToBase(t *testing.T) {
	factor, err := FactorToBase(Volume, "tablespoon")
	require.NoError(t, err)
	assert.InDelta(t, 0.015, factor, 1e-12)

	factor, err = FactorToBase(Mass, "kg")
	require.NoError(t, err)
	assert.InDelta(t, 1000, factor, 1e-12)

	factor, err = FactorToBase(Unitless, "pincée")
	require.NoError(t, err)
	assert.InDelta(t, 1, factor, 1e-12)

	_, err = FactorToBase(Mass, "mL")
	assert.ErrorIs(t, err, ErrUnitNotInCategory)

	_, err = FactorToBase(Unitless, "g")
	assert.ErrorIs(t, err, ErrUnitNotInCategory)
}

func TestUnitsOrderedSmallestFirst(t *testing.T) {
	names := func(defs []Definition) []string {
		out := make([]string, 0, len(defs))
		for _, d := range defs {
			out = append(out, d.Name)
		}
		return out
	}

	assert.Equal(t, []string{"mL", "teaspoon", "cL", "tablespoon", "dL", "L"}, names(Default.Units(Volume)))
	assert.Equal(t, []string{"mg", "g", "handful", "kg"}, names(Default.Units(Mass)))
	assert.Equal(t, []string{"sachet"}, names(Default.Units(SachetCount)))
	assert.Equal(t, []string{""}, names(Default.Units(Unitless)))
	assert.Equal(t, []Category{Volume, Mass, SachetCount, Unitless}, Default.Categories())
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		from     string
		to       string
		quantity float64
		want     float64
	}{
		{name: "mL to L", quantity: 1000, from: "mL", to: "L", want: 1},
		{name: "L to cL", quantity: 1.5, from: "L", to: "cL", want: 150},
		{name: "tablespoon to teaspoon", quantity: 1, from: "tablespoon", to: "teaspoon", want: 3},
		{name: "kg to g", quantity: 0.25, from: "kg", to: "g", want: 250},
		{name: "handful to g", quantity: 2, from: "poignée", to: "g", want: 60},
		{name: "identity", quantity: 7.3, from: "dL", to: "dL", want: 7.3},
		{name: "unitless identity", quantity: 3, from: "", to: "", want: 3},
		{name: "unknown label to empty", quantity: 3, from: "pincée", to: "", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.quantity, tt.from, tt.to)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestConvertZeroShortCircuits(t *testing.T) {
	pairs := [][2]string{
		{"mL", "g"},
		{"g", "sachet"},
		{"", "kg"},
		{"L", "L"},
	}
	for _, p := range pairs {
		got, err := Convert(0, p[0], p[1])
		require.NoError(t, err, "%s -> %s", p[0], p[1])
		assert.Zero(t, got)
	}
}

func TestConvertCrossCategory(t *testing.T) {
	for _, q := range []float64{1, 0.5, 250} {
		_, err := Convert(q, "mL", "g")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCrossCategoryConversion)

		var convErr *ConversionError
		require.True(t, errors.As(err, &convErr))
		assert.Equal(t, Volume, convErr.FromCategory)
		assert.Equal(t, Mass, convErr.ToCategory)
	}

	// A real category converted into a free-text label is rejected too.
	_, err := Convert(2, "sachet", "")
	assert.ErrorIs(t, err, ErrCrossCategoryConversion)
}

func TestConvertUnitlessSourceIsNotCrossCategory(t *testing.T) {
	// Only a real source category triggers the cross-category check; the
	// unitless source instead fails on the missing factor.
	_, err := Convert(2, "", "g")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCrossCategoryConversion)
	assert.ErrorIs(t, err, ErrUnitNotInCategory)
}

func TestConvertComposes(t *testing.T) {
	for _, cat := range []Category{Volume, Mass} {
		defs := Default.Units(cat)
		for _, u := range defs {
			for _, v := range defs {
				for _, w := range defs {
					q := 3.7
					uv, err := Convert(q, u.Name, v.Name)
					require.NoError(t, err)
					uvw, err := Convert(uv, v.Name, w.Name)
					require.NoError(t, err)
					uw, err := Convert(q, u.Name, w.Name)
					require.NoError(t, err)
					assert.InEpsilon(t, uw, uvw, 1e-9, "%s -> %s -> %s", u.Name, v.Name, w.Name)
				}
			}
		}
	}
}

func TestPickBestUnit(t *testing.T) {
	tests := []struct {
		name string
		cat  Category
		want string
		base float64
	}{
		{name: "one liter", base: 1, cat: Volume, want: "L"},
		{name: "four liters", base: 4, cat: Volume, want: "L"},
		{name: "half liter", base: 0.5, cat: Volume, want: "dL"},
		{name: "one tablespoon", base: 0.015, cat: Volume, want: "tablespoon"},
		{name: "two teaspoons", base: 0.01, cat: Volume, want: "cL"},
		{name: "awkward volume", base: 0.0123, cat: Volume, want: "mL"},
		{name: "one milligram", base: 0.001, cat: Mass, want: "mg"},
		{name: "grams", base: 250, cat: Mass, want: "g"},
		{name: "handfuls", base: 60, cat: Mass, want: "handful"},
		{name: "kilograms", base: 2000, cat: Mass, want: "kg"},
		{name: "fraction of a milligram", base: 0.0001234, cat: Mass, want: "mg"},
		{name: "zero quantity keeps reverse table order", base: 0, cat: Mass, want: "mg"},
		{name: "sachets", base: 3, cat: SachetCount, want: "sachet"},
		{name: "unitless", base: 12, cat: Unitless, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PickBestUnit(tt.base, tt.cat))
		})
	}
}

func TestRound2(t *testing.T) {
	assert.InDelta(t, 66.67, Round2(200.0/3), 1e-12)
	assert.InDelta(t, 0.0, Round2(0.001), 1e-12)
	assert.InDelta(t, 1.0, Round2(0.999), 1e-12)
}

func TestToBase(t *testing.T) {
	base, cat, err := Default.ToBase(250, "mL")
	require.NoError(t, err)
	assert.Equal(t, Volume, cat)
	assert.InDelta(t, 0.25, base, 1e-12)
}
