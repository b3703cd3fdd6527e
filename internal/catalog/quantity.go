package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/Veraticus/saucier/internal/common"
	"github.com/Veraticus/saucier/internal/units"
)

// ParseQuantity splits quantity text such as "200g", "2 L", "1,5 cuillère à
// soupe" or "4" into a number and a unit. Known unit names are canonicalized;
// any other suffix is kept as a free-text label.
func ParseQuantity(text string) (float64, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, "", fmt.Errorf("%w: empty quantity", common.ErrInvalidFormat)
	}

	end := 0
	for i, r := range text {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			end = i + len(string(r))
			continue
		}
		break
	}
	if end == 0 {
		return 0, "", fmt.Errorf("%w: quantity %q has no number", common.ErrInvalidFormat, text)
	}

	number := strings.ReplaceAll(text[:end], ",", ".")
	q, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: quantity %q: %v", common.ErrInvalidFormat, text, err)
	}

	unit := strings.TrimSpace(text[end:])
	if unit == "" {
		return q, "", nil
	}
	return q, units.Canonical(unit), nil
}
