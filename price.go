package tcgscrape

import (
	"math"
	"strings"
	"unicode"

	"github.com/spf13/cast"
)

// NormalizePrice turns a raw price string into a non-negative number.
// Currency symbols, spaces and thousands separators are dropped, "N/A"
// counts as zero and anything left that is not a number gives 0.
func NormalizePrice(raw string) float64 {
	cleaned := strings.ReplaceAll(raw, "N/A", "0")
	cleaned = strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}

		return r
	}, cleaned)

	if cleaned == "" {
		return 0
	}

	v, err := cast.ToFloat64E(cleaned)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}

	return v
}
