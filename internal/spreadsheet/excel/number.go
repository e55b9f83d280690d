package excel

import (
	"math"
	"strconv"
)

// maxExactNumber bounds numbers stored as numeric cells; larger values come
// back from Excel in exponent notation.
const maxExactNumber = 1e15

// parseNumber reports whether s is the canonical text of a number, so that
// storing it as a numeric cell reads back as the same text. "007", "1.50",
// "1e3" and "+5" stay strings.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= maxExactNumber {
		return 0, false
	}
	if strconv.FormatFloat(v, 'f', -1, 64) != s {
		return 0, false
	}
	return v, true
}
