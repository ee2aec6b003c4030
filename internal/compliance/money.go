package compliance

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a stored compensation value to dollars. Blank,
// unparseable and negative values clamp to zero; the result is rounded to
// cents.
func ParseAmount(raw string) float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	raw = strings.TrimPrefix(raw, "$")
	if raw == "" {
		return 0
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return 0
	}
	return d.Round(2).InexactFloat64()
}
