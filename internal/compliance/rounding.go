package compliance

import "math"

// round1 rounds half up to one decimal place.
func round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// ratioPercent1 returns num/den as a percentage with one decimal, or 100
// when den is zero.
func ratioPercent1(num, den int) float64 {
	if den == 0 {
		return 100
	}
	return math.Floor(float64(num)*1000/float64(den)+0.5) / 10
}

// ratioPercent returns num/den as a whole percentage, or 100 when den is zero.
func ratioPercent(num, den int) int {
	if den == 0 {
		return 100
	}
	return int(math.Floor(float64(num)*100/float64(den) + 0.5))
}
