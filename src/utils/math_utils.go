package utils

import "math"

// MinInt returns the smaller of two integers.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// ProRataFee returns the share of a total fee attributable to part units out
// of whole, rounded to the smallest currency subunit. Callers consuming the
// last slice must take the unallocated remainder instead, so the per-slice
// allocations sum to the total exactly.
func ProRataFee(total float64, part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return RoundFloat(total*float64(part)/float64(whole), 2)
}
