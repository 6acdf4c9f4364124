// Package mathutil provides common mathematical utility functions.
package mathutil

import "math"

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Min returns the minimum of two float64 values
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// PositivePart returns max(0, v).
func PositivePart(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}
