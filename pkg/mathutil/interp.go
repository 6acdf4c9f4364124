package mathutil

import "sort"

// Interp returns the piecewise-linear interpolant of the points (xs, ys)
// evaluated at x. xs must be strictly increasing and the same length as ys.
// Values of x outside [xs[0], xs[len-1]] take the nearest endpoint's y.
// Interp returns 0 when no points are given.
func Interp(x float64, xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || len(ys) < n {
		return 0
	}
	if x <= xs[0] {
		return ys[0]
	}
	if x >= xs[n-1] {
		return ys[n-1]
	}

	// first index with xs[i] > x; 1 <= i <= n-1 here
	i := sort.Search(n, func(i int) bool { return xs[i] > x })
	x0, x1 := xs[i-1], xs[i]
	y0, y1 := ys[i-1], ys[i]
	if x == x0 {
		return y0
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}
