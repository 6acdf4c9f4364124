package demand

import (
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/newsvendor/pkg/constants"
	"github.com/iwvelando/newsvendor/pkg/mathutil"
	"github.com/iwvelando/newsvendor/pkg/validation"
)

// Point is one distinct observed demand value of an empirical distribution.
type Point struct {
	Value       float64 `json:"value"`
	Count       int     `json:"count"`
	Probability float64 `json:"probability"`
	Cumulative  float64 `json:"cumulative"`
}

// Percentage returns the point probability expressed in percent.
func (p Point) Percentage() float64 {
	return p.Probability * constants.PercentageMultiplier
}

// Distribution is the empirical PMF and CDF of a sample, one Point per
// distinct value in ascending order.
type Distribution struct {
	Points []Point `json:"points"`
	Total  int     `json:"total"`
}

// Estimate groups samples by distinct value and derives the probability
// mass and cumulative probability of each value. No binning is applied.
func Estimate(samples []float64) (Distribution, error) {
	if len(samples) == 0 {
		return Distribution{}, validation.NewInvalidInput("samples", "cannot estimate a distribution from an empty sample")
	}

	counts := make(map[float64]int)
	for _, d := range samples {
		counts[d]++
	}

	values := make([]float64, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Float64s(values)

	n := float64(len(samples))
	points := make([]Point, len(values))
	running := 0
	for i, v := range values {
		running += counts[v]
		points[i] = Point{
			Value:       v,
			Count:       counts[v],
			Probability: float64(counts[v]) / n,
			// prefix count over N keeps the final point at exactly 1
			Cumulative: float64(running) / n,
		}
	}

	return Distribution{Points: points, Total: len(samples)}, nil
}

// Values returns the distinct observed values in ascending order.
func (d Distribution) Values() []float64 {
	values := make([]float64, len(d.Points))
	for i, p := range d.Points {
		values[i] = p.Value
	}
	return values
}

// Probabilities returns the PMF aligned with Values.
func (d Distribution) Probabilities() []float64 {
	probs := make([]float64, len(d.Points))
	for i, p := range d.Points {
		probs[i] = p.Probability
	}
	return probs
}

// Cumulative returns the CDF aligned with Values.
func (d Distribution) Cumulative() []float64 {
	cdf := make([]float64, len(d.Points))
	for i, p := range d.Points {
		cdf[i] = p.Cumulative
	}
	return cdf
}

// Counts returns the occurrence counts aligned with Values.
func (d Distribution) Counts() []float64 {
	counts := make([]float64, len(d.Points))
	for i, p := range d.Points {
		counts[i] = float64(p.Count)
	}
	return counts
}

// CDFAt returns P(D <= x) by linear interpolation between the two nearest
// observed values. Below the smallest value it returns that value's
// cumulative probability; above the largest it returns 1.
func (d Distribution) CDFAt(x float64) float64 {
	return mathutil.Interp(x, d.Values(), d.Cumulative())
}

// Validate checks that probabilities sum to one and that the cumulative
// probability is non-decreasing and ends at one.
func (d Distribution) Validate() error {
	if len(d.Points) == 0 {
		return fmt.Errorf("distribution has no points")
	}

	sum := 0.0
	previous := math.Inf(-1)
	for i, p := range d.Points {
		if i > 0 && p.Value <= d.Points[i-1].Value {
			return fmt.Errorf("distribution values not strictly ascending at index %d", i)
		}
		if p.Cumulative < previous {
			return fmt.Errorf("cumulative probability decreases at value %v", p.Value)
		}
		previous = p.Cumulative
		sum += p.Probability
	}

	if !mathutil.WithinTolerance(sum, 1, constants.ProbabilityTolerance) {
		return fmt.Errorf("probabilities sum to %v, expected 1", sum)
	}
	last := d.Points[len(d.Points)-1].Cumulative
	if !mathutil.WithinTolerance(last, 1, constants.ProbabilityTolerance) {
		return fmt.Errorf("cumulative probability ends at %v, expected 1", last)
	}
	return nil
}
