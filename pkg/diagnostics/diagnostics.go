// Package diagnostics cross-references an optimal order quantity against the
// empirical demand distribution it was derived from.
package diagnostics

import (
	"fmt"

	"github.com/iwvelando/newsvendor/pkg/costing"
	"github.com/iwvelando/newsvendor/pkg/demand"
	"gonum.org/v1/gonum/stat"
)

// Diagnostic describes where the optimal quantity sits in the demand distribution.
type Diagnostic struct {
	OptimalQuantity int     `json:"optimalQuantity"`
	CDFAtOptimal    float64 `json:"cdfAtOptimal"`
	MeanDemand      float64 `json:"meanDemand"`
	StdDevDemand    float64 `json:"stdDevDemand"`
	MinDemand       float64 `json:"minDemand"`
	MaxDemand       float64 `json:"maxDemand"`
}

// CriticalCheck compares the analytical critical ratio with the empirical
// demand quantile at that service level.
type CriticalCheck struct {
	Defined          bool    `json:"defined"`
	UnderageCost     float64 `json:"underageCost"`
	OverageCost      float64 `json:"overageCost"`
	CriticalRatio    float64 `json:"criticalRatio"`
	CriticalQuantile float64 `json:"criticalQuantile"`
}

// Diagnose reports P(D <= optimalQ), linearly interpolated between the
// nearest observed demand values, along with summary statistics of the
// distribution.
func Diagnose(dist demand.Distribution, optimalQ int) (Diagnostic, error) {
	if len(dist.Points) == 0 {
		return Diagnostic{}, fmt.Errorf("cannot diagnose against an empty distribution")
	}

	values := dist.Values()
	weights := dist.Counts()

	diag := Diagnostic{
		OptimalQuantity: optimalQ,
		CDFAtOptimal:    dist.CDFAt(float64(optimalQ)),
		MinDemand:       values[0],
		MaxDemand:       values[len(values)-1],
	}
	if dist.Total < 2 {
		// weighted variance divides by total-1
		diag.MeanDemand = stat.Mean(values, weights)
		return diag, nil
	}
	diag.MeanDemand, diag.StdDevDemand = stat.MeanStdDev(values, weights)
	return diag, nil
}

// CrossCheck computes the critical ratio cu/(cu+co) of the cost model and
// the smallest observed demand whose empirical CDF reaches it. The check is
// left undefined when cu+co is not positive.
func CrossCheck(dist demand.Distribution, model costing.CostModel) (CriticalCheck, error) {
	if len(dist.Points) == 0 {
		return CriticalCheck{}, fmt.Errorf("cannot cross-check against an empty distribution")
	}
	if err := model.Validate(); err != nil {
		return CriticalCheck{}, err
	}

	check := CriticalCheck{
		UnderageCost: model.UnderageCost(),
		OverageCost:  model.OverageCost(),
	}
	denominator := check.UnderageCost + check.OverageCost
	if denominator <= 0 {
		return check, nil
	}

	ratio := check.UnderageCost / denominator
	switch {
	case ratio < 0:
		ratio = 0
	case ratio > 1:
		ratio = 1
	}

	check.Defined = true
	check.CriticalRatio = ratio
	check.CriticalQuantile = stat.Quantile(ratio, stat.Empirical, dist.Values(), dist.Probabilities())
	return check, nil
}
