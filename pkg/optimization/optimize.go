package optimization

import (
	"errors"

	"github.com/iwvelando/newsvendor/pkg/costing"
)

// ErrEmptyResultSet matches every *EmptyResultSetError via errors.Is.
var ErrEmptyResultSet = errors.New("empty result set")

// EmptyResultSetError is returned when there is nothing to optimize over,
// which only happens if the candidate set validation was bypassed.
type EmptyResultSetError struct{}

func (e *EmptyResultSetError) Error() string {
	return "cannot optimize over an empty set of evaluation results"
}

// Is lets errors.Is(err, ErrEmptyResultSet) match.
func (e *EmptyResultSetError) Is(target error) bool {
	return target == ErrEmptyResultSet
}

// Result is the most profitable order quantity of an evaluation table.
type Result struct {
	OptimalQuantity int     `json:"optimalQuantity"`
	OptimalProfit   float64 `json:"optimalProfit"`
	ExpectedProfit  float64 `json:"expectedProfit"`
	Index           int     `json:"index"`
}

// Optimize returns the result with the strictly largest total profit. Only
// identical totals tie, and ties go to the earliest result in input order.
// Totals are deterministic folds over one sample, so exact comparison is
// stable across runs and worker counts.
func Optimize(results []costing.Result) (Result, error) {
	if len(results) == 0 {
		return Result{}, &EmptyResultSetError{}
	}

	best := 0
	for i := 1; i < len(results); i++ {
		if results[i].TotalProfit > results[best].TotalProfit {
			best = i
		}
	}

	return Result{
		OptimalQuantity: results[best].Quantity,
		OptimalProfit:   results[best].TotalProfit,
		ExpectedProfit:  results[best].ExpectedProfit(),
		Index:           best,
	}, nil
}
