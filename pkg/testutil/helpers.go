// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/newsvendor/pkg/costing"
)

// FindResult finds the evaluation result for an order quantity.
// Returns a pointer to the result if found, nil otherwise.
func FindResult(results []costing.Result, quantity int) *costing.Result {
	for i := range results {
		if results[i].Quantity == quantity {
			return &results[i]
		}
	}
	return nil
}
