// Package costing evaluates the revenue, cost and profit of an order
// quantity against a resampled demand sequence.
package costing

import (
	"github.com/iwvelando/newsvendor/pkg/validation"
)

// CostModel holds the per-unit economics of a single-period order.
// SellingPrice is expected to be at least UnitCost for the problem to be
// economically meaningful; that is reported as a configuration warning
// rather than enforced here.
type CostModel struct {
	UnitCost            float64 `json:"unitCost" yaml:"unitCost" mapstructure:"unitCost"`
	SellingPrice        float64 `json:"sellingPrice" yaml:"sellingPrice" mapstructure:"sellingPrice"`
	StockoutCostPerUnit float64 `json:"stockoutCostPerUnit" yaml:"stockoutCostPerUnit" mapstructure:"stockoutCostPerUnit"`
	ExcessCostPerUnit   float64 `json:"excessCostPerUnit" yaml:"excessCostPerUnit" mapstructure:"excessCostPerUnit"`
}

// Validate rejects negative or non-finite cost parameters.
func (m CostModel) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"costs.unitCost", m.UnitCost},
		{"costs.sellingPrice", m.SellingPrice},
		{"costs.stockoutCostPerUnit", m.StockoutCostPerUnit},
		{"costs.excessCostPerUnit", m.ExcessCostPerUnit},
	}
	for _, f := range fields {
		if err := validation.NonNegative(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// UnderageCost is the profit lost per unit of unmet demand.
func (m CostModel) UnderageCost() float64 {
	return m.SellingPrice - m.UnitCost + m.StockoutCostPerUnit
}

// OverageCost is the loss per unsold unit.
func (m CostModel) OverageCost() float64 {
	return m.UnitCost + m.ExcessCostPerUnit
}
