package simulation

import (
	"errors"
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/iwvelando/newsvendor/internal/config"
	"github.com/iwvelando/newsvendor/pkg/constants"
	"github.com/iwvelando/newsvendor/pkg/costing"
	"github.com/iwvelando/newsvendor/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var empiricalDemand = []float64{80, 95, 110, 130, 85, 90, 105, 125, 100, 115, 140, 75, 120, 135, 145, 70, 100, 110}

func baseConfiguration(seed int64) config.Configuration {
	return config.Configuration{
		Costs:      costing.CostModel{UnitCost: 5, SellingPrice: 10, StockoutCostPerUnit: 3, ExcessCostPerUnit: 2},
		Demand:     config.DemandConfig{Observations: empiricalDemand},
		Simulation: config.SimulationConfig{Count: 1000, Seed: &seed},
		Quantities: config.QuantitiesConfig{Values: []int{50, 100, 110, 150, 200}},
	}
}

func TestRun(t *testing.T) {
	conf := baseConfiguration(0)

	report, err := Run(zaptest.NewLogger(t), conf)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Seed != 0 {
		t.Errorf("Seed = %d, expected 0", report.Seed)
	}
	if report.Simulations != 1000 {
		t.Errorf("Simulations = %d, expected 1000", report.Simulations)
	}
	if len(report.Results) != len(conf.Quantities.Values) {
		t.Fatalf("expected %d results, got %d", len(conf.Quantities.Values), len(report.Results))
	}

	best := report.Results[report.Optimum.Index]
	for i, r := range report.Results {
		if r.Quantity != conf.Quantities.Values[i] {
			t.Errorf("result %d has quantity %d, expected %d", i, r.Quantity, conf.Quantities.Values[i])
		}
		identity := r.TotalRevenue - r.TotalCost - r.TotalStockoutCost - r.TotalExcessCost
		if r.TotalProfit != identity {
			t.Errorf("quantity %d: profit %v does not match components %v", r.Quantity, r.TotalProfit, identity)
		}
		if r.TotalProfit > best.TotalProfit {
			t.Errorf("quantity %d beats the reported optimum %d", r.Quantity, best.Quantity)
		}
	}

	if report.Distribution.Total != 1000 {
		t.Errorf("distribution total = %d, expected 1000", report.Distribution.Total)
	}
	if err := report.Distribution.Validate(); err != nil {
		t.Errorf("distribution invalid: %v", err)
	}
	if report.Diagnostic.OptimalQuantity != report.Optimum.OptimalQuantity {
		t.Errorf("diagnostic quantity %d differs from optimum %d", report.Diagnostic.OptimalQuantity, report.Optimum.OptimalQuantity)
	}
	if report.Diagnostic.CDFAtOptimal < 0 || report.Diagnostic.CDFAtOptimal > 1 {
		t.Errorf("CDFAtOptimal = %v is not a probability", report.Diagnostic.CDFAtOptimal)
	}
	if !report.CrossCheck.Defined || math.Abs(report.CrossCheck.CriticalRatio-8.0/15.0) > 1e-12 {
		t.Errorf("unexpected cross-check %+v", report.CrossCheck)
	}
	if report.Refinement != nil {
		t.Errorf("expected no refinement without configuration")
	}
	if len(report.Warnings) == 0 {
		t.Errorf("expected warnings for candidates outside the observed demand range")
	}
}

func TestRunReproducible(t *testing.T) {
	first, err := Run(zap.NewNop(), baseConfiguration(42))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := Run(zap.NewNop(), baseConfiguration(42))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !reflect.DeepEqual(first.Results, second.Results) {
		t.Errorf("identical seeds produced different results")
	}
	if !reflect.DeepEqual(first.Distribution, second.Distribution) {
		t.Errorf("identical seeds produced different distributions")
	}
	if first.Optimum != second.Optimum {
		t.Errorf("identical seeds produced different optima: %+v vs %+v", first.Optimum, second.Optimum)
	}
}

func TestRunWorkerCountDoesNotChangeResults(t *testing.T) {
	sequential := baseConfiguration(9)
	sequential.Simulation.Workers = 1
	parallel := baseConfiguration(9)
	parallel.Simulation.Workers = 8

	a, err := Run(nil, sequential)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	b, err := Run(nil, parallel)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !reflect.DeepEqual(a.Results, b.Results) {
		t.Errorf("worker count changed the results table")
	}
}

func TestRunFreshSeed(t *testing.T) {
	conf := baseConfiguration(0)
	conf.Simulation.Seed = nil

	report, err := Run(nil, conf)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	seed := report.Seed
	conf.Simulation.Seed = &seed
	replay, err := Run(nil, conf)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !reflect.DeepEqual(report.Results, replay.Results) {
		t.Errorf("replaying reported seed %d did not reproduce the run", seed)
	}
}

// Doubling the number of draws must not move the optimum by more than one
// candidate step.
func TestRunScaleStability(t *testing.T) {
	for _, seed := range []int64{0, 1, 2, 3, 4, 5, 6, 7} {
		small := baseConfiguration(seed)
		large := baseConfiguration(seed)
		large.Simulation.Count = 2 * small.Simulation.Count

		a, err := Run(nil, small)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		b, err := Run(nil, large)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		sorted := append([]int(nil), small.Quantities.Values...)
		sort.Ints(sorted)
		ia := sort.SearchInts(sorted, a.Optimum.OptimalQuantity)
		ib := sort.SearchInts(sorted, b.Optimum.OptimalQuantity)
		if ia-ib > 1 || ib-ia > 1 {
			t.Errorf("seed %d: optimum moved from %d to %d when doubling draws",
				seed, a.Optimum.OptimalQuantity, b.Optimum.OptimalQuantity)
		}
	}
}

func TestRunWithRefinement(t *testing.T) {
	conf := baseConfiguration(0)
	conf.Quantities = config.QuantitiesConfig{Range: &config.RangeConfig{Min: 60, Max: 160, Step: 20}}
	conf.Refinement = &config.RefinementConfig{Enabled: true}

	report, err := Run(zaptest.NewLogger(t), conf)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Refinement == nil {
		t.Fatalf("expected a refinement summary")
	}
	if report.Refinement.Original != report.Optimum.OptimalQuantity {
		t.Errorf("refinement started from %d, grid optimum is %d", report.Refinement.Original, report.Optimum.OptimalQuantity)
	}
	if report.Refinement.Profit < report.Optimum.OptimalProfit {
		t.Errorf("refined profit %v is below the grid optimum %v", report.Refinement.Profit, report.Optimum.OptimalProfit)
	}
	if !report.Refinement.Converged {
		t.Errorf("expected refinement to converge, notes: %v", report.Refinement.Notes)
	}
	if len(report.Results) != 6 {
		t.Errorf("refinement must not extend the grid results, got %d", len(report.Results))
	}
}

func TestRunInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Configuration)
	}{
		{"Empty dataset", func(c *config.Configuration) { c.Demand.Observations = nil }},
		{"Zero simulations", func(c *config.Configuration) { c.Simulation.Count = 0 }},
		{"No candidates", func(c *config.Configuration) { c.Quantities.Values = nil }},
		{"Negative cost", func(c *config.Configuration) { c.Costs.ExcessCostPerUnit = -1 }},
		{"Negative observation", func(c *config.Configuration) { c.Demand.Observations = []float64{10, -1} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := baseConfiguration(0)
			tt.mutate(&conf)
			report, err := Run(nil, conf)
			if !errors.Is(err, validation.ErrInvalidInput) {
				t.Errorf("expected invalid input error, got %v", err)
			}
			if report != nil {
				t.Errorf("expected no report on invalid input")
			}
		})
	}
}

func TestRunDefaultSimulations(t *testing.T) {
	conf := baseConfiguration(3)
	conf.Simulation.Count = constants.DefaultSimulations

	report, err := Run(nil, conf)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for _, r := range report.Results {
		if r.Draws != constants.DefaultSimulations {
			t.Errorf("quantity %d folded %d draws, expected %d", r.Quantity, r.Draws, constants.DefaultSimulations)
		}
	}
}
