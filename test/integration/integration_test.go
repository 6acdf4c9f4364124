package integration

import (
	"math"
	"strings"
	"testing"

	"github.com/iwvelando/newsvendor/internal/config"
	"github.com/iwvelando/newsvendor/internal/simulation"
	"github.com/iwvelando/newsvendor/pkg/output"
	"github.com/iwvelando/newsvendor/pkg/testutil"
	"go.uber.org/zap"
)

const testConfigPath = "../test_config.yaml"

func loadTestConfig(t *testing.T) *config.Configuration {
	t.Helper()
	conf, err := config.LoadConfiguration(testConfigPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	return conf
}

func runTestConfig(t *testing.T, conf *config.Configuration) *simulation.Report {
	t.Helper()
	report, err := simulation.Run(zap.NewNop(), *conf)
	if err != nil {
		t.Fatalf("simulation.Run() error = %v", err)
	}
	return report
}

// TestMainIntegration runs the test configuration exactly as main() does and
// checks the properties every report must satisfy.
func TestMainIntegration(t *testing.T) {
	conf := loadTestConfig(t)
	report := runTestConfig(t, conf)

	expectedQuantities := []int{50, 100, 110, 150, 200}
	if len(report.Results) != len(expectedQuantities) {
		t.Fatalf("expected %d results, got %d", len(expectedQuantities), len(report.Results))
	}
	for i, q := range expectedQuantities {
		if report.Results[i].Quantity != q {
			t.Errorf("result %d: quantity %d, expected %d", i, report.Results[i].Quantity, q)
		}
	}

	for _, r := range report.Results {
		if r.Draws != 1000 {
			t.Errorf("quantity %d: %d draws, expected 1000", r.Quantity, r.Draws)
		}
		if r.TotalProfit != r.TotalRevenue-r.TotalCost-r.TotalStockoutCost-r.TotalExcessCost {
			t.Errorf("quantity %d violates the profit identity", r.Quantity)
		}
		if r.TotalProfit > report.Optimum.OptimalProfit {
			t.Errorf("quantity %d has profit above the optimum", r.Quantity)
		}
	}

	// Every draw comes from the dataset, so the smallest candidate always
	// stocks out and the largest never does.
	if r := testutil.FindResult(report.Results, 50); r == nil || r.StockoutDraws != r.Draws {
		t.Errorf("quantity 50 should stock out on every draw, got %+v", r)
	}
	if r := testutil.FindResult(report.Results, 200); r == nil || r.StockoutDraws != 0 || r.TotalStockoutCost != 0 {
		t.Errorf("quantity 200 should never stock out, got %+v", r)
	}

	if q := report.Optimum.OptimalQuantity; q != 100 && q != 110 {
		t.Errorf("optimal quantity %d is implausible for the critical ratio %.3f", q, report.CrossCheck.CriticalRatio)
	}

	dist := report.Distribution
	if err := dist.Validate(); err != nil {
		t.Errorf("distribution invalid: %v", err)
	}
	if last := dist.Points[len(dist.Points)-1].Cumulative; math.Abs(last-1) > 1e-9 {
		t.Errorf("final cumulative probability %v, expected 1", last)
	}
	observed := make(map[float64]bool)
	for _, d := range conf.Demand.Observations {
		observed[d] = true
	}
	for _, p := range dist.Points {
		if !observed[p.Value] {
			t.Errorf("distribution contains %v, which is not an observed demand", p.Value)
		}
	}

	if report.Refinement == nil || !report.Refinement.Converged {
		t.Errorf("expected a converged refinement summary, got %+v", report.Refinement)
	}
}

func TestOutputFormats(t *testing.T) {
	report := runTestConfig(t, loadTestConfig(t))

	csv := output.CsvString(report)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != len(report.Results)+1 {
		t.Fatalf("expected %d CSV lines, got %d", len(report.Results)+1, len(lines))
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, `"`) || !strings.HasSuffix(line, `"`) {
			t.Errorf("CSV line %d is not fully quoted: %s", i, line)
		}
		if got := strings.Count(line, `","`); got != 8 {
			t.Errorf("CSV line %d has %d separators, expected 8", i, got)
		}
	}
	if strings.Count(csv, `"true"`) != 1 {
		t.Errorf("expected exactly one optimal CSV row")
	}

	pretty := output.PrettyString(report, true)
	for _, want := range []string{
		"--- Results for 1,000 simulated days (seed 0) ---",
		"Optimal order quantity:",
		"--- Simulated demand distribution ---",
		"--- Diagnostics ---",
		"--- Refinement ---",
	} {
		if !strings.Contains(pretty, want) {
			t.Errorf("pretty output missing %q", want)
		}
	}
}

func TestCandidateOrderDoesNotChangeTotals(t *testing.T) {
	conf := loadTestConfig(t)
	forward := runTestConfig(t, conf)

	reversed := loadTestConfig(t)
	reversed.Quantities.Values = []int{200, 150, 110, 100, 50}
	backward := runTestConfig(t, reversed)

	for _, r := range forward.Results {
		other := testutil.FindResult(backward.Results, r.Quantity)
		if other == nil {
			t.Fatalf("quantity %d missing from reversed run", r.Quantity)
		}
		if *other != r {
			t.Errorf("quantity %d differs between candidate orders: %+v vs %+v", r.Quantity, r, *other)
		}
	}
	if forward.Optimum.OptimalQuantity != backward.Optimum.OptimalQuantity {
		t.Errorf("optimum changed with candidate order: %d vs %d",
			forward.Optimum.OptimalQuantity, backward.Optimum.OptimalQuantity)
	}
}

func TestConfigurationVariations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Configuration)
		check  func(*testing.T, *simulation.Report)
	}{
		{
			name: "Range of quantities",
			mutate: func(c *config.Configuration) {
				c.Quantities = config.QuantitiesConfig{Range: &config.RangeConfig{Min: 10, Max: 199, Step: 1}}
			},
			check: func(t *testing.T, r *simulation.Report) {
				if len(r.Results) != 190 {
					t.Errorf("expected 190 results, got %d", len(r.Results))
				}
				if q := r.Optimum.OptimalQuantity; q < 70 || q > 145 {
					t.Errorf("optimum %d lies outside the observed demand", q)
				}
			},
		},
		{
			name:   "Refinement disabled",
			mutate: func(c *config.Configuration) { c.Refinement = nil },
			check: func(t *testing.T, r *simulation.Report) {
				if r.Refinement != nil {
					t.Errorf("expected no refinement summary")
				}
			},
		},
		{
			name: "Free excess inventory",
			mutate: func(c *config.Configuration) {
				c.Costs.UnitCost = 0
				c.Costs.ExcessCostPerUnit = 0
			},
			check: func(t *testing.T, r *simulation.Report) {
				if r.Optimum.OptimalQuantity != 150 {
					t.Errorf("with free stock the first quantity covering all demand should win, got %d", r.Optimum.OptimalQuantity)
				}
			},
		},
		{
			name:   "Single worker",
			mutate: func(c *config.Configuration) { c.Simulation.Workers = 1 },
			check: func(t *testing.T, r *simulation.Report) {
				if len(r.Results) != 5 {
					t.Errorf("expected 5 results, got %d", len(r.Results))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := loadTestConfig(t)
			tt.mutate(conf)
			tt.check(t, runTestConfig(t, conf))
		})
	}
}
