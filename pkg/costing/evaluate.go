package costing

import (
	"fmt"
	"runtime"

	"github.com/iwvelando/newsvendor/pkg/mathutil"
	"github.com/iwvelando/newsvendor/pkg/validation"
	"golang.org/x/sync/errgroup"
)

// Result aggregates one order quantity's outcome over every demand draw.
// TotalProfit always equals
// TotalRevenue - TotalCost - TotalStockoutCost - TotalExcessCost.
type Result struct {
	Quantity          int     `json:"quantity"`
	TotalRevenue      float64 `json:"totalRevenue"`
	TotalCost         float64 `json:"totalCost"`
	TotalStockoutCost float64 `json:"totalStockoutCost"`
	TotalExcessCost   float64 `json:"totalExcessCost"`
	TotalProfit       float64 `json:"totalProfit"`
	Draws             int     `json:"draws"`
	StockoutDraws     int     `json:"stockoutDraws"`
}

// ExpectedProfit is the mean profit per demand draw.
func (r Result) ExpectedProfit() float64 {
	if r.Draws == 0 {
		return 0
	}
	return r.TotalProfit / float64(r.Draws)
}

// StockoutProbability is the share of draws whose demand exceeded the quantity.
func (r Result) StockoutProbability() float64 {
	if r.Draws == 0 {
		return 0
	}
	return float64(r.StockoutDraws) / float64(r.Draws)
}

type totals struct {
	revenue, cost, stockout, excess float64
	stockoutDraws                   int
}

func (t totals) add(d, q float64, m CostModel) totals {
	t.revenue += mathutil.Min(d, q) * m.SellingPrice
	t.cost += q * m.UnitCost
	short := mathutil.PositivePart(d - q)
	if short > 0 {
		t.stockoutDraws++
	}
	t.stockout += short * m.StockoutCostPerUnit
	t.excess += mathutil.PositivePart(q-d) * m.ExcessCostPerUnit
	return t
}

// Evaluate folds every demand draw into the totals for order quantity q.
func Evaluate(samples []float64, q int, model CostModel) (Result, error) {
	if len(samples) == 0 {
		return Result{}, validation.NewInvalidInput("samples", "cannot evaluate an empty demand sample")
	}
	if q < 0 {
		return Result{}, validation.NewInvalidInput("quantity", "must be non-negative, got %d", q)
	}
	if err := model.Validate(); err != nil {
		return Result{}, err
	}
	return evaluate(samples, q, model), nil
}

func evaluate(samples []float64, q int, model CostModel) Result {
	qf := float64(q)
	var acc totals
	for _, d := range samples {
		acc = acc.add(d, qf, model)
	}

	return Result{
		Quantity:          q,
		TotalRevenue:      acc.revenue,
		TotalCost:         acc.cost,
		TotalStockoutCost: acc.stockout,
		TotalExcessCost:   acc.excess,
		TotalProfit:       acc.revenue - acc.cost - acc.stockout - acc.excess,
		Draws:             len(samples),
		StockoutDraws:     acc.stockoutDraws,
	}
}

// EvaluateAll evaluates every candidate quantity and returns the results in
// candidate order. All inputs are validated before any evaluation starts.
// Candidates run concurrently on at most workers goroutines; workers <= 0
// uses GOMAXPROCS.
func EvaluateAll(samples []float64, quantities []int, model CostModel, workers int) ([]Result, error) {
	if len(samples) == 0 {
		return nil, validation.NewInvalidInput("samples", "cannot evaluate an empty demand sample")
	}
	if err := validation.Quantities("quantities", quantities); err != nil {
		return nil, err
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(quantities))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, q := range quantities {
		i, q := i, q
		g.Go(func() error {
			// each goroutine owns exactly one slot
			results[i] = evaluate(samples, q, model)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluating order quantities: %w", err)
	}

	return results, nil
}
