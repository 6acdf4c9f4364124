// Package optimizer refines a grid optimum by searching the integer order
// quantities between its neighbouring candidates.
package optimizer

import (
	"fmt"
	"sort"

	"github.com/iwvelando/newsvendor/internal/config"
	"github.com/iwvelando/newsvendor/pkg/costing"
	"github.com/iwvelando/newsvendor/pkg/demand"
	"github.com/iwvelando/newsvendor/pkg/format"
	"github.com/iwvelando/newsvendor/pkg/optimization"
	"go.uber.org/zap"
)

// Scope identifies refinement summaries.
const Scope = "refinement"

// Runner evaluates refinement brackets against a fixed demand sample.
type Runner struct {
	logger   *zap.Logger
	samples  demand.SampleSet
	model    costing.CostModel
	settings config.RefinementConfig
	workers  int
	cache    map[int]costing.Result
}

// bracket is an inclusive integer interval of order quantities.
type bracket struct {
	lower, upper int
}

func (b bracket) width() int {
	return b.upper - b.lower
}

// NewRunner constructs a Runner for the provided sample and cost model.
func NewRunner(logger *zap.Logger, samples demand.SampleSet, model costing.CostModel, settings *config.RefinementConfig, workers int) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if samples.Len() == 0 {
		return nil, fmt.Errorf("refinement requires a non-empty demand sample")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}

	return &Runner{
		logger:   logger,
		samples:  samples,
		model:    model,
		settings: *settings,
		workers:  workers,
		cache:    make(map[int]costing.Result),
	}, nil
}

// Run searches between the grid optimum's neighbouring candidates. The grid
// results seed the evaluation cache so no quantity is evaluated twice. The
// grid optimum is kept on ties.
func (r *Runner) Run(grid []costing.Result, best optimization.Result) (optimization.Summary, error) {
	if len(grid) == 0 {
		return optimization.Summary{}, &optimization.EmptyResultSetError{}
	}
	for _, result := range grid {
		r.cache[result.Quantity] = result
	}
	incumbent, ok := r.cache[best.OptimalQuantity]
	if !ok {
		return optimization.Summary{}, fmt.Errorf("grid optimum %d is not among the grid results", best.OptimalQuantity)
	}

	summary := optimization.Summary{
		Scope:           Scope,
		Original:        incumbent.Quantity,
		OriginalProfit:  incumbent.TotalProfit,
		OriginalDisplay: format.Quantity(float64(incumbent.Quantity)),
	}

	b := neighbours(gridQuantities(grid), incumbent.Quantity)
	evaluations := 0

	for summary.Iterations < r.settings.MaxIterations && b.width() > 1 {
		summary.Iterations++

		points := spread(b, r.settings.Points)
		if 2*maxGap(points) >= b.width() {
			// a grid this coarse may not shrink the bracket, so take every integer in it
			points = spread(b, b.width()+1)
		}

		count, err := r.evaluate(points)
		if err != nil {
			return optimization.Summary{}, err
		}
		evaluations += count

		candidates := make([]costing.Result, 0, len(points)+1)
		candidates = append(candidates, incumbent)
		for _, q := range points {
			if q != incumbent.Quantity {
				candidates = append(candidates, r.cache[q])
			}
		}
		winner, err := optimization.Optimize(candidates)
		if err != nil {
			return optimization.Summary{}, err
		}
		incumbent = candidates[winner.Index]

		r.logger.Debug("refinement iteration",
			zap.String("op", "optimizer.Run"),
			zap.Int("iteration", summary.Iterations),
			zap.Int("lower", b.lower),
			zap.Int("upper", b.upper),
			zap.Int("points", len(points)),
			zap.Int("best", incumbent.Quantity),
			zap.Float64("profit", incumbent.TotalProfit),
		)

		if len(points) == b.width()+1 {
			b = bracket{lower: incumbent.Quantity, upper: incumbent.Quantity}
			break
		}
		b = neighbours(points, incumbent.Quantity)
	}

	summary.Value = incumbent.Quantity
	summary.Profit = incumbent.TotalProfit
	summary.ExpectedProfit = incumbent.ExpectedProfit()
	summary.ValueDisplay = format.Quantity(float64(incumbent.Quantity))
	summary.ImprovementTotal = incumbent.TotalProfit - summary.OriginalProfit
	summary.Lower = b.lower
	summary.Upper = b.upper
	summary.Evaluations = evaluations
	summary.Converged = b.width() <= 1
	if !summary.Converged {
		summary.Notes = append(summary.Notes,
			fmt.Sprintf("stopped after %d iterations with bracket [%d, %d] still open", summary.Iterations, b.lower, b.upper))
	}
	if summary.Iterations == 0 {
		summary.Notes = append(summary.Notes, "grid optimum has no unevaluated neighbours")
	}

	r.logger.Info("refinement finished",
		zap.String("op", "optimizer.Run"),
		zap.Int("original", summary.Original),
		zap.Int("refined", summary.Value),
		zap.Float64("improvement", summary.ImprovementTotal),
		zap.Int("iterations", summary.Iterations),
		zap.Int("evaluations", summary.Evaluations),
		zap.Bool("converged", summary.Converged),
	)

	return summary, nil
}

// evaluate fills the cache for every quantity not yet evaluated and returns
// how many new evaluations ran.
func (r *Runner) evaluate(points []int) (int, error) {
	var pending []int
	for _, q := range points {
		if _, ok := r.cache[q]; !ok {
			pending = append(pending, q)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	results, err := costing.EvaluateAll(r.samples, pending, r.model, r.workers)
	if err != nil {
		return 0, fmt.Errorf("refinement evaluation failed: %w", err)
	}
	for _, result := range results {
		r.cache[result.Quantity] = result
	}
	return len(pending), nil
}

func gridQuantities(grid []costing.Result) []int {
	quantities := make([]int, 0, len(grid))
	for _, result := range grid {
		quantities = append(quantities, result.Quantity)
	}
	sort.Ints(quantities)
	return quantities
}

// neighbours returns the bracket between the values adjacent to q in the
// ascending slice sorted. An edge value brackets itself on that side.
func neighbours(sorted []int, q int) bracket {
	i := sort.SearchInts(sorted, q)
	b := bracket{lower: q, upper: q}
	if i > 0 {
		b.lower = sorted[i-1]
	}
	if i+1 < len(sorted) && sorted[i] == q {
		b.upper = sorted[i+1]
	} else if i < len(sorted) && sorted[i] != q {
		b.upper = sorted[i]
	}
	return b
}

func maxGap(sorted []int) int {
	gap := 0
	for i := 1; i < len(sorted); i++ {
		if d := sorted[i] - sorted[i-1]; d > gap {
			gap = d
		}
	}
	return gap
}

// spread returns up to n evenly spaced distinct integers covering b, both
// endpoints included, in ascending order.
func spread(b bracket, n int) []int {
	if n > b.width()+1 {
		n = b.width() + 1
	}
	if n < 2 {
		return []int{b.lower}
	}

	points := make([]int, 0, n)
	for k := 0; k < n; k++ {
		q := b.lower + (k*b.width()+(n-1)/2)/(n-1)
		if len(points) == 0 || points[len(points)-1] != q {
			points = append(points, q)
		}
	}
	return points
}
