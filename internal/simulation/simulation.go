// Package simulation runs the newsvendor pipeline: resample demand, estimate
// its distribution, evaluate every candidate order quantity, pick the most
// profitable one and diagnose it.
package simulation

import (
	"fmt"
	"time"

	"github.com/iwvelando/newsvendor/internal/config"
	"github.com/iwvelando/newsvendor/internal/optimizer"
	"github.com/iwvelando/newsvendor/pkg/costing"
	"github.com/iwvelando/newsvendor/pkg/demand"
	"github.com/iwvelando/newsvendor/pkg/diagnostics"
	"github.com/iwvelando/newsvendor/pkg/optimization"
	"go.uber.org/zap"
)

// Report holds every output of a single run.
type Report struct {
	Seed         int64                     `json:"seed"`
	Simulations  int                       `json:"simulations"`
	Candidates   []int                     `json:"candidates"`
	Results      []costing.Result          `json:"results"`
	Optimum      optimization.Result       `json:"optimum"`
	Distribution demand.Distribution       `json:"distribution"`
	Diagnostic   diagnostics.Diagnostic    `json:"diagnostic"`
	CrossCheck   diagnostics.CriticalCheck `json:"crossCheck"`
	Refinement   *optimization.Summary     `json:"refinement,omitempty"`
	Warnings     []string                  `json:"warnings,omitempty"`
	Costs        costing.CostModel         `json:"costs"`
	Duration     time.Duration             `json:"duration"`
}

// Run validates conf and executes the full pipeline. A configuration without
// a seed gets a fresh one, which is reported so the run can be repeated.
func Run(logger *zap.Logger, conf config.Configuration) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	candidates, err := conf.Quantities.Candidates()
	if err != nil {
		return nil, err
	}

	seed := demand.NewSeed()
	if conf.Simulation.Seed != nil {
		seed = *conf.Simulation.Seed
	}

	logger.Debug("starting simulation",
		zap.String("op", "simulation.Run"),
		zap.Int64("seed", seed),
		zap.Int("simulations", conf.Simulation.Count),
		zap.Int("candidates", len(candidates)),
		zap.Int("workers", conf.Simulation.Workers),
	)

	samples, err := demand.Sample(conf.Demand.Observations, conf.Simulation.Count, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to sample demand: %w", err)
	}

	dist, err := demand.Estimate(samples)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate demand distribution: %w", err)
	}

	results, err := costing.EvaluateAll(samples, candidates, conf.Costs, conf.Simulation.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate order quantities: %w", err)
	}

	optimum, err := optimization.Optimize(results)
	if err != nil {
		return nil, fmt.Errorf("failed to select optimal quantity: %w", err)
	}

	diag, err := diagnostics.Diagnose(dist, optimum.OptimalQuantity)
	if err != nil {
		return nil, fmt.Errorf("failed to diagnose optimum: %w", err)
	}

	check, err := diagnostics.CrossCheck(dist, conf.Costs)
	if err != nil {
		return nil, fmt.Errorf("failed to cross-check critical ratio: %w", err)
	}

	report := &Report{
		Seed:         seed,
		Simulations:  conf.Simulation.Count,
		Candidates:   candidates,
		Results:      results,
		Optimum:      optimum,
		Distribution: dist,
		Diagnostic:   diag,
		CrossCheck:   check,
		Warnings:     conf.ValidateConfiguration(),
		Costs:        conf.Costs,
	}

	if conf.Refinement.Active() {
		runner, err := optimizer.NewRunner(logger, samples, conf.Costs, conf.Refinement, conf.Simulation.Workers)
		if err != nil {
			return nil, fmt.Errorf("failed to create refinement runner: %w", err)
		}
		summary, err := runner.Run(results, optimum)
		if err != nil {
			return nil, fmt.Errorf("refinement failed: %w", err)
		}
		report.Refinement = &summary
	}

	report.Duration = time.Since(start)

	logger.Info("simulation complete",
		zap.String("op", "simulation.Run"),
		zap.Int64("seed", seed),
		zap.Int("optimalQuantity", optimum.OptimalQuantity),
		zap.Float64("optimalProfit", optimum.OptimalProfit),
		zap.Float64("cdfAtOptimal", diag.CDFAtOptimal),
		zap.Duration("duration", report.Duration),
	)

	return report, nil
}
