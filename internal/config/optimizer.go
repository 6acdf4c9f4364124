package config

import (
	"github.com/iwvelando/newsvendor/pkg/constants"
	"github.com/iwvelando/newsvendor/pkg/validation"
)

// RefinementConfig enables an integer search around the grid optimum.
type RefinementConfig struct {
	Enabled       bool `yaml:"enabled" mapstructure:"enabled"`
	Points        int  `yaml:"points,omitempty" mapstructure:"points"`
	MaxIterations int  `yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
}

// Normalize ensures defaults are applied before validation.
func (r *RefinementConfig) Normalize() {
	if r == nil {
		return
	}
	if r.Points == 0 {
		r.Points = constants.DefaultRefinementPoints
	}
	if r.MaxIterations == 0 {
		r.MaxIterations = constants.DefaultRefinementIterations
	}
}

// Validate returns an error when the refinement configuration is unusable.
func (r *RefinementConfig) Validate() error {
	if r == nil {
		return validation.NewInvalidInput("refinement", "configuration cannot be nil")
	}

	r.Normalize()

	if r.Points < constants.MinRefinementPoints {
		return validation.NewInvalidInput("refinement.points", "must be at least %d, got %d",
			constants.MinRefinementPoints, r.Points)
	}
	if r.MaxIterations < 1 {
		return validation.NewInvalidInput("refinement.maxIterations", "must be positive, got %d", r.MaxIterations)
	}
	return nil
}

// Active reports whether refinement should run.
func (r *RefinementConfig) Active() bool {
	return r != nil && r.Enabled
}
