// Package config defines the data structures related to configuration and
// includes functions for loading, normalizing and validating the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/newsvendor/pkg/constants"
	"github.com/iwvelando/newsvendor/pkg/costing"
	"github.com/iwvelando/newsvendor/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for a newsvendor run.
type Configuration struct {
	Costs      costing.CostModel `yaml:"costs" mapstructure:"costs"`
	Demand     DemandConfig      `yaml:"demand" mapstructure:"demand"`
	Simulation SimulationConfig  `yaml:"simulation" mapstructure:"simulation"`
	Quantities QuantitiesConfig  `yaml:"quantities" mapstructure:"quantities"`
	Refinement *RefinementConfig `yaml:"refinement,omitempty" mapstructure:"refinement"`
	Logging    LoggingConfig     `yaml:"logging,omitempty" mapstructure:"logging"`
	Output     OutputConfig      `yaml:"output,omitempty" mapstructure:"output"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format       string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv
	Distribution bool   `yaml:"distribution,omitempty" mapstructure:"distribution"`
}

// DemandConfig holds the historical demand observations that are resampled.
type DemandConfig struct {
	Observations []float64 `yaml:"observations" mapstructure:"observations"`
}

// SimulationConfig controls the resampling run.
type SimulationConfig struct {
	Count int `yaml:"count" mapstructure:"count"`
	// Seed makes the run reproducible; nil draws a fresh seed per run.
	Seed    *int64 `yaml:"seed,omitempty" mapstructure:"seed"`
	Workers int    `yaml:"workers,omitempty" mapstructure:"workers"`
}

// Limits bounds the work a single configuration may request.
type Limits struct {
	MaxSimulations int
	MaxCandidates  int
}

// DefaultLimits returns the engine-wide ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxSimulations: constants.MaxSimulations,
		MaxCandidates:  constants.MaxCandidates,
	}
}

// envKeys lists every scalar key that can be overridden from the
// environment, e.g. simulation.seed from NEWSVENDOR_SIMULATION_SEED.
// AutomaticEnv alone only reaches keys already present in the file.
var envKeys = []string{
	"costs.unitCost",
	"costs.sellingPrice",
	"costs.stockoutCostPerUnit",
	"costs.excessCostPerUnit",
	"simulation.count",
	"simulation.seed",
	"simulation.workers",
	"quantities.range.min",
	"quantities.range.max",
	"quantities.range.step",
	"refinement.enabled",
	"refinement.points",
	"refinement.maxIterations",
	"logging.level",
	"logging.format",
	"logging.outputFile",
	"output.format",
	"output.distribution",
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. NEWSVENDOR_* environment variables override the file.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	if err := bindEnv(v); err != nil {
		return nil, err
	}
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML-formatted configuration from r.
// The environment is not consulted, so the data is taken as submitted.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetDefault("simulation.count", constants.DefaultSimulations)
	v.SetDefault("output.format", constants.OutputFormatPretty)
	return v
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}
	return nil
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.Normalize()
	return &configuration, nil
}

// Normalize applies defaults that cannot be expressed as viper defaults.
func (c *Configuration) Normalize() {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Quantities.Range != nil && c.Quantities.Range.Step == 0 {
		c.Quantities.Range.Step = constants.DefaultRangeStep
	}
	if c.Refinement != nil {
		c.Refinement.Normalize()
	}
}

// Validate checks every engine precondition and returns the first violation
// as a *validation.InvalidInputError. It runs before any simulation work.
func (c *Configuration) Validate() error {
	if err := c.Costs.Validate(); err != nil {
		return err
	}
	if err := validation.Observations("demand.observations", c.Demand.Observations); err != nil {
		return err
	}
	if err := validation.PositiveInt("simulation.count", c.Simulation.Count); err != nil {
		return err
	}
	if c.Simulation.Workers < 0 {
		return validation.NewInvalidInput("simulation.workers", "must not be negative, got %d", c.Simulation.Workers)
	}
	if _, err := c.Quantities.Candidates(); err != nil {
		return err
	}
	if c.Refinement != nil {
		if err := c.Refinement.Validate(); err != nil {
			return err
		}
	}
	return c.CheckLimits(DefaultLimits())
}

// CheckLimits rejects configurations that request more simulations or
// candidates than limits allows. Non-positive limits are not enforced.
func (c *Configuration) CheckLimits(limits Limits) error {
	if limits.MaxSimulations > 0 {
		if err := validation.AtMost("simulation.count", c.Simulation.Count, limits.MaxSimulations); err != nil {
			return err
		}
	}
	if limits.MaxCandidates > 0 {
		if n := c.Quantities.Count(); n > limits.MaxCandidates {
			return validation.NewInvalidInput("quantities", "defines %d order quantities, more than the limit of %d", n, limits.MaxCandidates)
		}
	}
	return nil
}

// ValidateConfiguration returns warnings about settings that are legal but
// probably not what the user meant.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if c.Costs.SellingPrice < c.Costs.UnitCost {
		warnings = append(warnings, fmt.Sprintf("Selling price %.2f is below unit cost %.2f - every unit sold loses money",
			c.Costs.SellingPrice, c.Costs.UnitCost))
	}

	if len(c.Quantities.Values) > 0 && c.Quantities.Range != nil {
		warnings = append(warnings, "Both quantities.values and quantities.range are set - using values")
	}

	distinct := make(map[float64]struct{})
	minDemand, maxDemand := 0.0, 0.0
	for i, d := range c.Demand.Observations {
		distinct[d] = struct{}{}
		if i == 0 || d < minDemand {
			minDemand = d
		}
		if i == 0 || d > maxDemand {
			maxDemand = d
		}
	}
	if len(c.Demand.Observations) > 0 && len(distinct) < 2 {
		warnings = append(warnings, "Demand observations contain a single distinct value - the distribution is degenerate")
	}

	if c.Simulation.Count > 0 && c.Simulation.Count < len(c.Demand.Observations) {
		warnings = append(warnings, fmt.Sprintf("Simulation count %d is smaller than the %d demand observations",
			c.Simulation.Count, len(c.Demand.Observations)))
	}

	if candidates, err := c.Quantities.Candidates(); err == nil && len(c.Demand.Observations) > 0 {
		outside, lowest, highest := 0, 0, 0
		for _, q := range candidates {
			if float64(q) >= minDemand && float64(q) <= maxDemand {
				continue
			}
			if outside == 0 || q < lowest {
				lowest = q
			}
			if outside == 0 || q > highest {
				highest = q
			}
			outside++
		}
		switch {
		case outside == 1:
			warnings = append(warnings, fmt.Sprintf("Order quantity %d lies outside the observed demand range [%.0f, %.0f]",
				lowest, minDemand, maxDemand))
		case outside > 1:
			warnings = append(warnings, fmt.Sprintf("%d order quantities between %d and %d lie outside the observed demand range [%.0f, %.0f]",
				outside, lowest, highest, minDemand, maxDemand))
		}
	}

	return warnings
}
