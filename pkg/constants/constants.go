// Package constants provides shared constants for the newsvendor application.
package constants

// Simulation defaults
const (
	// DefaultSimulations is the number of resampled demand draws when the
	// configuration does not specify one.
	DefaultSimulations = 1000

	// DefaultRangeStep is the candidate spacing used by a quantity range
	// without an explicit step.
	DefaultRangeStep = 1
)

// Input ceilings
const (
	// MaxSimulations bounds simulation.count; the sample is held in memory
	// as float64 draws (80 MB at the ceiling).
	MaxSimulations = 10_000_000

	// MaxCandidates bounds the number of order quantities evaluated in one run.
	MaxCandidates = 1_000_000

	// ServerMaxSimulations bounds simulation.count for configs submitted
	// over HTTP.
	ServerMaxSimulations = 1_000_000

	// ServerMaxCandidates bounds the candidate count for configs submitted
	// over HTTP.
	ServerMaxCandidates = 10_000
)

// Refinement defaults
const (
	// DefaultRefinementPoints is the number of quantities evaluated per
	// refinement iteration.
	DefaultRefinementPoints = 11

	// MinRefinementPoints is the smallest grid that can still shrink a bracket.
	MinRefinementPoints = 3

	// DefaultRefinementIterations bounds the number of refinement passes.
	DefaultRefinementIterations = 20
)

// Numeric tolerances
const (
	// ProbabilityTolerance is the tolerance for sum-to-one and CDF checks.
	ProbabilityTolerance = 1e-9

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment variable overrides, e.g.
	// NEWSVENDOR_SIMULATION_COUNT.
	EnvPrefix = "NEWSVENDOR"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)
