package config

import (
	"math"

	"github.com/iwvelando/newsvendor/pkg/constants"
	"github.com/iwvelando/newsvendor/pkg/validation"
)

// QuantitiesConfig defines the candidate order quantities, either as an
// explicit list or as an inclusive integer range.
type QuantitiesConfig struct {
	Values []int        `yaml:"values,omitempty" mapstructure:"values"`
	Range  *RangeConfig `yaml:"range,omitempty" mapstructure:"range"`
}

// RangeConfig is an inclusive integer range of order quantities.
type RangeConfig struct {
	Min  int `yaml:"min" mapstructure:"min"`
	Max  int `yaml:"max" mapstructure:"max"`
	Step int `yaml:"step,omitempty" mapstructure:"step"`
}

// Candidates returns the candidate set in evaluation order. Explicit values
// win over a range.
func (q QuantitiesConfig) Candidates() ([]int, error) {
	if len(q.Values) > 0 {
		if err := validation.AtMost("quantities.values", len(q.Values), constants.MaxCandidates); err != nil {
			return nil, err
		}
		if err := validation.Quantities("quantities.values", q.Values); err != nil {
			return nil, err
		}
		return append([]int(nil), q.Values...), nil
	}
	if q.Range != nil {
		return q.Range.Expand()
	}
	return nil, validation.NewInvalidInput("quantities", "must define values or a range")
}

// Count returns the number of configured quantities without expanding a
// range. Invalid ranges count as zero; Candidates reports them.
func (q QuantitiesConfig) Count() int {
	if len(q.Values) > 0 {
		return len(q.Values)
	}
	if q.Range == nil || q.Range.Min < 0 || q.Range.Max < q.Range.Min || q.Range.Step <= 0 {
		return 0
	}
	return q.Range.Count()
}

// Count returns the number of quantities in the range without expanding it.
// The range must already be valid.
func (r RangeConfig) Count() int {
	// Min >= 0 and Max >= Min, so the span cannot overflow.
	steps := (r.Max - r.Min) / r.Step
	if steps >= math.MaxInt {
		return math.MaxInt
	}
	return steps + 1
}

// Expand lists every quantity in the range, ascending. Ranges holding more
// than constants.MaxCandidates quantities are rejected.
func (r RangeConfig) Expand() ([]int, error) {
	if r.Min < 0 {
		return nil, validation.NewInvalidInput("quantities.range.min", "must be non-negative, got %d", r.Min)
	}
	if r.Max < r.Min {
		return nil, validation.NewInvalidInput("quantities.range.max", "must not be below min %d, got %d", r.Min, r.Max)
	}
	if r.Step <= 0 {
		return nil, validation.NewInvalidInput("quantities.range.step", "must be positive, got %d", r.Step)
	}

	count := r.Count()
	if count > constants.MaxCandidates {
		return nil, validation.NewInvalidInput("quantities.range", "expands to more than %d quantities", constants.MaxCandidates)
	}

	values := make([]int, count)
	for i := range values {
		values[i] = r.Min + i*r.Step
	}
	return values, nil
}
