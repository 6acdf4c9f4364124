package validation

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput matches every *InvalidInputError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports a violated engine precondition. Field names the
// offending input using its configuration key.
type InvalidInputError struct {
	Field  string
	Reason string
}

// NewInvalidInput builds an InvalidInputError with a formatted reason.
func NewInvalidInput(field, format string, args ...interface{}) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidInput) match any InvalidInputError.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NonNegative rejects negative and non-finite values.
func NonNegative(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewInvalidInput(field, "must be a finite number, got %v", value)
	}
	if value < 0 {
		return NewInvalidInput(field, "must be non-negative, got %v", value)
	}
	return nil
}

// PositiveInt rejects values below one.
func PositiveInt(field string, value int) error {
	if value <= 0 {
		return NewInvalidInput(field, "must be positive, got %d", value)
	}
	return nil
}

// AtMost rejects values above limit.
func AtMost(field string, value, limit int) error {
	if value > limit {
		return NewInvalidInput(field, "must not exceed %d, got %d", limit, value)
	}
	return nil
}

// Observations checks that a demand dataset is non-empty and holds only
// finite non-negative values.
func Observations(field string, values []float64) error {
	if len(values) == 0 {
		return NewInvalidInput(field, "must contain at least one observation")
	}
	for i, v := range values {
		if err := NonNegative(fmt.Sprintf("%s[%d]", field, i), v); err != nil {
			return err
		}
	}
	return nil
}

// Quantities checks that a candidate set is non-empty and holds distinct
// non-negative integers.
func Quantities(field string, values []int) error {
	if len(values) == 0 {
		return NewInvalidInput(field, "must contain at least one order quantity")
	}
	seen := make(map[int]int, len(values))
	for i, q := range values {
		if q < 0 {
			return NewInvalidInput(fmt.Sprintf("%s[%d]", field, i), "must be non-negative, got %d", q)
		}
		if first, ok := seen[q]; ok {
			return NewInvalidInput(fmt.Sprintf("%s[%d]", field, i), "duplicates %s[%d] (%d)", field, first, q)
		}
		seen[q] = i
	}
	return nil
}
