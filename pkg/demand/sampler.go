// Package demand resamples an empirical demand dataset and estimates the
// discrete empirical distribution of the resulting sample.
package demand

import (
	"math/rand"
	"time"

	"github.com/iwvelando/newsvendor/pkg/constants"
	"github.com/iwvelando/newsvendor/pkg/validation"
)

// SampleSet is an ordered sequence of resampled demand draws. It is never
// modified after Sample returns it, so it may be shared across goroutines.
type SampleSet []float64

// Sample draws count values uniformly, independently and with replacement
// from dataset using a math/rand source seeded with seed. Identical
// arguments always produce the identical sequence, and draw i does not
// depend on count.
func Sample(dataset []float64, count int, seed int64) (SampleSet, error) {
	if err := validation.Observations("demand.observations", dataset); err != nil {
		return nil, err
	}
	if err := validation.PositiveInt("simulation.count", count); err != nil {
		return nil, err
	}
	if err := validation.AtMost("simulation.count", count, constants.MaxSimulations); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	samples := make(SampleSet, count)
	for i := range samples {
		samples[i] = dataset[rng.Intn(len(dataset))]
	}
	return samples, nil
}

// NewSeed returns a seed for runs that do not request a reproducible one.
func NewSeed() int64 {
	return time.Now().UnixNano()
}

// Len returns the number of draws.
func (s SampleSet) Len() int {
	return len(s)
}
