// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package benchmark

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/AleutianAI/knapsackbench/internal/knapsack"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNoSamples indicates that a statistic was requested over no samples.
	ErrNoSamples = errors.New("no samples collected")

	// ErrInvalidConfig indicates an invalid benchmark configuration.
	ErrInvalidConfig = errors.New("invalid benchmark configuration")
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// DefaultCapacities is the reference capacity ladder.
var DefaultCapacities = []int{5000, 10000, 20000, 40000, 80000}

const (
	// DefaultRepeats is the number of timed solves per capacity.
	DefaultRepeats = 5

	// DefaultSeed is the initial seed counter value. The first problem uses
	// DefaultSeed+1.
	DefaultSeed uint64 = 12345

	// DefaultLabel identifies this implementation in output lines.
	DefaultLabel = "go"
)

// Config holds benchmark configuration.
//
// Description:
//
//	Config controls which capacities are measured, how many times, and
//	from which seed. Use DefaultConfig() for the reference run.
//
// Thread Safety: Safe for concurrent read access after initialization.
type Config struct {
	// Capacities are benchmarked in this order. Each must exceed
	// knapsack.MinCapacity.
	Capacities []int

	// Repeats is the number of timed solves per capacity.
	Repeats int

	// Seed is the starting value of the seed counter.
	Seed uint64

	// Label identifies the implementation in reports.
	Label string
}

// DefaultConfig returns the reference configuration.
//
// Outputs:
//   - *Config: Five capacities from 5000 to 80000, five repeats, seed
//     12345, label "go". Never nil.
func DefaultConfig() *Config {
	return &Config{
		Capacities: slices.Clone(DefaultCapacities),
		Repeats:    DefaultRepeats,
		Seed:       DefaultSeed,
		Label:      DefaultLabel,
	}
}

// Validate checks that the configuration can be run.
//
// Outputs:
//   - error: Non-nil describing the first invalid field.
func (c *Config) Validate() error {
	if len(c.Capacities) == 0 {
		return errors.New("at least one capacity is required")
	}
	for i, capacity := range c.Capacities {
		if capacity <= knapsack.MinCapacity {
			return fmt.Errorf("capacity[%d] = %d must be greater than %d", i, capacity, knapsack.MinCapacity)
		}
	}
	if c.Repeats <= 0 {
		return errors.New("repeats must be positive")
	}
	if c.Label == "" {
		return errors.New("label must not be empty")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Results
// -----------------------------------------------------------------------------

// CapacityResult holds the measurements for one capacity.
//
// Description:
//
//	Samples, Values, and Seeds are parallel slices indexed by repeat.
//	Samples are kept in measurement order; Median is computed from a
//	sorted copy.
//
// Thread Safety: Safe for concurrent read access after creation.
type CapacityResult struct {
	// RunID identifies the run that produced this result.
	RunID string `json:"run_id"`

	// Label identifies the implementation.
	Label string `json:"label"`

	// Capacity is the knapsack capacity W.
	Capacity int `json:"capacity"`

	// Items is the number of items in each generated problem.
	Items int `json:"items"`

	// Median is the reported solve time in seconds.
	Median float64 `json:"median_seconds"`

	// Stats summarizes Samples.
	Stats Stats `json:"stats"`

	// Samples are the solve times in seconds, in repeat order.
	Samples []float64 `json:"samples_seconds"`

	// Values are the optimal values, in repeat order.
	Values []int64 `json:"values"`

	// Seeds are the generator seeds, in repeat order.
	Seeds []uint64 `json:"seeds"`

	// Timestamp is when the capacity finished (Unix milliseconds UTC).
	Timestamp int64 `json:"timestamp_ms"`
}

// Stats summarizes a set of timing samples, all in seconds.
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`

	// CILower and CIUpper bound the 95% confidence interval of the mean.
	CILower float64 `json:"ci95_lower"`
	CIUpper float64 `json:"ci95_upper"`
}

// -----------------------------------------------------------------------------
// Statistics Functions
// -----------------------------------------------------------------------------

// Median returns the element at index len/2 of the sorted samples.
//
// Description:
//
//	Sorts a copy of samples ascending and returns the middle element. For
//	an even count this is the upper of the two middle values. The input is
//	not modified.
//
// Inputs:
//   - samples: Timing samples. Must not be empty.
//
// Outputs:
//   - float64: The median.
//   - error: ErrNoSamples if samples is empty.
//
// Example:
//
//	m, _ := Median([]float64{0.5, 0.1, 0.3, 0.2, 0.4}) // 0.3
func Median(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	return sorted[len(sorted)/2], nil
}

// CalculateStats computes min, max, mean, population standard deviation,
// and a 95% confidence interval of the mean.
//
// Outputs:
//   - Stats: The summary.
//   - error: ErrNoSamples if samples is empty.
func CalculateStats(samples []float64) (Stats, error) {
	if len(samples) == 0 {
		return Stats{}, ErrNoSamples
	}

	stats := Stats{
		Min: slices.Min(samples),
		Max: slices.Max(samples),
	}

	var sum float64
	for _, s := range samples {
		sum += s
	}
	stats.Mean = sum / float64(len(samples))

	var sumSquaredDiff float64
	for _, s := range samples {
		diff := s - stats.Mean
		sumSquaredDiff += diff * diff
	}
	variance := sumSquaredDiff / float64(len(samples))
	stats.StdDev = math.Sqrt(variance)

	stats.CILower, stats.CIUpper = confidenceInterval(stats.Mean, variance, len(samples))
	return stats, nil
}

// confidenceInterval returns a symmetric 95% interval around mean. A single
// sample collapses the interval to the mean.
func confidenceInterval(mean, variance float64, n int) (lower, upper float64) {
	if n < 2 {
		return mean, mean
	}
	margin := tCritical95(n-1) * math.Sqrt(variance/float64(n))
	return mean - margin, mean + margin
}

// t95 holds two-tailed 95% t-distribution critical values for df 1..30.
var t95 = [...]float64{
	12.706, 4.303, 3.182, 2.776, 2.571, 2.447, 2.365, 2.306, 2.262, 2.228,
	2.201, 2.179, 2.160, 2.145, 2.131, 2.120, 2.110, 2.101, 2.093, 2.086,
	2.080, 2.074, 2.069, 2.064, 2.060, 2.056, 2.052, 2.048, 2.045, 2.042,
}

// tCritical95 returns the 95% critical value for df degrees of freedom,
// falling back to the normal z-score above df 30.
func tCritical95(df int) float64 {
	switch {
	case df < 1:
		return t95[0]
	case df > len(t95):
		return 1.96
	default:
		return t95[df-1]
	}
}
