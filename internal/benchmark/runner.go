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
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/knapsackbench/internal/knapsack"
	"github.com/AleutianAI/knapsackbench/pkg/logging"
)

const tracerName = "knapsackbench.benchmark"

// -----------------------------------------------------------------------------
// Sinks
// -----------------------------------------------------------------------------

// Solve describes one timed solver call.
type Solve struct {
	RunID    string
	Label    string
	Capacity int
	Repeat   int
	Seed     uint64
	Items    int
	Value    int64
	Seconds  float64
}

// Sink receives measurements as they are taken.
//
// Description:
//
//	Sinks export measurements to metrics backends. Sink failures are
//	logged and do not stop the run.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Sink interface {
	// RecordSolve is called after every timed solve.
	RecordSolve(ctx context.Context, s Solve) error

	// RecordCapacity is called once per capacity after its median is known.
	RecordCapacity(ctx context.Context, r *CapacityResult) error
}

// -----------------------------------------------------------------------------
// Runner Options
// -----------------------------------------------------------------------------

// RunOption configures a Runner.
//
// Options are applied in order, so later options override earlier ones.
type RunOption func(*Runner)

// WithConfig replaces the whole configuration.
//
// Inputs:
//   - c: The configuration. Nil is ignored. The runner keeps a copy.
func WithConfig(c *Config) RunOption {
	return func(r *Runner) {
		if c != nil {
			cp := *c
			cp.Capacities = slices.Clone(c.Capacities)
			r.config = &cp
		}
	}
}

// WithRepeats sets the number of timed solves per capacity.
//
// Inputs:
//   - n: Repeat count. Non-positive values are ignored.
//
// Example:
//
//	runner := benchmark.NewRunner(benchmark.WithRepeats(11))
func WithRepeats(n int) RunOption {
	return func(r *Runner) {
		if n > 0 {
			r.config.Repeats = n
		}
	}
}

// WithCapacities sets the capacity ladder.
//
// Inputs:
//   - capacities: Capacities in run order. An empty list is ignored.
//     Values at or below knapsack.MinCapacity are rejected by Run.
func WithCapacities(capacities ...int) RunOption {
	return func(r *Runner) {
		if len(capacities) > 0 {
			r.config.Capacities = slices.Clone(capacities)
		}
	}
}

// WithSeed sets the starting value of the seed counter.
func WithSeed(seed uint64) RunOption {
	return func(r *Runner) {
		r.config.Seed = seed
	}
}

// WithLabel sets the implementation label.
//
// Inputs:
//   - label: Label text. Empty strings are ignored.
func WithLabel(label string) RunOption {
	return func(r *Runner) {
		if label != "" {
			r.config.Label = label
		}
	}
}

// WithClock replaces the time source used to measure solves.
//
// Description:
//
//	The runner reads the clock once before and once after each OptValue
//	call. Tests supply a deterministic clock; production uses time.Now,
//	whose readings carry a monotonic component.
//
// Inputs:
//   - now: Clock function. Nil is ignored.
func WithClock(now func() time.Time) RunOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger. Nil is ignored.
func WithLogger(logger *logging.Logger) RunOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithReporter adds a reporter. Reporters are called in the order added.
func WithReporter(rep Reporter) RunOption {
	return func(r *Runner) {
		if rep != nil {
			r.reporters = append(r.reporters, rep)
		}
	}
}

// WithSink adds a measurement sink.
func WithSink(s Sink) RunOption {
	return func(r *Runner) {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
}

// -----------------------------------------------------------------------------
// Runner
// -----------------------------------------------------------------------------

// Runner executes the knapsack benchmark.
//
// Description:
//
//	Runner generates problems, times the solver, and computes per-capacity
//	medians. Configuration is fixed at construction.
//
// Thread Safety: Run may be called concurrently; each call has its own
// seed counter. Concurrent runs will disturb each other's timings.
type Runner struct {
	config    *Config
	now       func() time.Time
	logger    *logging.Logger
	reporters []Reporter
	sinks     []Sink
}

// NewRunner creates a Runner with the reference configuration and applies
// opts on top.
//
// Outputs:
//   - *Runner: The runner. Never nil.
//
// Example:
//
//	runner := benchmark.NewRunner(
//	    benchmark.WithReporter(benchmark.NewCSVReporter(os.Stdout)),
//	)
//	if _, err := runner.Run(ctx); err != nil {
//	    return fmt.Errorf("running benchmark: %w", err)
//	}
func NewRunner(opts ...RunOption) *Runner {
	r := &Runner{
		config: DefaultConfig(),
		now:    time.Now,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns a copy of the runner's configuration.
func (r *Runner) Config() Config {
	cp := *r.config
	cp.Capacities = slices.Clone(r.config.Capacities)
	return cp
}

// Run executes the benchmark over every configured capacity.
//
// Description:
//
//	For each capacity in order, runs Repeats timed solves and reports the
//	median. The seed counter starts at Config.Seed and is incremented
//	before each generation; it carries over from one capacity to the next.
//	Each CapacityResult is sent to reporters and sinks as soon as it is
//	complete.
//
// Inputs:
//   - ctx: Context for cancellation, checked between solves. Must not be nil.
//
// Outputs:
//   - []*CapacityResult: One result per capacity, in configuration order.
//     On error, the results completed so far.
//   - error: ErrInvalidConfig, a reporter failure, or ctx.Err().
//
// Limitations:
//   - A solve in progress is not interrupted by cancellation.
func (r *Runner) Run(ctx context.Context) ([]*CapacityResult, error) {
	if ctx == nil {
		return nil, errors.New("context must not be nil")
	}
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "benchmark.Runner.Run",
		trace.WithAttributes(
			attribute.String("benchmark.run_id", runID),
			attribute.String("benchmark.label", r.config.Label),
			attribute.IntSlice("benchmark.capacities", r.config.Capacities),
			attribute.Int("benchmark.repeats", r.config.Repeats),
		),
	)
	defer span.End()

	logger.Info("benchmark started",
		"capacities", r.config.Capacities,
		"repeats", r.config.Repeats,
		"seed", r.config.Seed,
	)

	results := make([]*CapacityResult, 0, len(r.config.Capacities))
	seed := r.config.Seed

	for _, capacity := range r.config.Capacities {
		result, err := r.runCapacity(ctx, logger, runID, capacity, &seed)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "benchmark interrupted")
			return results, err
		}
		results = append(results, result)

		for _, rep := range r.reporters {
			if err := rep.Report(result); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "report failed")
				return results, fmt.Errorf("reporting capacity %d: %w", capacity, err)
			}
		}
		for _, s := range r.sinks {
			if err := s.RecordCapacity(ctx, result); err != nil {
				logger.Warn("sink failed", "capacity", capacity, "error", err.Error())
			}
		}
	}

	span.SetStatus(codes.Ok, "benchmark completed")
	logger.Info("benchmark completed", "capacities", len(results))
	return results, nil
}

// runCapacity runs every repeat for one capacity. seed is advanced in place.
func (r *Runner) runCapacity(ctx context.Context, logger *logging.Logger, runID string, capacity int, seed *uint64) (*CapacityResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "benchmark.capacity",
		trace.WithAttributes(attribute.Int("benchmark.capacity", capacity)),
	)
	defer span.End()

	repeats := r.config.Repeats
	result := &CapacityResult{
		RunID:    runID,
		Label:    r.config.Label,
		Capacity: capacity,
		Samples:  make([]float64, repeats),
		Values:   make([]int64, repeats),
		Seeds:    make([]uint64, repeats),
	}

	for repeat := 0; repeat < repeats; repeat++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("capacity %d repeat %d: %w", capacity, repeat, err)
		}

		*seed++
		problem := knapsack.MakeRandomData(capacity, *seed)

		start := r.now()
		value := knapsack.OptValue(problem.Capacity, problem.Items)
		elapsed := r.now().Sub(start).Seconds()

		result.Items = len(problem.Items)
		result.Samples[repeat] = elapsed
		result.Values[repeat] = value
		result.Seeds[repeat] = *seed

		logger.Debug("solved",
			"capacity", capacity,
			"repeat", repeat,
			"seed", *seed,
			"value", value,
			"seconds", elapsed,
		)

		solve := Solve{
			RunID:    runID,
			Label:    r.config.Label,
			Capacity: capacity,
			Repeat:   repeat,
			Seed:     *seed,
			Items:    len(problem.Items),
			Value:    value,
			Seconds:  elapsed,
		}
		for _, s := range r.sinks {
			if err := s.RecordSolve(ctx, solve); err != nil {
				logger.Warn("sink failed", "capacity", capacity, "repeat", repeat, "error", err.Error())
			}
		}
	}

	median, err := Median(result.Samples)
	if err != nil {
		return nil, fmt.Errorf("capacity %d: %w", capacity, err)
	}
	result.Median = median

	stats, err := CalculateStats(result.Samples)
	if err != nil {
		return nil, fmt.Errorf("capacity %d: %w", capacity, err)
	}
	result.Stats = stats
	result.Timestamp = time.Now().UnixMilli()

	span.SetAttributes(
		attribute.Float64("benchmark.median_seconds", median),
		attribute.Int("benchmark.items", result.Items),
	)

	logger.Info("capacity completed",
		"capacity", capacity,
		"median_seconds", median,
		"min_seconds", stats.Min,
		"max_seconds", stats.Max,
	)

	return result, nil
}
