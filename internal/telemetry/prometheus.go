// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AleutianAI/knapsackbench/internal/benchmark"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrInvalidConfig is returned when the Prometheus configuration is invalid.
	ErrInvalidConfig = errors.New("invalid prometheus configuration")

	// ErrRegistrationFailed is returned when metric registration fails.
	ErrRegistrationFailed = errors.New("metric registration failed")

	// ErrSinkClosed is returned when recording to a closed sink.
	ErrSinkClosed = errors.New("sink is closed")

	// ErrNilContext is returned when a nil context is passed.
	ErrNilContext = errors.New("context must not be nil")

	// ErrNilData is returned when a nil result is passed.
	ErrNilData = errors.New("data must not be nil")
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// PrometheusConfig configures the Prometheus sink.
//
// Thread Safety: Immutable after creation; safe for concurrent read access.
type PrometheusConfig struct {
	// Namespace is the metrics namespace. Required.
	Namespace string

	// Subsystem is the metrics subsystem. Required.
	Subsystem string

	// Registry receives the collectors and is gathered by WriteTextfile.
	// If nil, the sink creates its own registry.
	Registry *prometheus.Registry

	// SolveBuckets defines histogram buckets for solve time (seconds).
	// If nil, uses default buckets.
	SolveBuckets []float64
}

// DefaultPrometheusConfig returns the configuration used by the CLI.
func DefaultPrometheusConfig() *PrometheusConfig {
	return &PrometheusConfig{
		Namespace: "knapsackbench",
		Subsystem: "dp",
		SolveBuckets: []float64{
			0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0,
		},
	}
}

// Validate checks that the required fields are set.
func (c *PrometheusConfig) Validate() error {
	if c.Namespace == "" {
		return errors.New("namespace is required")
	}
	if c.Subsystem == "" {
		return errors.New("subsystem is required")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Prometheus Sink
// -----------------------------------------------------------------------------

// PrometheusSink exports benchmark measurements as Prometheus metrics.
//
// Description:
//
//	Every solve feeds the solve-time histogram, the solve counter and the
//	optimal-value gauge. Every finished capacity sets the median gauge.
//	Series are labelled by implementation label and capacity. The CLI is a
//	one-shot process, so metrics are written to a node-exporter textfile
//	with WriteTextfile rather than scraped.
//
// Thread Safety: Safe for concurrent use.
//
// Example:
//
//	sink, err := telemetry.NewPrometheusSink(telemetry.DefaultPrometheusConfig())
//	if err != nil {
//	    return fmt.Errorf("create prometheus sink: %w", err)
//	}
//	defer sink.Close()
//
//	runner := benchmark.NewRunner(benchmark.WithSink(sink))
type PrometheusSink struct {
	config   *PrometheusConfig
	registry *prometheus.Registry

	solveDuration *prometheus.HistogramVec
	solvesTotal   *prometheus.CounterVec
	solveValue    *prometheus.GaugeVec
	solveItems    *prometheus.GaugeVec
	medianSeconds *prometheus.GaugeVec
	capacityTotal *prometheus.CounterVec

	mu     sync.RWMutex
	closed bool

	collectors []prometheus.Collector
}

// NewPrometheusSink creates a sink and registers its collectors.
//
// Inputs:
//   - config: Prometheus configuration. Must not be nil.
//
// Outputs:
//   - *PrometheusSink: The created sink. Never nil on success.
//   - error: ErrInvalidConfig or ErrRegistrationFailed.
//
// Assumptions:
//   - Collectors already present in the registry are reused.
func NewPrometheusSink(config *PrometheusConfig) (*PrometheusSink, error) {
	if config == nil {
		return nil, ErrInvalidConfig
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	cfg := *config
	if cfg.SolveBuckets == nil {
		cfg.SolveBuckets = DefaultPrometheusConfig().SolveBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	sink := &PrometheusSink{
		config:   &cfg,
		registry: registry,
	}

	sink.solveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "solve_duration_seconds",
			Help:      "Wall-clock time of one OptValue call",
			Buckets:   cfg.SolveBuckets,
		},
		[]string{"label", "capacity"},
	)

	sink.solvesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "solves_total",
			Help:      "Number of timed solves",
		},
		[]string{"label", "capacity"},
	)

	sink.solveValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "optimal_value",
			Help:      "Optimal value found by the most recent solve",
		},
		[]string{"label", "capacity"},
	)

	sink.solveItems = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "items",
			Help:      "Number of items in the generated problem",
		},
		[]string{"label", "capacity"},
	)

	sink.medianSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "median_seconds",
			Help:      "Median solve time for a capacity",
		},
		[]string{"label", "capacity"},
	)

	sink.capacityTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "capacities_total",
			Help:      "Number of completed capacities",
		},
		[]string{"label"},
	)

	sink.collectors = []prometheus.Collector{
		sink.solveDuration,
		sink.solvesTotal,
		sink.solveValue,
		sink.solveItems,
		sink.medianSeconds,
		sink.capacityTotal,
	}

	for i, c := range sink.collectors {
		if err := registry.Register(c); err != nil {
			var alreadyErr prometheus.AlreadyRegisteredError
			if !errors.As(err, &alreadyErr) {
				return nil, errors.Join(ErrRegistrationFailed, err)
			}
			sink.collectors[i] = alreadyErr.ExistingCollector
		}
	}
	sink.adoptExisting()

	return sink, nil
}

// adoptExisting swaps in collectors that were already registered so that
// two sinks on one registry write to the same series.
func (s *PrometheusSink) adoptExisting() {
	if v, ok := s.collectors[0].(*prometheus.HistogramVec); ok {
		s.solveDuration = v
	}
	if v, ok := s.collectors[1].(*prometheus.CounterVec); ok {
		s.solvesTotal = v
	}
	if v, ok := s.collectors[2].(*prometheus.GaugeVec); ok {
		s.solveValue = v
	}
	if v, ok := s.collectors[3].(*prometheus.GaugeVec); ok {
		s.solveItems = v
	}
	if v, ok := s.collectors[4].(*prometheus.GaugeVec); ok {
		s.medianSeconds = v
	}
	if v, ok := s.collectors[5].(*prometheus.CounterVec); ok {
		s.capacityTotal = v
	}
}

// Registry returns the registry holding the sink's collectors.
func (s *PrometheusSink) Registry() *prometheus.Registry {
	return s.registry
}

// RecordSolve records one timed solve.
//
// Outputs:
//   - error: ErrNilContext or ErrSinkClosed.
func (s *PrometheusSink) RecordSolve(ctx context.Context, solve benchmark.Solve) error {
	if ctx == nil {
		return ErrNilContext
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}

	label := solve.Label
	if label == "" {
		label = "unknown"
	}
	capacity := strconv.Itoa(solve.Capacity)

	s.solveDuration.WithLabelValues(label, capacity).Observe(solve.Seconds)
	s.solvesTotal.WithLabelValues(label, capacity).Inc()
	s.solveValue.WithLabelValues(label, capacity).Set(float64(solve.Value))
	s.solveItems.WithLabelValues(label, capacity).Set(float64(solve.Items))
	return nil
}

// RecordCapacity records the median of a finished capacity.
//
// Outputs:
//   - error: ErrNilContext, ErrNilData or ErrSinkClosed.
func (s *PrometheusSink) RecordCapacity(ctx context.Context, r *benchmark.CapacityResult) error {
	if ctx == nil {
		return ErrNilContext
	}
	if r == nil {
		return ErrNilData
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}

	label := r.Label
	if label == "" {
		label = "unknown"
	}

	s.medianSeconds.WithLabelValues(label, strconv.Itoa(r.Capacity)).Set(r.Median)
	s.capacityTotal.WithLabelValues(label).Inc()
	return nil
}

// WriteTextfile writes every metric in the sink's registry to path in the
// text exposition format. The file is replaced atomically.
func (s *PrometheusSink) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, s.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

// Close unregisters all collectors. After Close, recording methods return
// ErrSinkClosed.
//
// Thread Safety: Safe for concurrent use. Idempotent.
func (s *PrometheusSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for _, c := range s.collectors {
		s.registry.Unregister(c)
	}
	return nil
}

var _ benchmark.Sink = (*PrometheusSink)(nil)
