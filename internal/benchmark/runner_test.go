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
	"bytes"
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AleutianAI/knapsackbench/internal/knapsack"
	"github.com/AleutianAI/knapsackbench/pkg/logging"
)

// scriptedClock returns a clock where the n-th solve takes durations[n]
// (cycling). Calls alternate between the start and end of a solve.
func scriptedClock(durations ...time.Duration) func() time.Time {
	var (
		mu    sync.Mutex
		calls int
		now   = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		if calls%2 == 1 {
			now = now.Add(durations[(calls/2)%len(durations)])
		}
		calls++
		return now
	}
}

type recordingSink struct {
	mu         sync.Mutex
	solves     []Solve
	capacities []int
	err        error
}

func (s *recordingSink) RecordSolve(_ context.Context, solve Solve) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.solves = append(s.solves, solve)
	return s.err
}

func (s *recordingSink) RecordCapacity(_ context.Context, r *CapacityResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capacities = append(s.capacities, r.Capacity)
	return s.err
}

type failingReporter struct{ err error }

func (f failingReporter) Report(*CapacityResult) error { return f.err }

func TestNewRunner_Defaults(t *testing.T) {
	runner := NewRunner()
	config := runner.Config()

	assert.Equal(t, DefaultCapacities, config.Capacities)
	assert.Equal(t, DefaultRepeats, config.Repeats)
	assert.Equal(t, DefaultSeed, config.Seed)
	assert.Equal(t, DefaultLabel, config.Label)
}

func TestRunOptions(t *testing.T) {
	runner := NewRunner(
		WithRepeats(7),
		WithRepeats(0), // ignored
		WithCapacities(2000, 3000),
		WithCapacities(), // ignored
		WithSeed(99),
		WithLabel("go-test"),
		WithLabel(""), // ignored
		WithClock(nil),
		WithLogger(nil),
		WithReporter(nil),
		WithSink(nil),
	)
	config := runner.Config()

	assert.Equal(t, 7, config.Repeats)
	assert.Equal(t, []int{2000, 3000}, config.Capacities)
	assert.Equal(t, uint64(99), config.Seed)
	assert.Equal(t, "go-test", config.Label)
	assert.NotNil(t, runner.now)
	assert.NotNil(t, runner.logger)
	assert.Empty(t, runner.reporters)
	assert.Empty(t, runner.sinks)
}

func TestWithConfig_Copies(t *testing.T) {
	config := &Config{Capacities: []int{1500}, Repeats: 2, Seed: 1, Label: "x"}
	runner := NewRunner(WithConfig(config))
	config.Capacities[0] = 1

	assert.Equal(t, []int{1500}, runner.Config().Capacities)
}

func TestRunner_Run_MedianOfScriptedTimings(t *testing.T) {
	runner := NewRunner(
		WithCapacities(1100),
		WithRepeats(5),
		WithClock(scriptedClock(
			500*time.Millisecond,
			100*time.Millisecond,
			300*time.Millisecond,
			200*time.Millisecond,
			400*time.Millisecond,
		)),
	)

	results, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, []float64{0.5, 0.1, 0.3, 0.2, 0.4}, result.Samples)
	assert.Equal(t, 0.3, result.Median)
	assert.Equal(t, 0.1, result.Stats.Min)
	assert.Equal(t, 0.5, result.Stats.Max)
	assert.InDelta(t, 0.3, result.Stats.Mean, 1e-12)
}

func TestRunner_Run_EvenRepeatsReportsUpperMedian(t *testing.T) {
	runner := NewRunner(
		WithCapacities(1100),
		WithRepeats(4),
		WithClock(scriptedClock(4*time.Second, 1*time.Second, 3*time.Second, 2*time.Second)),
	)

	results, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.0, results[0].Median)
}

func TestRunner_Run_SeedCounterThreadsAcrossCapacities(t *testing.T) {
	runner := NewRunner(
		WithCapacities(1100, 1200),
		WithRepeats(3),
		WithSeed(10),
	)

	results, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []uint64{11, 12, 13}, results[0].Seeds)
	assert.Equal(t, []uint64{14, 15, 16}, results[1].Seeds)

	for _, result := range results {
		assert.Equal(t, result.Capacity/100, result.Items)
		for i, seed := range result.Seeds {
			p := knapsack.MakeRandomData(result.Capacity, seed)
			assert.Equal(t, knapsack.OptValue(p.Capacity, p.Items), result.Values[i],
				"capacity %d seed %d", result.Capacity, seed)
		}
	}
}

func TestRunner_Run_Reproducible(t *testing.T) {
	run := func() []*CapacityResult {
		results, err := NewRunner(WithCapacities(1500, 2500), WithRepeats(2)).Run(context.Background())
		require.NoError(t, err)
		return results
	}

	first, second := run(), run()
	for i := range first {
		assert.Equal(t, first[i].Seeds, second[i].Seeds)
		assert.Equal(t, first[i].Values, second[i].Values)
		assert.NotEqual(t, first[i].RunID, second[i].RunID)
	}
}

func TestRunner_Run_ReportsInOrder(t *testing.T) {
	collector := &CollectingReporter{}
	var buf bytes.Buffer

	runner := NewRunner(
		WithCapacities(3000, 1100, 2000),
		WithRepeats(1),
		WithLabel("go"),
		WithReporter(collector),
		WithReporter(NewCSVReporter(&buf)),
	)

	results, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, results, collector.Results())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	for i, capacity := range []string{"3000", "1100", "2000"} {
		assert.True(t, strings.HasPrefix(lines[i], "go, "+capacity+", "), "line %d = %q", i, lines[i])
	}
}

func TestRunner_Run_InvalidConfig(t *testing.T) {
	runner := NewRunner(WithCapacities(1000))

	var results []*CapacityResult
	var err error
	require.NotPanics(t, func() {
		results, err = runner.Run(context.Background())
	})
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Nil(t, results)
}

func TestRunner_Run_NilContext(t *testing.T) {
	//nolint:staticcheck // exercising the nil guard
	_, err := NewRunner().Run(nil)
	assert.Error(t, err)
}

func TestRunner_Run_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := NewRunner(WithCapacities(1100)).Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, results)
}

func TestRunner_Run_ReporterFailureStopsRun(t *testing.T) {
	boom := errors.New("stdout closed")
	collector := &CollectingReporter{}
	runner := NewRunner(
		WithCapacities(1100, 1200),
		WithRepeats(1),
		WithReporter(collector),
		WithReporter(failingReporter{err: boom}),
	)

	results, err := runner.Run(context.Background())
	assert.True(t, errors.Is(err, boom))
	assert.Len(t, results, 1)
	assert.Len(t, collector.Results(), 1)
}

func TestRunner_Run_Sinks(t *testing.T) {
	t.Run("receives every solve", func(t *testing.T) {
		sink := &recordingSink{}
		runner := NewRunner(WithCapacities(1100, 1200), WithRepeats(3), WithSink(sink))

		_, err := runner.Run(context.Background())
		require.NoError(t, err)

		assert.Len(t, sink.solves, 6)
		assert.Equal(t, []int{1100, 1200}, sink.capacities)
		assert.Equal(t, uint64(12346), sink.solves[0].Seed)
		assert.Equal(t, 2, sink.solves[2].Repeat)
		assert.Equal(t, 11, sink.solves[0].Items)
	})

	t.Run("failures are logged not fatal", func(t *testing.T) {
		exporter := logging.NewBufferedExporter()
		logger := logging.New(logging.Config{Level: logging.LevelWarn, Quiet: true, Exporter: exporter})
		sink := &recordingSink{err: errors.New("push failed")}

		results, err := NewRunner(
			WithCapacities(1100),
			WithRepeats(2),
			WithSink(sink),
			WithLogger(logger),
		).Run(context.Background())

		require.NoError(t, err)
		assert.Len(t, results, 1)
		assert.Len(t, exporter.Entries(), 3)
		for _, msg := range exporter.Messages() {
			assert.Equal(t, "sink failed", msg)
		}
	})
}

func TestRunner_Run_DebugLogsEachSolve(t *testing.T) {
	exporter := logging.NewBufferedExporter()
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Quiet: true, Exporter: exporter})

	results, err := NewRunner(WithCapacities(1100), WithRepeats(2), WithLogger(logger)).Run(context.Background())
	require.NoError(t, err)

	var solved []logging.LogEntry
	for _, entry := range exporter.Entries() {
		if entry.Message == "solved" {
			solved = append(solved, entry)
		}
	}
	require.Len(t, solved, 2)
	assert.Equal(t, results[0].Values[1], solved[1].Attrs["value"])
	assert.Equal(t, results[0].RunID, solved[1].Attrs["run_id"])
	assert.Contains(t, exporter.Messages(), "capacity completed")
}

func TestRunner_Run_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(previous)

	_, err := NewRunner(WithCapacities(1100, 1200), WithRepeats(1)).Run(context.Background())
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "benchmark.capacity", spans[0].Name())
	assert.Equal(t, "benchmark.capacity", spans[1].Name())
	assert.Equal(t, "benchmark.Runner.Run", spans[2].Name())
	assert.Equal(t, spans[2].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

// TestRunner_Run_ReferenceLadder runs the full default benchmark and checks
// the shape of its output.
func TestRunner_Run_ReferenceLadder(t *testing.T) {
	if testing.Short() {
		t.Skip("full capacity ladder skipped in short mode")
	}

	var buf bytes.Buffer
	results, err := NewRunner(WithReporter(NewCSVReporter(&buf))).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 5)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)

	for i, want := range []int{5000, 10000, 20000, 40000, 80000} {
		fields := strings.Split(lines[i], ", ")
		require.Len(t, fields, 3, "line %q", lines[i])
		assert.Equal(t, "go", fields[0])
		assert.Equal(t, strconv.Itoa(want), fields[1])

		median, err := strconv.ParseFloat(fields[2], 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, median, 0.0)
		assert.False(t, math.IsInf(median, 0) || math.IsNaN(median))
		assert.Equal(t, results[i].Median, median)
	}

	// The first problem of the run uses seed 12346.
	assert.Equal(t, uint64(12346), results[0].Seeds[0])
	assert.Equal(t, int64(3725), results[0].Values[0])
	assert.Equal(t, uint64(12370), results[4].Seeds[4])
}
