// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/knapsackbench/internal/benchmark"
	"github.com/AleutianAI/knapsackbench/internal/config"
	"github.com/AleutianAI/knapsackbench/internal/telemetry"
	"github.com/AleutianAI/knapsackbench/pkg/logging"
)

// rootFlags holds the command-line values. Only flags the user set
// override the configuration file.
type rootFlags struct {
	configPath  string
	label       string
	capacities  []int
	repeats     int
	seed        uint64
	format      string
	logLevel    string
	logJSON     bool
	trace       bool
	metricsFile string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "knapsackbench",
		Short: "Benchmark the rolling-row 0/1 knapsack solver",
		Long: `knapsackbench generates seeded random knapsack problems, times the
dynamic-programming solver on each, and prints the median solve time per
capacity as "<label>, <capacity>, <seconds>".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runBenchmark(cmd.Context(), cfg, stdout, stderr)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&flags.label, "label", "", "implementation label printed on each line (default \"go\")")
	pf.IntSliceVar(&flags.capacities, "capacities", nil, "capacities to benchmark, in order (default 5000,10000,20000,40000,80000)")
	pf.IntVar(&flags.repeats, "repeats", 0, "timed solves per capacity (default 5)")
	pf.Uint64Var(&flags.seed, "seed", 0, "starting seed counter (default 12345)")
	pf.StringVar(&flags.format, "format", "", "output format: csv or json (default csv)")
	pf.StringVar(&flags.logLevel, "log-level", "", "stderr log level: debug, info, warn, error (default warn)")
	pf.BoolVar(&flags.logJSON, "log-json", false, "write stderr logs as JSON")
	pf.BoolVar(&flags.trace, "trace", false, "export spans to stderr")
	pf.StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")

	rootCmd.AddCommand(newConfigCmd(flags, stdout))
	return rootCmd
}

// newConfigCmd prints the effective configuration as YAML.
func newConfigCmd(flags *rootFlags, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}
			out, err := cfg.Marshal()
			if err != nil {
				return fmt.Errorf("rendering config: %w", err)
			}
			_, err = stdout.Write(out)
			return err
		},
	}
}

// resolveConfig loads the file, applies flags the user set, and validates.
func resolveConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("label") {
		cfg.Label = flags.label
	}
	if changed("capacities") {
		cfg.Capacities = flags.capacities
	}
	if changed("repeats") {
		cfg.Repeats = flags.repeats
	}
	if changed("seed") {
		cfg.Seed = flags.seed
	}
	if changed("format") {
		cfg.Format = flags.format
	}
	if changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if changed("log-json") {
		cfg.Log.JSON = flags.logJSON
	}
	if changed("trace") {
		cfg.Telemetry.Trace = flags.trace
	}
	if changed("metrics-file") {
		cfg.Telemetry.MetricsFile = flags.metricsFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runBenchmark wires logging, telemetry and reporters around one Runner.
func runBenchmark(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{
		Level:   level,
		Service: "knapsackbench",
		JSON:    cfg.Log.JSON,
		Output:  stderr,
	})
	defer logger.Close()

	if cfg.Telemetry.Trace {
		tracing := telemetry.DefaultTracingConfig()
		tracing.Output = stderr
		shutdown, err := telemetry.InitTracing(ctx, tracing)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			if serr := shutdown(context.Background()); serr != nil {
				logger.Warn("trace shutdown failed", "error", serr.Error())
			}
		}()
	}

	opts := []benchmark.RunOption{
		benchmark.WithLabel(cfg.Label),
		benchmark.WithCapacities(cfg.Capacities...),
		benchmark.WithRepeats(cfg.Repeats),
		benchmark.WithSeed(cfg.Seed),
		benchmark.WithLogger(logger),
	}

	switch cfg.Format {
	case config.FormatJSON:
		opts = append(opts, benchmark.WithReporter(benchmark.NewJSONReporter(stdout)))
	default:
		opts = append(opts, benchmark.WithReporter(benchmark.NewCSVReporter(stdout)))
	}

	var sink *telemetry.PrometheusSink
	if cfg.Telemetry.MetricsFile != "" {
		sink, err = telemetry.NewPrometheusSink(telemetry.DefaultPrometheusConfig())
		if err != nil {
			return fmt.Errorf("create prometheus sink: %w", err)
		}
		defer sink.Close()
		opts = append(opts, benchmark.WithSink(sink))
	}

	if _, err := benchmark.NewRunner(opts...).Run(ctx); err != nil {
		logger.Error("benchmark failed", "error", err.Error())
		return err
	}

	if sink != nil {
		if err := sink.WriteTextfile(cfg.Telemetry.MetricsFile); err != nil {
			return err
		}
		logger.Info("metrics written", "path", cfg.Telemetry.MetricsFile)
	}
	return nil
}
