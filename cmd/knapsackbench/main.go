// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command knapsackbench times the rolling-row 0/1 knapsack solver.
//
// For each capacity it generates seeded random problems, solves each one
// several times and prints one line per capacity on stdout:
//
//	go, 5000, 0.0123
//
// Usage:
//
//	knapsackbench
//	knapsackbench --repeats 11 --capacities 5000,10000
//	knapsackbench --config bench.yaml --format json
//	knapsackbench --log-level debug --trace --metrics-file /var/lib/node_exporter/knapsack.prom
//	knapsackbench config
//
// Diagnostics, spans and logs go to stderr.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "knapsackbench: %v\n", err)
		stop()
		os.Exit(1)
	}
}
