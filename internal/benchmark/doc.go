// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package benchmark times the knapsack solver across a ladder of capacities.
//
// # Overview
//
// A Runner walks its capacity list in order. For each capacity it generates
// Repeats problems, times one OptValue call per problem, and reports the
// median of those timings. Problems are generated from a seed counter that
// starts at Config.Seed and is incremented before every generation, across
// all capacities, so a run is fully reproducible from its configuration.
//
// # Median
//
// The reported statistic is the element at index len/2 of the sorted
// samples: the true median for an odd count and the upper of the two middle
// values for an even count.
//
// # Output
//
// Results are handed to Reporters as soon as each capacity finishes. The
// CSVReporter writes the reference line format:
//
//	go, 5000, 0.001234567
//
// # Concurrency
//
// A run is single-threaded and sequential. The seed counter is local to Run
// and threads through the loop; there is no shared state between runs.
package benchmark
