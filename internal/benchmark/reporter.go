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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
)

// Reporter receives completed capacity results.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Reporter interface {
	// Report writes or forwards one result.
	Report(r *CapacityResult) error
}

// FormatLine renders the reference output line for a result:
//
//	<label>, <capacity>, <median seconds>
//
// The median uses the shortest decimal representation that round-trips
// the float64, which is the same text fmt prints for a float64.
func FormatLine(r *CapacityResult) string {
	return fmt.Sprintf("%s, %d, %s", r.Label, r.Capacity, strconv.FormatFloat(r.Median, 'g', -1, 64))
}

// -----------------------------------------------------------------------------
// CSV Reporter
// -----------------------------------------------------------------------------

// CSVReporter writes one reference line per result.
//
// Thread Safety: Safe for concurrent use.
type CSVReporter struct {
	out io.Writer
	mu  sync.Mutex
}

// NewCSVReporter creates a reporter writing to out.
//
// Inputs:
//   - out: Destination, normally os.Stdout. Must not be nil.
func NewCSVReporter(out io.Writer) *CSVReporter {
	return &CSVReporter{out: out}
}

// Report writes the line for r followed by a newline.
func (c *CSVReporter) Report(r *CapacityResult) error {
	if r == nil {
		return errors.New("result must not be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, FormatLine(r)+"\n")
	return err
}

// -----------------------------------------------------------------------------
// JSON Reporter
// -----------------------------------------------------------------------------

// JSONReporter writes one JSON object per result (JSON Lines).
//
// Thread Safety: Safe for concurrent use.
type JSONReporter struct {
	enc *json.Encoder
	mu  sync.Mutex
}

// NewJSONReporter creates a reporter writing JSON Lines to out.
func NewJSONReporter(out io.Writer) *JSONReporter {
	return &JSONReporter{enc: json.NewEncoder(out)}
}

// Report encodes r on a single line.
func (j *JSONReporter) Report(r *CapacityResult) error {
	if r == nil {
		return errors.New("result must not be nil")
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(r)
}

// -----------------------------------------------------------------------------
// Collecting Reporter
// -----------------------------------------------------------------------------

// CollectingReporter keeps results in memory.
type CollectingReporter struct {
	mu      sync.Mutex
	results []*CapacityResult
}

// Report appends r.
func (c *CollectingReporter) Report(r *CapacityResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
	return nil
}

// Results returns the collected results in report order.
func (c *CollectingReporter) Results() []*CapacityResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*CapacityResult, len(c.results))
	copy(out, c.results)
	return out
}

var (
	_ Reporter = (*CSVReporter)(nil)
	_ Reporter = (*JSONReporter)(nil)
	_ Reporter = (*CollectingReporter)(nil)
)
