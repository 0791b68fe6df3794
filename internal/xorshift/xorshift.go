// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package xorshift provides the 64-bit xorshift generator used to build
// reproducible benchmark inputs.
//
// The generator uses the 13/7/17 shift triple on an unsigned 64-bit word.
// All shifts are logical and all arithmetic wraps modulo 2^64, so a given
// seed yields the same stream on every platform and in every port of the
// benchmark that uses the same triple.
//
// A Rand is not safe for concurrent use. Each problem instance owns its
// own generator.
package xorshift

// Rand is a xorshift64 generator.
//
// Description:
//
//	Rand holds a single 64-bit state word. Every call to Next advances the
//	state in place and returns the new value. A zero seed is accepted and
//	produces a stream of zeros.
//
// Thread Safety: Not safe for concurrent use.
type Rand struct {
	x uint64
}

// New creates a generator seeded with seed.
//
// Inputs:
//   - seed: Initial state. Zero is not rejected.
//
// Outputs:
//   - *Rand: The generator. Never nil.
func New(seed uint64) *Rand {
	return &Rand{x: seed}
}

// Next advances the state and returns it.
//
// Example:
//
//	rng := xorshift.New(12346)
//	v := rng.Next() % 1000
func (r *Rand) Next() uint64 {
	r.x ^= r.x << 13
	r.x ^= r.x >> 7
	r.x ^= r.x << 17
	return r.x
}

// State returns the current state without advancing it.
func (r *Rand) State() uint64 {
	return r.x
}
