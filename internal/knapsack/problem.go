// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package knapsack

import (
	"fmt"

	"github.com/AleutianAI/knapsackbench/internal/xorshift"
)

const (
	// MinCapacity is the exclusive lower bound on generated capacities.
	MinCapacity = 1000

	// ItemDivisor sets the item count: a capacity W yields W/ItemDivisor items.
	ItemDivisor = 100

	// MaxValue is the exclusive upper bound on generated item values.
	MaxValue = 1000
)

// Item is a single knapsack item.
//
// Items are created once per Problem and never mutated.
type Item struct {
	// Value is the item's worth. Non-negative for generated items.
	Value int64

	// Weight is the item's cost against capacity. Generated weights are in
	// [1, 2*Capacity] and may exceed the capacity.
	Weight int64
}

// Problem is a knapsack instance.
//
// Thread Safety: Read-only after construction; safe for concurrent reads.
type Problem struct {
	// Capacity is the maximum total weight.
	Capacity int

	// Items are the candidates, in generation order.
	Items []Item
}

// String implements fmt.Stringer.
func (p Problem) String() string {
	return fmt.Sprintf("Problem{Capacity: %d, Items: %d}", p.Capacity, len(p.Items))
}

// MakeRandomData generates a reproducible problem instance.
//
// Description:
//
//	Seeds a xorshift64 generator with seed and draws capacity/100 items.
//	For each item the first draw gives value = draw % 1000 and the second
//	gives weight = 1 + draw % (2*capacity). Both reductions are unsigned.
//
// Inputs:
//   - capacity: Knapsack capacity. Must be greater than MinCapacity.
//   - seed: Generator seed. Zero yields all-zero values and unit weights.
//
// Outputs:
//   - Problem: The instance with exactly capacity/100 items.
//
// Panics:
//   - If capacity <= MinCapacity. This is a caller bug, not an input error.
//
// Example:
//
//	p := knapsack.MakeRandomData(5000, 12346)
//	best := knapsack.OptValue(p.Capacity, p.Items)
func MakeRandomData(capacity int, seed uint64) Problem {
	if capacity <= MinCapacity {
		panic(fmt.Sprintf("knapsack: capacity %d must be greater than %d", capacity, MinCapacity))
	}

	n := capacity / ItemDivisor
	rng := xorshift.New(seed)
	span := uint64(2 * capacity)

	items := make([]Item, n)
	for i := range items {
		v := rng.Next() % MaxValue
		w := 1 + rng.Next()%span
		items[i] = Item{Value: int64(v), Weight: int64(w)}
	}

	return Problem{Capacity: capacity, Items: items}
}
