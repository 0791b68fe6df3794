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

// OptValue returns the optimal 0/1 knapsack value.
//
// Description:
//
//	Computes the maximum total value of a subset of items whose total
//	weight does not exceed capacity. Row j holds, for every capacity w,
//	the best value using items 0..j. Only two rows are kept: cur is
//	written for the item being processed and prev is the row before it.
//	Both rows have capacity+1 cells; cell 0 is always zero, which covers
//	the case where an item exactly fills w.
//
// Inputs:
//   - capacity: Maximum total weight. Non-positive capacities return 0.
//   - items: Candidate items. Not modified. Weights above capacity are
//     never taken.
//
// Outputs:
//   - int64: The optimal value. Zero if items is empty.
//
// Thread Safety: Stateless; safe for concurrent use.
//
// Complexity: O(len(items) * capacity) time, O(capacity) space.
func OptValue(capacity int, items []Item) int64 {
	if capacity <= 0 || len(items) == 0 {
		return 0
	}

	cur := make([]int64, capacity+1)
	prev := make([]int64, capacity+1)

	first := items[0]
	for w := max(first.Weight, 1); w <= int64(capacity); w++ {
		cur[w] = first.Value
	}

	for _, item := range items[1:] {
		cur, prev = prev, cur

		// Below the item's weight the row is a straight copy.
		limit := capacity
		if item.Weight <= int64(capacity) {
			limit = max(int(item.Weight)-1, 0)
		}
		copy(cur[1:limit+1], prev[1:limit+1])

		for w := limit + 1; w <= capacity; w++ {
			without := prev[w]
			with := item.Value + prev[w-int(item.Weight)]
			cur[w] = max(with, without)
		}
	}

	return cur[capacity]
}
