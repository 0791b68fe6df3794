// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package knapsack generates random 0/1 knapsack instances and solves them
// with the rolling-row dynamic program.
//
// # Problem Generation
//
// MakeRandomData builds an instance from a capacity and a seed using the
// xorshift64 generator. For capacity W it draws W/100 items, each with a
// value in [0, 999] and a weight in [1, 2W]. Identical arguments always
// produce identical items.
//
// # Solving
//
// OptValue returns the best total value achievable within the capacity. It
// keeps two rows of W+1 int64 cells and swaps their roles per item, so
// memory stays O(W) regardless of the item count.
//
// # Limitations
//
// Value sums are int64 and are not checked for overflow. The ranges produced
// by MakeRandomData stay far below the limit.
package knapsack
