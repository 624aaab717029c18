// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package universe partitions a type into regions with cardinalities.
//
// The universe of a type is the complete set of values it can take,
// represented as a list of named regions. Genuinely infinite spaces
// (strings, unbounded numeric ranges) are partitioned and sampled,
// never enumerated.
//
// # Regions
//
// Every region carries:
//
//   - a deterministic string ID, unique within one universe, used as
//     the sole equality key for covered/uncovered comparison;
//   - a RegionKind resolved at construction time, which carries the
//     typed payload that predicates and the boundary walker dispatch
//     on (no string parsing of IDs anywhere downstream);
//   - a Cardinality, finite or infinite.
//
// For multi-parameter signatures the calculator takes the Cartesian
// product of the per-parameter universes. A compound region's ID is the
// "×"-joined, order-preserving concatenation of its component IDs, its
// cardinality is the product of component cardinalities (infinite
// absorbing), and its constraints are the union of component
// constraints.
//
// # Approximations
//
// Length-banded string regions are treated as infinite even though a
// length-bounded alphabet is finite; this is an accepted approximation
// for test generation. The universe of an intersection is approximated
// by the member universe with the smallest total cardinality; callers
// may depend on this behavior, so it must not be silently corrected.
//
// # Thread Safety
//
// Calculation is pure. The Calculator's signature cache is guarded
// internally; a single Calculator is safe for concurrent use.
package universe
