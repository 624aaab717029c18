// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package typemodel

import "strconv"

// =============================================================================
// CARDINALITY
// =============================================================================

// Cardinality is the size of a region: a non-negative integer or the
// symbolic value infinite.
//
// The zero value is the finite cardinality 0.
type Cardinality struct {
	infinite bool
	count    uint64
}

// Finite returns a finite cardinality of n.
func Finite(n uint64) Cardinality {
	return Cardinality{count: n}
}

// Infinite returns the infinite cardinality.
func Infinite() Cardinality {
	return Cardinality{infinite: true}
}

// IsInfinite reports whether the cardinality is infinite.
func (c Cardinality) IsInfinite() bool { return c.infinite }

// Count returns the finite size. Zero for infinite cardinalities;
// check IsInfinite first.
func (c Cardinality) Count() uint64 {
	if c.infinite {
		return 0
	}
	return c.count
}

// Add returns the sum. Infinite absorbs: if either operand is infinite
// the result is infinite. Finite sums that overflow saturate to infinite.
func (c Cardinality) Add(o Cardinality) Cardinality {
	if c.infinite || o.infinite {
		return Infinite()
	}
	sum := c.count + o.count
	if sum < c.count {
		return Infinite()
	}
	return Finite(sum)
}

// Mul returns the product. Infinite absorbs, with the convention that
// an infinite factor makes the product infinite even when the other
// factor is zero: region products never shrink a compound space.
// Finite products that overflow saturate to infinite.
func (c Cardinality) Mul(o Cardinality) Cardinality {
	if c.infinite || o.infinite {
		return Infinite()
	}
	if c.count == 0 || o.count == 0 {
		return Finite(0)
	}
	prod := c.count * o.count
	if prod/c.count != o.count {
		return Infinite()
	}
	return Finite(prod)
}

// Less orders cardinalities ascending with infinite last.
func (c Cardinality) Less(o Cardinality) bool {
	if c.infinite {
		return false
	}
	if o.infinite {
		return true
	}
	return c.count < o.count
}

// Equal reports equality.
func (c Cardinality) Equal(o Cardinality) bool {
	return c.infinite == o.infinite && c.count == o.count
}

// String renders the cardinality for descriptions and logs.
func (c Cardinality) String() string {
	if c.infinite {
		return "infinite"
	}
	return strconv.FormatUint(c.count, 10)
}
