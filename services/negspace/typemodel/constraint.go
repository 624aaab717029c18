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

import (
	"strconv"
	"strings"
)

// =============================================================================
// CONSTRAINTS
// =============================================================================

// ConstraintTag identifies which dimension of a type a constraint restricts.
type ConstraintTag string

const (
	// ConstraintRange bounds a numeric value.
	ConstraintRange ConstraintTag = "range"

	// ConstraintLength bounds a string or array length.
	ConstraintLength ConstraintTag = "length"

	// ConstraintPattern requires a string to match a regular expression.
	ConstraintPattern ConstraintTag = "pattern"

	// ConstraintEnum restricts a value to a fixed member list.
	ConstraintEnum ConstraintTag = "enum"
)

// Constraint is a tagged restriction on exactly one dimension of a type.
// Multiple constraints on a node are conjunctive.
//
// Only the fields relevant to the Tag are meaningful; the solver cache
// key and Equal deliberately ignore the rest.
type Constraint struct {
	// Tag selects the constraint variant.
	Tag ConstraintTag

	// Min and Max bound a range constraint. Nil means unbounded on
	// that side.
	Min *float64
	Max *float64

	// MinLength and MaxLength bound a length constraint. Nil means
	// unbounded on that side.
	MinLength *int
	MaxLength *int

	// Pattern is the regular expression of a pattern constraint.
	Pattern string

	// Values is the member list of an enum constraint, in order.
	Values []Value
}

// RangeConstraint returns a range constraint. Nil bounds are open.
func RangeConstraint(min, max *float64) Constraint {
	return Constraint{Tag: ConstraintRange, Min: min, Max: max}
}

// ClosedRange returns a range constraint with both bounds set.
func ClosedRange(min, max float64) Constraint {
	return Constraint{Tag: ConstraintRange, Min: &min, Max: &max}
}

// LengthConstraint returns a length constraint. Nil bounds are open.
func LengthConstraint(min, max *int) Constraint {
	return Constraint{Tag: ConstraintLength, MinLength: min, MaxLength: max}
}

// ClosedLength returns a length constraint with both bounds set.
func ClosedLength(min, max int) Constraint {
	return Constraint{Tag: ConstraintLength, MinLength: &min, MaxLength: &max}
}

// PatternConstraint returns a pattern constraint over the given regex.
func PatternConstraint(pattern string) Constraint {
	return Constraint{Tag: ConstraintPattern, Pattern: pattern}
}

// EnumConstraint returns an enum constraint over the given members.
func EnumConstraint(values ...Value) Constraint {
	return Constraint{Tag: ConstraintEnum, Values: values}
}

// Equal compares two constraints on their tag-relevant fields only.
func (c Constraint) Equal(o Constraint) bool {
	if c.Tag != o.Tag {
		return false
	}
	switch c.Tag {
	case ConstraintRange:
		return floatPtrEq(c.Min, o.Min) && floatPtrEq(c.Max, o.Max)
	case ConstraintLength:
		return intPtrEq(c.MinLength, o.MinLength) && intPtrEq(c.MaxLength, o.MaxLength)
	case ConstraintPattern:
		return c.Pattern == o.Pattern
	case ConstraintEnum:
		if len(c.Values) != len(o.Values) {
			return false
		}
		for i := range c.Values {
			if !c.Values[i].Equal(o.Values[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String returns a compact rendering used in region descriptions.
func (c Constraint) String() string {
	switch c.Tag {
	case ConstraintRange:
		return "range[" + fmtBound(c.Min) + ".." + fmtBound(c.Max) + "]"
	case ConstraintLength:
		return "length[" + fmtIntBound(c.MinLength) + ".." + fmtIntBound(c.MaxLength) + "]"
	case ConstraintPattern:
		return "pattern(" + c.Pattern + ")"
	case ConstraintEnum:
		parts := make([]string, len(c.Values))
		for i, v := range c.Values {
			parts[i] = v.String()
		}
		return "enum{" + strings.Join(parts, ",") + "}"
	default:
		return string(c.Tag)
	}
}

func fmtBound(f *float64) string {
	if f == nil {
		return "*"
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

func fmtIntBound(n *int) string {
	if n == nil {
		return "*"
	}
	return strconv.Itoa(*n)
}

func floatPtrEq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtrEq(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
