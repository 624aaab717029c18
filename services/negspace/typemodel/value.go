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
	"math"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// NUMERIC LIMITS
// =============================================================================

// Numeric limits used throughout region partitioning and boundary walking.
// They mirror the IEEE-754 double limits of dynamically typed runtimes.
const (
	// MaxSafeInteger is the largest integer exactly representable
	// as a double (2^53 - 1).
	MaxSafeInteger = float64(1<<53 - 1)

	// MinSafeInteger is the smallest integer exactly representable
	// as a double (-(2^53 - 1)).
	MinSafeInteger = -MaxSafeInteger

	// MaxValue is the largest finite double.
	MaxValue = math.MaxFloat64

	// MinValue is the smallest positive double.
	MinValue = math.SmallestNonzeroFloat64

	// Epsilon is the difference between 1 and the next larger double.
	Epsilon = 2.220446049250313e-16
)

// =============================================================================
// VALUE
// =============================================================================

// ValueTag identifies the runtime kind of a Value.
type ValueTag string

const (
	// TagNumber is a numeric value, including NaN and infinities.
	TagNumber ValueTag = "number"

	// TagString is a string value.
	TagString ValueTag = "string"

	// TagBool is a boolean value.
	TagBool ValueTag = "boolean"

	// TagNull is the null value.
	TagNull ValueTag = "null"

	// TagArray is an ordered sequence of values.
	TagArray ValueTag = "array"

	// TagObject is a string-keyed record of values.
	TagObject ValueTag = "object"
)

// Value is a tagged union over the dynamic runtime values the analysis
// understands.
//
// Numeric values carry explicit NaN and negative-zero flags so that
// predicates downstream never rely on float tricks to distinguish them.
// Use the constructors; they normalize the flags.
type Value struct {
	// Tag identifies which arm of the union is populated.
	Tag ValueTag

	// Num is the numeric payload when Tag is TagNumber.
	Num float64

	// NaN is true when the numeric payload is not-a-number.
	NaN bool

	// NegZero is true when the numeric payload is negative zero.
	NegZero bool

	// Str is the string payload when Tag is TagString.
	Str string

	// Bool is the boolean payload when Tag is TagBool.
	Bool bool

	// Arr is the element list when Tag is TagArray.
	Arr []Value

	// Obj is the member map when Tag is TagObject.
	Obj map[string]Value
}

// NumberValue returns a numeric Value, normalizing NaN and negative zero.
func NumberValue(f float64) Value {
	v := Value{Tag: TagNumber, Num: f}
	if math.IsNaN(f) {
		v.NaN = true
		v.Num = 0
	} else if f == 0 && math.Signbit(f) {
		v.NegZero = true
		v.Num = 0
	}
	return v
}

// NaNValue returns the not-a-number Value.
func NaNValue() Value { return Value{Tag: TagNumber, NaN: true} }

// NegZeroValue returns the negative-zero Value.
func NegZeroValue() Value { return Value{Tag: TagNumber, NegZero: true} }

// InfValue returns positive or negative infinity depending on sign.
func InfValue(sign int) Value {
	return Value{Tag: TagNumber, Num: math.Inf(sign)}
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{Tag: TagString, Str: s} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{Tag: TagBool, Bool: b} }

// NullValue returns the null Value.
func NullValue() Value { return Value{Tag: TagNull} }

// ArrayValue returns an array Value over the given elements.
func ArrayValue(elems ...Value) Value { return Value{Tag: TagArray, Arr: elems} }

// ObjectValue returns an object Value over the given members.
func ObjectValue(members map[string]Value) Value {
	return Value{Tag: TagObject, Obj: members}
}

// Float returns the numeric payload as a float64, reconstructing NaN
// and negative zero from the flags. Zero for non-numeric values.
func (v Value) Float() float64 {
	if v.Tag != TagNumber {
		return 0
	}
	if v.NaN {
		return math.NaN()
	}
	if v.NegZero {
		return math.Copysign(0, -1)
	}
	return v.Num
}

// IsFinite reports whether the value is a finite number.
func (v Value) IsFinite() bool {
	return v.Tag == TagNumber && !v.NaN && !math.IsInf(v.Num, 0)
}

// Equal reports deep equality. NaN equals NaN here: the analysis needs
// set membership, not IEEE comparison. Negative zero does not equal zero.
func (v Value) Equal(o Value) bool {
	if v.Tag != o.Tag {
		return false
	}
	switch v.Tag {
	case TagNumber:
		return v.NaN == o.NaN && v.NegZero == o.NegZero && v.Num == o.Num
	case TagString:
		return v.Str == o.Str
	case TagBool:
		return v.Bool == o.Bool
	case TagNull:
		return true
	case TagArray:
		if len(v.Arr) != len(o.Arr) {
			return false
		}
		for i := range v.Arr {
			if !v.Arr[i].Equal(o.Arr[i]) {
				return false
			}
		}
		return true
	case TagObject:
		if len(v.Obj) != len(o.Obj) {
			return false
		}
		for k, mv := range v.Obj {
			ov, ok := o.Obj[k]
			if !ok || !mv.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String returns a compact rendering used in region descriptions,
// explanations, and test case metadata.
func (v Value) String() string {
	switch v.Tag {
	case TagNumber:
		if v.NaN {
			return "NaN"
		}
		if v.NegZero {
			return "-0"
		}
		if math.IsInf(v.Num, 1) {
			return "Infinity"
		}
		if math.IsInf(v.Num, -1) {
			return "-Infinity"
		}
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case TagString:
		return strconv.Quote(v.Str)
	case TagBool:
		return strconv.FormatBool(v.Bool)
	case TagNull:
		return "null"
	case TagArray:
		parts := make([]string, len(v.Arr))
		for i, e := range v.Arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case TagObject:
		keys := make([]string, 0, len(v.Obj))
		for k := range v.Obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + v.Obj[k].String()
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return string(v.Tag)
	}
}
