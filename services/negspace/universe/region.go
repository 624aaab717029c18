// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package universe

import (
	"math"
	"regexp"
	"strings"

	"github.com/AleutianAI/negspace/services/negspace/typemodel"
)

// CompoundSeparator joins component region IDs in a Cartesian product.
const CompoundSeparator = "×"

// =============================================================================
// REGION
// =============================================================================

// Region is a named subset of a type's universe.
//
// The ID is the sole equality key for coverage comparison. The Kind is
// resolved once at construction and carries the payload predicates
// dispatch on.
type Region struct {
	// ID is the deterministic region key, unique within one universe.
	ID string

	// Type is the type node this region partitions.
	Type *typemodel.TypeNode

	// Constraints are the constraints that shaped this region.
	Constraints []typemodel.Constraint

	// Cardinality is the region's size.
	Cardinality typemodel.Cardinality

	// Description is an optional human-readable summary.
	Description string

	// Kind is the resolved region classification with its payload.
	Kind RegionKind
}

// Matches reports whether a single runtime value falls in this region.
// Compound regions never match a single value; use MatchesArgs.
func (r Region) Matches(v typemodel.Value) bool {
	return r.Kind.Matches(v)
}

// MatchesArgs reports whether an ordered argument list falls in this
// compound region: every positional part must match the corresponding
// argument. Non-compound regions match a one-element argument list.
func (r Region) MatchesArgs(args []typemodel.Value) bool {
	if r.Kind.Class != ClassCompound {
		return len(args) == 1 && r.Matches(args[0])
	}
	if len(args) != len(r.Kind.Parts) {
		return false
	}
	for i, part := range r.Kind.Parts {
		if !part.Matches(args[i]) {
			return false
		}
	}
	return true
}

// =============================================================================
// REGION KIND
// =============================================================================

// Class enumerates the region classifications.
type Class string

const (
	// ClassNumberSpecial holds NaN, the infinities, zero, negative
	// zero, MAX_VALUE and MIN_VALUE.
	ClassNumberSpecial Class = "number-special"

	// ClassNumberNegative holds finite negatives inside the safe range.
	ClassNumberNegative Class = "number-negative"

	// ClassNumberZero holds exactly zero (not negative zero).
	ClassNumberZero Class = "number-zero"

	// ClassNumberPositive holds finite positives inside the safe range.
	ClassNumberPositive Class = "number-positive"

	// ClassNumberMin holds the minimum safe integer.
	ClassNumberMin Class = "number-min"

	// ClassNumberMax holds the maximum safe integer.
	ClassNumberMax Class = "number-max"

	// ClassRange is a numeric range carved out by a range constraint.
	ClassRange Class = "range"

	// ClassStringEmpty holds the empty string.
	ClassStringEmpty Class = "string-empty"

	// ClassStringSingle holds one-character strings.
	ClassStringSingle Class = "string-single"

	// ClassStringSpecial holds the fixed special-string set.
	ClassStringSpecial Class = "string-special"

	// ClassStringShort holds strings of length 2 through 10.
	ClassStringShort Class = "string-short"

	// ClassStringMedium holds strings of length 11 through 100.
	ClassStringMedium Class = "string-medium"

	// ClassStringLong holds strings of length 101 through 1000.
	ClassStringLong Class = "string-long"

	// ClassStringVeryLong holds strings longer than 1000.
	ClassStringVeryLong Class = "string-very-long"

	// ClassLength is a length band carved out by a length constraint.
	ClassLength Class = "length"

	// ClassPattern holds strings matching a pattern constraint.
	ClassPattern Class = "pattern"

	// ClassEnum holds the members of an enum constraint.
	ClassEnum Class = "enum"

	// ClassBoolTrue holds true.
	ClassBoolTrue Class = "boolean-true"

	// ClassBoolFalse holds false.
	ClassBoolFalse Class = "boolean-false"

	// ClassLiteral holds a single literal value.
	ClassLiteral Class = "literal"

	// ClassArrayEmpty holds the empty array.
	ClassArrayEmpty Class = "array-empty"

	// ClassArraySingle holds one-element arrays.
	ClassArraySingle Class = "array-single"

	// ClassArrayMultiple holds arrays with two or more elements.
	ClassArrayMultiple Class = "array-multiple"

	// ClassObjectEmpty holds the memberless object.
	ClassObjectEmpty Class = "object-empty"

	// ClassObjectPartial holds objects with some declared properties.
	ClassObjectPartial Class = "object-partial"

	// ClassObjectComplete holds objects with every declared property.
	ClassObjectComplete Class = "object-complete"

	// ClassCatchAll matches every value (any, unknown, unrecognized).
	ClassCatchAll Class = "catch-all"

	// ClassCompound is a Cartesian-product region over Parts.
	ClassCompound Class = "compound"
)

// RegionKind is the tagged classification of a region, resolved at
// construction time. Only the payload fields relevant to the Class are
// populated.
type RegionKind struct {
	// Class selects the classification.
	Class Class

	// Min and Max bound a ClassRange kind. Nil means unbounded.
	Min *float64
	Max *float64

	// MinLen and MaxLen bound a ClassLength kind. Nil means unbounded.
	MinLen *int
	MaxLen *int

	// Pattern is the regex of a ClassPattern kind.
	Pattern string

	// Enum is the member list of a ClassEnum kind.
	Enum []typemodel.Value

	// Literal is the value of a ClassLiteral kind.
	Literal *typemodel.Value

	// PropNames are the declared property names for object kinds.
	PropNames []string

	// Parts are the positional component kinds of a ClassCompound kind.
	Parts []RegionKind
}

// SpecialStrings is the fixed special-string set partitioned into the
// string-special region and consulted by the boundary walker.
var SpecialStrings = []string{
	" ",
	"\t",
	"\n",
	"\x00",
	"   ",
	"héllo wörld",
	"😀",
}

// Matches reports whether a single runtime value falls in this kind.
//
// Predicates follow the coverage contract: number-zero is exactly 0 and
// not negative zero; number-special is NaN, non-finite, or negative
// zero; string bands test rune length. Predicates for distinct kinds of
// the same universe are pairwise disjoint for numbers and booleans and
// may overlap for strings (a special string is also a length-band
// member).
func (k RegionKind) Matches(v typemodel.Value) bool {
	switch k.Class {
	case ClassNumberSpecial:
		return v.Tag == typemodel.TagNumber &&
			(v.NaN || v.NegZero || math.IsInf(v.Num, 0))
	case ClassNumberZero:
		return v.Tag == typemodel.TagNumber && !v.NaN && !v.NegZero && v.Num == 0
	case ClassNumberNegative:
		return v.IsFinite() && !v.NegZero && v.Num < 0 && v.Num != typemodel.MinSafeInteger
	case ClassNumberPositive:
		return v.IsFinite() && v.Num > 0 && v.Num != typemodel.MaxSafeInteger
	case ClassNumberMin:
		return v.IsFinite() && v.Num == typemodel.MinSafeInteger
	case ClassNumberMax:
		return v.IsFinite() && v.Num == typemodel.MaxSafeInteger
	case ClassRange:
		if v.Tag != typemodel.TagNumber || v.NaN {
			return false
		}
		f := v.Float()
		if k.Min != nil && f < *k.Min {
			return false
		}
		if k.Max != nil && f > *k.Max {
			return false
		}
		return true
	case ClassStringEmpty:
		return v.Tag == typemodel.TagString && v.Str == ""
	case ClassStringSingle:
		return v.Tag == typemodel.TagString && runeLen(v.Str) == 1
	case ClassStringSpecial:
		if v.Tag != typemodel.TagString {
			return false
		}
		for _, s := range SpecialStrings {
			if v.Str == s {
				return true
			}
		}
		return false
	case ClassStringShort:
		return stringBand(v, 2, 10)
	case ClassStringMedium:
		return stringBand(v, 11, 100)
	case ClassStringLong:
		return stringBand(v, 101, 1000)
	case ClassStringVeryLong:
		return v.Tag == typemodel.TagString && runeLen(v.Str) > 1000
	case ClassLength:
		n, ok := lengthOf(v)
		if !ok {
			return false
		}
		if k.MinLen != nil && n < *k.MinLen {
			return false
		}
		if k.MaxLen != nil && n > *k.MaxLen {
			return false
		}
		return true
	case ClassPattern:
		if v.Tag != typemodel.TagString {
			return false
		}
		re, err := regexp.Compile(k.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(v.Str)
	case ClassEnum:
		for _, m := range k.Enum {
			if m.Equal(v) {
				return true
			}
		}
		return false
	case ClassBoolTrue:
		return v.Tag == typemodel.TagBool && v.Bool
	case ClassBoolFalse:
		return v.Tag == typemodel.TagBool && !v.Bool
	case ClassLiteral:
		return k.Literal != nil && k.Literal.Equal(v)
	case ClassArrayEmpty:
		return v.Tag == typemodel.TagArray && len(v.Arr) == 0
	case ClassArraySingle:
		return v.Tag == typemodel.TagArray && len(v.Arr) == 1
	case ClassArrayMultiple:
		return v.Tag == typemodel.TagArray && len(v.Arr) >= 2
	case ClassObjectEmpty:
		return v.Tag == typemodel.TagObject && len(v.Obj) == 0
	case ClassObjectPartial:
		if v.Tag != typemodel.TagObject || len(v.Obj) == 0 {
			return false
		}
		return !hasAllProps(v, k.PropNames)
	case ClassObjectComplete:
		return v.Tag == typemodel.TagObject && len(v.Obj) > 0 && hasAllProps(v, k.PropNames)
	case ClassCatchAll:
		return true
	case ClassCompound:
		return false
	default:
		return false
	}
}

// PrimitiveFamily returns the primitive name the kind partitions
// (number, string, boolean), or empty for structural and catch-all
// kinds. The boundary walker keys its value tables on this.
func (k RegionKind) PrimitiveFamily() string {
	switch k.Class {
	case ClassNumberSpecial, ClassNumberNegative, ClassNumberZero,
		ClassNumberPositive, ClassNumberMin, ClassNumberMax, ClassRange:
		return typemodel.PrimitiveNumber
	case ClassStringEmpty, ClassStringSingle, ClassStringSpecial,
		ClassStringShort, ClassStringMedium, ClassStringLong,
		ClassStringVeryLong, ClassLength, ClassPattern:
		return typemodel.PrimitiveString
	case ClassBoolTrue, ClassBoolFalse:
		return typemodel.PrimitiveBoolean
	case ClassEnum, ClassLiteral:
		return ""
	default:
		return ""
	}
}

func runeLen(s string) int {
	return len([]rune(s))
}

func stringBand(v typemodel.Value, lo, hi int) bool {
	if v.Tag != typemodel.TagString {
		return false
	}
	n := runeLen(v.Str)
	return n >= lo && n <= hi
}

func lengthOf(v typemodel.Value) (int, bool) {
	switch v.Tag {
	case typemodel.TagString:
		return runeLen(v.Str), true
	case typemodel.TagArray:
		return len(v.Arr), true
	default:
		return 0, false
	}
}

func hasAllProps(v typemodel.Value, names []string) bool {
	for _, name := range names {
		if _, ok := v.Obj[name]; !ok {
			return false
		}
	}
	return true
}

// sanitizeIDPart folds arbitrary text (literal renderings, patterns)
// into the region-id alphabet.
func sanitizeIDPart(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
