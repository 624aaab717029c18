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
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/negspace/services/negspace/typemodel"
)

func newCalc() *Calculator {
	return NewCalculator(nil, nil)
}

func regionByID(t *testing.T, regions []Region, id string) Region {
	t.Helper()
	for _, r := range regions {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("region %q not found in %v", id, regionIDs(regions))
	return Region{}
}

func regionIDs(regions []Region) []string {
	ids := make([]string, len(regions))
	for i, r := range regions {
		ids[i] = r.ID
	}
	return ids
}

// =============================================================================
// PRIMITIVE UNIVERSES
// =============================================================================

func TestCalculate_NumberUniverse(t *testing.T) {
	regions := newCalc().Calculate(typemodel.Primitive(typemodel.PrimitiveNumber))
	require.Len(t, regions, 6)

	special := regionByID(t, regions, "number-special")
	assert.Equal(t, typemodel.Finite(7), special.Cardinality,
		"NaN, +Infinity, -Infinity, 0, -0, MAX_VALUE, MIN_VALUE")

	zero := regionByID(t, regions, "number-zero")
	assert.Equal(t, typemodel.Finite(1), zero.Cardinality)

	assert.True(t, regionByID(t, regions, "number-negative").Cardinality.IsInfinite())
	assert.True(t, regionByID(t, regions, "number-positive").Cardinality.IsInfinite())
	assert.Equal(t, typemodel.Finite(1), regionByID(t, regions, "number-min").Cardinality)
	assert.Equal(t, typemodel.Finite(1), regionByID(t, regions, "number-max").Cardinality)
}

func TestCalculate_NumberRangeConstraint(t *testing.T) {
	node := typemodel.Primitive(typemodel.PrimitiveNumber).
		WithConstraints(typemodel.ClosedRange(0, 10))
	regions := newCalc().Calculate(node)

	require.Len(t, regions, 1)
	assert.Equal(t, "number-range-0-10", regions[0].ID)
	assert.Equal(t, typemodel.Finite(11), regions[0].Cardinality)
	assert.Equal(t, ClassRange, regions[0].Kind.Class)
}

func TestCalculate_RangeCardinality(t *testing.T) {
	half := 0.5
	ten := 10.0
	tests := []struct {
		name string
		min  *float64
		max  *float64
		want typemodel.Cardinality
	}{
		{"open below", nil, &ten, typemodel.Infinite()},
		{"open above", &ten, nil, typemodel.Infinite()},
		{"fractional bound", &half, &ten, typemodel.Infinite()},
		{"inverted", &ten, &half, typemodel.Infinite()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := typemodel.Primitive(typemodel.PrimitiveNumber).
				WithConstraints(typemodel.RangeConstraint(tt.min, tt.max))
			regions := newCalc().Calculate(node)
			require.Len(t, regions, 1)
			assert.Equal(t, tt.want.IsInfinite(), regions[0].Cardinality.IsInfinite())
		})
	}
}

func TestCalculate_StringUniverse(t *testing.T) {
	regions := newCalc().Calculate(typemodel.Primitive(typemodel.PrimitiveString))

	empty := regionByID(t, regions, "string-empty")
	assert.Equal(t, typemodel.Finite(1), empty.Cardinality)

	special := regionByID(t, regions, "string-special")
	assert.False(t, special.Cardinality.IsInfinite())

	for _, id := range []string{"string-single", "string-short", "string-medium", "string-long", "string-very-long"} {
		assert.True(t, regionByID(t, regions, id).Cardinality.IsInfinite(),
			"length bands are treated as infinite: %s", id)
	}
}

func TestCalculate_StringConstraintsReplaceBands(t *testing.T) {
	node := typemodel.Primitive(typemodel.PrimitiveString).
		WithConstraints(typemodel.ClosedLength(2, 10), typemodel.PatternConstraint("^abc"))
	regions := newCalc().Calculate(node)

	require.Len(t, regions, 2)
	assert.Equal(t, "string-length-2-10", regions[0].ID)
	assert.Equal(t, "string-pattern-_abc", regions[1].ID)
}

func TestCalculate_Boolean(t *testing.T) {
	regions := newCalc().Calculate(typemodel.Primitive(typemodel.PrimitiveBoolean))
	require.Len(t, regions, 2)
	assert.Equal(t, "boolean-true", regions[0].ID)
	assert.Equal(t, "boolean-false", regions[1].ID)
	assert.Equal(t, typemodel.Finite(1), regions[0].Cardinality)
	assert.Equal(t, typemodel.Finite(1), regions[1].Cardinality)
}

// =============================================================================
// COMPOSITE UNIVERSES
// =============================================================================

func TestCalculate_Literal(t *testing.T) {
	regions := newCalc().Calculate(typemodel.Literal(typemodel.NumberValue(42)))
	require.Len(t, regions, 1)
	assert.Equal(t, "literal-42", regions[0].ID)
	assert.Equal(t, typemodel.Finite(1), regions[0].Cardinality)
}

func TestCalculate_UnionConcatenatesWithUniqueIDs(t *testing.T) {
	u := typemodel.Union(
		typemodel.Primitive(typemodel.PrimitiveBoolean),
		typemodel.Primitive(typemodel.PrimitiveBoolean),
	)
	regions := newCalc().Calculate(u)

	require.Len(t, regions, 4, "union concatenates member universes without dedup")
	ids := map[string]bool{}
	for _, r := range regions {
		assert.False(t, ids[r.ID], "IDs must be unique within one universe: %s", r.ID)
		ids[r.ID] = true
	}
}

func TestCalculate_IntersectionPicksSmallestMember(t *testing.T) {
	inter := typemodel.Intersection(
		typemodel.Primitive(typemodel.PrimitiveNumber),  // infinite total
		typemodel.Primitive(typemodel.PrimitiveBoolean), // total 2
	)
	regions := newCalc().Calculate(inter)

	require.Len(t, regions, 2)
	assert.Equal(t, "boolean-true", regions[0].ID)
}

func TestCalculate_ArrayBands(t *testing.T) {
	regions := newCalc().Calculate(typemodel.Array(typemodel.Primitive(typemodel.PrimitiveNumber)))
	require.Len(t, regions, 3)
	assert.Equal(t, typemodel.Finite(1), regionByID(t, regions, "array-empty").Cardinality)
	assert.True(t, regionByID(t, regions, "array-multiple").Cardinality.IsInfinite())
}

func TestCalculate_ArrayLengthConstraint(t *testing.T) {
	node := typemodel.Array(typemodel.Primitive(typemodel.PrimitiveNumber))
	node = node.WithConstraints(typemodel.ClosedLength(0, 5))
	regions := newCalc().Calculate(node)
	require.Len(t, regions, 1)
	assert.Equal(t, "array-length-0-5", regions[0].ID)
	assert.True(t, regions[0].Cardinality.IsInfinite())
}

func TestCalculate_TopAndBottom(t *testing.T) {
	calc := newCalc()

	anyRegions := calc.Calculate(typemodel.Any())
	require.Len(t, anyRegions, 1)
	assert.True(t, anyRegions[0].Cardinality.IsInfinite())

	assert.Empty(t, calc.Calculate(typemodel.Never()), "never has no values")

	unknownRegions := calc.Calculate(typemodel.Unknown())
	require.Len(t, unknownRegions, 1)
	assert.Equal(t, ClassCatchAll, unknownRegions[0].Kind.Class)

	nilRegions := calc.Calculate(nil)
	require.Len(t, nilRegions, 1, "nil input falls back to the unknown universe")
}

// =============================================================================
// SIGNATURE UNIVERSES
// =============================================================================

func TestForSignature_CartesianProduct(t *testing.T) {
	sig := typemodel.FunctionSignature{
		Name: "f",
		Parameters: []typemodel.Parameter{
			{Name: "x", Type: typemodel.Primitive(typemodel.PrimitiveNumber)},
			{Name: "y", Type: typemodel.Primitive(typemodel.PrimitiveBoolean)},
		},
	}
	regions := newCalc().ForSignature(sig)

	require.Len(t, regions, 12, "6 number regions x 2 boolean regions")

	for _, r := range regions {
		parts := strings.Split(r.ID, CompoundSeparator)
		require.Len(t, parts, 2, "compound IDs are ×-joined in parameter order")
		assert.True(t, strings.HasPrefix(parts[0], "number-"))
		assert.True(t, strings.HasPrefix(parts[1], "boolean-"))
		require.Len(t, r.Kind.Parts, 2)

		numberInfinite := parts[0] == "number-negative" || parts[0] == "number-positive"
		assert.Equal(t, numberInfinite, r.Cardinality.IsInfinite(),
			"compound cardinality is the product, infinite absorbing: %s", r.ID)
	}
}

func TestForSignature_SingleParameterKeepsComponentIDs(t *testing.T) {
	sig := typemodel.FunctionSignature{
		Name: "f",
		Parameters: []typemodel.Parameter{
			{Name: "x", Type: typemodel.Primitive(typemodel.PrimitiveNumber)},
		},
	}
	regions := newCalc().ForSignature(sig)
	require.Len(t, regions, 6)
	assert.Equal(t, "number-special", regions[0].ID)
}

func TestForSignature_MissingParameterTypeFallsBack(t *testing.T) {
	sig := typemodel.FunctionSignature{
		Name:       "f",
		Parameters: []typemodel.Parameter{{Name: "x"}},
	}
	regions := newCalc().ForSignature(sig)
	require.Len(t, regions, 1)
	assert.Equal(t, ClassCatchAll, regions[0].Kind.Class)
}

func TestForSignature_CompoundConstraintsAreUnioned(t *testing.T) {
	sig := typemodel.FunctionSignature{
		Name: "f",
		Parameters: []typemodel.Parameter{
			{Name: "x", Type: typemodel.Primitive(typemodel.PrimitiveNumber).
				WithConstraints(typemodel.ClosedRange(0, 10))},
			{Name: "y", Type: typemodel.Primitive(typemodel.PrimitiveString).
				WithConstraints(typemodel.ClosedLength(1, 5))},
		},
	}
	regions := newCalc().ForSignature(sig)
	require.Len(t, regions, 1)
	assert.Equal(t, "number-range-0-10"+CompoundSeparator+"string-length-1-5", regions[0].ID)
	assert.Len(t, regions[0].Constraints, 2)
	assert.True(t, regions[0].Cardinality.IsInfinite(),
		"the infinite string length band absorbs the finite range factor")
}

func TestForSignature_CachesAndCollapsesConcurrentCalls(t *testing.T) {
	calc := newCalc()
	sig := typemodel.FunctionSignature{
		Name: "f",
		Parameters: []typemodel.Parameter{
			{Name: "x", Type: typemodel.Primitive(typemodel.PrimitiveNumber)},
		},
	}

	var wg sync.WaitGroup
	results := make([][]Region, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = calc.ForSignature(sig)
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Equal(t, regionIDs(results[0]), regionIDs(r))
	}
}

// =============================================================================
// PREDICATE TESTS
// =============================================================================

func TestRegionKind_NumberPredicates(t *testing.T) {
	tests := []struct {
		name  string
		class Class
		v     typemodel.Value
		want  bool
	}{
		{"zero matches zero", ClassNumberZero, typemodel.NumberValue(0), true},
		{"zero rejects neg zero", ClassNumberZero, typemodel.NegZeroValue(), false},
		{"special matches NaN", ClassNumberSpecial, typemodel.NaNValue(), true},
		{"special matches -0", ClassNumberSpecial, typemodel.NegZeroValue(), true},
		{"special matches +Inf", ClassNumberSpecial, typemodel.InfValue(1), true},
		{"special rejects 5", ClassNumberSpecial, typemodel.NumberValue(5), false},
		{"positive matches 5", ClassNumberPositive, typemodel.NumberValue(5), true},
		{"positive rejects max safe", ClassNumberPositive, typemodel.NumberValue(typemodel.MaxSafeInteger), false},
		{"max matches max safe", ClassNumberMax, typemodel.NumberValue(typemodel.MaxSafeInteger), true},
		{"negative matches -5", ClassNumberNegative, typemodel.NumberValue(-5), true},
		{"negative rejects string", ClassNumberNegative, typemodel.StringValue("-5"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := RegionKind{Class: tt.class}
			assert.Equal(t, tt.want, k.Matches(tt.v))
		})
	}
}

func TestRegionKind_StringPredicates(t *testing.T) {
	tests := []struct {
		name  string
		class Class
		v     typemodel.Value
		want  bool
	}{
		{"empty", ClassStringEmpty, typemodel.StringValue(""), true},
		{"single", ClassStringSingle, typemodel.StringValue("a"), true},
		{"single counts runes", ClassStringSingle, typemodel.StringValue("é"), true},
		{"short lower edge", ClassStringShort, typemodel.StringValue("ab"), true},
		{"short upper edge", ClassStringShort, typemodel.StringValue("abcdefghij"), true},
		{"short rejects 11", ClassStringShort, typemodel.StringValue("abcdefghijk"), false},
		{"special space", ClassStringSpecial, typemodel.StringValue(" "), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := RegionKind{Class: tt.class}
			assert.Equal(t, tt.want, k.Matches(tt.v))
		})
	}
}

func TestRegion_MatchesArgs(t *testing.T) {
	calc := newCalc()
	sig := typemodel.FunctionSignature{
		Name: "f",
		Parameters: []typemodel.Parameter{
			{Name: "x", Type: typemodel.Primitive(typemodel.PrimitiveNumber)},
			{Name: "y", Type: typemodel.Primitive(typemodel.PrimitiveBoolean)},
		},
	}
	regions := calc.ForSignature(sig)
	target := regionByID(t, regions, "number-positive"+CompoundSeparator+"boolean-true")

	assert.True(t, target.MatchesArgs([]typemodel.Value{
		typemodel.NumberValue(5), typemodel.BoolValue(true),
	}))
	assert.False(t, target.MatchesArgs([]typemodel.Value{
		typemodel.NumberValue(5), typemodel.BoolValue(false),
	}), "every positional part must match")
	assert.False(t, target.MatchesArgs([]typemodel.Value{typemodel.NumberValue(5)}),
		"arity mismatch never matches")
}
