// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lattice

import (
	"testing"

	"github.com/AleutianAI/negspace/services/negspace/typemodel"
)

func num() *typemodel.TypeNode { return typemodel.Primitive(typemodel.PrimitiveNumber) }
func str() *typemodel.TypeNode { return typemodel.Primitive(typemodel.PrimitiveString) }

// sampleTypes covers every node kind the lattice dispatches on.
func sampleTypes() []*typemodel.TypeNode {
	return []*typemodel.TypeNode{
		num(),
		str(),
		typemodel.Primitive(typemodel.PrimitiveBoolean),
		typemodel.Literal(typemodel.NumberValue(42)),
		typemodel.Literal(typemodel.StringValue("a")),
		typemodel.Union(num(), str()),
		typemodel.Intersection(num(), str()),
		typemodel.Array(num()),
		typemodel.Object(typemodel.Property{Name: "x", Type: num()}),
		typemodel.Any(),
		typemodel.Unknown(),
		typemodel.Never(),
	}
}

// =============================================================================
// SUBTYPE TESTS
// =============================================================================

func TestIsSubtype_Reflexive(t *testing.T) {
	l := New()
	for _, ty := range sampleTypes() {
		if !l.IsSubtype(ty, ty) {
			t.Errorf("IsSubtype(%s, %s) = false, want true", ty, ty)
		}
	}
}

func TestIsSubtype_NeverIsBottom(t *testing.T) {
	l := New()
	for _, ty := range sampleTypes() {
		if !l.IsSubtype(typemodel.Never(), ty) {
			t.Errorf("never must be a subtype of %s", ty)
		}
	}
}

func TestIsSubtype_AnyIsTop(t *testing.T) {
	l := New()
	for _, ty := range sampleTypes() {
		if !l.IsSubtype(ty, typemodel.Any()) {
			t.Errorf("%s must be a subtype of any", ty)
		}
	}
}

func TestIsSubtype_LiteralToPrimitive(t *testing.T) {
	l := New()
	tests := []struct {
		name    string
		literal *typemodel.TypeNode
		target  *typemodel.TypeNode
		want    bool
	}{
		{"number literal", typemodel.Literal(typemodel.NumberValue(42)), num(), true},
		{"string literal", typemodel.Literal(typemodel.StringValue("a")), str(), true},
		{"bool literal", typemodel.Literal(typemodel.BoolValue(true)), typemodel.Primitive(typemodel.PrimitiveBoolean), true},
		{"kind mismatch", typemodel.Literal(typemodel.StringValue("42")), num(), false},
		{"missing value", &typemodel.TypeNode{Kind: typemodel.KindLiteral}, num(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.IsSubtype(tt.literal, tt.target); got != tt.want {
				t.Errorf("IsSubtype = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSubtype_Union(t *testing.T) {
	l := New()

	t.Run("union source requires every member", func(t *testing.T) {
		lits := typemodel.Union(
			typemodel.Literal(typemodel.NumberValue(1)),
			typemodel.Literal(typemodel.NumberValue(2)),
		)
		if !l.IsSubtype(lits, num()) {
			t.Error("1|2 should be a subtype of number")
		}
		mixed := typemodel.Union(typemodel.Literal(typemodel.NumberValue(1)), str())
		if l.IsSubtype(mixed, num()) {
			t.Error("1|string is not a subtype of number")
		}
	})

	t.Run("union target requires one member", func(t *testing.T) {
		if !l.IsSubtype(num(), typemodel.Union(num(), str())) {
			t.Error("number should be a subtype of number|string")
		}
		if l.IsSubtype(typemodel.Primitive(typemodel.PrimitiveBoolean), typemodel.Union(num(), str())) {
			t.Error("boolean is not a subtype of number|string")
		}
	})
}

func TestIsSubtype_Intersection(t *testing.T) {
	l := New()
	inter := typemodel.Intersection(num(), str())
	if !l.IsSubtype(inter, num()) {
		t.Error("an intersection is a subtype of each of its members")
	}
	if !l.IsSubtype(inter, str()) {
		t.Error("an intersection is a subtype of each of its members")
	}
	if l.IsSubtype(inter, typemodel.Primitive(typemodel.PrimitiveBoolean)) {
		t.Error("number&string is unrelated to boolean")
	}
}

func TestIsSubtype_ArrayCovariance(t *testing.T) {
	l := New()
	lits := typemodel.Array(typemodel.Literal(typemodel.NumberValue(1)))
	if !l.IsSubtype(lits, typemodel.Array(num())) {
		t.Error("arrays are covariant in the element type")
	}
	if l.IsSubtype(typemodel.Array(str()), typemodel.Array(num())) {
		t.Error("string[] is not a subtype of number[]")
	}
}

func TestIsSubtype_ObjectStructural(t *testing.T) {
	l := New()
	point := typemodel.Object(
		typemodel.Property{Name: "x", Type: num()},
		typemodel.Property{Name: "y", Type: num()},
	)
	labeled := typemodel.Object(
		typemodel.Property{Name: "x", Type: num()},
		typemodel.Property{Name: "y", Type: num()},
		typemodel.Property{Name: "label", Type: str()},
	)

	if !l.IsSubtype(labeled, point) {
		t.Error("wider object should be a subtype of narrower object")
	}
	if l.IsSubtype(point, labeled) {
		t.Error("missing property means not a subtype")
	}
}

func TestIsSubtype_TotalOnNil(t *testing.T) {
	l := New()
	// Must not panic; nil is treated as unknown.
	if !l.IsSubtype(nil, nil) {
		t.Error("nil (unknown) should subtype itself")
	}
	if !l.IsSubtype(num(), nil) {
		t.Error("everything is a subtype of unknown")
	}
}

// =============================================================================
// JOIN / MEET TESTS
// =============================================================================

func TestJoin_Idempotent(t *testing.T) {
	l := New()
	for _, ty := range sampleTypes() {
		if got := l.Join(ty, ty); !got.Equal(ty) {
			t.Errorf("Join(%s, %s) = %s, want the input", ty, ty, got)
		}
	}
}

func TestMeet_Idempotent(t *testing.T) {
	l := New()
	for _, ty := range sampleTypes() {
		if got := l.Meet(ty, ty); !got.Equal(ty) {
			t.Errorf("Meet(%s, %s) = %s, want the input", ty, ty, got)
		}
	}
}

func TestJoin_RelatedAndUnrelated(t *testing.T) {
	l := New()
	lit := typemodel.Literal(typemodel.NumberValue(1))

	if got := l.Join(lit, num()); !got.Equal(num()) {
		t.Errorf("Join(1, number) = %s, want number", got)
	}
	if got := l.Join(num(), lit); !got.Equal(num()) {
		t.Errorf("Join(number, 1) = %s, want number", got)
	}

	got := l.Join(num(), str())
	if got.Kind != typemodel.KindUnion || len(got.Children) != 2 {
		t.Errorf("Join of unrelated types should be a 2-member union, got %s", got)
	}
	if !l.IsSubtype(num(), got) || !l.IsSubtype(str(), got) {
		t.Error("both sides must subtype their join")
	}
}

func TestMeet_RelatedAndUnrelated(t *testing.T) {
	l := New()
	lit := typemodel.Literal(typemodel.NumberValue(1))

	if got := l.Meet(lit, num()); !got.Equal(lit) {
		t.Errorf("Meet(1, number) = %s, want the literal", got)
	}

	got := l.Meet(num(), str())
	if got.Kind != typemodel.KindIntersection || len(got.Children) != 2 {
		t.Errorf("Meet of unrelated types should be a 2-member intersection, got %s", got)
	}
	if !l.IsSubtype(got, num()) || !l.IsSubtype(got, str()) {
		t.Error("the meet must subtype both sides")
	}
}

// =============================================================================
// WIDEN / NARROW TESTS
// =============================================================================

func TestWiden(t *testing.T) {
	l := New()

	t.Run("literal widens to primitive", func(t *testing.T) {
		got := l.Widen(typemodel.Literal(typemodel.NumberValue(7)))
		if !got.Equal(num()) {
			t.Errorf("Widen(7) = %s, want number", got)
		}
	})

	t.Run("union members widen and collapse", func(t *testing.T) {
		u := typemodel.Union(
			typemodel.Literal(typemodel.NumberValue(1)),
			typemodel.Literal(typemodel.NumberValue(2)),
		)
		got := l.Widen(u)
		if !got.Equal(num()) {
			t.Errorf("Widen(1|2) = %s, want the collapsed number", got)
		}
	})

	t.Run("mixed union keeps distinct members", func(t *testing.T) {
		u := typemodel.Union(
			typemodel.Literal(typemodel.NumberValue(1)),
			typemodel.Literal(typemodel.StringValue("a")),
		)
		got := l.Widen(u)
		if got.Kind != typemodel.KindUnion || len(got.Children) != 2 {
			t.Errorf("Widen(1|\"a\") = %s, want number|string", got)
		}
	})

	t.Run("primitive is a fixed point", func(t *testing.T) {
		if got := l.Widen(num()); !got.Equal(num()) {
			t.Errorf("Widen(number) = %s, want number", got)
		}
	})
}

func TestNarrow_NonDestructive(t *testing.T) {
	l := New()
	base := num()
	narrowed := l.Narrow(base, typemodel.ClosedRange(0, 10))

	if len(base.Constraints) != 0 {
		t.Error("Narrow must not mutate its input")
	}
	if len(narrowed.Constraints) != 1 {
		t.Errorf("narrowed node has %d constraints, want 1", len(narrowed.Constraints))
	}
	if narrowed.Constraints[0].Tag != typemodel.ConstraintRange {
		t.Errorf("constraint tag = %s, want range", narrowed.Constraints[0].Tag)
	}
}
