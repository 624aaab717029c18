// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lattice implements the subtype partial order over abstract
// type nodes, with join (least upper bound), meet (greatest lower
// bound), widening, and constraint narrowing.
//
// All operations are total: unrecognized kind combinations degrade to
// "not a subtype" for queries and to fresh union/intersection nodes for
// join/meet. Nothing in this package returns an error or panics on any
// input, including nil nodes.
//
// # Thread Safety
//
// A Lattice is stateless. All methods are safe for concurrent use.
package lattice

import (
	"github.com/AleutianAI/negspace/services/negspace/typemodel"
)

// Lattice answers subtype queries and computes bounds over type nodes.
type Lattice struct{}

// New returns a Lattice.
func New() *Lattice {
	return &Lattice{}
}

// =============================================================================
// SUBTYPING
// =============================================================================

// IsSubtype reports whether a is a subtype of b.
//
// Rules apply in priority order:
//  1. Structural equality implies subtype (reflexivity).
//  2. never is a subtype of everything.
//  3. Everything is a subtype of any and unknown.
//  4. A literal is a subtype of a primitive when the literal value's
//     runtime kind matches the primitive name.
//  5. A union is a subtype of T iff every member is. A is a subtype of
//     a union iff A is a subtype of at least one member.
//  6. An intersection is a subtype of T iff at least one member is:
//     the intersection's value set is contained in each member's.
//  7. Arrays are covariant in their element type.
//  8. Objects subtype structurally: every property declared on the
//     target must be present on the source with a subtype-compatible
//     type. A missing property means not a subtype.
//
// Anything else is not a subtype. Nil nodes are treated as unknown.
func (l *Lattice) IsSubtype(a, b *typemodel.TypeNode) bool {
	a, b = norm(a), norm(b)

	if a.Equal(b) {
		return true
	}
	if a.Kind == typemodel.KindNever {
		return true
	}
	if b.Kind == typemodel.KindAny || b.Kind == typemodel.KindUnknown {
		return true
	}

	if a.Kind == typemodel.KindLiteral && b.Kind == typemodel.KindPrimitive {
		return literalMatchesPrimitive(a.Literal, b.Name)
	}

	if a.Kind == typemodel.KindUnion {
		if len(a.Children) == 0 {
			return false
		}
		for _, m := range a.Children {
			if !l.IsSubtype(m, b) {
				return false
			}
		}
		return true
	}
	if b.Kind == typemodel.KindUnion {
		for _, m := range b.Children {
			if l.IsSubtype(a, m) {
				return true
			}
		}
		return false
	}

	if a.Kind == typemodel.KindIntersection {
		for _, m := range a.Children {
			if l.IsSubtype(m, b) {
				return true
			}
		}
		return false
	}
	if b.Kind == typemodel.KindIntersection {
		if len(b.Children) == 0 {
			return false
		}
		for _, m := range b.Children {
			if !l.IsSubtype(a, m) {
				return false
			}
		}
		return true
	}

	if a.Kind == typemodel.KindArray && b.Kind == typemodel.KindArray {
		if len(a.Children) != 1 || len(b.Children) != 1 {
			return false
		}
		return l.IsSubtype(a.Children[0], b.Children[0])
	}

	if a.Kind == typemodel.KindObject && b.Kind == typemodel.KindObject {
		for _, want := range b.Properties {
			got, ok := findProperty(a, want.Name)
			if !ok || !l.IsSubtype(got, want.Type) {
				return false
			}
		}
		return true
	}

	return false
}

// IsSupertype reports whether a is a supertype of b.
func (l *Lattice) IsSupertype(a, b *typemodel.TypeNode) bool {
	return l.IsSubtype(b, a)
}

// =============================================================================
// BOUNDS
// =============================================================================

// Join returns the least upper bound of a and b: the common ancestor
// when one side subtypes the other, otherwise a fresh union node.
func (l *Lattice) Join(a, b *typemodel.TypeNode) *typemodel.TypeNode {
	a, b = norm(a), norm(b)
	if l.IsSubtype(a, b) {
		return b
	}
	if l.IsSubtype(b, a) {
		return a
	}
	return typemodel.Union(a, b)
}

// Meet returns the greatest lower bound of a and b: the more specific
// side when related, otherwise a fresh intersection node.
func (l *Lattice) Meet(a, b *typemodel.TypeNode) *typemodel.TypeNode {
	a, b = norm(a), norm(b)
	if l.IsSubtype(a, b) {
		return a
	}
	if l.IsSubtype(b, a) {
		return b
	}
	return typemodel.Intersection(a, b)
}

// =============================================================================
// WIDEN / NARROW
// =============================================================================

// Widen generalizes a type one step: a literal widens to its base
// primitive, and a union widens each member, collapsing structurally
// equal results. A union that collapses to one member returns that
// member directly. Everything else widens to itself.
func (l *Lattice) Widen(t *typemodel.TypeNode) *typemodel.TypeNode {
	t = norm(t)
	switch t.Kind {
	case typemodel.KindLiteral:
		return typemodel.Primitive(literalPrimitiveName(t.Literal))
	case typemodel.KindUnion:
		var widened []*typemodel.TypeNode
		for _, m := range t.Children {
			w := l.Widen(m)
			dup := false
			for _, seen := range widened {
				if seen.Equal(w) {
					dup = true
					break
				}
			}
			if !dup {
				widened = append(widened, w)
			}
		}
		if len(widened) == 1 {
			return widened[0]
		}
		return typemodel.Union(widened...)
	default:
		return t
	}
}

// Narrow returns a copy of t with the constraint appended. The input
// node is never modified.
func (l *Lattice) Narrow(t *typemodel.TypeNode, c typemodel.Constraint) *typemodel.TypeNode {
	return norm(t).WithConstraints(c)
}

// =============================================================================
// HELPERS
// =============================================================================

// norm maps nil to the unknown node so every operation stays total.
func norm(t *typemodel.TypeNode) *typemodel.TypeNode {
	if t == nil {
		return typemodel.Unknown()
	}
	return t
}

// literalMatchesPrimitive checks the literal value's tag against the
// primitive name directly. No string re-parsing of literal encodings:
// a literal with no value matches nothing.
func literalMatchesPrimitive(v *typemodel.Value, primitive string) bool {
	if v == nil {
		return false
	}
	return literalPrimitiveName(v) == primitive
}

func literalPrimitiveName(v *typemodel.Value) string {
	if v == nil {
		return typemodel.PrimitiveNull
	}
	switch v.Tag {
	case typemodel.TagNumber:
		return typemodel.PrimitiveNumber
	case typemodel.TagString:
		return typemodel.PrimitiveString
	case typemodel.TagBool:
		return typemodel.PrimitiveBoolean
	default:
		return typemodel.PrimitiveNull
	}
}

func findProperty(t *typemodel.TypeNode, name string) (*typemodel.TypeNode, bool) {
	for _, p := range t.Properties {
		if p.Name == name {
			return p.Type, true
		}
	}
	return nil, false
}
