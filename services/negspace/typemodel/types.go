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

// =============================================================================
// TYPE KINDS
// =============================================================================

// Kind identifies the shape of a TypeNode.
type Kind string

const (
	// KindPrimitive is a named base type (number, string, boolean, null).
	KindPrimitive Kind = "primitive"

	// KindLiteral is a single-value type (the literal 42, the literal "a").
	KindLiteral Kind = "literal"

	// KindUnion is a sum of its children.
	KindUnion Kind = "union"

	// KindIntersection is the intersection of its children.
	KindIntersection Kind = "intersection"

	// KindArray is a homogeneous sequence; Children[0] is the element type.
	KindArray Kind = "array"

	// KindTuple is a fixed-length heterogeneous sequence.
	KindTuple Kind = "tuple"

	// KindObject is a structural record with named properties.
	KindObject Kind = "object"

	// KindFunction is a callable type.
	KindFunction Kind = "function"

	// KindGeneric is an unresolved type parameter.
	KindGeneric Kind = "generic"

	// KindUnknown is the unconstrained top type with no assumptions.
	KindUnknown Kind = "unknown"

	// KindAny is the unconstrained top type.
	KindAny Kind = "any"

	// KindNever is the empty type. It has no values.
	KindNever Kind = "never"
)

// Primitive names recognized by the lattice and the universe calculator.
const (
	PrimitiveNumber  = "number"
	PrimitiveString  = "string"
	PrimitiveBoolean = "boolean"
	PrimitiveNull    = "null"
)

// =============================================================================
// TYPE NODE
// =============================================================================

// Property is a named member of an object type.
type Property struct {
	// Name is the property key.
	Name string

	// Type is the property's declared type.
	Type *TypeNode
}

// TypeNode is an abstract, language-independent type description.
//
// Nodes are immutable after construction. Composite kinds (union,
// intersection, tuple) keep their children in declaration order;
// order is significant for region-id determinism downstream.
type TypeNode struct {
	// Kind identifies the node shape.
	Kind Kind

	// Name is the primitive name or generic parameter name, when present.
	Name string

	// Children are the ordered component types of composite kinds.
	// For KindArray, Children[0] is the element type.
	Children []*TypeNode

	// Properties are the declared members of a KindObject node.
	Properties []Property

	// Literal is the value of a KindLiteral node.
	Literal *Value

	// Constraints restrict the node's value set. Multiple constraints
	// are conjunctive. Order carries no meaning.
	Constraints []Constraint
}

// Primitive returns a primitive type node with the given name.
func Primitive(name string) *TypeNode {
	return &TypeNode{Kind: KindPrimitive, Name: name}
}

// Literal returns a literal type node holding v.
func Literal(v Value) *TypeNode {
	return &TypeNode{Kind: KindLiteral, Literal: &v}
}

// Union returns a union of the given members, in order.
func Union(members ...*TypeNode) *TypeNode {
	return &TypeNode{Kind: KindUnion, Children: members}
}

// Intersection returns an intersection of the given members, in order.
func Intersection(members ...*TypeNode) *TypeNode {
	return &TypeNode{Kind: KindIntersection, Children: members}
}

// Array returns an array type node over the given element type.
func Array(elem *TypeNode) *TypeNode {
	return &TypeNode{Kind: KindArray, Children: []*TypeNode{elem}}
}

// Object returns an object type node with the given properties, in order.
func Object(props ...Property) *TypeNode {
	return &TypeNode{Kind: KindObject, Properties: props}
}

// Any returns the any type node.
func Any() *TypeNode { return &TypeNode{Kind: KindAny} }

// Unknown returns the unknown type node.
func Unknown() *TypeNode { return &TypeNode{Kind: KindUnknown} }

// Never returns the never type node.
func Never() *TypeNode { return &TypeNode{Kind: KindNever} }

// WithConstraints returns a copy of t with the given constraints appended.
// The receiver is not modified.
func (t *TypeNode) WithConstraints(cs ...Constraint) *TypeNode {
	out := *t
	out.Constraints = make([]Constraint, 0, len(t.Constraints)+len(cs))
	out.Constraints = append(out.Constraints, t.Constraints...)
	out.Constraints = append(out.Constraints, cs...)
	return &out
}

// Equal reports structural equality between two type nodes.
//
// Constraints are compared as unordered sets; everything else is
// compared positionally. Nil nodes are equal only to nil nodes.
func (t *TypeNode) Equal(o *TypeNode) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.Name != o.Name {
		return false
	}
	if len(t.Children) != len(o.Children) ||
		len(t.Properties) != len(o.Properties) ||
		len(t.Constraints) != len(o.Constraints) {
		return false
	}
	for i := range t.Children {
		if !t.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	for i := range t.Properties {
		if t.Properties[i].Name != o.Properties[i].Name ||
			!t.Properties[i].Type.Equal(o.Properties[i].Type) {
			return false
		}
	}
	if (t.Literal == nil) != (o.Literal == nil) {
		return false
	}
	if t.Literal != nil && !t.Literal.Equal(*o.Literal) {
		return false
	}
	// Constraint order carries no meaning.
	matched := make([]bool, len(o.Constraints))
	for _, c := range t.Constraints {
		found := false
		for j, oc := range o.Constraints {
			if !matched[j] && c.Equal(oc) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// String returns a compact human-readable rendering of the node.
func (t *TypeNode) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindPrimitive:
		return t.Name
	case KindLiteral:
		if t.Literal != nil {
			return t.Literal.String()
		}
		return "literal"
	case KindUnion:
		return joinChildren(t.Children, " | ")
	case KindIntersection:
		return joinChildren(t.Children, " & ")
	case KindArray:
		if len(t.Children) == 1 {
			return t.Children[0].String() + "[]"
		}
		return "array"
	case KindGeneric:
		if t.Name != "" {
			return t.Name
		}
		return string(t.Kind)
	default:
		return string(t.Kind)
	}
}

func joinChildren(children []*TypeNode, sep string) string {
	s := ""
	for i, c := range children {
		if i > 0 {
			s += sep
		}
		s += c.String()
	}
	return s
}

// =============================================================================
// FUNCTION SIGNATURE
// =============================================================================

// Parameter is a named function parameter.
type Parameter struct {
	// Name is the parameter identifier.
	Name string `json:"name" validate:"required"`

	// Type is the parameter's declared type. A nil type is treated as
	// unknown by the universe calculator rather than rejected.
	Type *TypeNode `json:"type"`
}

// FunctionSignature describes the function under analysis.
//
// Signatures are produced by an external source-analysis front end;
// this core never parses source text.
type FunctionSignature struct {
	// Name is the function identifier.
	Name string `json:"name" validate:"required"`

	// Parameters are the ordered formal parameters.
	Parameters []Parameter `json:"parameters" validate:"dive"`

	// ReturnType is the declared return type, when known.
	ReturnType *TypeNode `json:"return_type,omitempty"`
}
