// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package typemodel defines the shared type vocabulary for negative-space
// analysis: abstract type nodes, constraints on them, dynamic runtime
// values, cardinalities, and function signatures.
//
// The package carries no behavior beyond construction, equality, and
// formatting. Lattice operations live in the lattice package; region
// partitioning lives in the universe package.
//
// # Data Model
//
// A TypeNode is an abstract description of a value set:
//
//	number                      -> {Kind: KindPrimitive, Name: "number"}
//	42                          -> {Kind: KindLiteral, Literal: NumberValue(42)}
//	string | number             -> {Kind: KindUnion, Children: [...]}
//	number in [0,10]            -> primitive node + RangeConstraint(0, 10)
//
// A Value is a tagged union over the runtime value kinds the analysis
// understands (number, string, boolean, null, array, object). Numeric
// values carry explicit NaN and negative-zero flags so that region
// predicates never depend on ad hoc float comparisons.
//
// A Cardinality is either a non-negative integer or the symbolic value
// infinite. Arithmetic is absorbing: any infinite operand makes a sum
// or product infinite.
//
// # Thread Safety
//
// All types in this package are immutable value records once constructed.
// They are safe for concurrent use.
package typemodel
