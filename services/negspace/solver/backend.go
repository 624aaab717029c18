// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package solver

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/AleutianAI/negspace/services/negspace/typemodel"
)

// =============================================================================
// EXPRESSIONS
// =============================================================================

// Op identifies a backend expression form.
type Op string

const (
	// OpTrue is the always-satisfied placeholder for constraints the
	// backend cannot express.
	OpTrue Op = "true"

	// OpRange bounds a numeric variable.
	OpRange Op = "range"

	// OpLengthRange bounds a string variable's length.
	OpLengthRange Op = "length-range"

	// OpAnchor requires a string variable to match an anchored text.
	OpAnchor Op = "anchor"

	// OpMemberOf restricts a variable to an enumerated value set.
	OpMemberOf Op = "member-of"

	// OpNotEqual excludes a single value. Used for diversification.
	OpNotEqual Op = "not-equal"
)

// AnchorKind classifies a best-effort pattern translation.
type AnchorKind string

const (
	AnchorExact    AnchorKind = "exact"
	AnchorPrefix   AnchorKind = "prefix"
	AnchorSuffix   AnchorKind = "suffix"
	AnchorContains AnchorKind = "contains"
)

// Expr is one backend expression over a named variable. Only the
// fields relevant to the Op are populated.
type Expr struct {
	// Op selects the expression form.
	Op Op

	// Var names the constrained variable.
	Var string

	// Min and Max bound an OpRange. Nil means unbounded.
	Min *float64
	Max *float64

	// MinLen and MaxLen bound an OpLengthRange. Nil means unbounded.
	MinLen *int
	MaxLen *int

	// Anchor and Text carry an OpAnchor.
	Anchor AnchorKind
	Text   string

	// Members is the value set of an OpMemberOf.
	Members []typemodel.Value

	// Exclude is the excluded value of an OpNotEqual.
	Exclude typemodel.Value
}

// Verdict is the outcome of one backend solve.
type Verdict string

const (
	VerdictSat     Verdict = "sat"
	VerdictUnsat   Verdict = "unsat"
	VerdictUnknown Verdict = "unknown"
)

// Model is one satisfying assignment. Values map variable names to
// raw literal text; ParseLiteral turns the text into native values.
type Model struct {
	Verdict Verdict
	Values  map[string]string
}

// =============================================================================
// BACKEND
// =============================================================================

// Backend abstracts the constraint search engine.
//
// Implementations translate one constraint at a time and solve a
// conjunction of translated expressions. Any Backend must tolerate
// repeated Solve calls with a growing exclusion list.
type Backend interface {
	// Init prepares the backend. Must be called before Translate or
	// Solve.
	Init(opts *Options) error

	// Translate converts one constraint into a backend expression
	// over varName. Unsupported constraints degrade to OpTrue, never
	// an error.
	Translate(c typemodel.Constraint, varName string) (Expr, error)

	// Solve searches for one assignment satisfying every expression.
	Solve(ctx context.Context, exprs []Expr) (*Model, error)

	// Dispose releases backend resources. The backend must be
	// re-initialized before further use.
	Dispose()
}

// =============================================================================
// LITERAL PARSING
// =============================================================================

// ParseLiteral converts a model's raw literal text into a native
// value: integer literal, float literal, quoted string, boolean
// literal, else the raw text as a string.
func ParseLiteral(raw string) typemodel.Value {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return typemodel.NumberValue(float64(n))
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return typemodel.NumberValue(f)
	}
	if strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2 {
		if s, err := strconv.Unquote(raw); err == nil {
			return typemodel.StringValue(s)
		}
	}
	switch raw {
	case "true":
		return typemodel.BoolValue(true)
	case "false":
		return typemodel.BoolValue(false)
	}
	return typemodel.StringValue(raw)
}

// renderLiteral is the inverse used by backends when emitting models.
func renderLiteral(v typemodel.Value) string {
	switch v.Tag {
	case typemodel.TagNumber:
		if v.NaN || v.NegZero || math.IsInf(v.Num, 0) {
			return v.String()
		}
		if v.Num == float64(int64(v.Num)) {
			return strconv.FormatInt(int64(v.Num), 10)
		}
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case typemodel.TagString:
		return strconv.Quote(v.Str)
	case typemodel.TagBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.String()
	}
}
