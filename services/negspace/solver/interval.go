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

// Search bounds when a numeric variable has no range constraint.
const (
	defaultSearchLo = -1000000
	defaultSearchHi = 1000000

	// maxStringAttempts bounds the string-construction retry loop
	// when exclusions rule out earlier candidates.
	maxStringAttempts = 256
)

// IntervalBackend is the built-in pure-Go backend. It solves by
// interval walking and direct construction rather than general SMT
// search: enums by member iteration, ranges by integer walk, strings
// by assembling a candidate from the anchor text and length bounds.
//
// # Thread Safety
//
// An IntervalBackend holds no per-solve state after Init and is safe
// for concurrent Solve calls.
type IntervalBackend struct {
	initialized bool
}

// NewIntervalBackend creates an uninitialized IntervalBackend.
func NewIntervalBackend() *IntervalBackend {
	return &IntervalBackend{}
}

// Init prepares the backend.
func (b *IntervalBackend) Init(_ *Options) error {
	b.initialized = true
	return nil
}

// Dispose releases the backend. Solve after Dispose fails with
// ErrNotInitialized.
func (b *IntervalBackend) Dispose() {
	b.initialized = false
}

// Translate converts one constraint to an expression.
//
// Range constraints become bounded numeric intervals, length
// constraints bounded length intervals, enum constraints member
// sets. Pattern constraints translate best-effort to anchored text:
// `^x$` exact, `^x` prefix, `x$` suffix, anything else "contains".
// True regex satisfiability is not attempted. Constraints the
// backend cannot express degrade to OpTrue, never an error.
func (b *IntervalBackend) Translate(c typemodel.Constraint, varName string) (Expr, error) {
	if !b.initialized {
		return Expr{}, ErrNotInitialized
	}

	switch c.Tag {
	case typemodel.ConstraintRange:
		return Expr{Op: OpRange, Var: varName, Min: c.Min, Max: c.Max}, nil
	case typemodel.ConstraintLength:
		return Expr{Op: OpLengthRange, Var: varName, MinLen: c.MinLength, MaxLen: c.MaxLength}, nil
	case typemodel.ConstraintPattern:
		anchor, text := classifyPattern(c.Pattern)
		if text == "" && anchor != AnchorExact {
			return Expr{Op: OpTrue, Var: varName}, nil
		}
		return Expr{Op: OpAnchor, Var: varName, Anchor: anchor, Text: text}, nil
	case typemodel.ConstraintEnum:
		if len(c.Values) == 0 {
			return Expr{Op: OpTrue, Var: varName}, nil
		}
		switch c.Values[0].Tag {
		case typemodel.TagNumber, typemodel.TagString:
			return Expr{Op: OpMemberOf, Var: varName, Members: c.Values}, nil
		default:
			// Unsupported sorts degrade rather than fail.
			return Expr{Op: OpTrue, Var: varName}, nil
		}
	default:
		return Expr{Op: OpTrue, Var: varName}, nil
	}
}

// classifyPattern reduces a regex to an anchored plain text. The
// returned text has the anchors stripped; regex metacharacters in the
// body are left as-is, matching is plain substring comparison.
func classifyPattern(pattern string) (AnchorKind, string) {
	hasPrefix := strings.HasPrefix(pattern, "^")
	hasSuffix := strings.HasSuffix(pattern, "$")
	body := strings.TrimSuffix(strings.TrimPrefix(pattern, "^"), "$")
	switch {
	case hasPrefix && hasSuffix:
		return AnchorExact, body
	case hasPrefix:
		return AnchorPrefix, body
	case hasSuffix:
		return AnchorSuffix, body
	default:
		return AnchorContains, body
	}
}

// Solve searches for one assignment satisfying the conjunction.
//
// Description:
//
//	Partitions the expressions by form, then picks the narrowest
//	search strategy: member iteration when an enum is present,
//	string construction when length or anchor expressions are
//	present, otherwise a bounded integer walk. OpNotEqual exclusions
//	are honored by every strategy.
//
// Outputs:
//
//	*Model - Verdict plus raw literal text per variable on sat.
//	error - ErrNotInitialized, or a context error on cancellation.
func (b *IntervalBackend) Solve(ctx context.Context, exprs []Expr) (*Model, error) {
	if !b.initialized {
		return nil, ErrNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	plan := partition(exprs)
	varName := plan.varName

	switch {
	case len(plan.members) > 0:
		for _, m := range plan.members {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if plan.accepts(m) {
				return satModel(varName, m), nil
			}
		}
		return &Model{Verdict: VerdictUnsat}, nil

	case plan.stringy():
		v, ok := b.constructString(ctx, plan)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !ok {
			return &Model{Verdict: VerdictUnsat}, nil
		}
		return satModel(varName, v), nil

	default:
		return b.walkIntegers(ctx, plan)
	}
}

// walkIntegers searches the intersected numeric interval for an
// integer not ruled out by an exclusion.
func (b *IntervalBackend) walkIntegers(ctx context.Context, plan *solvePlan) (*Model, error) {
	lo, hi := float64(defaultSearchLo), float64(defaultSearchHi)
	if plan.min != nil {
		lo = math.Ceil(*plan.min)
	}
	if plan.max != nil {
		hi = math.Floor(*plan.max)
	}
	if lo > hi {
		return &Model{Verdict: VerdictUnsat}, nil
	}

	for n := lo; n <= hi; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v := typemodel.NumberValue(n)
		if plan.accepts(v) {
			return satModel(plan.varName, v), nil
		}
	}
	return &Model{Verdict: VerdictUnsat}, nil
}

// constructString assembles a candidate from the anchor text and
// length bounds, varying a numeric pad to escape exclusions.
func (b *IntervalBackend) constructString(ctx context.Context, plan *solvePlan) (typemodel.Value, bool) {
	minLen := 0
	maxLen := math.MaxInt32
	if plan.minLen != nil {
		minLen = *plan.minLen
	}
	if plan.maxLen != nil {
		maxLen = *plan.maxLen
	}
	if minLen > maxLen {
		return typemodel.Value{}, false
	}

	for attempt := 0; attempt < maxStringAttempts; attempt++ {
		if ctx.Err() != nil {
			return typemodel.Value{}, false
		}
		s, ok := buildCandidate(plan.anchor, plan.anchorText, minLen, maxLen, attempt)
		if !ok {
			return typemodel.Value{}, false
		}
		v := typemodel.StringValue(s)
		if plan.accepts(v) {
			return v, true
		}
		if plan.anchor == AnchorExact {
			// A single possible value, already excluded.
			return typemodel.Value{}, false
		}
	}
	return typemodel.Value{}, false
}

// buildCandidate produces the attempt-th string satisfying the anchor
// and length bounds, or reports impossibility.
func buildCandidate(anchor AnchorKind, text string, minLen, maxLen, attempt int) (string, bool) {
	variant := ""
	if attempt > 0 {
		variant = strconv.Itoa(attempt)
	}

	var s string
	switch anchor {
	case AnchorExact:
		s = text
	case AnchorPrefix:
		s = text + variant
	case AnchorSuffix:
		s = variant + text
	default:
		s = variant + text
	}

	if len(s) < minLen {
		pad := strings.Repeat("a", minLen-len(s))
		switch anchor {
		case AnchorExact:
			return "", false
		case AnchorSuffix:
			s = pad + s
		default:
			s = s + pad
		}
	}
	if len(s) > maxLen {
		return "", false
	}
	return s, true
}

func satModel(varName string, v typemodel.Value) *Model {
	return &Model{
		Verdict: VerdictSat,
		Values:  map[string]string{varName: renderLiteral(v)},
	}
}

// =============================================================================
// SOLVE PLAN
// =============================================================================

// solvePlan is the partitioned view of one conjunction.
type solvePlan struct {
	varName    string
	min, max   *float64
	minLen     *int
	maxLen     *int
	anchor     AnchorKind
	anchorText string
	hasAnchor  bool
	members    []typemodel.Value
	exclusions []typemodel.Value
}

func partition(exprs []Expr) *solvePlan {
	plan := &solvePlan{varName: "x"}
	for _, e := range exprs {
		if e.Var != "" {
			plan.varName = e.Var
		}
		switch e.Op {
		case OpRange:
			plan.min = tighterMin(plan.min, e.Min)
			plan.max = tighterMax(plan.max, e.Max)
		case OpLengthRange:
			plan.minLen = tighterMinInt(plan.minLen, e.MinLen)
			plan.maxLen = tighterMaxInt(plan.maxLen, e.MaxLen)
		case OpAnchor:
			plan.anchor = e.Anchor
			plan.anchorText = e.Text
			plan.hasAnchor = true
		case OpMemberOf:
			plan.members = append(plan.members, e.Members...)
		case OpNotEqual:
			plan.exclusions = append(plan.exclusions, e.Exclude)
		}
	}
	return plan
}

func (p *solvePlan) stringy() bool {
	return p.hasAnchor || p.minLen != nil || p.maxLen != nil
}

// accepts checks a candidate against every non-member expression.
func (p *solvePlan) accepts(v typemodel.Value) bool {
	for _, ex := range p.exclusions {
		if v.Equal(ex) {
			return false
		}
	}
	switch v.Tag {
	case typemodel.TagNumber:
		if v.NaN {
			return false
		}
		f := v.Float()
		if p.min != nil && f < *p.min {
			return false
		}
		if p.max != nil && f > *p.max {
			return false
		}
	case typemodel.TagString:
		n := len(v.Str)
		if p.minLen != nil && n < *p.minLen {
			return false
		}
		if p.maxLen != nil && n > *p.maxLen {
			return false
		}
		if p.hasAnchor && !matchesAnchor(v.Str, p.anchor, p.anchorText) {
			return false
		}
	}
	return true
}

func matchesAnchor(s string, anchor AnchorKind, text string) bool {
	switch anchor {
	case AnchorExact:
		return s == text
	case AnchorPrefix:
		return strings.HasPrefix(s, text)
	case AnchorSuffix:
		return strings.HasSuffix(s, text)
	default:
		return strings.Contains(s, text)
	}
}

func tighterMin(a, b *float64) *float64 {
	if a == nil {
		return b
	}
	if b == nil || *a >= *b {
		return a
	}
	return b
}

func tighterMax(a, b *float64) *float64 {
	if a == nil {
		return b
	}
	if b == nil || *a <= *b {
		return a
	}
	return b
}

func tighterMinInt(a, b *int) *int {
	if a == nil {
		return b
	}
	if b == nil || *a >= *b {
		return a
	}
	return b
}

func tighterMaxInt(a, b *int) *int {
	if a == nil {
		return b
	}
	if b == nil || *a <= *b {
		return a
	}
	return b
}
