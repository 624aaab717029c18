// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package boundary turns a prioritized gap into concrete test inputs.
//
// Depth 1 emits the canonical boundary-value list for the gap's
// primitive family, plus the fixed special-value set when enabled.
// Depth 2 adds values immediately outside the gap's own edge. Depth 3
// adds a capped cross-product sample of canonical values with special
// values. Depth-1 values always come first, so the depth-3 result for
// a region is a superset of the depth-1 result under identical
// options.
//
// # Thread Safety
//
// A Walker is stateless apart from its logger and is safe for
// concurrent use.
package boundary

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/AleutianAI/negspace/services/negspace/typemodel"
	"github.com/AleutianAI/negspace/services/negspace/universe"
)

// =============================================================================
// TYPES
// =============================================================================

// TestInput pairs a generated value with its justification.
type TestInput struct {
	// Value is the concrete boundary value.
	Value typemodel.Value

	// Explanation is the human-readable justification.
	Explanation string
}

// Options tune a boundary walk.
type Options struct {
	// MaxInputs bounds the returned list.
	// Default: 20
	MaxInputs int

	// IncludeSpecialValues appends the fixed special-value set for
	// the gap's primitive family.
	// Default: true
	IncludeSpecialValues bool

	// Depth selects how far past the region's edge to walk, 1 to 3.
	// Out-of-range values clamp.
	// Default: 1
	Depth int
}

// DefaultOptions returns the default walk options.
func DefaultOptions() *Options {
	return &Options{
		MaxInputs:            20,
		IncludeSpecialValues: true,
		Depth:                1,
	}
}

func (o *Options) normalize() {
	if o.MaxInputs <= 0 {
		o.MaxInputs = 20
	}
	if o.Depth < 1 {
		o.Depth = 1
	}
	if o.Depth > 3 {
		o.Depth = 3
	}
}

// Result is the outcome of one boundary walk.
type Result struct {
	// TestInputs are the generated values with explanations, bounded
	// by MaxInputs. Depth-1 values come first.
	TestInputs []TestInput

	// RegionsExplored counts the regions the walk touched: the gap
	// itself plus, at depth 2 and above, its outside edge.
	RegionsExplored int

	// BoundaryPointCount is the number of distinct values generated
	// before truncation.
	BoundaryPointCount int
}

// =============================================================================
// WALKER
// =============================================================================

// Walker generates boundary values for negative-space regions.
type Walker struct {
	logger *slog.Logger
}

// NewWalker creates a Walker. A nil logger uses slog.Default().
func NewWalker(logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{logger: logger}
}

// WalkBoundary generates boundary test inputs for one gap.
//
// Description:
//
//	Emits the canonical boundary-value list for the gap's primitive
//	family (depth 1), values just outside the gap's edge (depth 2),
//	and a capped canonical-with-special cross sample (depth 3).
//	Duplicate values are dropped, output is truncated to MaxInputs.
//
// Inputs:
//
//	gap - The negative-space region to walk.
//	opts - Walk options. Nil uses DefaultOptions().
//
// Outputs:
//
//	*Result - Generated inputs with explanations and counts.
func (w *Walker) WalkBoundary(gap universe.Region, opts *Options) *Result {
	if opts == nil {
		opts = DefaultOptions()
	}
	opts.normalize()

	gen := newCollector(gap.ID)
	family := gap.Kind.PrimitiveFamily()

	gen.addAll(canonicalValues(family, gap.Kind))
	if opts.IncludeSpecialValues {
		gen.addAll(specialValues(family))
	}

	explored := 1
	if opts.Depth >= 2 {
		gen.addAll(outsideEdge(gap.Kind))
		explored++
	}
	if opts.Depth >= 3 {
		gen.addAll(crossSample(family))
		explored++
	}

	res := &Result{
		TestInputs:         gen.inputs,
		RegionsExplored:    explored,
		BoundaryPointCount: len(gen.inputs),
	}
	if len(res.TestInputs) > opts.MaxInputs {
		res.TestInputs = res.TestInputs[:opts.MaxInputs]
	}

	w.logger.Debug("walked boundary",
		slog.String("region", gap.ID),
		slog.Int("depth", opts.Depth),
		slog.Int("points", res.BoundaryPointCount),
		slog.Int("returned", len(res.TestInputs)),
	)
	return res
}

// WalkBetweenRegions generates the fixed boundary-value list for the
// edge between two regions, keyed by the pair of primitive families.
// Every input is annotated with both region IDs. The list is bounded
// by MaxInputs.
func (w *Walker) WalkBetweenRegions(a, b universe.Region, opts *Options) *Result {
	if opts == nil {
		opts = DefaultOptions()
	}
	opts.normalize()

	values := betweenValues(a.Kind.PrimitiveFamily(), b.Kind.PrimitiveFamily())
	annotation := fmt.Sprintf("boundary between %s and %s", a.ID, b.ID)

	res := &Result{RegionsExplored: 2}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		key := valueKey(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		res.TestInputs = append(res.TestInputs, TestInput{Value: v, Explanation: annotation})
	}
	res.BoundaryPointCount = len(res.TestInputs)
	if len(res.TestInputs) > opts.MaxInputs {
		res.TestInputs = res.TestInputs[:opts.MaxInputs]
	}
	return res
}

// =============================================================================
// VALUE GENERATION
// =============================================================================

// canonicalValues is the fixed depth-1 list per primitive family.
func canonicalValues(family string, kind universe.RegionKind) []typemodel.Value {
	switch family {
	case typemodel.PrimitiveNumber:
		vals := []typemodel.Value{
			typemodel.NumberValue(0),
			typemodel.NumberValue(1),
			typemodel.NumberValue(-1),
			typemodel.NumberValue(typemodel.MinSafeInteger),
			typemodel.NumberValue(typemodel.MaxSafeInteger),
			typemodel.NumberValue(typemodel.MinValue),
			typemodel.NumberValue(typemodel.MaxValue),
			typemodel.NumberValue(typemodel.Epsilon),
			typemodel.NumberValue(-typemodel.Epsilon),
		}
		if kind.Class == universe.ClassRange {
			if kind.Min != nil {
				vals = append(vals, typemodel.NumberValue(*kind.Min))
			}
			if kind.Max != nil {
				vals = append(vals, typemodel.NumberValue(*kind.Max))
			}
		}
		return vals
	case typemodel.PrimitiveString:
		vals := []typemodel.Value{
			typemodel.StringValue(""),
			typemodel.StringValue("a"),
			repeated(2),
			repeated(10),
			repeated(11),
			repeated(100),
			repeated(101),
			repeated(1000),
			repeated(1001),
		}
		if kind.Class == universe.ClassLength {
			if kind.MinLen != nil {
				vals = append(vals, repeated(*kind.MinLen))
			}
			if kind.MaxLen != nil {
				vals = append(vals, repeated(*kind.MaxLen))
			}
		}
		return vals
	case typemodel.PrimitiveBoolean:
		return []typemodel.Value{
			typemodel.BoolValue(true),
			typemodel.BoolValue(false),
		}
	default:
		if kind.Class == universe.ClassEnum {
			return kind.Enum
		}
		if kind.Class == universe.ClassLiteral && kind.Literal != nil {
			return []typemodel.Value{*kind.Literal}
		}
		return nil
	}
}

// specialValues is the fixed special-value set per primitive family.
func specialValues(family string) []typemodel.Value {
	switch family {
	case typemodel.PrimitiveNumber:
		return []typemodel.Value{
			typemodel.NaNValue(),
			typemodel.InfValue(1),
			typemodel.InfValue(-1),
			typemodel.NegZeroValue(),
			typemodel.NumberValue(typemodel.MaxValue),
			typemodel.NumberValue(typemodel.MinValue),
		}
	case typemodel.PrimitiveString:
		out := make([]typemodel.Value, 0, len(universe.SpecialStrings))
		for _, s := range universe.SpecialStrings {
			out = append(out, typemodel.StringValue(s))
		}
		return out
	default:
		return nil
	}
}

// outsideEdge emits values immediately outside the gap's own boundary.
func outsideEdge(kind universe.RegionKind) []typemodel.Value {
	switch kind.Class {
	case universe.ClassNumberPositive:
		return []typemodel.Value{
			typemodel.NumberValue(0),
			typemodel.NumberValue(-typemodel.Epsilon),
			typemodel.NumberValue(typemodel.MinValue),
		}
	case universe.ClassNumberNegative:
		return []typemodel.Value{
			typemodel.NumberValue(0),
			typemodel.NumberValue(typemodel.Epsilon),
			typemodel.NumberValue(-typemodel.MinValue),
		}
	case universe.ClassNumberZero:
		return []typemodel.Value{
			typemodel.NumberValue(typemodel.Epsilon),
			typemodel.NumberValue(-typemodel.Epsilon),
			typemodel.NegZeroValue(),
		}
	case universe.ClassNumberMin:
		return []typemodel.Value{
			typemodel.NumberValue(typemodel.MinSafeInteger + 1),
			typemodel.NumberValue(typemodel.MinSafeInteger - 1),
		}
	case universe.ClassNumberMax:
		return []typemodel.Value{
			typemodel.NumberValue(typemodel.MaxSafeInteger - 1),
			typemodel.NumberValue(typemodel.MaxSafeInteger + 1),
		}
	case universe.ClassRange:
		var out []typemodel.Value
		if kind.Min != nil {
			out = append(out, typemodel.NumberValue(*kind.Min-1))
		}
		if kind.Max != nil {
			out = append(out, typemodel.NumberValue(*kind.Max+1))
		}
		return out
	case universe.ClassStringEmpty:
		return []typemodel.Value{typemodel.StringValue("a")}
	case universe.ClassStringSingle:
		return []typemodel.Value{typemodel.StringValue(""), repeated(2)}
	case universe.ClassStringShort:
		return []typemodel.Value{typemodel.StringValue("a"), repeated(11)}
	case universe.ClassStringMedium:
		return []typemodel.Value{repeated(10), repeated(101)}
	case universe.ClassStringLong:
		return []typemodel.Value{repeated(100), repeated(1001)}
	case universe.ClassStringVeryLong:
		return []typemodel.Value{repeated(1000)}
	case universe.ClassLength:
		var out []typemodel.Value
		if kind.MinLen != nil && *kind.MinLen > 0 {
			out = append(out, repeated(*kind.MinLen-1))
		}
		if kind.MaxLen != nil {
			out = append(out, repeated(*kind.MaxLen+1))
		}
		return out
	case universe.ClassBoolTrue:
		return []typemodel.Value{typemodel.BoolValue(false)}
	case universe.ClassBoolFalse:
		return []typemodel.Value{typemodel.BoolValue(true)}
	case universe.ClassArrayEmpty:
		return []typemodel.Value{typemodel.ArrayValue(typemodel.NumberValue(0))}
	case universe.ClassArraySingle:
		return []typemodel.Value{
			typemodel.ArrayValue(),
			typemodel.ArrayValue(typemodel.NumberValue(0), typemodel.NumberValue(1)),
		}
	case universe.ClassArrayMultiple:
		return []typemodel.Value{typemodel.ArrayValue(typemodel.NumberValue(0))}
	default:
		return nil
	}
}

// crossSample is the depth-3 cross of canonical anchors with special
// deltas, capped rather than exhaustive.
func crossSample(family string) []typemodel.Value {
	const sampleCap = 12
	var out []typemodel.Value
	switch family {
	case typemodel.PrimitiveNumber:
		anchors := []float64{0, 1, -1, typemodel.MaxSafeInteger}
		deltas := []float64{typemodel.Epsilon, -typemodel.Epsilon, 1, -1}
		for _, a := range anchors {
			for _, d := range deltas {
				if len(out) == sampleCap {
					return out
				}
				out = append(out, typemodel.NumberValue(a+d))
			}
		}
	case typemodel.PrimitiveString:
		anchors := []string{"", "a"}
		for _, a := range anchors {
			for _, s := range universe.SpecialStrings {
				if len(out) == sampleCap {
					return out
				}
				out = append(out, typemodel.StringValue(a+s))
			}
		}
	}
	return out
}

// betweenValues is the fixed edge-value table keyed by the pair of
// primitive family names, order-insensitive.
func betweenValues(a, b string) []typemodel.Value {
	if a > b {
		a, b = b, a
	}
	switch {
	case a == typemodel.PrimitiveNumber && b == typemodel.PrimitiveNumber:
		return []typemodel.Value{
			typemodel.NumberValue(0),
			typemodel.NumberValue(typemodel.Epsilon),
			typemodel.NumberValue(-typemodel.Epsilon),
			typemodel.NumberValue(1),
			typemodel.NumberValue(-1),
			typemodel.NumberValue(typemodel.MinValue),
		}
	case a == typemodel.PrimitiveString && b == typemodel.PrimitiveString:
		return []typemodel.Value{
			typemodel.StringValue(""),
			typemodel.StringValue("a"),
			repeated(2),
			repeated(10),
			repeated(11),
		}
	case a == typemodel.PrimitiveBoolean && b == typemodel.PrimitiveBoolean:
		return []typemodel.Value{
			typemodel.BoolValue(true),
			typemodel.BoolValue(false),
		}
	default:
		return nil
	}
}

// =============================================================================
// EXPLANATIONS
// =============================================================================

// explain picks the fixed explanation for a value's own
// characteristics, falling back to a generic per-region message.
func explain(v typemodel.Value, regionID string) string {
	switch v.Tag {
	case typemodel.TagNumber:
		switch {
		case v.NaN:
			return "NaN, never equal to itself and poisons arithmetic"
		case math.IsInf(v.Num, 1):
			return "positive Infinity, the overflow result"
		case math.IsInf(v.Num, -1):
			return "negative Infinity, the underflow result"
		case v.NegZero:
			return "negative zero, compares equal to zero but is distinguishable"
		case v.Num == typemodel.MaxSafeInteger:
			return "largest safe integer, precision degrades beyond it"
		case v.Num == typemodel.MinSafeInteger:
			return "smallest safe integer, precision degrades beyond it"
		}
	case typemodel.TagString:
		switch {
		case v.Str == "":
			return "empty string, the degenerate input"
		case len([]rune(v.Str)) == 1:
			return "single-character string"
		case strings.Contains(v.Str, "\n"):
			return "string containing a newline"
		case strings.Contains(v.Str, "\x00"):
			return "string containing a null byte"
		}
	case typemodel.TagBool:
		return "the literal " + v.String()
	}
	return "boundary value in region " + regionID
}

// =============================================================================
// HELPERS
// =============================================================================

// collector accumulates deduplicated inputs in insertion order.
type collector struct {
	regionID string
	inputs   []TestInput
	seen     map[string]struct{}
}

func newCollector(regionID string) *collector {
	return &collector{regionID: regionID, seen: make(map[string]struct{})}
}

func (c *collector) addAll(values []typemodel.Value) {
	for _, v := range values {
		key := valueKey(v)
		if _, ok := c.seen[key]; ok {
			continue
		}
		c.seen[key] = struct{}{}
		c.inputs = append(c.inputs, TestInput{Value: v, Explanation: explain(v, c.regionID)})
	}
}

// valueKey distinguishes NaN and negative zero from plain renderings.
func valueKey(v typemodel.Value) string {
	return string(v.Tag) + ":" + v.String()
}

func repeated(n int) typemodel.Value {
	return typemodel.StringValue(strings.Repeat("a", n))
}
