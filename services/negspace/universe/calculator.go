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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"golang.org/x/sync/singleflight"

	"github.com/AleutianAI/negspace/services/negspace/lattice"
	"github.com/AleutianAI/negspace/services/negspace/typemodel"
)

// Cardinality of the fixed special-value sets.
const (
	specialNumberCount = 7 // NaN, +Inf, -Inf, 0, -0, MAX_VALUE, MIN_VALUE
)

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator partitions types and signatures into regions.
//
// Calculation itself is pure; the calculator adds a fingerprint-keyed
// cache for signature universes, with singleflight collapsing of
// concurrent identical requests.
//
// Thread Safety: safe for concurrent use.
type Calculator struct {
	lattice *lattice.Lattice
	logger  *slog.Logger

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string][]Region
}

// NewCalculator creates a Calculator.
//
// Inputs:
//
//	lat - Lattice used for structural-equality checks during union
//	      partitioning. Nil creates a private instance.
//	logger - Logger for structured logging. Nil uses slog.Default().
func NewCalculator(lat *lattice.Lattice, logger *slog.Logger) *Calculator {
	if lat == nil {
		lat = lattice.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{
		lattice: lat,
		logger:  logger,
		cache:   make(map[string][]Region),
	}
}

// Calculate partitions a single type into its universe of regions.
//
// Description:
//
//	Dispatches on the node kind. Never returns an error: malformed or
//	unrecognized input degrades to a single catch-all region, and
//	never yields an empty region list.
//
// Inputs:
//
//	t - The type to partition. Nil is treated as unknown.
//
// Outputs:
//
//	[]Region - The universe, with IDs unique within the result.
func (c *Calculator) Calculate(t *typemodel.TypeNode) []Region {
	if t == nil {
		t = typemodel.Unknown()
	}

	switch t.Kind {
	case typemodel.KindPrimitive:
		return c.primitiveUniverse(t)
	case typemodel.KindLiteral:
		return []Region{literalRegion(t)}
	case typemodel.KindUnion:
		return c.unionUniverse(t)
	case typemodel.KindIntersection:
		return c.intersectionUniverse(t)
	case typemodel.KindArray:
		return arrayUniverse(t)
	case typemodel.KindObject:
		return objectUniverse(t)
	case typemodel.KindAny:
		return []Region{{
			ID:          "any-value",
			Type:        t,
			Cardinality: typemodel.Infinite(),
			Description: "any value",
			Kind:        RegionKind{Class: ClassCatchAll},
		}}
	case typemodel.KindNever:
		return nil
	default:
		// unknown, function, generic, tuple: one catch-all region.
		return []Region{{
			ID:          string(t.Kind) + "-value",
			Type:        t,
			Cardinality: typemodel.Infinite(),
			Description: "unpartitioned " + string(t.Kind) + " value",
			Kind:        RegionKind{Class: ClassCatchAll},
		}}
	}
}

// ForSignature computes the compound universe of a function signature.
//
// Description:
//
//	Each parameter's universe is computed independently; for two or
//	more parameters the Cartesian product is taken, one compound
//	region per combination. A compound region's ID is the ×-joined
//	concatenation of component IDs in parameter order, its
//	cardinality the product of component cardinalities, and its
//	constraints the union of component constraints.
//
//	A parameter with a nil type falls back to the unknown universe
//	rather than failing the analysis.
//
// Inputs:
//
//	sig - The function signature.
//
// Outputs:
//
//	[]Region - The signature universe. Empty for zero parameters.
func (c *Calculator) ForSignature(sig typemodel.FunctionSignature) []Region {
	key := signatureFingerprint(sig)

	c.mu.RLock()
	if cached, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return cached
	}
	c.mu.RUnlock()

	regions, _, _ := c.group.Do(key, func() (any, error) {
		computed := c.computeSignatureUniverse(sig)
		c.mu.Lock()
		c.cache[key] = computed
		c.mu.Unlock()
		c.logger.Debug("computed signature universe",
			slog.String("function", sig.Name),
			slog.Int("parameters", len(sig.Parameters)),
			slog.Int("regions", len(computed)),
		)
		return computed, nil
	})
	return regions.([]Region)
}

func (c *Calculator) computeSignatureUniverse(sig typemodel.FunctionSignature) []Region {
	if len(sig.Parameters) == 0 {
		return nil
	}

	perParam := make([][]Region, len(sig.Parameters))
	for i, p := range sig.Parameters {
		perParam[i] = c.Calculate(p.Type)
	}
	if len(perParam) == 1 {
		return perParam[0]
	}

	product := []Region{{Kind: RegionKind{Class: ClassCompound}}}
	for _, dim := range perParam {
		next := make([]Region, 0, len(product)*len(dim))
		for _, acc := range product {
			for _, r := range dim {
				next = append(next, extendCompound(acc, r))
			}
		}
		product = next
	}
	return product
}

// extendCompound appends one component region to a compound accumulator.
func extendCompound(acc, r Region) Region {
	out := Region{Kind: RegionKind{Class: ClassCompound}}

	if acc.ID == "" {
		out.ID = r.ID
		out.Cardinality = r.Cardinality
		out.Description = r.Description
	} else {
		out.ID = acc.ID + CompoundSeparator + r.ID
		out.Cardinality = acc.Cardinality.Mul(r.Cardinality)
		out.Description = acc.Description + " " + CompoundSeparator + " " + r.Description
	}

	out.Kind.Parts = append(out.Kind.Parts, acc.Kind.Parts...)
	out.Kind.Parts = append(out.Kind.Parts, r.Kind)

	out.Constraints = append(out.Constraints, acc.Constraints...)
	out.Constraints = append(out.Constraints, r.Constraints...)
	return out
}

// =============================================================================
// PER-KIND PARTITIONING
// =============================================================================

func (c *Calculator) primitiveUniverse(t *typemodel.TypeNode) []Region {
	if len(t.Constraints) > 0 {
		return constraintRegions(t)
	}

	switch t.Name {
	case typemodel.PrimitiveNumber:
		return numberUniverse(t)
	case typemodel.PrimitiveString:
		return stringUniverse(t)
	case typemodel.PrimitiveBoolean:
		return []Region{
			{
				ID:          "boolean-true",
				Type:        t,
				Cardinality: typemodel.Finite(1),
				Description: "the value true",
				Kind:        RegionKind{Class: ClassBoolTrue},
			},
			{
				ID:          "boolean-false",
				Type:        t,
				Cardinality: typemodel.Finite(1),
				Description: "the value false",
				Kind:        RegionKind{Class: ClassBoolFalse},
			},
		}
	case typemodel.PrimitiveNull:
		null := typemodel.NullValue()
		return []Region{{
			ID:          "literal-null",
			Type:        t,
			Cardinality: typemodel.Finite(1),
			Description: "the value null",
			Kind:        RegionKind{Class: ClassLiteral, Literal: &null},
		}}
	default:
		return []Region{{
			ID:          sanitizeIDPart(t.Name) + "-value",
			Type:        t,
			Cardinality: typemodel.Infinite(),
			Description: "unpartitioned " + t.Name + " value",
			Kind:        RegionKind{Class: ClassCatchAll},
		}}
	}
}

// numberUniverse is the unconstrained numeric partition: six regions.
// The negative and positive bands are conceptually bounded by the safe
// integer range, whose endpoints are their own singleton regions.
func numberUniverse(t *typemodel.TypeNode) []Region {
	return []Region{
		{
			ID:          "number-special",
			Type:        t,
			Cardinality: typemodel.Finite(specialNumberCount),
			Description: "NaN, Infinity, -Infinity, 0, -0, MAX_VALUE, MIN_VALUE",
			Kind:        RegionKind{Class: ClassNumberSpecial},
		},
		{
			ID:          "number-min",
			Type:        t,
			Cardinality: typemodel.Finite(1),
			Description: "the smallest safe integer",
			Kind:        RegionKind{Class: ClassNumberMin},
		},
		{
			ID:          "number-negative",
			Type:        t,
			Cardinality: typemodel.Infinite(),
			Description: "negative numbers",
			Kind:        RegionKind{Class: ClassNumberNegative},
		},
		{
			ID:          "number-zero",
			Type:        t,
			Cardinality: typemodel.Finite(1),
			Description: "exactly zero",
			Kind:        RegionKind{Class: ClassNumberZero},
		},
		{
			ID:          "number-positive",
			Type:        t,
			Cardinality: typemodel.Infinite(),
			Description: "positive numbers",
			Kind:        RegionKind{Class: ClassNumberPositive},
		},
		{
			ID:          "number-max",
			Type:        t,
			Cardinality: typemodel.Finite(1),
			Description: "the largest safe integer",
			Kind:        RegionKind{Class: ClassNumberMax},
		},
	}
}

// stringUniverse is the unconstrained string partition: the empty
// string, the special set, and rune-length bands. Bands are treated as
// infinite even though bounded alphabets are finite.
func stringUniverse(t *typemodel.TypeNode) []Region {
	return []Region{
		{
			ID:          "string-empty",
			Type:        t,
			Cardinality: typemodel.Finite(1),
			Description: "the empty string",
			Kind:        RegionKind{Class: ClassStringEmpty},
		},
		{
			ID:          "string-special",
			Type:        t,
			Cardinality: typemodel.Finite(uint64(len(SpecialStrings))),
			Description: "whitespace, control, and non-ASCII samples",
			Kind:        RegionKind{Class: ClassStringSpecial},
		},
		{
			ID:          "string-single",
			Type:        t,
			Cardinality: typemodel.Infinite(),
			Description: "one-character strings",
			Kind:        RegionKind{Class: ClassStringSingle},
		},
		{
			ID:          "string-short",
			Type:        t,
			Cardinality: typemodel.Infinite(),
			Description: "strings of length 2 to 10",
			Kind:        RegionKind{Class: ClassStringShort},
		},
		{
			ID:          "string-medium",
			Type:        t,
			Cardinality: typemodel.Infinite(),
			Description: "strings of length 11 to 100",
			Kind:        RegionKind{Class: ClassStringMedium},
		},
		{
			ID:          "string-long",
			Type:        t,
			Cardinality: typemodel.Infinite(),
			Description: "strings of length 101 to 1000",
			Kind:        RegionKind{Class: ClassStringLong},
		},
		{
			ID:          "string-very-long",
			Type:        t,
			Cardinality: typemodel.Infinite(),
			Description: "strings longer than 1000",
			Kind:        RegionKind{Class: ClassStringVeryLong},
		},
	}
}

// constraintRegions emits one region per constraint on a primitive,
// replacing the default partition.
func constraintRegions(t *typemodel.TypeNode) []Region {
	name := sanitizeIDPart(t.Name)
	regions := make([]Region, 0, len(t.Constraints))
	for _, con := range t.Constraints {
		regions = append(regions, constraintRegion(name, t, con))
	}
	return ensureUniqueIDs(regions)
}

func constraintRegion(name string, t *typemodel.TypeNode, con typemodel.Constraint) Region {
	r := Region{
		Type:        t,
		Constraints: []typemodel.Constraint{con},
		Description: name + " constrained by " + con.String(),
	}

	switch con.Tag {
	case typemodel.ConstraintRange:
		r.ID = name + "-range-" + boundID(con.Min) + "-" + boundID(con.Max)
		r.Cardinality = rangeCardinality(con.Min, con.Max)
		r.Kind = RegionKind{Class: ClassRange, Min: con.Min, Max: con.Max}
	case typemodel.ConstraintLength:
		r.ID = name + "-length-" + intBoundID(con.MinLength) + "-" + intBoundID(con.MaxLength)
		r.Cardinality = typemodel.Infinite()
		r.Kind = RegionKind{Class: ClassLength, MinLen: con.MinLength, MaxLen: con.MaxLength}
	case typemodel.ConstraintPattern:
		r.ID = name + "-pattern-" + sanitizeIDPart(con.Pattern)
		r.Cardinality = typemodel.Infinite()
		r.Kind = RegionKind{Class: ClassPattern, Pattern: con.Pattern}
	case typemodel.ConstraintEnum:
		r.ID = name + "-enum-" + strconv.Itoa(len(con.Values))
		r.Cardinality = typemodel.Finite(uint64(len(con.Values)))
		r.Kind = RegionKind{Class: ClassEnum, Enum: con.Values}
	default:
		r.ID = name + "-" + sanitizeIDPart(string(con.Tag))
		r.Cardinality = typemodel.Infinite()
		r.Kind = RegionKind{Class: ClassCatchAll}
	}
	return r
}

// rangeCardinality is max-min+1 when both bounds are finite integers,
// infinite otherwise.
func rangeCardinality(min, max *float64) typemodel.Cardinality {
	if min == nil || max == nil {
		return typemodel.Infinite()
	}
	lo, hi := *min, *max
	if lo != math.Trunc(lo) || hi != math.Trunc(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return typemodel.Infinite()
	}
	if hi < lo {
		return typemodel.Finite(0)
	}
	return typemodel.Finite(uint64(hi-lo) + 1)
}

func literalRegion(t *typemodel.TypeNode) Region {
	rendering := "undefined"
	if t.Literal != nil {
		if t.Literal.Tag == typemodel.TagString {
			rendering = sanitizeIDPart(t.Literal.Str)
		} else {
			rendering = sanitizeIDPart(t.Literal.String())
		}
	}
	return Region{
		ID:          "literal-" + rendering,
		Type:        t,
		Cardinality: typemodel.Finite(1),
		Description: "the literal " + rendering,
		Kind:        RegionKind{Class: ClassLiteral, Literal: t.Literal},
	}
}

// unionUniverse concatenates the member universes without deduplicating
// regions across members. The lattice is consulted only to recognize
// structurally repeated members so that duplicated IDs can be made
// unique within the result.
func (c *Calculator) unionUniverse(t *typemodel.TypeNode) []Region {
	var regions []Region
	for i, m := range t.Children {
		memberRegions := c.Calculate(m)
		for j := 0; j < i; j++ {
			if c.lattice.IsSubtype(m, t.Children[j]) && c.lattice.IsSubtype(t.Children[j], m) {
				c.logger.Debug("union repeats a structurally equal member",
					slog.String("member", m.String()),
				)
				break
			}
		}
		regions = append(regions, memberRegions...)
	}
	return ensureUniqueIDs(regions)
}

// intersectionUniverse approximates the true intersection by the member
// universe with the smallest total cardinality. This is a deliberate,
// documented simplification; callers may depend on it.
func (c *Calculator) intersectionUniverse(t *typemodel.TypeNode) []Region {
	if len(t.Children) == 0 {
		return nil
	}
	best := c.Calculate(t.Children[0])
	bestTotal := totalCardinality(best)
	for _, m := range t.Children[1:] {
		candidate := c.Calculate(m)
		total := totalCardinality(candidate)
		if total.Less(bestTotal) {
			best, bestTotal = candidate, total
		}
	}
	return best
}

func arrayUniverse(t *typemodel.TypeNode) []Region {
	if hasLengthConstraint(t) {
		regions := make([]Region, 0, len(t.Constraints))
		for _, con := range t.Constraints {
			if con.Tag != typemodel.ConstraintLength {
				continue
			}
			regions = append(regions, Region{
				ID:          "array-length-" + intBoundID(con.MinLength) + "-" + intBoundID(con.MaxLength),
				Type:        t,
				Constraints: []typemodel.Constraint{con},
				Cardinality: typemodel.Infinite(),
				Description: "arrays constrained by " + con.String(),
				Kind:        RegionKind{Class: ClassLength, MinLen: con.MinLength, MaxLen: con.MaxLength},
			})
		}
		return ensureUniqueIDs(regions)
	}

	return []Region{
		{
			ID:          "array-empty",
			Type:        t,
			Cardinality: typemodel.Finite(1),
			Description: "the empty array",
			Kind:        RegionKind{Class: ClassArrayEmpty},
		},
		{
			ID:          "array-single",
			Type:        t,
			Cardinality: typemodel.Infinite(),
			Description: "one-element arrays",
			Kind:        RegionKind{Class: ClassArraySingle},
		},
		{
			ID:          "array-multiple",
			Type:        t,
			Cardinality: typemodel.Infinite(),
			Description: "arrays with two or more elements",
			Kind:        RegionKind{Class: ClassArrayMultiple},
		},
	}
}

func objectUniverse(t *typemodel.TypeNode) []Region {
	names := make([]string, len(t.Properties))
	for i, p := range t.Properties {
		names[i] = p.Name
	}
	return []Region{
		{
			ID:          "object-empty",
			Type:        t,
			Cardinality: typemodel.Finite(1),
			Description: "the memberless object",
			Kind:        RegionKind{Class: ClassObjectEmpty, PropNames: names},
		},
		{
			ID:          "object-partial",
			Type:        t,
			Cardinality: typemodel.Infinite(),
			Description: "objects missing declared properties",
			Kind:        RegionKind{Class: ClassObjectPartial, PropNames: names},
		},
		{
			ID:          "object-complete",
			Type:        t,
			Cardinality: typemodel.Infinite(),
			Description: "objects with every declared property",
			Kind:        RegionKind{Class: ClassObjectComplete, PropNames: names},
		},
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// TotalCardinality sums region cardinalities with infinite absorbing.
func TotalCardinality(regions []Region) typemodel.Cardinality {
	return totalCardinality(regions)
}

func totalCardinality(regions []Region) typemodel.Cardinality {
	total := typemodel.Finite(0)
	for _, r := range regions {
		total = total.Add(r.Cardinality)
	}
	return total
}

// ensureUniqueIDs suffixes repeated IDs with an ordinal so that IDs
// stay unique within one universe, as the coverage comparison requires.
func ensureUniqueIDs(regions []Region) []Region {
	seen := make(map[string]int, len(regions))
	for i := range regions {
		id := regions[i].ID
		seen[id]++
		if n := seen[id]; n > 1 {
			regions[i].ID = id + "-" + strconv.Itoa(n)
		}
	}
	return regions
}

func hasLengthConstraint(t *typemodel.TypeNode) bool {
	for _, con := range t.Constraints {
		if con.Tag == typemodel.ConstraintLength {
			return true
		}
	}
	return false
}

func boundID(f *float64) string {
	if f == nil {
		return "open"
	}
	return strings.ReplaceAll(strconv.FormatFloat(*f, 'g', -1, 64), "+", "")
}

func intBoundID(n *int) string {
	if n == nil {
		return "open"
	}
	return strconv.Itoa(*n)
}

// signatureFingerprint derives a deterministic cache key from the
// signature via canonical JSON, following RFC 8785.
func signatureFingerprint(sig typemodel.FunctionSignature) string {
	raw, err := json.Marshal(sig)
	if err != nil {
		// Signatures are plain data; marshal cannot realistically
		// fail. Fall back to the name to stay total.
		return sig.Name
	}
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		canonical = raw
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
