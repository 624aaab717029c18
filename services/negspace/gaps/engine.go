// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gaps computes and prioritizes negative space: universe
// regions not exercised by any recorded execution.
//
// Negative space is the pure set difference between the universe and
// the covered region IDs. The union of negative space and covered
// space reconstitutes the universe exactly and their intersection is
// empty; VerifyPartition checks this invariant.
//
// One engine serves every prioritization strategy; the Strategy option
// selects the ordering, the scoring heuristics are shared.
//
// # Thread Safety
//
// An Engine is stateless apart from its logger and is safe for
// concurrent use.
package gaps

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/negspace/services/negspace/typemodel"
	"github.com/AleutianAI/negspace/services/negspace/universe"
)

// =============================================================================
// TYPES
// =============================================================================

// Gap is a negative-space region scored and reasoned for prioritization.
// Gaps are produced only by the Engine and are never persisted beyond
// one analysis run.
type Gap struct {
	universe.Region

	// Priority is the bug-probability score in [0,1].
	Priority float64

	// Reason explains why the gap matters.
	Reason string

	// Boundary is true when the gap is adjacent to a covered region.
	Boundary bool
}

// Strategy selects the prioritization ordering.
type Strategy string

const (
	// StrategyBalanced sorts by priority descending.
	StrategyBalanced Strategy = "balanced"

	// StrategyBoundaryFirst puts boundary gaps first, priority as
	// tie-break.
	StrategyBoundaryFirst Strategy = "boundary-first"

	// StrategyCardinalityFirst sorts ascending by cardinality with
	// infinite last, priority as tie-break.
	StrategyCardinalityFirst Strategy = "cardinality-first"
)

// Options tune gap detection.
type Options struct {
	// MinPriority drops gaps scoring below it.
	// Default: 0
	MinPriority float64

	// MaxGaps bounds the prioritized list. Zero means unbounded.
	// Default: 0
	MaxGaps int

	// IncludeInfinite keeps infinite-cardinality gaps.
	// Default: true
	IncludeInfinite bool

	// Strategy selects the prioritization ordering.
	// Default: StrategyBalanced
	Strategy Strategy
}

// DefaultOptions returns the default detection options.
func DefaultOptions() *Options {
	return &Options{
		MinPriority:     0,
		MaxGaps:         0,
		IncludeInfinite: true,
		Strategy:        StrategyBalanced,
	}
}

// Statistics aggregates one detection run.
type Statistics struct {
	// GapCount is the number of gaps after filtering.
	GapCount int

	// BoundaryCount and InteriorCount partition GapCount.
	BoundaryCount int
	InteriorCount int

	// TotalCardinality is the infinite-absorbing sum of gap sizes.
	TotalCardinality typemodel.Cardinality

	// MeanPriority is the average gap priority. Zero when empty.
	MeanPriority float64

	// HighestPriority is the single highest-priority gap, when any.
	HighestPriority *Gap
}

// Result is the outcome of one detection run.
type Result struct {
	// Gaps is the filtered negative space, in universe order.
	Gaps []Gap

	// Prioritized is Gaps ordered by the strategy and bounded by
	// MaxGaps.
	Prioritized []Gap

	// BoundaryGaps are gaps adjacent to a covered region.
	BoundaryGaps []Gap

	// InteriorGaps are the remaining gaps.
	InteriorGaps []Gap

	// Statistics aggregates the run.
	Statistics Statistics
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine detects and prioritizes negative space.
type Engine struct {
	logger *slog.Logger
}

// New creates an Engine. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// DetectGaps computes the prioritized negative space of a universe.
//
// Description:
//
//	Subtracts the covered region IDs from the universe (set
//	difference by ID), scores each remaining region, classifies it as
//	boundary or interior via the fixed adjacency table, filters by
//	the options, and orders the survivors by the selected strategy.
//
// Inputs:
//
//	ctx - Context for tracing. Nil is tolerated.
//	regions - The universe under analysis.
//	coveredIDs - IDs of regions exercised by recorded executions.
//	opts - Detection options. Nil uses DefaultOptions().
//
// Outputs:
//
//	*Result - Gaps, orderings, classifications, and statistics.
func (e *Engine) DetectGaps(ctx context.Context, regions []universe.Region, coveredIDs []string, opts *Options) *Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyBalanced
	}

	ctx, span := tracer.Start(ctx, "gaps.Engine.DetectGaps", trace.WithAttributes(
		attribute.Int("universe_regions", len(regions)),
		attribute.Int("covered_regions", len(coveredIDs)),
		attribute.String("strategy", string(opts.Strategy)),
	))
	defer span.End()
	start := time.Now()

	covered := make(map[string]struct{}, len(coveredIDs))
	for _, id := range coveredIDs {
		covered[id] = struct{}{}
	}

	res := &Result{}
	for _, r := range regions {
		if _, ok := covered[r.ID]; ok {
			continue
		}
		if !opts.IncludeInfinite && r.Cardinality.IsInfinite() {
			continue
		}
		gap := Gap{Region: r}
		gap.Priority = scorePriority(r)
		gap.Reason = assignReason(r)
		gap.Boundary = adjacentToCovered(r.ID, covered)
		if gap.Priority < opts.MinPriority {
			continue
		}
		res.Gaps = append(res.Gaps, gap)
		if gap.Boundary {
			res.BoundaryGaps = append(res.BoundaryGaps, gap)
		} else {
			res.InteriorGaps = append(res.InteriorGaps, gap)
		}
	}

	res.Prioritized = prioritize(res.Gaps, opts.Strategy)
	if opts.MaxGaps > 0 && len(res.Prioritized) > opts.MaxGaps {
		res.Prioritized = res.Prioritized[:opts.MaxGaps]
	}
	res.Statistics = summarize(res)

	recordDetection(ctx, string(opts.Strategy), len(res.Gaps), time.Since(start))
	e.logger.Debug("detected negative space",
		slog.Int("gaps", len(res.Gaps)),
		slog.Int("boundary", len(res.BoundaryGaps)),
		slog.String("strategy", string(opts.Strategy)),
	)
	span.SetAttributes(attribute.Int("gaps", len(res.Gaps)))
	return res
}

// VerifyPartition checks the negative-space invariant: the covered set
// and the unfiltered set difference reconstitute the universe exactly
// and do not overlap.
func VerifyPartition(regions []universe.Region, coveredIDs []string) bool {
	covered := make(map[string]struct{}, len(coveredIDs))
	for _, id := range coveredIDs {
		covered[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		seen[r.ID] = struct{}{}
	}
	// Covered IDs outside the universe break the partition.
	for id := range covered {
		if _, ok := seen[id]; !ok {
			return false
		}
	}

	uncovered := 0
	for _, r := range regions {
		if _, ok := covered[r.ID]; !ok {
			uncovered++
		}
	}
	return uncovered+len(covered) == len(regions)
}

// =============================================================================
// SCORING
// =============================================================================

// boundaryKeywords mark regions at partition edges.
var boundaryKeywords = []string{
	"boundary", "zero", "empty", "single", "min", "max", "infinity", "special",
}

// specialKeywords mark regions holding special values.
var specialKeywords = []string{
	"special", "nan", "infinity", "null", "undefined",
}

// scorePriority computes the bug-probability score. The base is 0.5;
// each adjustment applies independently; the result clamps to [0,1].
func scorePriority(r universe.Region) float64 {
	p := 0.5

	if containsAny(strings.ToLower(r.ID), boundaryKeywords) ||
		containsAny(strings.ToLower(r.Description), boundaryKeywords) {
		p += 0.3
	}

	switch {
	case r.Cardinality.IsInfinite():
		p -= 0.2
	case r.Cardinality.Count() <= 10:
		p += 0.2
	case r.Cardinality.Count() <= 100:
		p += 0.1
	}

	if containsAny(strings.ToLower(r.ID), specialKeywords) {
		p += 0.2
	}

	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}

// assignReason picks the explanation for a gap. First matching rule wins.
func assignReason(r universe.Region) string {
	id := strings.ToLower(r.ID)
	switch {
	case containsAny(id, boundaryKeywords) || containsAny(strings.ToLower(r.Description), boundaryKeywords):
		return "boundary region, high bug probability"
	case containsAny(id, specialKeywords):
		return "contains special values"
	case r.Cardinality.IsInfinite():
		return "requires sampling strategy"
	case r.Cardinality.Count() <= 10:
		return "small finite region, should be fully tested"
	default:
		return "untested region"
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// =============================================================================
// ADJACENCY
// =============================================================================

// adjacency is the fixed neighbor table over simple region IDs.
var adjacency = map[string][]string{
	"number-negative":  {"number-zero", "number-min"},
	"number-zero":      {"number-negative", "number-positive"},
	"number-positive":  {"number-zero", "number-max"},
	"number-min":       {"number-negative"},
	"number-max":       {"number-positive"},
	"string-empty":     {"string-single"},
	"string-single":    {"string-empty", "string-short"},
	"string-short":     {"string-single", "string-medium"},
	"string-medium":    {"string-short", "string-long"},
	"string-long":      {"string-medium", "string-very-long"},
	"string-very-long": {"string-long"},
	"array-empty":      {"array-single"},
	"array-single":     {"array-empty", "array-multiple"},
	"array-multiple":   {"array-single"},
	"object-empty":     {"object-partial"},
	"object-partial":   {"object-empty", "object-complete"},
	"object-complete":  {"object-partial"},
	"boolean-true":     {"boolean-false"},
	"boolean-false":    {"boolean-true"},
}

// adjacentToCovered reports whether the gap borders any covered region.
// Compound IDs are adjacent when they agree on every position but one,
// and that position's components are adjacent.
func adjacentToCovered(id string, covered map[string]struct{}) bool {
	for coveredID := range covered {
		if idsAdjacent(id, coveredID) {
			return true
		}
	}
	return false
}

func idsAdjacent(a, b string) bool {
	if !strings.Contains(a, universe.CompoundSeparator) {
		return simpleAdjacent(a, b)
	}
	partsA := strings.Split(a, universe.CompoundSeparator)
	partsB := strings.Split(b, universe.CompoundSeparator)
	if len(partsA) != len(partsB) {
		return false
	}
	diffs := 0
	for i := range partsA {
		if partsA[i] == partsB[i] {
			continue
		}
		if !simpleAdjacent(partsA[i], partsB[i]) {
			return false
		}
		diffs++
	}
	return diffs == 1
}

func simpleAdjacent(a, b string) bool {
	for _, n := range adjacency[a] {
		if n == b {
			return true
		}
	}
	return false
}

// =============================================================================
// PRIORITIZATION
// =============================================================================

func prioritize(gaps []Gap, strategy Strategy) []Gap {
	out := make([]Gap, len(gaps))
	copy(out, gaps)

	switch strategy {
	case StrategyBoundaryFirst:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Boundary != out[j].Boundary {
				return out[i].Boundary
			}
			return out[i].Priority > out[j].Priority
		})
	case StrategyCardinalityFirst:
		sort.SliceStable(out, func(i, j int) bool {
			ci, cj := out[i].Cardinality, out[j].Cardinality
			if !ci.Equal(cj) {
				return ci.Less(cj)
			}
			return out[i].Priority > out[j].Priority
		})
	default: // StrategyBalanced
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Priority > out[j].Priority
		})
	}
	return out
}

func summarize(res *Result) Statistics {
	stats := Statistics{
		GapCount:         len(res.Gaps),
		BoundaryCount:    len(res.BoundaryGaps),
		InteriorCount:    len(res.InteriorGaps),
		TotalCardinality: typemodel.Finite(0),
	}

	sum := 0.0
	for i := range res.Gaps {
		g := &res.Gaps[i]
		stats.TotalCardinality = stats.TotalCardinality.Add(g.Cardinality)
		sum += g.Priority
		if stats.HighestPriority == nil || g.Priority > stats.HighestPriority.Priority {
			stats.HighestPriority = g
		}
	}
	if len(res.Gaps) > 0 {
		stats.MeanPriority = sum / float64(len(res.Gaps))
	}
	return stats
}
