// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package plan drives the full negative-space pipeline for one
// function signature: universe, coverage, gap detection, boundary
// walking, and constraint solving, ending in renderable test cases.
//
// The planner emits TestCase records for an external code-rendering
// component; it never emits source code itself.
package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/negspace/pkg/logging"
	"github.com/AleutianAI/negspace/pkg/validation"
	"github.com/AleutianAI/negspace/services/negspace/boundary"
	"github.com/AleutianAI/negspace/services/negspace/coverage"
	"github.com/AleutianAI/negspace/services/negspace/gaps"
	"github.com/AleutianAI/negspace/services/negspace/solver"
	"github.com/AleutianAI/negspace/services/negspace/typemodel"
	"github.com/AleutianAI/negspace/services/negspace/universe"
)

// =============================================================================
// TYPES
// =============================================================================

// Behavior is the expected outcome of a generated test case.
type Behavior string

const (
	// BehaviorShouldReturn expects the function to return normally.
	BehaviorShouldReturn Behavior = "should-return"

	// BehaviorShouldThrow expects the function to raise.
	BehaviorShouldThrow Behavior = "should-throw"

	// BehaviorShouldSatisfy expects a caller-checked predicate.
	BehaviorShouldSatisfy Behavior = "should-satisfy"
)

// RegionRef identifies the region a test case exercises.
type RegionRef struct {
	// ID is the region identifier.
	ID string

	// Type renders the region's type node.
	Type string

	// Reason is the gap engine's explanation.
	Reason string
}

// TestCase is one generated test, consumed by an external renderer.
type TestCase struct {
	// ID is a generated identifier.
	ID string

	// Description is the human-readable summary.
	Description string

	// FunctionName names the function under test.
	FunctionName string

	// Inputs is the ordered argument list.
	Inputs []typemodel.Value

	// ExpectedBehavior is the expected outcome.
	ExpectedBehavior Behavior

	// ExpectedValue is the expected return, when one is known.
	ExpectedValue *typemodel.Value

	// Priority is the originating gap's bug-probability score.
	Priority float64

	// Region identifies the exercised region.
	Region RegionRef

	// Metadata carries generator details.
	Metadata map[string]string
}

// Execution is one observed invocation replayed into the coverage
// tracker before planning.
type Execution struct {
	// Input is the ordered argument list.
	Input []typemodel.Value

	// Output is the observed return value, when the call returned.
	Output *typemodel.Value

	// Failed is true when the call raised.
	Failed bool

	// FailureMessage describes the failure, when Failed.
	FailureMessage string
}

// =============================================================================
// PLANNER
// =============================================================================

// Planner runs the negative-space pipeline for one signature at a
// time.
//
// # Thread Safety
//
// A Planner is NOT safe for concurrent use: its solver owns a
// per-instance cache. Bind one Planner per worker.
type Planner struct {
	cfg    *Config
	calc   *universe.Calculator
	engine *gaps.Engine
	walker *boundary.Walker
	solver *solver.Solver
	logger *slog.Logger
}

// NewPlanner creates a Planner.
//
// Inputs:
//
//	cfg - Planner configuration. Nil uses DefaultConfig().
//	logger - Logger for structured logging. Nil uses the shared
//	  service logger from pkg/logging.
//
// Outputs:
//
//	*Planner - The assembled pipeline.
//	error - Configuration or solver construction failure.
func NewPlanner(cfg *Config, logger *slog.Logger) (*Planner, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("plan: invalid config: %w", err)
	}
	if logger == nil {
		logger = logging.Default().Slog()
	}

	sol, err := solver.NewSolver(nil, &solver.Options{
		MaxSolutions:    5,
		Timeout:         cfg.Timeout(),
		EnableCache:     true,
		Diversification: true,
	}, logger)
	if err != nil {
		return nil, err
	}

	return &Planner{
		cfg:    cfg,
		calc:   universe.NewCalculator(nil, logger),
		engine: gaps.New(logger),
		walker: boundary.NewWalker(logger),
		solver: sol,
		logger: logger,
	}, nil
}

// Close releases the planner's solver backend.
func (p *Planner) Close() {
	p.solver.Close()
}

// Plan generates test cases for a signature's negative space.
//
// Description:
//
//	Validates the signature's identifiers, computes the universe,
//	replays the recorded executions into a coverage tracker, detects
//	and prioritizes gaps, then turns each gap into concrete inputs
//	via the boundary walker and, for constrained regions, the
//	constraint solver. Output is bounded by MaxBoundaryTests.
//
// Inputs:
//
//	ctx - Context bounding the run alongside TimeoutMs.
//	sig - The function signature under analysis.
//	executions - Previously observed invocations. May be empty.
//
// Outputs:
//
//	[]TestCase - Generated cases, highest-priority gaps first.
//	error - Identifier validation failure or context cancellation.
func (p *Planner) Plan(ctx context.Context, sig typemodel.FunctionSignature, executions []Execution) ([]TestCase, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := validation.ValidateIdentifier(sig.Name); err != nil {
		return nil, fmt.Errorf("plan: function name: %w", err)
	}
	for _, param := range sig.Parameters {
		if err := validation.ValidateIdentifier(param.Name); err != nil {
			return nil, fmt.Errorf("plan: parameter name: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout())
	defer cancel()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "plan.Planner.Plan", trace.WithAttributes(
		attribute.String("function", sig.Name),
		attribute.Int("executions", len(executions)),
	))
	defer span.End()

	regions := p.calc.ForSignature(sig)

	tracker := coverage.NewTracker(sig, regions, p.logger)
	for _, exec := range executions {
		if exec.Failed {
			tracker.RecordFailure(exec.Input, exec.FailureMessage)
		} else {
			tracker.RecordExecution(exec.Input, exec.Output)
		}
	}

	res := p.engine.DetectGaps(ctx, regions, tracker.CoveredRegionIDs(), &gaps.Options{
		MaxGaps:         p.cfg.MaxNegativeSpaceRegions,
		IncludeInfinite: true,
		Strategy:        gaps.StrategyBalanced,
	})

	var cases []TestCase
	for _, gap := range res.Prioritized {
		if err := ctx.Err(); err != nil {
			span.SetAttributes(attribute.Bool("truncated", true))
			break
		}
		cases = append(cases, p.casesForGap(ctx, sig, gap)...)
		if len(cases) >= p.cfg.MaxBoundaryTests {
			cases = cases[:p.cfg.MaxBoundaryTests]
			break
		}
	}

	recordPlan(ctx, sig.Name, len(cases), time.Since(start))
	span.SetAttributes(
		attribute.Int("gaps", len(res.Gaps)),
		attribute.Int("test_cases", len(cases)),
	)
	p.logger.Info("planned negative-space tests",
		slog.String("function", sig.Name),
		slog.Int("universe_regions", len(regions)),
		slog.Int("gaps", len(res.Gaps)),
		slog.Int("test_cases", len(cases)),
	)
	return cases, nil
}

// casesForGap turns one gap into concrete test cases.
func (p *Planner) casesForGap(ctx context.Context, sig typemodel.FunctionSignature, gap gaps.Gap) []TestCase {
	perGap := p.cfg.MaxBoundaryTests / p.cfg.MaxNegativeSpaceRegions
	if perGap < 1 {
		perGap = 1
	}

	ref := RegionRef{
		ID:     gap.ID,
		Type:   typeLabel(gap.Region),
		Reason: gap.Reason,
	}

	var cases []TestCase
	for _, gen := range p.inputsForGap(gap, perGap) {
		cases = append(cases, TestCase{
			ID:               uuid.New().String(),
			Description:      fmt.Sprintf("%s: %s", gap.ID, gen.explanation),
			FunctionName:     sig.Name,
			Inputs:           gen.inputs,
			ExpectedBehavior: behaviorFor(gap),
			Priority:         gap.Priority,
			Region:           ref,
			Metadata: map[string]string{
				"source": gen.source,
			},
		})
		if len(cases) >= perGap {
			break
		}
	}

	if p.cfg.SMTSolverEnabled && len(gap.Constraints) > 0 && len(cases) < perGap {
		cases = append(cases, p.solverCases(ctx, sig, gap, ref, perGap-len(cases))...)
	}
	return cases
}

// solverCases derives satisfying values for a constrained region.
func (p *Planner) solverCases(ctx context.Context, sig typemodel.FunctionSignature, gap gaps.Gap, ref RegionRef, limit int) []TestCase {
	res := p.solver.SolveForSatisfyingValues(ctx, gap.Type, gap.Constraints)
	if res.Status != solver.StatusSuccess {
		p.logger.Debug("solver produced no values",
			slog.String("region", gap.ID),
			slog.String("status", string(res.Status)),
		)
		return nil
	}

	var cases []TestCase
	for _, v := range res.Values {
		if len(cases) == limit {
			break
		}
		cases = append(cases, TestCase{
			ID:               uuid.New().String(),
			Description:      fmt.Sprintf("%s: solver-derived value %s", gap.ID, v.String()),
			FunctionName:     sig.Name,
			Inputs:           []typemodel.Value{v},
			ExpectedBehavior: BehaviorShouldSatisfy,
			Priority:         gap.Priority,
			Region:           ref,
			Metadata: map[string]string{
				"source": "solver",
			},
		})
	}
	return cases
}

// generated pairs one argument list with its provenance.
type generated struct {
	inputs      []typemodel.Value
	explanation string
	source      string
}

// inputsForGap produces argument lists landing in the gap. Simple
// gaps take single boundary values; compound gaps vary one position
// at a time around a base tuple of per-part boundary values.
func (p *Planner) inputsForGap(gap gaps.Gap, limit int) []generated {
	opts := &boundary.Options{
		MaxInputs:            limit,
		IncludeSpecialValues: p.cfg.IncludeEdgeCases,
		Depth:                p.cfg.BoundaryDepth,
	}

	if gap.Kind.Class != universe.ClassCompound {
		walk := p.walker.WalkBoundary(gap.Region, opts)
		out := make([]generated, 0, len(walk.TestInputs))
		for _, in := range walk.TestInputs {
			if gap.Matches(in.Value) {
				out = append(out, generated{
					inputs:      []typemodel.Value{in.Value},
					explanation: in.Explanation,
					source:      "boundary",
				})
			}
		}
		if len(out) == 0 && len(walk.TestInputs) > 0 {
			// No walked value landed inside; keep the first as a
			// probe of the region's edge.
			first := walk.TestInputs[0]
			out = append(out, generated{
				inputs:      []typemodel.Value{first.Value},
				explanation: first.Explanation,
				source:      "boundary",
			})
		}
		return out
	}

	ids := strings.Split(gap.ID, universe.CompoundSeparator)
	if len(ids) != len(gap.Kind.Parts) {
		return nil
	}

	// Base tuple: the first in-part boundary value per position.
	base := make([]typemodel.Value, len(ids))
	partWalks := make([][]typemodel.Value, len(ids))
	for i, part := range gap.Kind.Parts {
		partRegion := universe.Region{ID: ids[i], Kind: part}
		walk := p.walker.WalkBoundary(partRegion, opts)
		for _, in := range walk.TestInputs {
			if part.Matches(in.Value) {
				partWalks[i] = append(partWalks[i], in.Value)
			}
		}
		if len(partWalks[i]) == 0 {
			return nil
		}
		base[i] = partWalks[i][0]
	}

	out := []generated{{
		inputs:      append([]typemodel.Value(nil), base...),
		explanation: "per-position boundary values",
		source:      "boundary",
	}}
	for i := range ids {
		for _, v := range partWalks[i][1:] {
			if len(out) == limit {
				return out
			}
			inputs := append([]typemodel.Value(nil), base...)
			inputs[i] = v
			out = append(out, generated{
				inputs:      inputs,
				explanation: fmt.Sprintf("varies %s along %s", ids[i], gap.ID),
				source:      "boundary",
			})
		}
	}
	return out
}

// behaviorFor picks the expected behavior: regions holding special
// values are expected to raise, everything else to return.
func behaviorFor(gap gaps.Gap) Behavior {
	if gap.Reason == "contains special values" ||
		gap.Kind.Class == universe.ClassNumberSpecial ||
		gap.Kind.Class == universe.ClassStringSpecial {
		return BehaviorShouldThrow
	}
	return BehaviorShouldReturn
}

func typeLabel(r universe.Region) string {
	if r.Type == nil {
		return ""
	}
	return r.Type.String()
}
