// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package solver derives concrete values satisfying a constraint list.
//
// A Solver drives a pluggable Backend: translate the constraints,
// solve repeatedly up to MaxSolutions, and after each accepted value
// add a real negated-equality exclusion so the backend is forced
// toward a different part of the solution space. Solved value sets
// are cached under a canonical fingerprint of the constraint list.
//
// # Thread Safety
//
// A Solver instance is NOT safe for concurrent use: its cache and
// hit/miss counters are mutated per call. Independent instances are
// fully independent and may run concurrently.
package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/negspace/services/negspace/typemodel"
)

// =============================================================================
// TYPES
// =============================================================================

// Status is the overall outcome of one solve call.
type Status string

const (
	// StatusSuccess means at least one satisfying value was found.
	StatusSuccess Status = "success"

	// StatusUnsatisfiable means the constraints admit no value.
	StatusUnsatisfiable Status = "unsatisfiable"

	// StatusTimeout means the deadline expired with zero values.
	StatusTimeout Status = "timeout"

	// StatusError means the backend failed or panicked.
	StatusError Status = "error"
)

// Options tune a Solver.
type Options struct {
	// MaxSolutions bounds the number of values requested.
	// Default: 10
	MaxSolutions int

	// Timeout bounds one solve call end to end.
	// Default: 5s
	Timeout time.Duration

	// EnableCache caches solved value sets by constraint fingerprint.
	// Default: true
	EnableCache bool

	// MaxCacheSize bounds the cache entry count.
	// Default: DefaultMaxCacheSize
	MaxCacheSize int

	// Diversification adds a negated-equality exclusion for every
	// accepted value before each subsequent solve.
	// Default: true
	Diversification bool
}

// DefaultOptions returns the default solver options.
func DefaultOptions() *Options {
	return &Options{
		MaxSolutions:    10,
		Timeout:         5 * time.Second,
		EnableCache:     true,
		MaxCacheSize:    DefaultMaxCacheSize,
		Diversification: true,
	}
}

// Validate fills unset options with their defaults and rejects
// negative bounds with ErrInvalidOptions.
func (o *Options) Validate() error {
	if o.MaxSolutions < 0 || o.Timeout < 0 || o.MaxCacheSize < 0 {
		return fmt.Errorf("%w: bounds must be non-negative", ErrInvalidOptions)
	}
	if o.MaxSolutions == 0 {
		o.MaxSolutions = 10
	}
	if o.Timeout == 0 {
		o.Timeout = 5 * time.Second
	}
	if o.MaxCacheSize == 0 {
		o.MaxCacheSize = DefaultMaxCacheSize
	}
	return nil
}

// Stats carries per-call accounting.
type Stats struct {
	// SolveTime is the end-to-end duration of the call.
	SolveTime time.Duration

	// CacheHits and CacheMisses are the instance-lifetime counters
	// as of this call.
	CacheHits   int
	CacheMisses int
}

// Result is the outcome of one solve call.
type Result struct {
	// Status is the overall outcome.
	Status Status

	// Values are the accepted satisfying values, in acceptance order.
	Values []typemodel.Value

	// SolutionCount is len(Values).
	SolutionCount int

	// Stats carries per-call accounting.
	Stats Stats

	// Err describes the failure when Status is StatusError.
	Err error
}

// =============================================================================
// SOLVER
// =============================================================================

// Solver drives a Backend to produce satisfying values.
type Solver struct {
	backend Backend
	opts    *Options
	cache   *solutionCache
	logger  *slog.Logger

	hits   int
	misses int
}

// NewSolver creates a Solver and initializes its backend.
//
// Inputs:
//
//	backend - The constraint backend. Nil uses NewIntervalBackend().
//	opts - Solver options. Nil uses DefaultOptions().
//	logger - Logger for structured logging. Nil uses slog.Default().
//
// Outputs:
//
//	*Solver - The initialized solver.
//	error - Backend initialization failure.
func NewSolver(backend Backend, opts *Options, logger *slog.Logger) (*Solver, error) {
	if backend == nil {
		backend = NewIntervalBackend()
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := backend.Init(opts); err != nil {
		return nil, fmt.Errorf("solver: backend init: %w", err)
	}
	return &Solver{
		backend: backend,
		opts:    opts,
		cache:   newSolutionCache(opts.MaxCacheSize),
		logger:  logger,
	}, nil
}

// Close disposes the backend.
func (s *Solver) Close() {
	s.backend.Dispose()
}

// SolveForSatisfyingValues finds up to MaxSolutions values satisfying
// the constraint list.
//
// Description:
//
//	Checks the cache first. On a miss, translates the constraints and
//	invokes the backend repeatedly; each accepted value is validated
//	against the optional type node's primitive kind and, under
//	diversification, excluded from subsequent solves by a real
//	negated-equality expression. The loop stops on unsat (solution
//	space exhausted), on the deadline, or at MaxSolutions. Backend
//	panics are caught and reported as StatusError, never propagated.
//
// Inputs:
//
//	ctx - Context bounding the call alongside the Timeout option.
//	node - Optional type node; accepted values must match its
//	       primitive kind. May be nil.
//	constraints - The conjunctive constraint list.
//
// Outputs:
//
//	*Result - Status, values, and per-call stats. Never nil.
func (s *Solver) SolveForSatisfyingValues(ctx context.Context, node *typemodel.TypeNode, constraints []typemodel.Constraint) *Result {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	ctx, span := tracer.Start(ctx, "solver.Solver.SolveForSatisfyingValues", trace.WithAttributes(
		attribute.Int("constraints", len(constraints)),
		attribute.Int("max_solutions", s.opts.MaxSolutions),
	))
	defer span.End()

	var key string
	if s.opts.EnableCache {
		k, err := cacheKey(constraints)
		if err == nil {
			key = k
			if values, ok := s.cache.get(key, start); ok {
				s.hits++
				recordSolve(ctx, string(StatusSuccess), true, time.Since(start))
				span.SetAttributes(attribute.Bool("cache_hit", true))
				return s.finish(&Result{
					Status:        StatusSuccess,
					Values:        values,
					SolutionCount: len(values),
				}, start)
			}
			// Unkeyable constraints never consult the cache, so they
			// must not count as misses.
			s.misses++
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	res := s.solve(ctx, node, constraints)
	if res.Status == StatusSuccess && s.opts.EnableCache && key != "" {
		s.cache.put(key, res.Values, time.Now())
	}

	if res.Status == StatusError && res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}
	recordSolve(ctx, string(res.Status), false, time.Since(start))
	s.logger.Debug("solved constraints",
		slog.String("status", string(res.Status)),
		slog.Int("values", res.SolutionCount),
		slog.Duration("elapsed", time.Since(start)),
	)
	return s.finish(res, start)
}

// solve runs the translate-and-search loop with panic containment.
func (s *Solver) solve(ctx context.Context, node *typemodel.TypeNode, constraints []typemodel.Constraint) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			res = &Result{Status: StatusError, Err: fmt.Errorf("solver: backend panic: %v", r)}
		}
	}()

	const varName = "x"
	exprs := make([]Expr, 0, len(constraints))
	for _, c := range constraints {
		e, err := s.backend.Translate(c, varName)
		if err != nil {
			return &Result{Status: StatusError, Err: err}
		}
		exprs = append(exprs, e)
	}

	// The backend is invoked at most MaxSolutions times, so a run of
	// type-rejected models still terminates.
	var values []typemodel.Value
	for attempt := 0; attempt < s.opts.MaxSolutions; attempt++ {
		model, err := s.backend.Solve(ctx, exprs)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return timeoutResult(values)
			}
			return &Result{Status: StatusError, Err: err}
		}

		switch model.Verdict {
		case VerdictSat:
		case VerdictUnsat:
			return exhaustedResult(values)
		default:
			return exhaustedResult(values)
		}

		raw, ok := model.Values[varName]
		if !ok {
			return &Result{Status: StatusError, Err: fmt.Errorf("solver: model missing variable %q", varName)}
		}
		v := ParseLiteral(raw)

		// Always exclude, accepted or not, so the search advances.
		exprs = append(exprs, Expr{Op: OpNotEqual, Var: varName, Exclude: v})

		if matchesNode(v, node) {
			values = append(values, v)
			if !s.opts.Diversification {
				// Without diversification one solution suffices.
				break
			}
		}
	}
	return exhaustedResult(values)
}

func (s *Solver) finish(res *Result, start time.Time) *Result {
	res.Stats = Stats{
		SolveTime:   time.Since(start),
		CacheHits:   s.hits,
		CacheMisses: s.misses,
	}
	return res
}

func timeoutResult(values []typemodel.Value) *Result {
	if len(values) > 0 {
		return &Result{Status: StatusSuccess, Values: values, SolutionCount: len(values)}
	}
	return &Result{Status: StatusTimeout}
}

func exhaustedResult(values []typemodel.Value) *Result {
	if len(values) > 0 {
		return &Result{Status: StatusSuccess, Values: values, SolutionCount: len(values)}
	}
	return &Result{Status: StatusUnsatisfiable}
}

// matchesNode validates a value against the node's primitive kind.
// Nil and non-primitive nodes accept everything.
func matchesNode(v typemodel.Value, node *typemodel.TypeNode) bool {
	if node == nil || node.Kind != typemodel.KindPrimitive {
		return true
	}
	switch node.Name {
	case typemodel.PrimitiveNumber:
		return v.Tag == typemodel.TagNumber
	case typemodel.PrimitiveString:
		return v.Tag == typemodel.TagString
	case typemodel.PrimitiveBoolean:
		return v.Tag == typemodel.TagBool
	default:
		return true
	}
}

// CacheSize reports the current number of cached solution sets.
func (s *Solver) CacheSize() int {
	return s.cache.len()
}
