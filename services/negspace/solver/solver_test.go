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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/negspace/services/negspace/typemodel"
)

func newTestSolver(t *testing.T, opts *Options) *Solver {
	t.Helper()
	s, err := NewSolver(nil, opts, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSolve_RangeProducesDistinctValues(t *testing.T) {
	s := newTestSolver(t, &Options{MaxSolutions: 5, Timeout: time.Second, EnableCache: false, Diversification: true})

	res := s.SolveForSatisfyingValues(context.Background(), nil,
		[]typemodel.Constraint{typemodel.ClosedRange(0, 10)})

	require.Equal(t, StatusSuccess, res.Status)
	require.Equal(t, 5, res.SolutionCount)
	seen := map[string]struct{}{}
	for _, v := range res.Values {
		assert.Equal(t, typemodel.TagNumber, v.Tag)
		assert.GreaterOrEqual(t, v.Num, 0.0)
		assert.LessOrEqual(t, v.Num, 10.0)
		key := v.String()
		_, dup := seen[key]
		assert.False(t, dup, "diversification must not repeat %s", key)
		seen[key] = struct{}{}
	}
}

func TestSolve_EmptyRangeIsUnsatisfiable(t *testing.T) {
	s := newTestSolver(t, nil)

	res := s.SolveForSatisfyingValues(context.Background(), nil,
		[]typemodel.Constraint{typemodel.ClosedRange(10, 5)})

	assert.Equal(t, StatusUnsatisfiable, res.Status)
	assert.Zero(t, res.SolutionCount)
}

func TestSolve_EnumExhaustsMembers(t *testing.T) {
	s := newTestSolver(t, &Options{MaxSolutions: 10, Timeout: time.Second, Diversification: true})

	res := s.SolveForSatisfyingValues(context.Background(), nil,
		[]typemodel.Constraint{typemodel.EnumConstraint(
			typemodel.StringValue("red"),
			typemodel.StringValue("green"),
		)})

	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 2, res.SolutionCount, "stops early once the member set is exhausted")
	assert.True(t, res.Values[0].Equal(typemodel.StringValue("red")))
	assert.True(t, res.Values[1].Equal(typemodel.StringValue("green")))
}

func TestSolve_PatternAnchors(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		check   func(t *testing.T, s string)
	}{
		{"exact", "^abc$", func(t *testing.T, s string) { assert.Equal(t, "abc", s) }},
		{"prefix", "^abc", func(t *testing.T, s string) { assert.True(t, len(s) >= 3 && s[:3] == "abc") }},
		{"suffix", "abc$", func(t *testing.T, s string) { assert.Equal(t, "abc", s[len(s)-3:]) }},
		{"contains", "abc", func(t *testing.T, s string) { assert.Contains(t, s, "abc") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSolver(t, &Options{MaxSolutions: 1, Timeout: time.Second, EnableCache: false})
			res := s.SolveForSatisfyingValues(context.Background(), nil,
				[]typemodel.Constraint{typemodel.PatternConstraint(tt.pattern)})
			require.Equal(t, StatusSuccess, res.Status)
			require.Equal(t, typemodel.TagString, res.Values[0].Tag)
			tt.check(t, res.Values[0].Str)
		})
	}
}

func TestSolve_ExactPatternAdmitsOneValue(t *testing.T) {
	s := newTestSolver(t, &Options{MaxSolutions: 5, Timeout: time.Second, Diversification: true})

	res := s.SolveForSatisfyingValues(context.Background(), nil,
		[]typemodel.Constraint{typemodel.PatternConstraint("^only$")})

	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 1, res.SolutionCount, "the exclusion of the only value exhausts the space")
}

func TestSolve_LengthAndPrefixCombined(t *testing.T) {
	s := newTestSolver(t, &Options{MaxSolutions: 3, Timeout: time.Second, Diversification: true})

	res := s.SolveForSatisfyingValues(context.Background(), nil,
		[]typemodel.Constraint{
			typemodel.ClosedLength(4, 8),
			typemodel.PatternConstraint("^ab"),
		})

	require.Equal(t, StatusSuccess, res.Status)
	for _, v := range res.Values {
		assert.True(t, len(v.Str) >= 4 && len(v.Str) <= 8, "length bounds on %q", v.Str)
		assert.Equal(t, "ab", v.Str[:2])
	}
}

func TestSolve_TypeNodeRejectsWrongKind(t *testing.T) {
	s := newTestSolver(t, &Options{MaxSolutions: 5, Timeout: time.Second})

	res := s.SolveForSatisfyingValues(context.Background(),
		typemodel.Primitive(typemodel.PrimitiveNumber),
		[]typemodel.Constraint{typemodel.EnumConstraint(
			typemodel.StringValue("not-a-number"),
		)})

	assert.Equal(t, StatusUnsatisfiable, res.Status)
}

func TestSolve_CacheHitOnSecondCall(t *testing.T) {
	s := newTestSolver(t, &Options{MaxSolutions: 3, Timeout: time.Second, EnableCache: true, Diversification: true})
	constraints := []typemodel.Constraint{typemodel.ClosedRange(0, 100)}

	first := s.SolveForSatisfyingValues(context.Background(), nil, constraints)
	require.Equal(t, StatusSuccess, first.Status)
	assert.Equal(t, 0, first.Stats.CacheHits)
	assert.Equal(t, 1, first.Stats.CacheMisses)

	second := s.SolveForSatisfyingValues(context.Background(), nil, constraints)
	require.Equal(t, StatusSuccess, second.Status)
	assert.Equal(t, 1, second.Stats.CacheHits)
	assert.Equal(t, 1, second.Stats.CacheMisses)
	assert.Equal(t, first.Values, second.Values)
}

func TestSolve_CacheKeyIgnoresIrrelevantFields(t *testing.T) {
	clean := typemodel.ClosedRange(0, 10)
	noisy := clean
	noisy.Pattern = "irrelevant for a range constraint"
	noisy.MinLength = intPtr(99)

	k1, err := cacheKey([]typemodel.Constraint{clean})
	require.NoError(t, err)
	k2, err := cacheKey([]typemodel.Constraint{noisy})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	different := typemodel.ClosedRange(0, 11)
	k3, err := cacheKey([]typemodel.Constraint{different})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestSolve_UnkeyableConstraintsSkipMissCount(t *testing.T) {
	s, err := NewSolver(&unsatBackend{}, &Options{MaxSolutions: 2, Timeout: time.Second, EnableCache: true}, nil)
	require.NoError(t, err)
	defer s.Close()

	// Non-finite bounds cannot be serialized into a cache key, so the
	// cache is never consulted and the miss counter must not move.
	res := s.SolveForSatisfyingValues(context.Background(), nil,
		[]typemodel.Constraint{typemodel.ClosedRange(math.Inf(1), math.Inf(1))})
	require.Equal(t, StatusUnsatisfiable, res.Status)
	assert.Equal(t, 0, res.Stats.CacheMisses)

	res = s.SolveForSatisfyingValues(context.Background(), nil,
		[]typemodel.Constraint{typemodel.ClosedRange(0, 1)})
	assert.Equal(t, 1, res.Stats.CacheMisses, "a keyable lookup still counts")
}

func TestOptions_Validate(t *testing.T) {
	opts := &Options{}
	require.NoError(t, opts.Validate())
	assert.Equal(t, 10, opts.MaxSolutions)
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, DefaultMaxCacheSize, opts.MaxCacheSize)

	assert.ErrorIs(t, (&Options{MaxSolutions: -1}).Validate(), ErrInvalidOptions)
	assert.ErrorIs(t, (&Options{Timeout: -time.Second}).Validate(), ErrInvalidOptions)
	assert.ErrorIs(t, (&Options{MaxCacheSize: -5}).Validate(), ErrInvalidOptions)
}

func TestNewSolver_RejectsNegativeOptions(t *testing.T) {
	_, err := NewSolver(nil, &Options{MaxSolutions: -1}, nil)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestSolve_BackendPanicBecomesError(t *testing.T) {
	s, err := NewSolver(&panicBackend{}, &Options{MaxSolutions: 1, Timeout: time.Second}, nil)
	require.NoError(t, err)
	defer s.Close()

	res := s.SolveForSatisfyingValues(context.Background(), nil,
		[]typemodel.Constraint{typemodel.ClosedRange(0, 1)})

	assert.Equal(t, StatusError, res.Status)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "panic")
}

func TestSolve_TimeoutWithZeroValues(t *testing.T) {
	s, err := NewSolver(&blockingBackend{}, &Options{
		MaxSolutions: 3,
		Timeout:      20 * time.Millisecond,
		EnableCache:  false,
	}, nil)
	require.NoError(t, err)
	defer s.Close()

	res := s.SolveForSatisfyingValues(context.Background(), nil,
		[]typemodel.Constraint{typemodel.ClosedRange(0, 1)})

	assert.Equal(t, StatusTimeout, res.Status)
	assert.Zero(t, res.SolutionCount)
}

func TestIntervalBackend_RequiresInit(t *testing.T) {
	b := NewIntervalBackend()

	_, err := b.Translate(typemodel.ClosedRange(0, 1), "x")
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = b.Solve(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, b.Init(nil))
	_, err = b.Solve(context.Background(), nil)
	assert.NoError(t, err)

	b.Dispose()
	_, err = b.Solve(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		raw  string
		want typemodel.Value
	}{
		{"42", typemodel.NumberValue(42)},
		{"-7", typemodel.NumberValue(-7)},
		{"3.5", typemodel.NumberValue(3.5)},
		{`"hello"`, typemodel.StringValue("hello")},
		{"true", typemodel.BoolValue(true)},
		{"false", typemodel.BoolValue(false)},
		{"raw-text", typemodel.StringValue("raw-text")},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.True(t, ParseLiteral(tt.raw).Equal(tt.want))
		})
	}
}

// =============================================================================
// STUB BACKENDS
// =============================================================================

type panicBackend struct{}

func (b *panicBackend) Init(_ *Options) error { return nil }
func (b *panicBackend) Dispose()              {}
func (b *panicBackend) Translate(_ typemodel.Constraint, varName string) (Expr, error) {
	return Expr{Op: OpTrue, Var: varName}, nil
}
func (b *panicBackend) Solve(_ context.Context, _ []Expr) (*Model, error) {
	panic("backend exploded")
}

type unsatBackend struct{}

func (b *unsatBackend) Init(_ *Options) error { return nil }
func (b *unsatBackend) Dispose()              {}
func (b *unsatBackend) Translate(_ typemodel.Constraint, varName string) (Expr, error) {
	return Expr{Op: OpTrue, Var: varName}, nil
}
func (b *unsatBackend) Solve(_ context.Context, _ []Expr) (*Model, error) {
	return &Model{Verdict: VerdictUnsat}, nil
}

type blockingBackend struct{}

func (b *blockingBackend) Init(_ *Options) error { return nil }
func (b *blockingBackend) Dispose()              {}
func (b *blockingBackend) Translate(_ typemodel.Constraint, varName string) (Expr, error) {
	return Expr{Op: OpTrue, Var: varName}, nil
}
func (b *blockingBackend) Solve(ctx context.Context, _ []Expr) (*Model, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func intPtr(n int) *int { return &n }
