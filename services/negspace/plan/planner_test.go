// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/negspace/services/negspace/typemodel"
)

func newTestPlanner(t *testing.T, cfg *Config) *Planner {
	t.Helper()
	p, err := NewPlanner(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func numberSig(name string) typemodel.FunctionSignature {
	return typemodel.FunctionSignature{
		Name: name,
		Parameters: []typemodel.Parameter{
			{Name: "x", Type: typemodel.Primitive(typemodel.PrimitiveNumber)},
		},
	}
}

func TestPlan_CoveredRegionsProduceNoCases(t *testing.T) {
	p := newTestPlanner(t, nil)

	cases, err := p.Plan(context.Background(), numberSig("abs"), []Execution{
		{Input: []typemodel.Value{typemodel.NumberValue(5)}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, cases)

	for _, tc := range cases {
		assert.NotEqual(t, "number-positive", tc.Region.ID,
			"the covered region must not be re-planned")
		assert.Equal(t, "abs", tc.FunctionName)
		assert.NotEmpty(t, tc.ID)
		assert.Len(t, tc.Inputs, 1)
	}
}

func TestPlan_HighPriorityGapsComeFirst(t *testing.T) {
	p := newTestPlanner(t, nil)

	cases, err := p.Plan(context.Background(), numberSig("abs"), []Execution{
		{Input: []typemodel.Value{typemodel.NumberValue(5)}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, cases)

	for i := 1; i < len(cases); i++ {
		assert.GreaterOrEqual(t, cases[i-1].Priority, cases[i].Priority)
	}
	assert.GreaterOrEqual(t, cases[0].Priority, 0.8,
		"boundary singletons lead the plan")
}

func TestPlan_SpecialRegionExpectsThrow(t *testing.T) {
	p := newTestPlanner(t, nil)

	cases, err := p.Plan(context.Background(), numberSig("abs"), nil)
	require.NoError(t, err)

	found := false
	for _, tc := range cases {
		if tc.Region.ID == "number-special" {
			found = true
			assert.Equal(t, BehaviorShouldThrow, tc.ExpectedBehavior)
			assert.NotEmpty(t, tc.Region.Reason)
		}
	}
	assert.True(t, found, "the special region must be planned")
}

func TestPlan_RespectsMaxBoundaryTests(t *testing.T) {
	p := newTestPlanner(t, NewConfig(WithMaxBoundaryTests(4)))

	cases, err := p.Plan(context.Background(), numberSig("abs"), nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(cases), 4)
}

func TestPlan_SolverDerivesConstrainedValues(t *testing.T) {
	p := newTestPlanner(t, NewConfig(
		WithMaxNegativeSpaceRegions(1),
		WithMaxBoundaryTests(20),
	))

	sig := typemodel.FunctionSignature{
		Name: "clamp",
		Parameters: []typemodel.Parameter{
			{
				Name: "x",
				Type: typemodel.Primitive(typemodel.PrimitiveNumber).
					WithConstraints(typemodel.ClosedRange(0, 10)),
			},
		},
	}

	cases, err := p.Plan(context.Background(), sig, nil)
	require.NoError(t, err)
	require.NotEmpty(t, cases)

	solverCases := 0
	for _, tc := range cases {
		if tc.Metadata["source"] == "solver" {
			solverCases++
			assert.Equal(t, BehaviorShouldSatisfy, tc.ExpectedBehavior)
			require.Len(t, tc.Inputs, 1)
			v := tc.Inputs[0]
			assert.GreaterOrEqual(t, v.Num, 0.0)
			assert.LessOrEqual(t, v.Num, 10.0)
		}
	}
	assert.Greater(t, solverCases, 0, "the constrained region must exercise the solver")
}

func TestPlan_SolverDisabled(t *testing.T) {
	p := newTestPlanner(t, NewConfig(
		WithMaxNegativeSpaceRegions(1),
		WithMaxBoundaryTests(20),
		WithSMTSolver(false),
	))

	sig := typemodel.FunctionSignature{
		Name: "clamp",
		Parameters: []typemodel.Parameter{
			{
				Name: "x",
				Type: typemodel.Primitive(typemodel.PrimitiveNumber).
					WithConstraints(typemodel.ClosedRange(0, 10)),
			},
		},
	}

	cases, err := p.Plan(context.Background(), sig, nil)
	require.NoError(t, err)
	for _, tc := range cases {
		assert.NotEqual(t, "solver", tc.Metadata["source"])
	}
}

func TestPlan_CompoundSignatures(t *testing.T) {
	p := newTestPlanner(t, nil)

	sig := typemodel.FunctionSignature{
		Name: "pow",
		Parameters: []typemodel.Parameter{
			{Name: "base", Type: typemodel.Primitive(typemodel.PrimitiveNumber)},
			{Name: "flag", Type: typemodel.Primitive(typemodel.PrimitiveBoolean)},
		},
	}

	cases, err := p.Plan(context.Background(), sig, nil)
	require.NoError(t, err)
	require.NotEmpty(t, cases)
	for _, tc := range cases {
		assert.Len(t, tc.Inputs, 2, "compound cases carry one value per parameter")
	}
}

func TestPlan_RejectsInvalidIdentifiers(t *testing.T) {
	p := newTestPlanner(t, nil)

	_, err := p.Plan(context.Background(), numberSig("not a name"), nil)
	assert.Error(t, err)

	sig := numberSig("ok")
	sig.Parameters[0].Name = "2bad"
	_, err = p.Plan(context.Background(), sig, nil)
	assert.Error(t, err)
}

func TestConfig_ValidateClamps(t *testing.T) {
	cfg := &Config{
		MaxNegativeSpaceRegions: -1,
		MaxBoundaryTests:        0,
		TimeoutMs:               1,
		BoundaryDepth:           7,
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 50, cfg.MaxNegativeSpaceRegions)
	assert.Equal(t, 100, cfg.MaxBoundaryTests)
	assert.Equal(t, 30000, cfg.TimeoutMs)
	assert.Equal(t, 2, cfg.BoundaryDepth)
}

func TestNewConfig_Options(t *testing.T) {
	cfg := NewConfig(
		WithMaxBoundaryTests(7),
		WithTimeoutMs(1000),
		WithEdgeCases(false),
		WithBoundaryDepth(3),
	)
	assert.Equal(t, 7, cfg.MaxBoundaryTests)
	assert.Equal(t, 1000, cfg.TimeoutMs)
	assert.False(t, cfg.IncludeEdgeCases)
	assert.Equal(t, 3, cfg.BoundaryDepth)
}
