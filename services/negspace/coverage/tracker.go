// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package coverage maps recorded test executions onto universe regions.
//
// A Tracker is bound to one function signature and its precomputed
// universe. Each recorded execution is matched against every region
// once; the matched region IDs are cached on the execution record.
// Coverage statistics compare covered and total cardinalities, with
// the percentage undefined (nil) when either side is infinite.
//
// # Thread Safety
//
// A Tracker is NOT safe for concurrent use. Bind one Tracker per
// analysis run.
package coverage

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/negspace/services/negspace/typemodel"
	"github.com/AleutianAI/negspace/services/negspace/universe"
)

// =============================================================================
// EXECUTION RECORDS
// =============================================================================

// Execution is one recorded invocation of the function under analysis.
//
// Records are immutable once returned by RecordExecution; the matched
// region IDs are computed once and cached on the record.
type Execution struct {
	// ID is a generated identifier for the record.
	ID string

	// Input is the ordered argument list.
	Input []typemodel.Value

	// Output is the observed return value, when the call returned.
	Output *typemodel.Value

	// Failed is true when the call raised instead of returning.
	Failed bool

	// FailureMessage describes the failure, when Failed.
	FailureMessage string

	// Timestamp is when the execution was recorded.
	Timestamp time.Time

	// MatchedRegions are the IDs of every region the input fell in.
	MatchedRegions []string
}

// =============================================================================
// TRACKER
// =============================================================================

// Tracker accumulates executions for one signature and universe.
type Tracker struct {
	sig      typemodel.FunctionSignature
	universe []universe.Region
	logger   *slog.Logger

	executions []*Execution
	byRegion   map[string]int
	covered    map[string]struct{}
}

// NewTracker creates a Tracker bound to a signature and its universe.
//
// Inputs:
//
//	sig - The function signature under analysis.
//	regions - The signature's universe, from universe.Calculator.
//	logger - Logger for structured logging. Nil uses slog.Default().
func NewTracker(sig typemodel.FunctionSignature, regions []universe.Region, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		sig:      sig,
		universe: regions,
		logger:   logger,
		byRegion: make(map[string]int),
		covered:  make(map[string]struct{}),
	}
}

// RecordExecution records a successful invocation.
//
// Description:
//
//	Matches the input against every universe region: single-parameter
//	universes test the one value against each region predicate;
//	compound universes require every positional part to match the
//	corresponding argument. The matched region IDs are cached on the
//	returned record.
//
// Inputs:
//
//	input - The ordered argument list.
//	output - The observed return value. May be nil.
//
// Outputs:
//
//	*Execution - The immutable record, with MatchedRegions populated.
func (t *Tracker) RecordExecution(input []typemodel.Value, output *typemodel.Value) *Execution {
	return t.record(input, output, false, "")
}

// RecordFailure records an invocation that raised instead of returning.
func (t *Tracker) RecordFailure(input []typemodel.Value, message string) *Execution {
	return t.record(input, nil, true, message)
}

func (t *Tracker) record(input []typemodel.Value, output *typemodel.Value, failed bool, message string) *Execution {
	exec := &Execution{
		ID:             uuid.New().String(),
		Input:          input,
		Output:         output,
		Failed:         failed,
		FailureMessage: message,
		Timestamp:      time.Now().UTC(),
	}

	for _, r := range t.universe {
		if r.MatchesArgs(input) {
			exec.MatchedRegions = append(exec.MatchedRegions, r.ID)
			t.byRegion[r.ID]++
			t.covered[r.ID] = struct{}{}
		}
	}

	t.executions = append(t.executions, exec)
	executionsRecorded.WithLabelValues(t.sig.Name, outcomeLabel(failed)).Inc()
	regionsCovered.WithLabelValues(t.sig.Name).Set(float64(len(t.covered)))

	if len(exec.MatchedRegions) == 0 {
		t.logger.Debug("execution matched no region",
			slog.String("function", t.sig.Name),
			slog.Int("arity", len(input)),
		)
	}
	return exec
}

// Executions returns the recorded executions in order.
func (t *Tracker) Executions() []*Execution {
	return t.executions
}

// CoveredRegionIDs returns the sorted IDs of every covered region.
func (t *Tracker) CoveredRegionIDs() []string {
	ids := make([]string, 0, len(t.covered))
	for id := range t.covered {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Reset discards all recorded executions and coverage state.
func (t *Tracker) Reset() {
	t.executions = nil
	t.byRegion = make(map[string]int)
	t.covered = make(map[string]struct{})
	regionsCovered.WithLabelValues(t.sig.Name).Set(0)
}

// =============================================================================
// STATISTICS
// =============================================================================

// Stats summarizes coverage of the universe.
type Stats struct {
	// TotalInputs is the number of recorded executions.
	TotalInputs int

	// RegionsCovered is the number of regions hit at least once.
	RegionsCovered int

	// TotalRegions is the universe size.
	TotalRegions int

	// CoveragePercentage is coveredCardinality/totalCardinality x 100.
	// Nil when either side is infinite; 100 for an empty universe.
	CoveragePercentage *float64

	// InputsByRegion counts recorded inputs per region ID.
	InputsByRegion map[string]int

	// UncoveredRegions lists region IDs never hit, in universe order.
	UncoveredRegions []string
}

// Stats computes coverage statistics over the recorded executions.
func (t *Tracker) Stats() *Stats {
	s := &Stats{
		TotalInputs:    len(t.executions),
		RegionsCovered: len(t.covered),
		TotalRegions:   len(t.universe),
		InputsByRegion: make(map[string]int, len(t.byRegion)),
	}
	for id, n := range t.byRegion {
		s.InputsByRegion[id] = n
	}

	coveredCard := typemodel.Finite(0)
	totalCard := typemodel.Finite(0)
	for _, r := range t.universe {
		totalCard = totalCard.Add(r.Cardinality)
		if _, ok := t.covered[r.ID]; ok {
			coveredCard = coveredCard.Add(r.Cardinality)
		} else {
			s.UncoveredRegions = append(s.UncoveredRegions, r.ID)
		}
	}

	switch {
	case len(t.universe) == 0:
		full := 100.0
		s.CoveragePercentage = &full
	case coveredCard.IsInfinite() || totalCard.IsInfinite():
		// Undefined over infinite spaces.
	case totalCard.Count() == 0:
		full := 100.0
		s.CoveragePercentage = &full
	default:
		pct := float64(coveredCard.Count()) / float64(totalCard.Count()) * 100
		s.CoveragePercentage = &pct
	}
	return s
}

func outcomeLabel(failed bool) string {
	if failed {
		return "failure"
	}
	return "success"
}
