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
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the shared struct validator.
var validate = validator.New()

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds configuration for one Planner.
type Config struct {
	// MaxNegativeSpaceRegions bounds how many gaps the planner turns
	// into test cases.
	// Default: 50
	MaxNegativeSpaceRegions int `validate:"gte=1,lte=1000"`

	// MaxBoundaryTests bounds the total generated test cases.
	// Default: 100
	MaxBoundaryTests int `validate:"gte=1,lte=10000"`

	// TimeoutMs bounds one planning run end to end.
	// Default: 30000
	TimeoutMs int `validate:"gte=100"`

	// IncludeEdgeCases appends the fixed special-value sets to
	// boundary walks.
	// Default: true
	IncludeEdgeCases bool

	// SMTSolverEnabled derives satisfying values for constrained
	// regions through the constraint solver.
	// Default: true
	SMTSolverEnabled bool

	// BoundaryDepth is the walk depth passed to the boundary walker,
	// 1 to 3.
	// Default: 2
	BoundaryDepth int `validate:"gte=1,lte=3"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxNegativeSpaceRegions: 50,
		MaxBoundaryTests:        100,
		TimeoutMs:               30000,
		IncludeEdgeCases:        true,
		SMTSolverEnabled:        true,
		BoundaryDepth:           2,
	}
}

// Validate clamps out-of-range values to their defaults, then runs
// the struct validator.
func (c *Config) Validate() error {
	if c.MaxNegativeSpaceRegions < 1 {
		c.MaxNegativeSpaceRegions = 50
	}
	if c.MaxBoundaryTests < 1 {
		c.MaxBoundaryTests = 100
	}
	if c.TimeoutMs < 100 {
		c.TimeoutMs = 30000
	}
	if c.BoundaryDepth < 1 || c.BoundaryDepth > 3 {
		c.BoundaryDepth = 2
	}
	return validate.Struct(c)
}

// Timeout returns TimeoutMs as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// =============================================================================
// CONFIGURATION OPTIONS
// =============================================================================

// Option is a function that modifies Config.
type Option func(*Config)

// WithMaxNegativeSpaceRegions sets the gap bound.
func WithMaxNegativeSpaceRegions(n int) Option {
	return func(c *Config) {
		c.MaxNegativeSpaceRegions = n
	}
}

// WithMaxBoundaryTests sets the total test case bound.
func WithMaxBoundaryTests(n int) Option {
	return func(c *Config) {
		c.MaxBoundaryTests = n
	}
}

// WithTimeoutMs sets the planning timeout in milliseconds.
func WithTimeoutMs(ms int) Option {
	return func(c *Config) {
		c.TimeoutMs = ms
	}
}

// WithEdgeCases enables or disables special-value inputs.
func WithEdgeCases(enabled bool) Option {
	return func(c *Config) {
		c.IncludeEdgeCases = enabled
	}
}

// WithSMTSolver enables or disables solver-derived values.
func WithSMTSolver(enabled bool) Option {
	return func(c *Config) {
		c.SMTSolverEnabled = enabled
	}
}

// WithBoundaryDepth sets the boundary walk depth.
func WithBoundaryDepth(depth int) Option {
	return func(c *Config) {
		c.BoundaryDepth = depth
	}
}

// NewConfig creates a Config with the given options applied.
func NewConfig(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	_ = cfg.Validate()
	return cfg
}
