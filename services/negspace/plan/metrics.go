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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for planning runs.
var (
	tracer = otel.Tracer("negspace.plan")
	meter  = otel.Meter("negspace.plan")
)

// Metrics for planning runs.
var (
	planLatency metric.Float64Histogram
	planTotal   metric.Int64Counter
	casesTotal  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		planLatency, err = meter.Float64Histogram(
			"negspace_plan_duration_seconds",
			metric.WithDescription("Duration of planning runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		planTotal, err = meter.Int64Counter(
			"negspace_plan_total",
			metric.WithDescription("Total planning runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		casesTotal, err = meter.Int64Counter(
			"negspace_test_cases_total",
			metric.WithDescription("Total generated test cases"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordPlan records metrics for one planning run.
func recordPlan(ctx context.Context, function string, caseCount int, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("function", function),
	)

	planLatency.Record(ctx, duration.Seconds(), attrs)
	planTotal.Add(ctx, 1, attrs)
	casesTotal.Add(ctx, int64(caseCount), attrs)
}
