// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gaps

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for gap detection.
var (
	tracer = otel.Tracer("negspace.gaps")
	meter  = otel.Meter("negspace.gaps")
)

// Metrics for gap detection.
var (
	detectionLatency metric.Float64Histogram
	detectionTotal   metric.Int64Counter
	gapsDetected     metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		detectionLatency, err = meter.Float64Histogram(
			"negspace_gap_detection_duration_seconds",
			metric.WithDescription("Duration of gap detection runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		detectionTotal, err = meter.Int64Counter(
			"negspace_gap_detection_total",
			metric.WithDescription("Total number of gap detection runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		gapsDetected, err = meter.Int64Counter(
			"negspace_gaps_detected_total",
			metric.WithDescription("Total number of negative-space regions detected"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordDetection records metrics for one detection run.
func recordDetection(ctx context.Context, strategy string, gapCount int, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("strategy", strategy),
	)

	detectionLatency.Record(ctx, duration.Seconds(), attrs)
	detectionTotal.Add(ctx, 1, attrs)
	gapsDetected.Add(ctx, int64(gapCount), attrs)
}
