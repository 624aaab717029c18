// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package coverage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// executionsRecorded counts recorded executions by function and outcome.
	executionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "negspace_executions_recorded_total",
		Help: "Total recorded test executions by function and outcome",
	}, []string{"function", "outcome"})

	// regionsCovered tracks the number of covered regions per function.
	regionsCovered = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "negspace_regions_covered",
		Help: "Number of universe regions covered by recorded executions",
	}, []string{"function"})
)
