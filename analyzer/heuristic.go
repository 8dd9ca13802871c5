/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyzer

import (
	"context"

	"github.com/humaidq/labwise/labs"
)

// Heuristic analyses reports offline with the pattern extractor and the
// canned narrative.
type Heuristic struct{}

// Name returns the engine name.
func (Heuristic) Name() string {
	return EngineHeuristic
}

// Analyze extracts readings from text and writes the narrative for them.
func (Heuristic) Analyze(ctx context.Context, text string, rt labs.ReportType) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	readings := labs.Extract(text, rt)

	return finish(&Analysis{
		Summary:     labs.Summarize(rt, readings),
		Explanation: labs.Explain(rt, text, readings),
		Readings:    readings,
		Engine:      EngineHeuristic,
	}), nil
}
