/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/humaidq/labwise/labs"
)

// Chain tries its engines in order and moves to the next one when an
// engine fails with ErrUpstream. Other errors stop the chain.
type Chain struct {
	engines []Analyzer
}

// NewChain builds a chain of engines that always ends with the heuristic
// engine.
func NewChain(engines ...Analyzer) *Chain {
	chain := &Chain{}

	for _, e := range engines {
		if e == nil {
			continue
		}

		if _, ok := e.(Heuristic); ok {
			continue
		}

		chain.engines = append(chain.engines, e)
	}

	chain.engines = append(chain.engines, Heuristic{})

	return chain
}

// Name returns the name of the first engine.
func (c *Chain) Name() string {
	if len(c.engines) == 0 {
		return ""
	}

	return c.engines[0].Name()
}

// Engines returns the engine names in the order they are tried.
func (c *Chain) Engines() []string {
	names := make([]string, 0, len(c.engines))
	for _, e := range c.engines {
		names = append(names, e.Name())
	}

	return names
}

// Analyze runs the engines until one succeeds.
func (c *Chain) Analyze(ctx context.Context, text string, rt labs.ReportType) (*Analysis, error) {
	if len(c.engines) == 0 {
		return nil, errNoEngines
	}

	var errs []error

	for _, engine := range c.engines {
		analysis, err := engine.Analyze(ctx, text, rt)
		if err == nil {
			return analysis, nil
		}

		if !errors.Is(err, ErrUpstream) {
			return nil, err
		}

		logger.Warn("Analyzer engine failed, falling back", "engine", engine.Name(), "error", err)
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("all analyzer engines failed: %w", errors.Join(errs...))
}
