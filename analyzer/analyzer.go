/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package analyzer turns extracted report text into readings and a
// patient-facing narrative.
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/humaidq/labwise/labs"
)

// Engine names.
const (
	EngineHeuristic = "heuristic"
	EngineGemini    = "gemini"
	EngineOllama    = "ollama"
)

// Analysis is the result of analysing one report.
type Analysis struct {
	Summary     string               `json:"summary"`
	Explanation string               `json:"explanation"`
	Readings    []labs.MetricReading `json:"metrics"`
	HealthScore int                  `json:"health_score"`
	RiskLevel   labs.Risk            `json:"risk_level"`
	Engine      string               `json:"engine"`
}

// Analyzer analyses the text of one report.
type Analyzer interface {
	Analyze(ctx context.Context, text string, rt labs.ReportType) (*Analysis, error)
	Name() string
}

// Config selects the analyzer engine and its credentials.
type Config struct {
	Engine string

	GeminiAPIKey string
	GeminiModel  string

	OllamaURL   string
	OllamaModel string

	Timeout time.Duration
}

// New returns the analyzer selected by cfg.Engine. Model engines are wrapped
// in a Chain that falls back to the heuristic engine.
func New(ctx context.Context, cfg Config) (Analyzer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "", EngineHeuristic:
		return Heuristic{}, nil

	case EngineGemini:
		gemini, err := NewGemini(ctx, GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
		if err != nil {
			return nil, err
		}

		return NewChain(gemini), nil

	case EngineOllama:
		ollama, err := NewOllama(OllamaConfig{URL: cfg.OllamaURL, Model: cfg.OllamaModel, Timeout: cfg.Timeout})
		if err != nil {
			return nil, err
		}

		return NewChain(ollama), nil

	default:
		return nil, fmt.Errorf("%w: %q", errUnknownEngine, cfg.Engine)
	}
}

// finish fills the scores of an analysis from its readings.
func finish(a *Analysis) *Analysis {
	if a.Readings == nil {
		a.Readings = []labs.MetricReading{}
	}

	a.HealthScore = labs.AnalysisScore(a.Readings)
	a.RiskLevel = labs.RiskLevel(a.Readings)

	return a
}
