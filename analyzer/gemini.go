/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/humaidq/labwise/labs"
)

const defaultGeminiModel = "gemini-2.5-flash-lite"

// GeminiConfig holds the Gemini API settings.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// contentGenerator is the part of *genai.Models used by Gemini.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini analyses reports with Google Gemini in JSON response mode.
type Gemini struct {
	models contentGenerator
	model  string
}

// NewGemini creates a Gemini engine.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errGeminiKeyRequired
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return newGemini(client.Models, cfg.Model), nil
}

func newGemini(models contentGenerator, model string) *Gemini {
	if model == "" {
		model = defaultGeminiModel
	}

	return &Gemini{models: models, model: model}
}

// Name returns the engine name.
func (g *Gemini) Name() string {
	return EngineGemini
}

// Analyze sends the report text to Gemini and validates its answer.
func (g *Gemini) Analyze(ctx context.Context, text string, rt labs.ReportType) (*Analysis, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildPrompt(text, rt)}},
		},
	}

	result, err := g.models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini request failed: %w", ErrUpstream, err)
	}

	parsed, err := parseModelResponse(result.Text())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	return analysisFromModel(parsed, text, rt, EngineGemini), nil
}
