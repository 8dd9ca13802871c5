/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/humaidq/labwise/labs"
)

const defaultOllamaTimeout = 300 * time.Second

// OllamaConfig holds the Ollama server configuration
type OllamaConfig struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// OpenAI-compatible request/response structures
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Stream         bool            `json:"stream"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Ollama analyses reports through an OpenAI-compatible chat completions
// endpoint such as the one Ollama serves.
type Ollama struct {
	client *resty.Client
	model  string
}

// NewOllama creates an Ollama engine.
func NewOllama(cfg OllamaConfig) (*Ollama, error) {
	url := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if url == "" || strings.TrimSpace(cfg.Model) == "" {
		return nil, errOllamaNotConfigured
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultOllamaTimeout
	}

	client := resty.New().
		SetBaseURL(url).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Ollama{client: client, model: cfg.Model}, nil
}

// Name returns the engine name.
func (o *Ollama) Name() string {
	return EngineOllama
}

// Analyze sends the report text to the chat endpoint and validates the answer.
func (o *Ollama) Analyze(ctx context.Context, text string, rt labs.ReportType) (*Analysis, error) {
	reqBody := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(text, rt)},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var chatResp chatResponse

	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&chatResp).
		SetError(&chatResp).
		Post("/v1/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to call Ollama: %w", ErrUpstream, err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("%w: Ollama error: %s", ErrUpstream, chatResp.Error.Message)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("%w: Ollama returned status %d", ErrUpstream, resp.StatusCode())
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, errEmptyResponse)
	}

	parsed, err := parseModelResponse(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	return analysisFromModel(parsed, text, rt, EngineOllama), nil
}
