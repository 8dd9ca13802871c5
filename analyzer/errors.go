/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyzer

import "errors"

var (
	// ErrUpstream is returned when a model engine fails or answers with
	// something unusable. Chains fall back to the next engine on it.
	ErrUpstream = errors.New("analyzer upstream failure")

	errUnknownEngine       = errors.New("unknown analyzer engine")
	errGeminiKeyRequired   = errors.New("gemini api key is required")
	errOllamaNotConfigured = errors.New("ollama url and model must be set")
	errEmptyResponse       = errors.New("model returned an empty response")
	errNoJSONObject        = errors.New("model response holds no JSON object")
	errNoEngines           = errors.New("analyzer chain has no engines")
)
