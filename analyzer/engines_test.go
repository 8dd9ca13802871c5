// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/humaidq/labwise/labs"
)

type fakeGenerator struct {
	text   string
	err    error
	model  string
	config *genai.GenerateContentConfig
	prompt string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config

	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}

	if f.err != nil {
		return nil, f.err
	}

	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.text}}}},
		},
	}, nil
}

func TestGeminiAnalyze(t *testing.T) {
	t.Parallel()

	fake := &fakeGenerator{
		text: `{"summary": "Sugar is elevated.", "explanation": "HbA1c reflects three months.",
			"metrics": [{"metric_name": "hba1c", "metric_value": "6.8", "metric_unit": "%", "status": "critical"}]}`,
	}

	g := newGemini(fake, "")

	analysis, err := g.Analyze(context.Background(), sugarReport, labs.ReportSugar)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if fake.model != defaultGeminiModel {
		t.Fatalf("model = %q, want %q", fake.model, defaultGeminiModel)
	}

	if fake.config == nil || fake.config.ResponseMIMEType != "application/json" {
		t.Fatalf("expected JSON response mode, got %+v", fake.config)
	}

	if !strings.Contains(fake.prompt, "Result: 130 mg/dL") {
		t.Fatalf("prompt does not include the report text: %q", fake.prompt)
	}

	if analysis.Engine != EngineGemini || analysis.Summary != "Sugar is elevated." {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}

	if len(analysis.Readings) != 1 || analysis.Readings[0].Status != labs.StatusCritical {
		t.Fatalf("readings = %+v", analysis.Readings)
	}
}

func TestGeminiErrorsAreUpstream(t *testing.T) {
	t.Parallel()

	for name, fake := range map[string]*fakeGenerator{
		"request": {err: errors.New("quota exceeded")},
		"empty":   {text: ""},
		"prose":   {text: "I cannot help with that."},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if _, err := newGemini(fake, "m").Analyze(context.Background(), "x", labs.ReportCBC); !errors.Is(err, ErrUpstream) {
				t.Fatalf("error = %v, want ErrUpstream", err)
			}
		})
	}
}

func newOllamaServer(t *testing.T, handler http.HandlerFunc) *Ollama {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	o, err := NewOllama(OllamaConfig{URL: server.URL + "/", Model: "llama3"})
	if err != nil {
		t.Fatalf("NewOllama returned error: %v", err)
	}

	return o
}

func TestOllamaAnalyze(t *testing.T) {
	t.Parallel()

	requests := make(chan chatRequest, 1)

	o := newOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		requests <- req

		content := `{"summary": "All good.", "metrics": [{"metric_name": "hemoglobin", "metric_value": 14.1, "status": "normal"}]}`

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse{
			Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: content}}},
		})
	})

	analysis, err := o.Analyze(context.Background(), "HEMOGLOBIN\nResult: 14.1 g/dL", labs.ReportCBC)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	req := <-requests
	if req.Model != "llama3" || req.Stream || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Fatalf("unexpected request: %+v", req)
	}

	if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", req.ResponseFormat)
	}

	if analysis.Engine != EngineOllama || analysis.HealthScore != 100 {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}

	if r := analysis.Readings[0]; r.Value != "14.1" || r.Unit != "g/dL" || r.NormalRange != "13.5-17.5" {
		t.Fatalf("reading = %+v", r)
	}
}

func TestOllamaErrorsAreUpstream(t *testing.T) {
	t.Parallel()

	tests := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		},
		"error body": func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": {"message": "model \"llama3\" not found"}}`))
		},
		"no choices": func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"choices": []}`))
		},
	}

	for name, handler := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			o := newOllamaServer(t, handler)
			if _, err := o.Analyze(context.Background(), "x", labs.ReportCBC); !errors.Is(err, ErrUpstream) {
				t.Fatalf("error = %v, want ErrUpstream", err)
			}
		})
	}
}

type stubAnalyzer struct {
	name  string
	err   error
	calls int
}

func (s *stubAnalyzer) Name() string {
	return s.name
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ string, _ labs.ReportType) (*Analysis, error) {
	s.calls++

	if s.err != nil {
		return nil, s.err
	}

	return &Analysis{Engine: s.name}, nil
}

func TestChain(t *testing.T) {
	t.Parallel()

	t.Run("falls back on upstream errors", func(t *testing.T) {
		t.Parallel()

		first := &stubAnalyzer{name: "first", err: ErrUpstream}
		second := &stubAnalyzer{name: "second"}

		analysis, err := NewChain(first, second).Analyze(context.Background(), "x", labs.ReportCBC)
		if err != nil {
			t.Fatalf("Analyze returned error: %v", err)
		}

		if analysis.Engine != "second" || first.calls != 1 || second.calls != 1 {
			t.Fatalf("engine = %q, calls = %d/%d", analysis.Engine, first.calls, second.calls)
		}
	})

	t.Run("ends with heuristic", func(t *testing.T) {
		t.Parallel()

		chain := NewChain(&stubAnalyzer{name: "model", err: ErrUpstream}, nil, Heuristic{})

		if got := strings.Join(chain.Engines(), ","); got != "model,heuristic" {
			t.Fatalf("engines = %q", got)
		}

		analysis, err := chain.Analyze(context.Background(), sugarReport, labs.ReportSugar)
		if err != nil {
			t.Fatalf("Analyze returned error: %v", err)
		}

		if analysis.Engine != EngineHeuristic {
			t.Fatalf("engine = %q, want heuristic", analysis.Engine)
		}
	})

	t.Run("stops on other errors", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		first := &stubAnalyzer{name: "first", err: boom}
		second := &stubAnalyzer{name: "second"}

		if _, err := NewChain(first, second).Analyze(context.Background(), "x", labs.ReportCBC); !errors.Is(err, boom) {
			t.Fatalf("error = %v, want boom", err)
		}

		if second.calls != 0 {
			t.Fatal("chain continued after a non-upstream error")
		}
	})

	t.Run("name is first engine", func(t *testing.T) {
		t.Parallel()

		if got := NewChain(&stubAnalyzer{name: "gemini"}).Name(); got != "gemini" {
			t.Fatalf("Name = %q", got)
		}
	})
}
