// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package analyzer

import (
	"errors"
	"strings"
	"testing"

	"github.com/humaidq/labwise/labs"
)

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := buildPrompt("HDL Result: 35 mg/dL", labs.ReportLipid)

	for _, want := range []string{
		"LIPID_PROFILE medical report",
		"- hdl_cholesterol (mg/dL)",
		"- triglycerides\n",
		"HDL Result: 35 mg/dL",
		`"metric_name"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt is missing %q:\n%s", want, prompt)
		}
	}

	if !strings.Contains(buildPrompt("x", labs.ReportType("thyroid")), "Extract all available health metrics.") {
		t.Fatal("unknown report types should ask for all metrics")
	}
}

func TestParseModelResponse(t *testing.T) {
	t.Parallel()

	raw := "Here you go:\n```json\n{\"summary\": \"ok\", \"metrics\": [{\"metric_name\": \"hba1c\", \"metric_value\": 5.2}]}\n```"

	result, err := parseModelResponse(raw)
	if err != nil {
		t.Fatalf("parseModelResponse returned error: %v", err)
	}

	if result.Summary != "ok" || len(result.Metrics) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	for raw, want := range map[string]error{
		"   ":           errEmptyResponse,
		"no json here":  errNoJSONObject,
		"} backwards {": errNoJSONObject,
	} {
		if _, err := parseModelResponse(raw); !errors.Is(err, want) {
			t.Fatalf("parseModelResponse(%q) error = %v, want %v", raw, err, want)
		}
	}

	if _, err := parseModelResponse("{not json}"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNormalizeMetric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   modelMetric
		want labs.MetricReading
		ok   bool
	}{
		{
			name: "fills unit and range from definitions",
			in:   modelMetric{Name: "Fasting Blood Sugar", Value: "92", Status: "Normal"},
			want: labs.MetricReading{Name: "fasting_blood_sugar", Value: "92", Unit: "mg/dL", NormalRange: "70-100", Status: labs.StatusNormal},
			ok:   true,
		},
		{
			name: "reclassifies invalid status by threshold",
			in:   modelMetric{Name: "hba1c", Value: 6.9, Unit: "%", Status: "borderline"},
			want: labs.MetricReading{Name: "hba1c", Value: "6.9", Unit: "%", NormalRange: "<5.7", Status: labs.StatusCritical},
			ok:   true,
		},
		{
			name: "unknown metric falls back to the status label",
			in:   modelMetric{Name: "vitamin-d", Value: "12", Unit: "ng/mL", NormalRange: "30-100", Status: "very low"},
			want: labs.MetricReading{Name: "vitamin_d", Value: "12", Unit: "ng/mL", NormalRange: "30-100", Status: labs.StatusLow},
			ok:   true,
		},
		{
			name: "missing value is dropped",
			in:   modelMetric{Name: "hemoglobin", Status: "normal"},
			ok:   false,
		},
		{
			name: "non-numeric value is dropped",
			in:   modelMetric{Name: "hemoglobin", Value: "N/A", Status: "pending"},
			ok:   false,
		},
		{
			name: "comma thousands are kept",
			in:   modelMetric{Name: "wbc_count", Value: "7,200", Status: "normal"},
			want: labs.MetricReading{Name: "wbc_count", Value: "7,200", Unit: "cells/µL", NormalRange: "4,000-11,000", Status: labs.StatusNormal},
			ok:   true,
		},
		{
			name: "missing name is dropped",
			in:   modelMetric{Name: "  ", Value: "5"},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := normalizeMetric(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}

			if ok && got != tt.want {
				t.Fatalf("normalizeMetric = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMetricValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want string
	}{
		{in: " 14.5 ", want: "14.5"},
		{in: 98.0, want: "98"},
		{in: 0.0, want: "0"},
		{in: 5.25, want: "5.25"},
		{in: true, want: ""},
		{in: nil, want: ""},
	}

	for _, tt := range tests {
		if got := metricValue(tt.in); got != tt.want {
			t.Fatalf("metricValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAnalysisFromModel(t *testing.T) {
	t.Parallel()

	t.Run("keeps model output and drops duplicates", func(t *testing.T) {
		t.Parallel()

		result := &modelResult{
			Summary:     "Your sugar is high.",
			Explanation: "Glucose is the sugar in your blood.",
			Metrics: []modelMetric{
				{Name: "fasting_blood_sugar", Value: "130", Status: "high"},
				{Name: "Fasting Blood Sugar", Value: "95", Status: "normal"},
			},
		}

		a := analysisFromModel(result, sugarReport, labs.ReportSugar, EngineGemini)

		if a.Engine != EngineGemini || a.Summary != "Your sugar is high." {
			t.Fatalf("unexpected analysis: %+v", a)
		}

		if len(a.Readings) != 1 || a.Readings[0].Value != "130" {
			t.Fatalf("readings = %+v", a.Readings)
		}

		if a.RiskLevel != labs.RiskHigh {
			t.Fatalf("risk = %q, want high", a.RiskLevel)
		}
	})

	t.Run("falls back to extracted readings and narrative", func(t *testing.T) {
		t.Parallel()

		a := analysisFromModel(&modelResult{}, sugarReport, labs.ReportSugar, EngineOllama)

		readingByName(t, a.Readings, "hba1c")

		if a.Summary != labs.Summarize(labs.ReportSugar, a.Readings) {
			t.Fatalf("summary was not generated: %q", a.Summary)
		}

		if a.Explanation == "" {
			t.Fatal("explanation was not generated")
		}
	})
}
