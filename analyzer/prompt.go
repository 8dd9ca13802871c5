/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/humaidq/labwise/labs"
)

const systemPrompt = "You are a helpful medical assistant that explains medical reports in simple, " +
	"easy-to-understand language for patients. Answer with a single JSON object and nothing else."

// modelResult is the JSON contract every model engine is asked to follow.
type modelResult struct {
	Summary     string        `json:"summary"`
	Explanation string        `json:"explanation"`
	Metrics     []modelMetric `json:"metrics"`
}

type modelMetric struct {
	Name        string `json:"metric_name"`
	Value       any    `json:"metric_value"`
	Unit        string `json:"metric_unit"`
	NormalRange string `json:"normal_range"`
	Status      string `json:"status"`
}

// buildPrompt asks for the summary, explanation and readings of one report.
func buildPrompt(text string, rt labs.ReportType) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Analyze this %s medical report and provide:\n\n", strings.ToUpper(string(rt)))
	sb.WriteString("1. A simple, easy-to-understand summary (2-3 sentences) that a non-medical person can understand\n")
	sb.WriteString("2. Explanation of key medical terms and what they mean for the patient's health\n")
	sb.WriteString("3. The specific metrics listed below\n\n")

	if metrics := rt.ExpectedMetrics(); len(metrics) > 0 {
		fmt.Fprintf(&sb, "This is a %s report. Extract these metrics:\n", rt.Name())

		for _, name := range metrics {
			if def, ok := labs.LookupDefinition(name); ok && def.Unit != "" {
				fmt.Fprintf(&sb, "- %s (%s)\n", name, def.Unit)
			} else {
				fmt.Fprintf(&sb, "- %s\n", name)
			}
		}
	} else {
		sb.WriteString("Extract all available health metrics.\n")
	}

	sb.WriteString("\nMedical Report Text:\n")
	sb.WriteString(text)
	sb.WriteString("\n\nRespond in JSON format:\n")
	sb.WriteString(`{"summary": "...", "explanation": "...", "metrics": [{"metric_name": "hemoglobin", ` +
		`"metric_value": "14.5", "metric_unit": "g/dL", "normal_range": "13.5-17.5", "status": "normal"}]}`)
	sb.WriteString("\n\nRules:\n")
	sb.WriteString("- Use underscores in metric_name (e.g. \"fasting_blood_sugar\" not \"Fasting Blood Sugar\")\n")
	sb.WriteString("- status must be one of: \"normal\", \"low\", \"high\", \"critical\"\n")
	sb.WriteString("- Leave out metrics that do not appear in the report\n")

	return sb.String()
}

// parseModelResponse decodes the first JSON object found in raw. Models
// sometimes wrap the object in prose or code fences.
func parseModelResponse(raw string) (*modelResult, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errEmptyResponse
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")

	if start < 0 || end < start {
		return nil, errNoJSONObject
	}

	var result modelResult
	if err := json.Unmarshal([]byte(raw[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}

	return &result, nil
}

// analysisFromModel validates a model answer and completes whatever it left
// out with the heuristic engine's output.
func analysisFromModel(result *modelResult, text string, rt labs.ReportType, engine string) *Analysis {
	readings := make([]labs.MetricReading, 0, len(result.Metrics))
	seen := map[string]bool{}

	for _, m := range result.Metrics {
		reading, ok := normalizeMetric(m)
		if !ok || seen[reading.Name] {
			continue
		}

		seen[reading.Name] = true
		readings = append(readings, reading)
	}

	if len(readings) == 0 {
		logger.Debug("Model returned no usable metrics, using extracted readings", "engine", engine)
		readings = labs.Extract(text, rt)
	}

	summary := strings.TrimSpace(result.Summary)
	if summary == "" {
		summary = labs.Summarize(rt, readings)
	}

	explanation := strings.TrimSpace(result.Explanation)
	if explanation == "" {
		explanation = labs.Explain(rt, text, readings)
	}

	return finish(&Analysis{
		Summary:     summary,
		Explanation: explanation,
		Readings:    readings,
		Engine:      engine,
	})
}

func normalizeMetric(m modelMetric) (labs.MetricReading, bool) {
	name := metricName(m.Name)
	value := metricValue(m.Value)

	if name == "" {
		return labs.MetricReading{}, false
	}

	if _, ok := labs.ParseValue(value); !ok {
		return labs.MetricReading{}, false
	}

	reading := labs.MetricReading{
		Name:        name,
		Value:       value,
		Unit:        strings.TrimSpace(m.Unit),
		NormalRange: strings.TrimSpace(m.NormalRange),
		Status:      labs.Status(strings.ToLower(strings.TrimSpace(m.Status))),
	}

	def, known := labs.LookupDefinition(name)
	if known {
		if reading.Unit == "" {
			reading.Unit = def.Unit
		}

		if reading.NormalRange == "" {
			reading.NormalRange = def.NormalRange
		}
	}

	if !reading.Status.Valid() {
		reading.Status = reclassify(reading, def, known, m.Status)
	}

	return reading, true
}

// reclassify assigns a status to a reading whose model status was not one of
// the four tiers, preferring the threshold table over the model's label.
func reclassify(r labs.MetricReading, def labs.Definition, known bool, label string) labs.Status {
	if !known || !def.HasBounds() {
		return labs.StatusFromToken(label)
	}

	if v, ok := r.Numeric(); ok {
		status, _ := def.Classify(v)
		return status
	}

	return labs.StatusFromToken(label)
}

// metricName lower-cases a name and joins its words with underscores.
func metricName(raw string) string {
	fields := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	return strings.Join(fields, "_")
}

func metricValue(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.4f", value), "0"), ".")
	default:
		return ""
	}
}
