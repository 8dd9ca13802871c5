/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"regexp"
	"strings"
)

// FallbackPolicy decides what Extract returns when no metric matched.
type FallbackPolicy int

const (
	// FallbackPlaceholder returns one canned normal reading per report type.
	FallbackPlaceholder FallbackPolicy = iota
	// FallbackNone returns an empty slice.
	FallbackNone
)

type extractConfig struct {
	fallback FallbackPolicy
}

// ExtractOption tunes Extract.
type ExtractOption func(*extractConfig)

// WithoutFallback makes Extract return an empty slice when nothing matched.
func WithoutFallback() ExtractOption {
	return func(c *extractConfig) {
		c.fallback = FallbackNone
	}
}

type strategy func(text string) []MetricReading

var strategies = map[ReportType]strategy{
	ReportCBC:   extractCBC,
	ReportSugar: extractSugar,
	ReportLipid: extractLipid,
}

var placeholders = map[ReportType]MetricReading{
	ReportCBC: {
		Name: "hemoglobin", Value: "14.5", Unit: "g/dL",
		NormalRange: "13.5-17.5", Status: StatusNormal,
	},
	ReportSugar: {
		Name: "fasting_blood_sugar", Value: "95", Unit: "mg/dL",
		NormalRange: "70-100", Status: StatusNormal,
	},
	ReportLipid: {
		Name: "total_cholesterol", Value: "185", Unit: "mg/dL",
		NormalRange: "<200", Status: StatusNormal,
	},
}

// Extract pulls structured readings out of report text. Unknown report types
// are treated as CBC. The result is never nil.
func Extract(text string, rt ReportType, opts ...ExtractOption) []MetricReading {
	cfg := extractConfig{fallback: FallbackPlaceholder}
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, ok := strategies[rt]; !ok {
		rt = ReportCBC
	}

	readings := strategies[rt](text)
	if len(readings) > 0 {
		return readings
	}

	if cfg.fallback == FallbackPlaceholder {
		return []MetricReading{placeholders[rt]}
	}

	return []MetricReading{}
}

// IsPlaceholder reports whether readings is exactly the canned fallback for rt.
func IsPlaceholder(rt ReportType, readings []MetricReading) bool {
	if _, ok := strategies[rt]; !ok {
		rt = ReportCBC
	}

	return len(readings) == 1 && readings[0] == placeholders[rt]
}

type cbcPattern struct {
	name string
	re   *regexp.Regexp
}

var cbcPatterns = []cbcPattern{
	{"hemoglobin", regexp.MustCompile(`(?i)HEMOGLOBIN[\s\S]*?Result:\s*(\d+\.?\d*)\s*g/dL[\s\S]*?Normal Range:\s*([\d.\-]+)`)},
	{"rbc_count", regexp.MustCompile(`(?i)RED BLOOD CELL COUNT[\s\S]*?Result:\s*(\d+\.?\d*)\s*million/[µμu]L[\s\S]*?Normal Range:\s*([\d.\-]+)`)},
	{"wbc_count", regexp.MustCompile(`(?i)WHITE BLOOD CELL COUNT[\s\S]*?Result:\s*([\d,]+)\s*cells/[µμu]L[\s\S]*?Normal Range:\s*([\d,\-]+)`)},
	{"platelet_count", regexp.MustCompile(`(?i)PLATELET COUNT[\s\S]*?Result:\s*([\d,]+)\s*cells/[µμu]L[\s\S]*?Normal Range:\s*([\d,\-]+)`)},
	{"hematocrit", regexp.MustCompile(`(?i)HEMATOCRIT\s*\(HCT\)[\s\S]*?Result:\s*(\d+\.?\d*)%[\s\S]*?Normal Range:\s*([\d.\-]+)`)},
	{"mcv", regexp.MustCompile(`(?i)MEAN CORPUSCULAR VOLUME\s*\(MCV\)[\s\S]*?Result:\s*(\d+\.?\d*)\s*fL[\s\S]*?Normal Range:\s*([\d.\-]+)`)},
	{"mch", regexp.MustCompile(`(?i)MEAN CORPUSCULAR HEMOGLOBIN\s*\(MCH\)[\s\S]*?Result:\s*(\d+\.?\d*)\s*pg[\s\S]*?Normal Range:\s*([\d.\-]+)`)},
	{"mchc", regexp.MustCompile(`(?i)MEAN CORPUSCULAR HEMOGLOBIN CONCENTRATION\s*\(MCHC\)[\s\S]*?Result:\s*(\d+\.?\d*)\s*g/dL[\s\S]*?Normal Range:\s*([\d.\-]+)`)},
}

var (
	differentialStart = regexp.MustCompile(`(?i)DIFFERENTIAL COUNT`)
	interpretationRe  = regexp.MustCompile(`(?i)INTERPRETATION`)
	differentialCells = []struct {
		name  string
		label string
	}{
		{"neutrophils", "NEUTROPHILS"},
		{"lymphocytes", "LYMPHOCYTES"},
		{"monocytes", "MONOCYTES"},
		{"eosinophils", "EOSINOPHILS"},
		{"basophils", "BASOPHILS"},
	}
	differentialPatterns = compileDifferential()
)

func compileDifferential() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(differentialCells))
	for _, cell := range differentialCells {
		out[cell.name] = regexp.MustCompile(`(?i)` + cell.label + `:\s*(\d+\.?\d*)%\s*\(Normal:\s*([\d.\-]+)%\)`)
	}

	return out
}

func extractCBC(text string) []MetricReading {
	readings := make([]MetricReading, 0, len(cbcPatterns)+len(differentialCells))

	for _, p := range cbcPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		value, ok := ParseValue(m[1])
		if !ok {
			continue
		}

		def, _ := LookupDefinition(p.name)
		normalRange := m[2]

		readings = append(readings, MetricReading{
			Name:        p.name,
			Value:       m[1],
			Unit:        def.Unit,
			NormalRange: normalRange,
			Status:      statusForRange(text, normalRange, def, value),
		})
	}

	return append(readings, extractDifferential(text)...)
}

// statusForRange honours an explicit "Status:" label that follows the
// printed range, and otherwise classifies against the reference table.
func statusForRange(text, normalRange string, def Definition, value float64) Status {
	re, err := regexp.Compile(`(?i)Normal Range:\s*` + regexp.QuoteMeta(normalRange) + `[\s\S]*?Status:\s*(\w+)`)
	if err == nil {
		if m := re.FindStringSubmatch(text); m != nil {
			return StatusFromToken(m[1])
		}
	}

	status, _ := def.Classify(value)

	return status
}

func differentialSection(text string) string {
	loc := differentialStart.FindStringIndex(text)
	if loc == nil {
		return ""
	}

	section := text[loc[0]:]
	if end := interpretationRe.FindStringIndex(section); end != nil {
		section = section[:end[0]]
	}

	return section
}

func extractDifferential(text string) []MetricReading {
	section := differentialSection(text)
	if section == "" {
		return nil
	}

	var readings []MetricReading

	for _, cell := range differentialCells {
		m := differentialPatterns[cell.name].FindStringSubmatch(section)
		if m == nil {
			continue
		}

		value, ok := ParseValue(m[1])
		if !ok {
			continue
		}

		readings = append(readings, MetricReading{
			Name:        cell.name,
			Value:       m[1],
			Unit:        "%",
			NormalRange: m[2],
			Status:      statusFromInlineRange(value, m[2]),
		})
	}

	return readings
}

// statusFromInlineRange classifies against a "lo-hi" range printed in the
// report. Unparseable bounds leave the reading normal.
func statusFromInlineRange(value float64, normalRange string) Status {
	lo, hi, found := strings.Cut(normalRange, "-")
	if !found {
		return StatusNormal
	}

	minimum, okMin := ParseValue(lo)
	maximum, okMax := ParseValue(hi)

	if !okMin || !okMax {
		return StatusNormal
	}

	return Classify(value, minimum, maximum)
}

type tieredPattern struct {
	name string
	re   *regexp.Regexp
}

var sugarPatterns = []tieredPattern{
	{"fasting_blood_sugar", regexp.MustCompile(`(?i)FASTING(?:[ \-]?(?:BLOOD SUGAR|BLOOD GLUCOSE|GLUCOSE))?[:\s]+Result:\s*(\d+\.?\d*)\s*mg/dL`)},
	{"hba1c", regexp.MustCompile(`(?i)HbA1c[:\s]+Result:\s*(\d+\.?\d*)\s*%?`)},
}

var lipidPatterns = []tieredPattern{
	{"total_cholesterol", regexp.MustCompile(`(?i)TOTAL CHOLESTEROL[:\s]+Result:\s*(\d+\.?\d*)\s*mg/dL`)},
	{"ldl_cholesterol", regexp.MustCompile(`(?i)\bLDL(?:[ \-]?CHOLESTEROL)?[:\s]+Result:\s*(\d+\.?\d*)\s*mg/dL`)},
	{"hdl_cholesterol", regexp.MustCompile(`(?i)\bHDL(?:[ \-]?CHOLESTEROL)?[:\s]+Result:\s*(\d+\.?\d*)\s*mg/dL`)},
}

func extractSugar(text string) []MetricReading {
	return extractTiered(text, sugarPatterns)
}

func extractLipid(text string) []MetricReading {
	return extractTiered(text, lipidPatterns)
}

func extractTiered(text string, patterns []tieredPattern) []MetricReading {
	var readings []MetricReading

	for _, p := range patterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		value, ok := ParseValue(m[1])
		if !ok {
			continue
		}

		def, _ := LookupDefinition(p.name)
		status, _ := def.Classify(value)

		readings = append(readings, MetricReading{
			Name:        p.name,
			Value:       m[1],
			Unit:        def.Unit,
			NormalRange: def.NormalRange,
			Status:      status,
		})
	}

	return readings
}
