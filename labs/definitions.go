/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import "strings"

// Definition is the static reference data for one metric.
//
// A metric is classified by exactly one of three shapes:
//   - a closed band (Min, Max): below is low, above is high;
//   - upper tiers (NormalBelow, CriticalFrom): under NormalBelow is normal,
//     at or over CriticalFrom is critical, high in between;
//   - lower tiers (NormalFrom, LowFrom): at or over NormalFrom is normal,
//     at or over LowFrom is low, critical below that.
//
// Metrics without any bounds (the differential count) take their bounds from
// the report text itself.
type Definition struct {
	Name        string
	DisplayName string
	ReportType  ReportType
	Unit        string
	NormalRange string

	Min *float64
	Max *float64

	NormalBelow  *float64
	CriticalFrom *float64

	NormalFrom *float64
	LowFrom    *float64
}

// ptr is a helper to create pointers to float64 literals
func ptr(f float64) *float64 {
	return &f
}

var definitions = []Definition{
	// ===== CBC =====
	{Name: "hemoglobin", DisplayName: "Hemoglobin", ReportType: ReportCBC, Unit: "g/dL", NormalRange: "13.5-17.5", Min: ptr(13.5), Max: ptr(17.5)},
	{Name: "rbc_count", DisplayName: "Red Blood Cells", ReportType: ReportCBC, Unit: "million/µL", NormalRange: "4.5-5.5", Min: ptr(4.5), Max: ptr(5.5)},
	{Name: "wbc_count", DisplayName: "White Blood Cells", ReportType: ReportCBC, Unit: "cells/µL", NormalRange: "4,000-11,000", Min: ptr(4000), Max: ptr(11000)},
	{Name: "platelet_count", DisplayName: "Platelets", ReportType: ReportCBC, Unit: "cells/µL", NormalRange: "150,000-450,000", Min: ptr(150000), Max: ptr(450000)},
	{Name: "hematocrit", DisplayName: "Hematocrit", ReportType: ReportCBC, Unit: "%", NormalRange: "38-50", Min: ptr(38), Max: ptr(50)},
	{Name: "mcv", DisplayName: "MCV", ReportType: ReportCBC, Unit: "fL", NormalRange: "80-100", Min: ptr(80), Max: ptr(100)},
	{Name: "mch", DisplayName: "MCH", ReportType: ReportCBC, Unit: "pg", NormalRange: "27-33", Min: ptr(27), Max: ptr(33)},
	{Name: "mchc", DisplayName: "MCHC", ReportType: ReportCBC, Unit: "g/dL", NormalRange: "32-36", Min: ptr(32), Max: ptr(36)},

	// Differential count, bounds come from the report.
	{Name: "neutrophils", DisplayName: "Neutrophils", ReportType: ReportCBC, Unit: "%"},
	{Name: "lymphocytes", DisplayName: "Lymphocytes", ReportType: ReportCBC, Unit: "%"},
	{Name: "monocytes", DisplayName: "Monocytes", ReportType: ReportCBC, Unit: "%"},
	{Name: "eosinophils", DisplayName: "Eosinophils", ReportType: ReportCBC, Unit: "%"},
	{Name: "basophils", DisplayName: "Basophils", ReportType: ReportCBC, Unit: "%"},

	// ===== BLOOD SUGAR =====
	{Name: "fasting_blood_sugar", DisplayName: "Fasting Blood Sugar", ReportType: ReportSugar, Unit: "mg/dL", NormalRange: "70-100", Min: ptr(70), Max: ptr(100)},
	{Name: "hba1c", DisplayName: "HbA1c", ReportType: ReportSugar, Unit: "%", NormalRange: "<5.7", NormalBelow: ptr(5.7), CriticalFrom: ptr(6.5)},

	// ===== LIPID PROFILE =====
	{Name: "total_cholesterol", DisplayName: "Total Cholesterol", ReportType: ReportLipid, Unit: "mg/dL", NormalRange: "<200", NormalBelow: ptr(200), CriticalFrom: ptr(240)},
	{Name: "ldl_cholesterol", DisplayName: "LDL Cholesterol", ReportType: ReportLipid, Unit: "mg/dL", NormalRange: "<100", NormalBelow: ptr(100), CriticalFrom: ptr(160)},
	{Name: "hdl_cholesterol", DisplayName: "HDL Cholesterol", ReportType: ReportLipid, Unit: "mg/dL", NormalRange: "≥60", NormalFrom: ptr(60), LowFrom: ptr(40)},
}

// Definitions returns the reference data for every known metric.
// This is the authoritative source of truth for thresholds.
func Definitions() []Definition {
	return append([]Definition(nil), definitions...)
}

// LookupDefinition finds the definition for a metric name.
func LookupDefinition(name string) (Definition, bool) {
	for _, def := range definitions {
		if def.Name == name {
			return def, true
		}
	}

	return Definition{}, false
}

// HasBounds reports whether the definition can classify values by itself.
func (d Definition) HasBounds() bool {
	return (d.Min != nil && d.Max != nil) ||
		d.NormalBelow != nil ||
		d.NormalFrom != nil
}

// Classify places v into a status tier. The second return value is false
// when the definition carries no bounds.
func (d Definition) Classify(v float64) (Status, bool) {
	switch {
	case d.Min != nil && d.Max != nil:
		return Classify(v, *d.Min, *d.Max), true

	case d.NormalBelow != nil:
		if v < *d.NormalBelow {
			return StatusNormal, true
		}

		if d.CriticalFrom != nil && v >= *d.CriticalFrom {
			return StatusCritical, true
		}

		return StatusHigh, true

	case d.NormalFrom != nil:
		if v >= *d.NormalFrom {
			return StatusNormal, true
		}

		if d.LowFrom != nil && v >= *d.LowFrom {
			return StatusLow, true
		}

		return StatusCritical, true
	}

	return StatusNormal, false
}

// ReferenceBounds returns the edges of the normal band for charting. Either
// side may be nil for one-sided ranges.
func (d Definition) ReferenceBounds() (lower, upper *float64) {
	switch {
	case d.Min != nil || d.Max != nil:
		return d.Min, d.Max
	case d.NormalBelow != nil:
		return nil, d.NormalBelow
	case d.NormalFrom != nil:
		return d.NormalFrom, nil
	}

	return nil, nil
}

// Classify is the three-way band comparison: below min is low, above max
// is high, anything else (bounds included) is normal.
func Classify(value, minimum, maximum float64) Status {
	if value < minimum {
		return StatusLow
	}

	if value > maximum {
		return StatusHigh
	}

	return StatusNormal
}

// DisplayName returns the human name used in comparisons and trends.
// Unknown names are returned unchanged.
func DisplayName(name string) string {
	if def, ok := LookupDefinition(name); ok {
		return def.DisplayName
	}

	return name
}

var labelNames = map[string]string{
	"rbc_count":     "Red Blood Cells (RBC)",
	"wbc_count":     "White Blood Cells (WBC)",
	"hematocrit":    "Hematocrit (HCT)",
	"triglycerides": "Triglycerides",
}

// LabelName returns the name used inside generated summaries. It spells out
// abbreviations and upper-cases unknown metrics.
func LabelName(name string) string {
	if label, ok := labelNames[name]; ok {
		return label
	}

	if def, ok := LookupDefinition(name); ok {
		return def.DisplayName
	}

	return strings.ToUpper(strings.ReplaceAll(name, "_", " "))
}
