// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package labs

import (
	"reflect"
	"testing"
)

const sampleCBC = `COMPLETE BLOOD COUNT
==================
HEMOGLOBIN
Result: 10.2 g/dL
Normal Range: 13.5-17.5
Status: LOW

RED BLOOD CELL COUNT
Result: 4.8 million/µL
Normal Range: 4.5-5.5
Status: Normal

WHITE BLOOD CELL COUNT
Result: 12,500 cells/µL
Normal Range: 4,000-11,000
Status: HIGH

PLATELET COUNT
Result: 250,000 cells/uL
Normal Range: 150,000-450,000
Status: Normal

HEMATOCRIT (HCT)
Result: 42%
Normal Range: 38-50
Status: Normal

DIFFERENTIAL COUNT
NEUTROPHILS: 75% (Normal: 40-70%)
LYMPHOCYTES: 20% (Normal: 20-40%)
MONOCYTES: 5% (Normal: 2-8%)

INTERPRETATION
Mild anemia with leukocytosis.
BASOPHILS: 9% (Normal: 0-1%)
`

func findReadingByName(t *testing.T, readings []MetricReading, name string) MetricReading {
	t.Helper()

	for _, r := range readings {
		if r.Name == name {
			return r
		}
	}

	t.Fatalf("expected reading %q in %+v", name, readings)

	return MetricReading{}
}

func TestExtractHemoglobinOnly(t *testing.T) {
	t.Parallel()

	text := "HEMOGLOBIN ... Result: 10.2 g/dL ... Normal Range: 13.5-17.5"

	got := Extract(text, ReportCBC)
	want := []MetricReading{{
		Name:        "hemoglobin",
		Value:       "10.2",
		Unit:        "g/dL",
		NormalRange: "13.5-17.5",
		Status:      StatusLow,
	}}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestExtractCBC(t *testing.T) {
	t.Parallel()

	readings := Extract(sampleCBC, ReportCBC)

	t.Run("main metrics", func(t *testing.T) {
		t.Parallel()

		hb := findReadingByName(t, readings, "hemoglobin")
		if hb.Status != StatusLow {
			t.Fatalf("expected hemoglobin low, got %s", hb.Status)
		}

		wbc := findReadingByName(t, readings, "wbc_count")
		if wbc.Value != "12,500" || wbc.Unit != "cells/µL" || wbc.NormalRange != "4,000-11,000" {
			t.Fatalf("unexpected wbc reading %+v", wbc)
		}

		if wbc.Status != StatusHigh {
			t.Fatalf("expected wbc high, got %s", wbc.Status)
		}

		platelets := findReadingByName(t, readings, "platelet_count")
		if platelets.Status != StatusNormal {
			t.Fatalf("expected platelets normal, got %s", platelets.Status)
		}

		hct := findReadingByName(t, readings, "hematocrit")
		if hct.Value != "42" || hct.Unit != "%" {
			t.Fatalf("unexpected hematocrit %+v", hct)
		}
	})

	t.Run("differential stops at interpretation", func(t *testing.T) {
		t.Parallel()

		neutrophils := findReadingByName(t, readings, "neutrophils")
		if neutrophils.Status != StatusHigh || neutrophils.NormalRange != "40-70" || neutrophils.Unit != "%" {
			t.Fatalf("unexpected neutrophils %+v", neutrophils)
		}

		lymphocytes := findReadingByName(t, readings, "lymphocytes")
		if lymphocytes.Status != StatusNormal {
			t.Fatalf("expected inclusive lower bound normal, got %s", lymphocytes.Status)
		}

		for _, r := range readings {
			if r.Name == "basophils" {
				t.Fatalf("basophils after INTERPRETATION should not be extracted")
			}
		}
	})

	t.Run("order follows table", func(t *testing.T) {
		t.Parallel()

		var names []string
		for _, r := range readings {
			names = append(names, r.Name)
		}

		want := []string{
			"hemoglobin", "rbc_count", "wbc_count", "platelet_count", "hematocrit",
			"neutrophils", "lymphocytes", "monocytes",
		}
		if !reflect.DeepEqual(names, want) {
			t.Fatalf("expected %v, got %v", want, names)
		}
	})
}

func TestExtractStatusOverride(t *testing.T) {
	t.Parallel()

	text := `HEMOGLOBIN
Result: 15.0 g/dL
Normal Range: 13.5-17.5
Status: Critical`

	got := Extract(text, ReportCBC)
	if len(got) != 1 || got[0].Status != StatusCritical {
		t.Fatalf("expected critical from status label, got %+v", got)
	}
}

func TestExtractDifferentialUnparseableBounds(t *testing.T) {
	t.Parallel()

	text := "DIFFERENTIAL COUNT\nEOSINOPHILS: 30% (Normal: 1-%)"

	got := Extract(text, ReportCBC, WithoutFallback())
	if len(got) != 1 {
		t.Fatalf("expected one reading, got %+v", got)
	}

	if got[0].Status != StatusNormal {
		t.Fatalf("expected normal when bounds cannot be parsed, got %s", got[0].Status)
	}
}

func TestExtractSugarTiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  Status
	}{
		{"6.8", StatusCritical},
		{"6.5", StatusCritical},
		{"6.0", StatusHigh},
		{"5.7", StatusHigh},
		{"5.5", StatusNormal},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()

			got := Extract("HbA1c: Result: "+tt.value+"%", ReportSugar)
			r := findReadingByName(t, got, "hba1c")

			if r.Status != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, r.Status)
			}

			if r.NormalRange != "<5.7" || r.Unit != "%" {
				t.Fatalf("unexpected reading %+v", r)
			}
		})
	}
}

func TestExtractFastingSugar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  Status
	}{
		{"65", StatusLow},
		{"70", StatusNormal},
		{"100", StatusNormal},
		{"126", StatusHigh},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()

			got := Extract("FASTING\nResult: "+tt.value+" mg/dL", ReportSugar)
			r := findReadingByName(t, got, "fasting_blood_sugar")

			if r.Status != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, r.Status)
			}
		})
	}
}

func TestExtractLipid(t *testing.T) {
	t.Parallel()

	text := `TOTAL CHOLESTEROL: Result: 245 mg/dL
VLDL: Result: 30 mg/dL
LDL CHOLESTEROL: Result: 130 mg/dL
HDL: Result: 38 mg/dL`

	readings := Extract(text, ReportLipid)
	if len(readings) != 3 {
		t.Fatalf("expected three readings, got %+v", readings)
	}

	tests := []struct {
		name   string
		value  string
		status Status
	}{
		{"total_cholesterol", "245", StatusCritical},
		{"ldl_cholesterol", "130", StatusHigh},
		{"hdl_cholesterol", "38", StatusCritical},
	}

	for _, tt := range tests {
		r := findReadingByName(t, readings, tt.name)
		if r.Value != tt.value || r.Status != tt.status {
			t.Fatalf("expected %s=%s %s, got %+v", tt.name, tt.value, tt.status, r)
		}
	}
}

func TestExtractHDLBands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  Status
	}{
		{"60", StatusNormal},
		{"59", StatusLow},
		{"40", StatusLow},
		{"39", StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()

			r := findReadingByName(t, Extract("HDL: Result: "+tt.value+" mg/dL", ReportLipid), "hdl_cholesterol")
			if r.Status != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, r.Status)
			}
		})
	}
}

func TestExtractFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rt   ReportType
		name string
		val  string
	}{
		{ReportCBC, "hemoglobin", "14.5"},
		{ReportSugar, "fasting_blood_sugar", "95"},
		{ReportLipid, "total_cholesterol", "185"},
		{ReportType("thyroid"), "hemoglobin", "14.5"},
	}

	for _, tt := range tests {
		t.Run(string(tt.rt), func(t *testing.T) {
			t.Parallel()

			got := Extract("nothing to see here", tt.rt)
			if len(got) != 1 || got[0].Name != tt.name || got[0].Value != tt.val || got[0].Status != StatusNormal {
				t.Fatalf("unexpected fallback %+v", got)
			}

			if !IsPlaceholder(tt.rt, got) {
				t.Fatalf("expected placeholder to be recognised")
			}

			empty := Extract("nothing to see here", tt.rt, WithoutFallback())
			if empty == nil || len(empty) != 0 {
				t.Fatalf("expected empty non-nil slice, got %#v", empty)
			}
		})
	}
}

func TestExtractIdempotent(t *testing.T) {
	t.Parallel()

	first := Extract(sampleCBC, ReportCBC)
	second := Extract(sampleCBC, ReportCBC)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output across calls")
	}

	for _, r := range first {
		if !r.Status.Valid() {
			t.Fatalf("invalid status %q on %s", r.Status, r.Name)
		}
	}
}

func TestClassifyBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value float64
		want  Status
	}{
		{13.4, StatusLow},
		{13.5, StatusNormal},
		{17.5, StatusNormal},
		{17.6, StatusHigh},
	}

	for _, tt := range tests {
		if got := Classify(tt.value, 13.5, 17.5); got != tt.want {
			t.Fatalf("Classify(%v) expected %s, got %s", tt.value, tt.want, got)
		}
	}
}

func TestDefinitionClassifyEdges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		metric string
		value  string
		want   Status
	}{
		{"hemoglobin", "13.49", StatusLow},
		{"hemoglobin", "13.5", StatusNormal},
		{"hemoglobin", "17.5", StatusNormal},
		{"hemoglobin", "17.51", StatusHigh},
		{"rbc_count", "4.49", StatusLow},
		{"rbc_count", "4.5", StatusNormal},
		{"rbc_count", "5.5", StatusNormal},
		{"rbc_count", "5.51", StatusHigh},
		{"wbc_count", "3,999", StatusLow},
		{"wbc_count", "4,000", StatusNormal},
		{"wbc_count", "11,000", StatusNormal},
		{"wbc_count", "11,001", StatusHigh},
		{"platelet_count", "149,999", StatusLow},
		{"platelet_count", "150,000", StatusNormal},
		{"platelet_count", "450,000", StatusNormal},
		{"platelet_count", "450,001", StatusHigh},
		{"hematocrit", "37.9", StatusLow},
		{"hematocrit", "38", StatusNormal},
		{"hematocrit", "50", StatusNormal},
		{"hematocrit", "50.1", StatusHigh},
		{"mcv", "79.9", StatusLow},
		{"mcv", "80", StatusNormal},
		{"mcv", "100", StatusNormal},
		{"mcv", "100.1", StatusHigh},
		{"mch", "26.9", StatusLow},
		{"mch", "27", StatusNormal},
		{"mch", "33", StatusNormal},
		{"mch", "33.1", StatusHigh},
		{"mchc", "31.9", StatusLow},
		{"mchc", "32", StatusNormal},
		{"mchc", "36", StatusNormal},
		{"mchc", "36.1", StatusHigh},
		{"fasting_blood_sugar", "69.9", StatusLow},
		{"fasting_blood_sugar", "70", StatusNormal},
		{"fasting_blood_sugar", "100", StatusNormal},
		{"fasting_blood_sugar", "100.1", StatusHigh},
		{"hba1c", "5.69", StatusNormal},
		{"hba1c", "5.7", StatusHigh},
		{"hba1c", "6.49", StatusHigh},
		{"hba1c", "6.5", StatusCritical},
		{"total_cholesterol", "199.9", StatusNormal},
		{"total_cholesterol", "200", StatusHigh},
		{"total_cholesterol", "239.9", StatusHigh},
		{"total_cholesterol", "240", StatusCritical},
		{"ldl_cholesterol", "99.9", StatusNormal},
		{"ldl_cholesterol", "100", StatusHigh},
		{"ldl_cholesterol", "159.9", StatusHigh},
		{"ldl_cholesterol", "160", StatusCritical},
		{"hdl_cholesterol", "60", StatusNormal},
		{"hdl_cholesterol", "59.9", StatusLow},
		{"hdl_cholesterol", "40", StatusLow},
		{"hdl_cholesterol", "39.9", StatusCritical},
	}

	covered := make(map[string]bool)

	for _, tt := range tests {
		def, ok := LookupDefinition(tt.metric)
		if !ok {
			t.Fatalf("unknown metric %q", tt.metric)
		}

		v, ok := ParseValue(tt.value)
		if !ok {
			t.Fatalf("ParseValue(%q) failed", tt.value)
		}

		got, ok := def.Classify(v)
		if !ok {
			t.Fatalf("%s has no bounds", tt.metric)
		}

		if got != tt.want {
			t.Fatalf("%s at %s expected %s, got %s", tt.metric, tt.value, tt.want, got)
		}

		covered[tt.metric] = true
	}

	for _, def := range Definitions() {
		if def.HasBounds() && !covered[def.Name] {
			t.Fatalf("no edge cases for %s", def.Name)
		}

		if !def.HasBounds() {
			if _, ok := def.Classify(1); ok {
				t.Fatalf("%s classified without bounds", def.Name)
			}
		}
	}
}

func TestStatusFromToken(t *testing.T) {
	t.Parallel()

	tests := map[string]Status{
		"LOW":        StatusLow,
		"High":       StatusHigh,
		"CRITICAL":   StatusCritical,
		"Normal":     StatusNormal,
		"Borderline": StatusNormal,
		"below":      StatusLow,
	}

	for token, want := range tests {
		if got := StatusFromToken(token); got != want {
			t.Fatalf("StatusFromToken(%q) expected %s, got %s", token, want, got)
		}
	}
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	if v, ok := ParseValue("12,500"); !ok || v != 12500 {
		t.Fatalf("expected 12500, got %v %v", v, ok)
	}

	if _, ok := ParseValue("n/a"); ok {
		t.Fatalf("expected parse failure")
	}

	if _, ok := ParseValue(""); ok {
		t.Fatalf("expected parse failure for empty value")
	}
}
