/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

// ReportType is one of the supported lab panels.
type ReportType string

const (
	ReportCBC   ReportType = "cbc"
	ReportSugar ReportType = "sugar"
	ReportLipid ReportType = "lipid_profile"
)

// ReportTypeInfo describes a report type for API consumers.
type ReportTypeInfo struct {
	Code        ReportType `json:"code"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
}

var reportTypeCatalog = []struct {
	code        ReportType
	name        string
	description string
	metrics     []string
}{
	{
		code:        ReportCBC,
		name:        "Complete Blood Count (CBC)",
		description: "Measures different components of blood including red blood cells, white blood cells, hemoglobin, and platelets",
		metrics: []string{
			"hemoglobin", "rbc_count", "wbc_count", "platelet_count", "hematocrit",
			"mcv", "mch", "mchc", "neutrophils", "lymphocytes", "monocytes",
			"eosinophils", "basophils",
		},
	},
	{
		code:        ReportSugar,
		name:        "Blood Sugar / Glucose Test",
		description: "Measures blood glucose levels including fasting sugar, HbA1c, and diabetes indicators",
		metrics: []string{
			"fasting_blood_sugar", "post_prandial_sugar", "random_blood_sugar",
			"hba1c", "estimated_avg_glucose",
		},
	},
	{
		code:        ReportLipid,
		name:        "Lipid Profile / Cholesterol Test",
		description: "Measures cholesterol levels including LDL, HDL, triglycerides, and cardiovascular risk factors",
		metrics: []string{
			"total_cholesterol", "ldl_cholesterol", "hdl_cholesterol", "triglycerides",
			"vldl_cholesterol", "total_hdl_ratio", "ldl_hdl_ratio", "non_hdl_cholesterol",
		},
	},
}

// ReportTypes returns the supported report types in catalog order.
func ReportTypes() []ReportType {
	types := make([]ReportType, 0, len(reportTypeCatalog))
	for _, entry := range reportTypeCatalog {
		types = append(types, entry.code)
	}

	return types
}

// ReportTypeCatalog returns code, name and description for every type.
func ReportTypeCatalog() []ReportTypeInfo {
	infos := make([]ReportTypeInfo, 0, len(reportTypeCatalog))
	for _, entry := range reportTypeCatalog {
		infos = append(infos, ReportTypeInfo{
			Code:        entry.code,
			Name:        entry.name,
			Description: entry.description,
		})
	}

	return infos
}

// Valid reports whether rt is a supported report type.
func (rt ReportType) Valid() bool {
	for _, entry := range reportTypeCatalog {
		if entry.code == rt {
			return true
		}
	}

	return false
}

// Name returns the display name, or the raw code for unknown types.
func (rt ReportType) Name() string {
	for _, entry := range reportTypeCatalog {
		if entry.code == rt {
			return entry.name
		}
	}

	return string(rt)
}

// Description returns the catalog description, or "" for unknown types.
func (rt ReportType) Description() string {
	for _, entry := range reportTypeCatalog {
		if entry.code == rt {
			return entry.description
		}
	}

	return ""
}

// ExpectedMetrics lists the metric names a report of this type may carry.
func (rt ReportType) ExpectedMetrics() []string {
	for _, entry := range reportTypeCatalog {
		if entry.code == rt {
			return append([]string(nil), entry.metrics...)
		}
	}

	return nil
}

// narrativeName is the shorter name used inside generated report text.
func (rt ReportType) narrativeName() string {
	switch rt {
	case ReportCBC:
		return "Complete Blood Count (CBC)"
	case ReportSugar:
		return "Blood Sugar Test"
	case ReportLipid:
		return "Lipid Profile"
	default:
		return "Medical Report"
	}
}
