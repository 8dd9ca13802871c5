/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import "math"

// Risk is the overall risk of one report.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskModerate Risk = "moderate"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

// Health is the dashboard-level health label.
type Health string

const (
	HealthExcellent      Health = "excellent"
	HealthGood           Health = "good"
	HealthFair           Health = "fair"
	HealthNeedsAttention Health = "needs_attention"
)

// AnalysisScore rates a single report from 0 to 100.
func AnalysisScore(readings []MetricReading) int {
	if len(readings) == 0 {
		return 0
	}

	d := countStatuses(readings)

	score := float64(d.Normal) / float64(len(readings)) * 100
	score -= float64(d.Low+d.High) * 5
	score -= float64(d.Critical) * 15

	return clampScore(int(math.Round(score)))
}

// RiskLevel rates a single report. A report without readings is low risk.
func RiskLevel(readings []MetricReading) Risk {
	d := countStatuses(readings)

	switch {
	case d.Critical > 0:
		return RiskCritical
	case d.Abnormal() == 0:
		return RiskLow
	case float64(d.Abnormal()) >= float64(len(readings))/2:
		return RiskHigh
	default:
		return RiskModerate
	}
}

// DashboardScore rates a whole history of statuses from 0 to 100.
func DashboardScore(statuses []Status) int {
	score := 100

	for _, s := range statuses {
		switch s {
		case StatusLow, StatusHigh:
			score -= 3
		case StatusCritical:
			score -= 10
		}
	}

	return clampScore(score)
}

// HealthStatus buckets a dashboard score.
func HealthStatus(score int) Health {
	switch {
	case score >= 80:
		return HealthExcellent
	case score >= 60:
		return HealthGood
	case score >= 40:
		return HealthFair
	default:
		return HealthNeedsAttention
	}
}

func clampScore(score int) int {
	return max(0, min(100, score))
}
