/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// stableThreshold is the percentage change below which a metric is stable.
const stableThreshold = 5.0

// MetricComparison is the per-metric delta between two reports.
type MetricComparison struct {
	Name             string `json:"name"`
	PreviousValue    string `json:"previous_value"`
	CurrentValue     string `json:"current_value"`
	Change           string `json:"change"`
	ChangePercentage string `json:"change_percentage"`
	Trend            Trend  `json:"trend"`
	Interpretation   string `json:"interpretation"`

	MetricName     string  `json:"-"`
	PreviousStatus Status  `json:"-"`
	CurrentStatus  Status  `json:"-"`
	Delta          float64 `json:"-"`
	Percent        float64 `json:"-"`
}

// Recommendation is advice derived from a comparison.
type Recommendation struct {
	Type        string   `json:"type"`
	Priority    string   `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Metrics     []string `json:"metrics"`
}

// Comparison bundles everything shown when two reports are compared.
type Comparison struct {
	CurrentReport   ReportRef          `json:"current_report"`
	PreviousReport  ReportRef          `json:"previous_report"`
	TimeDifference  string             `json:"time_difference"`
	Summary         string             `json:"summary"`
	Metrics         []MetricComparison `json:"metrics"`
	Recommendations []Recommendation   `json:"recommendations"`
}

// ReportRef identifies one side of a comparison.
type ReportRef struct {
	ID   string     `json:"id"`
	Date time.Time  `json:"date"`
	Type ReportType `json:"type"`
}

// Compare pairs readings by name and describes how each one moved. Metrics
// present only in previous or only in current are dropped. Output follows
// the order of previous.
func Compare(previous, current []MetricReading) []MetricComparison {
	byName := make(map[string]MetricReading, len(current))
	for _, r := range current {
		if _, seen := byName[r.Name]; !seen {
			byName[r.Name] = r
		}
	}

	comparisons := make([]MetricComparison, 0, len(previous))

	for _, prev := range previous {
		cur, ok := byName[prev.Name]
		if !ok {
			continue
		}

		prevValue, okPrev := prev.Numeric()
		curValue, okCur := cur.Numeric()

		if !okPrev || !okCur {
			continue
		}

		comparisons = append(comparisons, compareReading(prev, cur, prevValue, curValue))
	}

	return comparisons
}

func compareReading(prev, cur MetricReading, prevValue, curValue float64) MetricComparison {
	change := curValue - prevValue

	var percent float64
	if prevValue != 0 {
		percent = roundTo(change/prevValue*100, 1)
	}

	trend, sentence := classifyTrend(change, percent, prev.Status, cur.Status)

	return MetricComparison{
		Name:             DisplayName(cur.Name),
		PreviousValue:    strings.TrimSpace(prev.Value + " " + prev.Unit),
		CurrentValue:     strings.TrimSpace(cur.Value + " " + cur.Unit),
		Change:           signed(change),
		ChangePercentage: signed(percent) + "%",
		Trend:            trend,
		Interpretation:   sentence + statusSentence(cur.Status),
		MetricName:       cur.Name,
		PreviousStatus:   prev.Status,
		CurrentStatus:    cur.Status,
		Delta:            change,
		Percent:          percent,
	}
}

func classifyTrend(change, percent float64, prev, cur Status) (Trend, string) {
	if math.Abs(percent) < stableThreshold {
		if cur == StatusNormal {
			return TrendStable, "Minimal change, remains in healthy range. "
		}

		return TrendStable, fmt.Sprintf("Minimal change, remains %s. ", cur)
	}

	if change > 0 {
		switch {
		case prev == StatusLow && cur == StatusNormal:
			return TrendImproved, "Improved from low to normal range. "
		case cur == StatusHigh:
			return TrendWorsened, "Increased above normal range. "
		default:
			return TrendIncreased, "Increased but within acceptable range. "
		}
	}

	switch {
	case prev == StatusHigh && cur == StatusNormal:
		return TrendImproved, "Improved from high to normal range. "
	case cur == StatusLow:
		return TrendWorsened, "Decreased below normal range. "
	default:
		return TrendDecreased, "Decreased but within acceptable range. "
	}
}

func statusSentence(s Status) string {
	switch s {
	case StatusNormal:
		return "Within normal range."
	case StatusLow:
		return "Below normal range - may need attention."
	case StatusHigh:
		return "Above normal range - may need attention."
	default:
		return ""
	}
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))

	return math.Round(v*scale) / scale
}

// signed formats v with one decimal and an explicit sign for non-negative
// values. Negative zero prints as "+0.0".
func signed(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	if s == "-0.0" {
		s = "0.0"
	}

	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}

	return s
}

// SummarizeComparison describes a comparison in one or two sentences.
func SummarizeComparison(comparisons []MetricComparison) string {
	var improved, worsened, stable int

	for _, c := range comparisons {
		switch c.Trend {
		case TrendImproved:
			improved++
		case TrendWorsened:
			worsened++
		case TrendStable:
			stable++
		}
	}

	switch {
	case improved > worsened:
		s := fmt.Sprintf("Overall improvement in blood parameters. %d metric(s) improved, %d remained stable", improved, stable)
		if worsened > 0 {
			s += fmt.Sprintf(", and %d worsened", worsened)
		}

		return s + "."

	case worsened > improved:
		s := fmt.Sprintf("Some parameters need attention. %d metric(s) worsened, %d remained stable", worsened, stable)
		if improved > 0 {
			s += fmt.Sprintf(", and %d improved", improved)
		}

		return s + ". Consult your doctor."

	default:
		s := fmt.Sprintf("Blood parameters are mostly stable. %d metric(s) remained stable", stable)
		if improved > 0 {
			s += fmt.Sprintf(", %d improved", improved)
		}

		if worsened > 0 {
			s += fmt.Sprintf(", %d worsened", worsened)
		}

		return s + "."
	}
}

// ComparisonRecommendations turns trends into ordered advice.
func ComparisonRecommendations(comparisons []MetricComparison) []Recommendation {
	var improved, worsened []MetricComparison

	for _, c := range comparisons {
		switch c.Trend {
		case TrendImproved:
			improved = append(improved, c)
		case TrendWorsened:
			worsened = append(worsened, c)
		}
	}

	recs := make([]Recommendation, 0, 3+len(worsened))

	if len(worsened) > 0 {
		recs = append(recs, Recommendation{
			Type:        "medical",
			Priority:    "high",
			Title:       "Consult Your Doctor",
			Description: fmt.Sprintf("%d metric(s) have worsened since your last test. Schedule a follow-up appointment to discuss these changes.", len(worsened)),
			Metrics:     comparisonNames(worsened),
		})
	}

	if len(improved) > 0 {
		recs = append(recs, Recommendation{
			Type:        "lifestyle",
			Priority:    "medium",
			Title:       "Keep Up the Good Work",
			Description: fmt.Sprintf("%d metric(s) have improved! Continue your current treatment plan and healthy lifestyle habits.", len(improved)),
			Metrics:     comparisonNames(improved),
		})
	}

	recs = append(recs, Recommendation{
		Type:        "monitoring",
		Priority:    "low",
		Title:       "Regular Monitoring",
		Description: "Continue regular health check-ups to track your progress over time.",
		Metrics:     []string{},
	})

	for _, c := range worsened {
		switch c.Name {
		case "Hemoglobin", "Red Blood Cells":
			recs = append(recs, Recommendation{
				Type:        "diet",
				Priority:    "high",
				Title:       "Increase Iron Intake",
				Description: "Your hemoglobin/RBC levels have decreased. Consider iron-rich foods like spinach, red meat, and beans.",
				Metrics:     []string{c.Name},
			})
		case "White Blood Cells":
			recs = append(recs, Recommendation{
				Type:        "medical",
				Priority:    "high",
				Title:       "Immune System Check",
				Description: "Changes in WBC count may indicate infection or immune issues. Consult your doctor.",
				Metrics:     []string{c.Name},
			})
		case "Platelets":
			recs = append(recs, Recommendation{
				Type:        "medical",
				Priority:    "high",
				Title:       "Bleeding Risk Assessment",
				Description: "Low platelet count increases bleeding risk. Avoid activities that may cause injury.",
				Metrics:     []string{c.Name},
			})
		}
	}

	return recs
}

func comparisonNames(comparisons []MetricComparison) []string {
	names := make([]string, 0, len(comparisons))
	for _, c := range comparisons {
		names = append(names, c.Name)
	}

	return names
}

// TimeDifference renders the gap between two report dates.
func TimeDifference(previous, current time.Time) string {
	days := int(math.Floor(math.Abs(current.Sub(previous).Hours()) / 24))

	switch {
	case days == 0:
		return "Same day"
	case days == 1:
		return "1 day"
	case days < 30:
		return fmt.Sprintf("%d days", days)
	case days < 60:
		return "1 month"
	default:
		return fmt.Sprintf("%d months", days/30)
	}
}

// CompareSnapshots builds the full comparison view of two reports.
func CompareSnapshots(previous, current Snapshot) Comparison {
	metrics := Compare(previous.Readings, current.Readings)

	return Comparison{
		CurrentReport: ReportRef{
			ID:   current.ReportID,
			Date: current.ReportDate,
			Type: current.ReportType,
		},
		PreviousReport: ReportRef{
			ID:   previous.ReportID,
			Date: previous.ReportDate,
			Type: previous.ReportType,
		},
		TimeDifference:  TimeDifference(previous.ReportDate, current.ReportDate),
		Summary:         SummarizeComparison(metrics),
		Metrics:         metrics,
		Recommendations: ComparisonRecommendations(metrics),
	}
}
