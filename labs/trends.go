/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"fmt"
	"time"
)

// DataPoint is one reading of a metric in a trend series.
type DataPoint struct {
	ReportID     string     `json:"report_id"`
	Date         time.Time  `json:"date"`
	ReportDate   time.Time  `json:"report_date"`
	ReportType   ReportType `json:"report_type,omitempty"`
	Value        string     `json:"value"`
	NumericValue *float64   `json:"numeric_value,omitempty"`
	Unit         string     `json:"unit,omitempty"`
	Status       Status     `json:"status"`
	NormalRange  string     `json:"normal_range"`
}

// TrendSummary aggregates one metric across a report history.
type TrendSummary struct {
	MetricName         string             `json:"metric_name"`
	DisplayName        string             `json:"display_name"`
	Unit               string             `json:"unit"`
	DataPoints         []DataPoint        `json:"data_points"`
	TrendDirection     Direction          `json:"trend_direction"`
	AverageValue       string             `json:"average_value"`
	TotalReadings      int                `json:"total_readings"`
	StatusDistribution StatusDistribution `json:"status_distribution"`
	LatestValue        string             `json:"latest_value"`
	LatestStatus       Status             `json:"latest_status"`
}

// MetricSeries is the single-metric view of a report history.
type MetricSeries struct {
	MetricName   string      `json:"metric_name"`
	DisplayName  string      `json:"display_name"`
	DataPoints   []DataPoint `json:"data_points"`
	TotalReports int         `json:"total_reports"`
}

// Trends groups readings of a chronological history by metric name, in order
// of first appearance.
func Trends(history []Snapshot) []TrendSummary {
	index := make(map[string]int)
	var summaries []TrendSummary

	for _, snap := range history {
		for _, r := range snap.Readings {
			i, ok := index[r.Name]
			if !ok {
				i = len(summaries)
				index[r.Name] = i
				summaries = append(summaries, TrendSummary{
					MetricName:  r.Name,
					DisplayName: DisplayName(r.Name),
					Unit:        r.Unit,
				})
			}

			point := DataPoint{
				ReportID:    snap.ReportID,
				Date:        snap.CreatedAt,
				ReportDate:  snap.ReportDate,
				ReportType:  snap.ReportType,
				Value:       r.Value,
				Status:      r.Status,
				NormalRange: r.NormalRange,
			}
			if v, ok := r.Numeric(); ok {
				point.NumericValue = &v
			}

			summaries[i].DataPoints = append(summaries[i].DataPoints, point)
		}
	}

	for i := range summaries {
		summarizeTrend(&summaries[i])
	}

	if summaries == nil {
		return []TrendSummary{}
	}

	return summaries
}

func summarizeTrend(t *TrendSummary) {
	points := t.DataPoints
	numeric := make([]float64, 0, len(points))

	for _, p := range points {
		t.StatusDistribution.add(p.Status)

		if p.NumericValue != nil {
			numeric = append(numeric, *p.NumericValue)
		}
	}

	t.TotalReadings = len(points)
	t.TrendDirection = direction(numeric)
	t.AverageValue = fmt.Sprintf("%.2f", mean(numeric))

	if len(points) > 0 {
		last := points[len(points)-1]
		t.LatestValue = last.Value
		t.LatestStatus = last.Status
	}
}

func direction(values []float64) Direction {
	if len(values) < 2 || values[0] == 0 {
		return DirectionStable
	}

	change := (values[len(values)-1] - values[0]) / values[0] * 100

	switch {
	case change > stableThreshold:
		return DirectionIncreasing
	case change < -stableThreshold:
		return DirectionDecreasing
	default:
		return DirectionStable
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// Series returns every reading of one metric across a chronological history.
func Series(history []Snapshot, name string) MetricSeries {
	series := MetricSeries{
		MetricName:   name,
		DisplayName:  DisplayName(name),
		DataPoints:   []DataPoint{},
		TotalReports: len(history),
	}

	for _, snap := range history {
		for _, r := range snap.Readings {
			if r.Name != name {
				continue
			}

			series.DataPoints = append(series.DataPoints, DataPoint{
				ReportID:    snap.ReportID,
				Date:        snap.CreatedAt,
				ReportDate:  snap.ReportDate,
				Value:       r.Value,
				Unit:        r.Unit,
				Status:      r.Status,
				NormalRange: r.NormalRange,
			})
		}
	}

	return series
}
