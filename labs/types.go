/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"strconv"
	"strings"
	"time"
)

// Status is the classification of a reading against its reference range.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusLow      Status = "low"
	StatusHigh     Status = "high"
	StatusCritical Status = "critical"
)

// Statuses returns every status tier in display order.
func Statuses() []Status {
	return []Status{StatusNormal, StatusLow, StatusHigh, StatusCritical}
}

// Valid reports whether s is one of the four status tiers.
func (s Status) Valid() bool {
	switch s {
	case StatusNormal, StatusLow, StatusHigh, StatusCritical:
		return true
	}

	return false
}

// Abnormal reports whether s is anything other than normal.
func (s Status) Abnormal() bool {
	return s != StatusNormal
}

// StatusFromToken maps a free-text status label such as "High" or
// "LOW (flagged)" onto a status tier. Labels are checked for low, high and
// critical in that order; anything else is normal.
func StatusFromToken(token string) Status {
	t := strings.ToLower(token)

	switch {
	case strings.Contains(t, "low"):
		return StatusLow
	case strings.Contains(t, "high"):
		return StatusHigh
	case strings.Contains(t, "critical"):
		return StatusCritical
	default:
		return StatusNormal
	}
}

// MetricReading is one extracted lab value.
type MetricReading struct {
	Name        string `json:"metric_name"`
	Value       string `json:"metric_value"`
	Unit        string `json:"metric_unit"`
	NormalRange string `json:"normal_range"`
	Status      Status `json:"status"`
}

// Numeric returns the reading's value as a number.
func (r MetricReading) Numeric() (float64, bool) {
	return ParseValue(r.Value)
}

// ParseValue parses a display value, ignoring thousands separators.
func ParseValue(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

// Snapshot is the full set of readings of one report.
type Snapshot struct {
	ReportID   string
	ReportType ReportType
	ReportDate time.Time
	CreatedAt  time.Time
	Readings   []MetricReading
}

// Trend describes how a metric moved between two reports.
type Trend string

const (
	TrendImproved  Trend = "improved"
	TrendWorsened  Trend = "worsened"
	TrendIncreased Trend = "increased"
	TrendDecreased Trend = "decreased"
	TrendStable    Trend = "stable"
)

// Direction describes the longitudinal movement of a metric.
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionStable     Direction = "stable"
)

func countStatuses(readings []MetricReading) StatusDistribution {
	var d StatusDistribution
	for _, r := range readings {
		d.add(r.Status)
	}

	return d
}

// StatusDistribution counts readings per status tier.
type StatusDistribution struct {
	Normal   int `json:"normal"`
	Low      int `json:"low"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

func (d *StatusDistribution) add(s Status) {
	switch s {
	case StatusNormal:
		d.Normal++
	case StatusLow:
		d.Low++
	case StatusHigh:
		d.High++
	case StatusCritical:
		d.Critical++
	}
}

// Abnormal returns the number of non-normal readings.
func (d StatusDistribution) Abnormal() int {
	return d.Low + d.High + d.Critical
}

// Total returns the number of counted readings.
func (d StatusDistribution) Total() int {
	return d.Normal + d.Abnormal()
}
