/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/humaidq/labwise/labs"
)

const (
	dashboardAbnormalLimit = 10
	dashboardRecentLimit   = 5
)

// DashboardSummary is the headline block of the dashboard.
type DashboardSummary struct {
	TotalReports         int  `json:"total_reports"`
	HealthScore          int  `json:"health_score"`
	AbnormalMetricsCount int  `json:"abnormal_metrics_count"`
	DaysSinceLastReport  *int `json:"days_since_last_report"`
}

// ReportTypeCount is the number of reports of one type.
type ReportTypeCount struct {
	ReportType labs.ReportType `json:"report_type"`
	Count      int             `json:"count"`
}

// AbnormalMetric is a recent reading outside its normal range.
type AbnormalMetric struct {
	labs.MetricReading
	ReportID   uuid.UUID       `json:"report_id"`
	ReportType labs.ReportType `json:"report_type"`
	ReportDate time.Time       `json:"report_date"`
}

// RecentReport is a compact entry of the recent activity list.
type RecentReport struct {
	ID         uuid.UUID       `json:"id"`
	ReportType labs.ReportType `json:"report_type"`
	ReportDate time.Time       `json:"report_date"`
	Status     ReportStatus    `json:"status"`
	AISummary  *string         `json:"ai_summary"`
}

// Dashboard is the per-user health overview.
type Dashboard struct {
	Summary         DashboardSummary  `json:"summary"`
	ReportsByType   []ReportTypeCount `json:"reports_by_type"`
	LatestReport    *Report           `json:"latest_report"`
	AbnormalMetrics []AbnormalMetric  `json:"abnormal_metrics"`
	RecentActivity  []RecentReport    `json:"recent_activity"`
	HealthStatus    labs.Health       `json:"health_status"`
}

// AttentionMetric is a non-normal reading of the latest report in a window.
type AttentionMetric struct {
	MetricName string      `json:"metric_name"`
	Value      string      `json:"value"`
	Status     labs.Status `json:"status"`
}

// Stats summarises reports within a window of months.
type Stats struct {
	TotalReports   int               `json:"total_reports"`
	ReportsByMonth map[string]int    `json:"reports_by_month"`
	NeedsAttention []AttentionMetric `json:"needs_attention"`
}

// GetDashboard builds the dashboard for a user as of now.
func GetDashboard(ctx context.Context, userID uuid.UUID, now time.Time) (*Dashboard, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	dash := &Dashboard{
		ReportsByType:   []ReportTypeCount{},
		AbnormalMetrics: []AbnormalMetric{},
		RecentActivity:  []RecentReport{},
	}

	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM medical_reports WHERE user_id = $1`, userID).
		Scan(&dash.Summary.TotalReports); err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}

	var err error

	if dash.ReportsByType, err = countReportsByType(ctx, userID); err != nil {
		return nil, err
	}

	if dash.LatestReport, err = latestReport(ctx, userID); err != nil {
		return nil, err
	}

	if dash.AbnormalMetrics, err = recentAbnormalMetrics(ctx, userID); err != nil {
		return nil, err
	}

	statuses, err := allMetricStatuses(ctx, userID)
	if err != nil {
		return nil, err
	}

	if dash.RecentActivity, err = recentReports(ctx, userID); err != nil {
		return nil, err
	}

	dash.Summary.HealthScore = labs.DashboardScore(statuses)
	dash.Summary.AbnormalMetricsCount = len(dash.AbnormalMetrics)
	dash.HealthStatus = labs.HealthStatus(dash.Summary.HealthScore)

	if dash.LatestReport != nil {
		days := DaysBetween(dash.LatestReport.ReportDate, now)
		dash.Summary.DaysSinceLastReport = &days
	}

	return dash, nil
}

// DaysBetween returns the whole days elapsed from then to now, rounded down.
func DaysBetween(then, now time.Time) int {
	return int(math.Floor(now.Sub(then).Hours() / 24))
}

func countReportsByType(ctx context.Context, userID uuid.UUID) ([]ReportTypeCount, error) {
	rows, err := pool.Query(ctx, `
		SELECT report_type, COUNT(*)
		FROM medical_reports
		WHERE user_id = $1
		GROUP BY report_type
		ORDER BY report_type
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports by type: %w", err)
	}
	defer rows.Close()

	counts := []ReportTypeCount{}

	for rows.Next() {
		var c ReportTypeCount
		if err := rows.Scan(&c.ReportType, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan report count: %w", err)
		}

		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report counts: %w", err)
	}

	return counts, nil
}

func latestReport(ctx context.Context, userID uuid.UUID) (*Report, error) {
	report, err := scanReport(pool.QueryRow(ctx, `
		SELECT `+reportColumns+`
		FROM medical_reports r
		WHERE r.user_id = $1
		ORDER BY r.report_date DESC, r.id DESC
		LIMIT 1
	`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // A user without reports has no latest report.
		}

		return nil, fmt.Errorf("failed to get latest report: %w", err)
	}

	reports := []Report{*report}
	if err := loadMetrics(ctx, reports); err != nil {
		return nil, err
	}

	return &reports[0], nil
}

func recentAbnormalMetrics(ctx context.Context, userID uuid.UUID) ([]AbnormalMetric, error) {
	rows, err := pool.Query(ctx, `
		SELECT m.metric_name, m.metric_value, m.metric_unit, m.normal_range, m.status,
		       r.id, r.report_type, r.report_date
		FROM report_metrics m
		INNER JOIN medical_reports r ON r.id = m.report_id
		WHERE r.user_id = $1 AND m.status <> 'normal'
		ORDER BY m.created_at DESC, m.position ASC
		LIMIT $2
	`, userID, dashboardAbnormalLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list abnormal metrics: %w", err)
	}
	defer rows.Close()

	metrics := []AbnormalMetric{}

	for rows.Next() {
		var m AbnormalMetric
		if err := rows.Scan(
			&m.Name, &m.Value, &m.Unit, &m.NormalRange, &m.Status,
			&m.ReportID, &m.ReportType, &m.ReportDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan abnormal metric: %w", err)
		}

		metrics = append(metrics, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating abnormal metrics: %w", err)
	}

	return metrics, nil
}

func allMetricStatuses(ctx context.Context, userID uuid.UUID) ([]labs.Status, error) {
	rows, err := pool.Query(ctx, `
		SELECT m.status
		FROM report_metrics m
		INNER JOIN medical_reports r ON r.id = m.report_id
		WHERE r.user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list metric statuses: %w", err)
	}

	statuses, err := pgx.CollectRows(rows, pgx.RowTo[labs.Status])
	if err != nil {
		return nil, fmt.Errorf("failed to collect metric statuses: %w", err)
	}

	return statuses, nil
}

func recentReports(ctx context.Context, userID uuid.UUID) ([]RecentReport, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, report_type, report_date, status, ai_summary
		FROM medical_reports
		WHERE user_id = $1
		ORDER BY report_date DESC, id DESC
		LIMIT $2
	`, userID, dashboardRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent reports: %w", err)
	}
	defer rows.Close()

	reports := []RecentReport{}

	for rows.Next() {
		var r RecentReport
		if err := rows.Scan(&r.ID, &r.ReportType, &r.ReportDate, &r.Status, &r.AISummary); err != nil {
			return nil, fmt.Errorf("failed to scan recent report: %w", err)
		}

		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent reports: %w", err)
	}

	return reports, nil
}

// MonthsAgo returns the start of a window of months ending at now, counting
// a month as thirty days.
func MonthsAgo(now time.Time, months int) time.Time {
	return now.Add(-time.Duration(months) * 30 * 24 * time.Hour)
}

// MonthLabel formats a report date the way stats group them, e.g. "Jan 2025".
func MonthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

// GetStats summarises reports dated within the last months as of now.
func GetStats(ctx context.Context, userID uuid.UUID, months int, now time.Time) (*Stats, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM medical_reports r
		WHERE r.user_id = $1 AND r.report_date >= $2
		ORDER BY r.report_date ASC, r.id ASC
	`, userID, MonthsAgo(now, months))
	if err != nil {
		return nil, fmt.Errorf("failed to list reports for stats: %w", err)
	}

	reports, err := collectReports(rows)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalReports:   len(reports),
		ReportsByMonth: map[string]int{},
		NeedsAttention: []AttentionMetric{},
	}

	for _, r := range reports {
		stats.ReportsByMonth[MonthLabel(r.ReportDate)]++
	}

	if len(reports) == 0 {
		return stats, nil
	}

	latest := reports[len(reports)-1:]
	if err := loadMetrics(ctx, latest); err != nil {
		return nil, err
	}

	for _, m := range latest[0].Metrics {
		if m.Status != labs.StatusNormal {
			stats.NeedsAttention = append(stats.NeedsAttention, AttentionMetric{
				MetricName: m.Name,
				Value:      m.Value,
				Status:     m.Status,
			})
		}
	}

	return stats, nil
}
