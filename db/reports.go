/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/humaidq/labwise/labs"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

const reportColumns = `r.id, r.user_id, r.report_type, r.report_date, r.file_key, r.file_name, r.file_type,
	r.extracted_text, r.ai_summary, r.ai_explanation, r.health_score, r.risk_level, r.analyzer_engine,
	r.status, r.failure_reason, r.created_at, r.updated_at`

func scanReport(row pgx.Row) (*Report, error) {
	var report Report
	if err := row.Scan(
		&report.ID,
		&report.UserID,
		&report.ReportType,
		&report.ReportDate,
		&report.FileKey,
		&report.FileName,
		&report.FileType,
		&report.ExtractedText,
		&report.AISummary,
		&report.AIExplanation,
		&report.HealthScore,
		&report.RiskLevel,
		&report.AnalyzerEngine,
		&report.Status,
		&report.FailureReason,
		&report.CreatedAt,
		&report.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &report, nil
}

func collectReports(rows pgx.Rows) ([]Report, error) {
	defer rows.Close()

	reports := []Report{}

	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		reports = append(reports, *report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}

// loadMetrics fills Metrics on each report in extraction order.
func loadMetrics(ctx context.Context, reports []Report) error {
	if len(reports) == 0 {
		return nil
	}

	ids := make([]string, len(reports))
	index := make(map[uuid.UUID]int, len(reports))

	for i := range reports {
		ids[i] = reports[i].ID.String()
		index[reports[i].ID] = i
		reports[i].Metrics = []labs.MetricReading{}
	}

	rows, err := pool.Query(ctx, `
		SELECT report_id, metric_name, metric_value, metric_unit, normal_range, status
		FROM report_metrics
		WHERE report_id = ANY($1::uuid[])
		ORDER BY report_id, position, created_at
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to load metrics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			reportID uuid.UUID
			reading  labs.MetricReading
		)

		if err := rows.Scan(&reportID, &reading.Name, &reading.Value, &reading.Unit, &reading.NormalRange, &reading.Status); err != nil {
			return fmt.Errorf("failed to scan metric: %w", err)
		}

		i := index[reportID]
		reports[i].Metrics = append(reports[i].Metrics, reading)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating metrics: %w", err)
	}

	return nil
}

// CreateReport registers an uploaded report in the processing state.
func CreateReport(ctx context.Context, input CreateReportInput) (*Report, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	if !input.ReportType.Valid() {
		return nil, errInvalidReportType
	}

	reportDate := input.ReportDate
	if reportDate.IsZero() {
		reportDate = time.Now()
	}

	query := `
		INSERT INTO medical_reports AS r (id, user_id, report_type, report_date, file_key, file_name, file_type, status)
		VALUES (COALESCE($1, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + reportColumns

	report, err := scanReport(pool.QueryRow(ctx, query,
		input.ID, input.UserID, input.ReportType, reportDate,
		input.FileKey, input.FileName, input.FileType, ReportProcessing,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	return report, nil
}

// CompleteReport stores the analysis and its readings and marks the report
// completed. Existing readings are replaced so reprocessing is idempotent.
func CompleteReport(ctx context.Context, id uuid.UUID, input CompleteReportInput) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Failed to roll back report completion", "report_id", id, "error", err)
		}
	}()

	command, err := tx.Exec(ctx, `
		UPDATE medical_reports
		SET extracted_text = $2, ai_summary = $3, ai_explanation = $4,
		    health_score = $5, risk_level = $6, analyzer_engine = $7,
		    status = $8, failure_reason = NULL, updated_at = now()
		WHERE id = $1
	`, id, input.ExtractedText, input.Summary, input.Explanation,
		input.HealthScore, input.RiskLevel, input.AnalyzerEngine, ReportCompleted)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	if command.RowsAffected() == 0 {
		return ErrReportNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM report_metrics WHERE report_id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear metrics: %w", err)
	}

	if len(input.Readings) > 0 {
		batch := &pgx.Batch{}
		for i, r := range input.Readings {
			batch.Queue(`
				INSERT INTO report_metrics (report_id, metric_name, metric_value, metric_unit, normal_range, status, position)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, id, r.Name, r.Value, r.Unit, r.NormalRange, r.Status, i)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save metrics: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}

	return nil
}

// FailReport marks a report as failed with a reason.
func FailReport(ctx context.Context, id uuid.UUID, reason string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	command, err := pool.Exec(ctx, `
		UPDATE medical_reports
		SET status = $2, failure_reason = $3, updated_at = now()
		WHERE id = $1
	`, id, ReportFailed, reason)
	if err != nil {
		return fmt.Errorf("failed to mark report failed: %w", err)
	}

	if command.RowsAffected() == 0 {
		return ErrReportNotFound
	}

	return nil
}

// GetReport returns a report with its readings. Reports owned by another
// user are reported as not found.
func GetReport(ctx context.Context, id, userID uuid.UUID) (*Report, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	report, err := scanReport(pool.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM medical_reports r WHERE r.id = $1 AND r.user_id = $2`,
		id, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}

		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	reports := []Report{*report}
	if err := loadMetrics(ctx, reports); err != nil {
		return nil, err
	}

	return &reports[0], nil
}

// GetReportByID returns a report regardless of owner. Used by the
// background processor.
func GetReportByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	report, err := scanReport(pool.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM medical_reports r WHERE r.id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}

		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return report, nil
}

// NormalizePage clamps page and limit to the accepted ranges.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = defaultPageLimit
	}

	return page, min(limit, maxPageLimit)
}

// ListReports returns one page of a user's reports, newest report date
// first, with their readings.
func ListReports(ctx context.Context, input ListReportsInput) (*ReportPage, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	page, limit := NormalizePage(input.Page, input.Limit)

	var typeFilter *labs.ReportType
	if input.ReportType != "" {
		typeFilter = &input.ReportType
	}

	var total int
	if err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM medical_reports
		WHERE user_id = $1 AND ($2::report_type IS NULL OR report_type = $2)
	`, input.UserID, typeFilter).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}

	rows, err := pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM medical_reports r
		WHERE r.user_id = $1 AND ($2::report_type IS NULL OR r.report_type = $2)
		ORDER BY r.report_date DESC, r.id DESC
		LIMIT $3 OFFSET $4
	`, input.UserID, typeFilter, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports, err := collectReports(rows)
	if err != nil {
		return nil, err
	}

	if err := loadMetrics(ctx, reports); err != nil {
		return nil, err
	}

	return &ReportPage{
		Reports: reports,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

// DeleteReport removes a report owned by userID and returns it so the
// caller can remove the stored file.
func DeleteReport(ctx context.Context, id, userID uuid.UUID) (*Report, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	report, err := scanReport(pool.QueryRow(ctx,
		`DELETE FROM medical_reports r WHERE r.id = $1 AND r.user_id = $2 RETURNING `+reportColumns,
		id, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}

		return nil, fmt.Errorf("failed to delete report: %w", err)
	}

	return report, nil
}

// GetPreviousReport returns the most recent completed report of the same
// user and type uploaded before current, or nil when there is none. Equal
// upload times are ordered by id so the choice is stable.
func GetPreviousReport(ctx context.Context, current *Report) (*Report, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	report, err := scanReport(pool.QueryRow(ctx, `
		SELECT `+reportColumns+`
		FROM medical_reports r
		WHERE r.user_id = $1
		  AND r.report_type = $2
		  AND r.status = $3
		  AND r.id <> $4
		  AND r.created_at < $5
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT 1
	`, current.UserID, current.ReportType, ReportCompleted, current.ID, current.CreatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // The first report of a type has nothing to compare against.
		}

		return nil, fmt.Errorf("failed to get previous report: %w", err)
	}

	reports := []Report{*report}
	if err := loadMetrics(ctx, reports); err != nil {
		return nil, err
	}

	return &reports[0], nil
}

// GetCompletedSnapshots returns the user's completed reports uploaded at or
// after since, in upload order. An empty reportType matches every type.
func GetCompletedSnapshots(ctx context.Context, userID uuid.UUID, reportType labs.ReportType, since time.Time) ([]labs.Snapshot, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var typeFilter *labs.ReportType
	if reportType != "" {
		typeFilter = &reportType
	}

	rows, err := pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM medical_reports r
		WHERE r.user_id = $1
		  AND r.status = $2
		  AND ($3::report_type IS NULL OR r.report_type = $3)
		  AND r.created_at >= $4
		ORDER BY r.created_at ASC, r.id ASC
	`, userID, ReportCompleted, typeFilter, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed reports: %w", err)
	}

	reports, err := collectReports(rows)
	if err != nil {
		return nil, err
	}

	if err := loadMetrics(ctx, reports); err != nil {
		return nil, err
	}

	snapshots := make([]labs.Snapshot, 0, len(reports))
	for _, r := range reports {
		snapshots = append(snapshots, r.Snapshot())
	}

	return snapshots, nil
}

// GetMetricHistory returns one snapshot per completed report that has a
// reading named metricName, each holding only those readings.
func GetMetricHistory(ctx context.Context, userID uuid.UUID, metricName string, since time.Time) ([]labs.Snapshot, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT r.id, r.report_type, r.report_date, r.created_at,
		       m.metric_name, m.metric_value, m.metric_unit, m.normal_range, m.status
		FROM medical_reports r
		INNER JOIN report_metrics m ON m.report_id = r.id
		WHERE r.user_id = $1
		  AND r.status = $2
		  AND m.metric_name = $3
		  AND r.created_at >= $4
		ORDER BY r.created_at ASC, r.id ASC, m.position ASC
	`, userID, ReportCompleted, metricName, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get metric history: %w", err)
	}
	defer rows.Close()

	history := []labs.Snapshot{}

	for rows.Next() {
		var (
			id      uuid.UUID
			snap    labs.Snapshot
			reading labs.MetricReading
		)

		if err := rows.Scan(
			&id, &snap.ReportType, &snap.ReportDate, &snap.CreatedAt,
			&reading.Name, &reading.Value, &reading.Unit, &reading.NormalRange, &reading.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metric history: %w", err)
		}

		snap.ReportID = id.String()

		if n := len(history); n > 0 && history[n-1].ReportID == snap.ReportID {
			history[n-1].Readings = append(history[n-1].Readings, reading)
			continue
		}

		snap.Readings = []labs.MetricReading{reading}
		history = append(history, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metric history: %w", err)
	}

	return history, nil
}

// ListProcessingReports returns reports still waiting for analysis, oldest
// first.
func ListProcessingReports(ctx context.Context) ([]Report, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM medical_reports r
		WHERE r.status = $1
		ORDER BY r.created_at ASC, r.id ASC
	`, ReportProcessing)
	if err != nil {
		return nil, fmt.Errorf("failed to list processing reports: %w", err)
	}

	return collectReports(rows)
}
