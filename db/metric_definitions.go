/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"

	"github.com/humaidq/labwise/labs"
)

// SyncMetricDefinitions upserts the threshold table from labs into the
// metric_definitions table. Called after every migration run so the
// database always matches the running binary.
func SyncMetricDefinitions(ctx context.Context) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	definitions := labs.Definitions()
	logger.Infof("Syncing %d metric definitions to database...", len(definitions))

	query := `
		INSERT INTO metric_definitions (metric_name, display_name, unit, report_type, reference_min, reference_max, normal_range)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (metric_name)
		DO UPDATE SET
			display_name = EXCLUDED.display_name,
			unit = EXCLUDED.unit,
			report_type = EXCLUDED.report_type,
			reference_min = EXCLUDED.reference_min,
			reference_max = EXCLUDED.reference_max,
			normal_range = EXCLUDED.normal_range,
			updated_at = now()
	`

	for _, def := range definitions {
		lower, upper := def.ReferenceBounds()

		if _, err := pool.Exec(ctx, query,
			def.Name, def.DisplayName, def.Unit, def.ReportType,
			lower, upper, def.NormalRange,
		); err != nil {
			return fmt.Errorf("failed to sync metric definition %s: %w", def.Name, err)
		}
	}

	logger.Infof("Successfully synced %d metric definitions", len(definitions))

	return nil
}

// ListMetricDefinitions returns the stored metric definitions grouped by
// report type.
func ListMetricDefinitions(ctx context.Context) ([]MetricDefinition, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT metric_name, display_name, unit, report_type, reference_min, reference_max, normal_range, updated_at
		FROM metric_definitions
		ORDER BY report_type, metric_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list metric definitions: %w", err)
	}
	defer rows.Close()

	var defs []MetricDefinition

	for rows.Next() {
		var d MetricDefinition
		if err := rows.Scan(
			&d.MetricName, &d.DisplayName, &d.Unit, &d.ReportType,
			&d.ReferenceMin, &d.ReferenceMax, &d.NormalRange, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metric definition: %w", err)
		}

		defs = append(defs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metric definitions: %w", err)
	}

	return defs, nil
}
