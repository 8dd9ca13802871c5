/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package processor

import (
	"context"

	"github.com/google/uuid"

	"github.com/humaidq/labwise/db"
)

// ReportStore is the persistence the pipeline needs.
type ReportStore interface {
	GetReportByID(ctx context.Context, id uuid.UUID) (*db.Report, error)
	CompleteReport(ctx context.Context, id uuid.UUID, input db.CompleteReportInput) error
	FailReport(ctx context.Context, id uuid.UUID, reason string) error
	GetUserByID(ctx context.Context, id string) (*db.User, error)
	ListProcessingReports(ctx context.Context) ([]db.Report, error)
}

// DBReports is the ReportStore backed by the db package.
type DBReports struct{}

func (DBReports) GetReportByID(ctx context.Context, id uuid.UUID) (*db.Report, error) {
	return db.GetReportByID(ctx, id)
}

func (DBReports) CompleteReport(ctx context.Context, id uuid.UUID, input db.CompleteReportInput) error {
	return db.CompleteReport(ctx, id, input)
}

func (DBReports) FailReport(ctx context.Context, id uuid.UUID, reason string) error {
	return db.FailReport(ctx, id, reason)
}

func (DBReports) GetUserByID(ctx context.Context, id string) (*db.User, error) {
	return db.GetUserByID(ctx, id)
}

func (DBReports) ListProcessingReports(ctx context.Context) ([]db.Report, error) {
	return db.ListProcessingReports(ctx)
}
