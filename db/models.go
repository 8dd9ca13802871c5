/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/labwise/labs"
)

// ReportStatus is the processing state of an uploaded report.
type ReportStatus string

const (
	ReportProcessing ReportStatus = "processing"
	ReportCompleted  ReportStatus = "completed"
	ReportFailed     ReportStatus = "failed"
)

// User represents an account that owns medical reports.
type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	DisplayName   string    `db:"display_name" json:"display_name"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	WhatsAppOptIn bool      `db:"whatsapp_opt_in" json:"whatsapp_opt_in"`
	IsAdmin       bool      `db:"is_admin" json:"is_admin"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Report is a stored medical report. Metrics is only populated by queries
// that load them.
type Report struct {
	ID             uuid.UUID            `db:"id" json:"id"`
	UserID         uuid.UUID            `db:"user_id" json:"user_id"`
	ReportType     labs.ReportType      `db:"report_type" json:"report_type"`
	ReportDate     time.Time            `db:"report_date" json:"report_date"`
	FileKey        string               `db:"file_key" json:"-"`
	FileName       string               `db:"file_name" json:"file_name"`
	FileType       string               `db:"file_type" json:"file_type"`
	ExtractedText  *string              `db:"extracted_text" json:"extracted_text,omitempty"`
	AISummary      *string              `db:"ai_summary" json:"ai_summary,omitempty"`
	AIExplanation  *string              `db:"ai_explanation" json:"ai_explanation,omitempty"`
	HealthScore    *int                 `db:"health_score" json:"health_score,omitempty"`
	RiskLevel      *string              `db:"risk_level" json:"risk_level,omitempty"`
	AnalyzerEngine *string              `db:"analyzer_engine" json:"analyzer_engine,omitempty"`
	Status         ReportStatus         `db:"status" json:"status"`
	FailureReason  *string              `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt      time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `db:"updated_at" json:"updated_at"`
	Metrics        []labs.MetricReading `json:"metrics,omitempty"`
}

// Snapshot converts a report with loaded metrics into the analysis input.
func (r Report) Snapshot() labs.Snapshot {
	return labs.Snapshot{
		ReportID:   r.ID.String(),
		ReportType: r.ReportType,
		ReportDate: r.ReportDate,
		CreatedAt:  r.CreatedAt,
		Readings:   r.Metrics,
	}
}

// CreateReportInput defines data for registering a freshly uploaded report.
type CreateReportInput struct {
	ID         *uuid.UUID
	UserID     uuid.UUID
	ReportType labs.ReportType
	ReportDate time.Time
	FileKey    string
	FileName   string
	FileType   string
}

// CompleteReportInput holds the analysis results written when processing
// succeeds.
type CompleteReportInput struct {
	ExtractedText  string
	Summary        string
	Explanation    string
	HealthScore    int
	RiskLevel      string
	AnalyzerEngine string
	Readings       []labs.MetricReading
}

// ListReportsInput filters and paginates a user's reports.
type ListReportsInput struct {
	UserID     uuid.UUID
	Page       int
	Limit      int
	ReportType labs.ReportType
}

// ReportPage is one page of a user's reports.
type ReportPage struct {
	Reports    []Report   `json:"reports"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes the position of a ReportPage.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// FCMToken is a push notification registration for one device.
type FCMToken struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	Token      string    `db:"fcm_token" json:"fcm_token"`
	DeviceType string    `db:"device_type" json:"device_type"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// MetricDefinition is the database copy of a labs.Definition.
type MetricDefinition struct {
	MetricName   string          `db:"metric_name" json:"metric_name"`
	DisplayName  string          `db:"display_name" json:"display_name"`
	Unit         string          `db:"unit" json:"unit"`
	ReportType   labs.ReportType `db:"report_type" json:"report_type"`
	ReferenceMin *float64        `db:"reference_min" json:"reference_min,omitempty"`
	ReferenceMax *float64        `db:"reference_max" json:"reference_max,omitempty"`
	NormalRange  string          `db:"normal_range" json:"normal_range"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
