// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/labwise/labs"
)

func testContext() context.Context {
	return context.Background()
}

func mustCreateUser(t *testing.T, displayName string) *User {
	t.Helper()

	user, err := CreateUser(testContext(), CreateUserInput{
		Email:       fmt.Sprintf("%s-%s@example.com", displayName, uuid.NewString()[:8]),
		DisplayName: displayName,
		Password:    "correct horse battery",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

func mustCreateReport(t *testing.T, userID uuid.UUID, rt labs.ReportType, reportDate time.Time) *Report {
	t.Helper()

	report, err := CreateReport(testContext(), CreateReportInput{
		UserID:     userID,
		ReportType: rt,
		ReportDate: reportDate,
		FileKey:    fmt.Sprintf("%s/%s.txt", userID, uuid.NewString()),
		FileName:   "report.txt",
		FileType:   "txt",
	})
	if err != nil {
		t.Fatalf("failed to create report: %v", err)
	}

	return report
}

func mustCompleteReport(t *testing.T, id uuid.UUID, readings ...labs.MetricReading) {
	t.Helper()

	if err := CompleteReport(testContext(), id, CompleteReportInput{
		ExtractedText:  "text",
		Summary:        "summary",
		Explanation:    "explanation",
		HealthScore:    labs.AnalysisScore(readings),
		RiskLevel:      string(labs.RiskLevel(readings)),
		AnalyzerEngine: "heuristic",
		Readings:       readings,
	}); err != nil {
		t.Fatalf("failed to complete report: %v", err)
	}
}

// setCreatedAt pins created_at so ordering tests do not depend on clock
// resolution.
func setCreatedAt(t *testing.T, id uuid.UUID, at time.Time) {
	t.Helper()

	if _, err := pool.Exec(testContext(), `UPDATE medical_reports SET created_at = $2 WHERE id = $1`, id, at); err != nil {
		t.Fatalf("failed to set created_at: %v", err)
	}
}

func reading(name, value string, status labs.Status) labs.MetricReading {
	return labs.MetricReading{Name: name, Value: value, Unit: "g/dL", NormalRange: "13.5-17.5", Status: status}
}
