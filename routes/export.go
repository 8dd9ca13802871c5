/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/flamego/flamego"
	"github.com/xuri/excelize/v2"

	"github.com/humaidq/labwise/labs"
)

const (
	readingsSheet = "Readings"
	trendsSheet   = "Trends"
)

var (
	readingHeaders = []string{"Report ID", "Report Type", "Report Date", "Metric", "Name", "Value", "Unit", "Normal Range", "Status"}
	trendHeaders   = []string{"Metric", "Name", "Unit", "Readings", "Average", "Latest", "Latest Status", "Direction"}
)

// ExportReadings downloads every reading of the caller's completed reports
// as a spreadsheet.
func ExportReadings(c flamego.Context, u AuthUser, svc *Services) {
	history, err := getCompletedSnapshotsFn(c.Request().Context(), u.ID, "", time.Time{})
	if err != nil {
		writeInternalError(c, "failed to load readings", err)
		return
	}

	data, err := buildReadingsWorkbook(history)
	if err != nil {
		writeInternalError(c, "failed to build spreadsheet", err)
		return
	}

	filename := fmt.Sprintf("labwise-readings-%s.xlsx", svc.now().Format(time.DateOnly))

	header := c.ResponseWriter().Header()
	header.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.ResponseWriter().WriteHeader(http.StatusOK)
	_, _ = c.ResponseWriter().Write(data)
}

func buildReadingsWorkbook(history []labs.Snapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", readingsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	if _, err := f.NewSheet(trendsSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	var rows [][]interface{}

	for _, snap := range history {
		for _, r := range snap.Readings {
			var value interface{} = r.Value
			if v, ok := r.Numeric(); ok {
				value = v
			}

			rows = append(rows, []interface{}{
				snap.ReportID,
				snap.ReportType.Name(),
				snap.ReportDate.Format(time.DateOnly),
				r.Name,
				labs.DisplayName(r.Name),
				value,
				r.Unit,
				r.NormalRange,
				string(r.Status),
			})
		}
	}

	if err := writeSheet(f, readingsSheet, readingHeaders, rows, headerStyle); err != nil {
		return nil, err
	}

	rows = rows[:0]

	for _, t := range labs.Trends(history) {
		rows = append(rows, []interface{}{
			t.MetricName,
			t.DisplayName,
			t.Unit,
			t.TotalReadings,
			t.AverageValue,
			t.LatestValue,
			string(t.LatestStatus),
			string(t.TrendDirection),
		})
	}

	if err := writeSheet(f, trendsSheet, trendHeaders, rows, headerStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write spreadsheet: %w", err)
	}

	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle int) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}

	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}

		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return fmt.Errorf("failed to convert column number: %w", err)
	}

	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
