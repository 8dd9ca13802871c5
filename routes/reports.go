/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/google/uuid"

	"github.com/humaidq/labwise/db"
	"github.com/humaidq/labwise/labs"
	"github.com/humaidq/labwise/processor"
	"github.com/humaidq/labwise/storage"
	"github.com/humaidq/labwise/textextract"
)

const (
	maxListLimit     = 100
	uploadFormMemory = 8 << 20
)

var (
	createReportFn      = db.CreateReport
	listReportsFn       = db.ListReports
	getReportFn         = db.GetReport
	deleteReportFn      = db.DeleteReport
	getPreviousReportFn = db.GetPreviousReport

	listMetricDefinitionsFn = db.ListMetricDefinitions
)

type uploadResponse struct {
	Report  *db.Report `json:"report"`
	Message string     `json:"message"`
}

type reportDetailResponse struct {
	Report          *db.Report            `json:"report"`
	Recommendations []labs.Advice         `json:"recommendations"`
	FollowUp        labs.FollowUpSchedule `json:"follow_up"`
}

type comparisonResponse struct {
	Message        string           `json:"message,omitempty"`
	CurrentReport  *db.Report       `json:"current_report"`
	PreviousReport *db.Report       `json:"previous_report,omitempty"`
	Comparison     *labs.Comparison `json:"comparison,omitempty"`
}

// ReportTypes lists the supported report types.
func ReportTypes(c flamego.Context) {
	writeJSON(c, http.StatusOK, map[string]any{"report_types": labs.ReportTypeCatalog()})
}

// MetricDefinitions lists the reference ranges the server classifies with.
func MetricDefinitions(c flamego.Context) {
	defs, err := listMetricDefinitionsFn(c.Request().Context())
	if err != nil {
		writeInternalError(c, "failed to list metric definitions", err)
		return
	}

	if defs == nil {
		defs = []db.MetricDefinition{}
	}

	writeJSON(c, http.StatusOK, map[string]any{"metrics": defs})
}

// UploadReport stores an uploaded file, registers it as processing and
// queues it for analysis.
func UploadReport(c flamego.Context, u AuthUser, svc *Services) {
	r := c.Request().Request
	r.Body = http.MaxBytesReader(c.ResponseWriter(), r.Body, svc.maxUploadSize()+uploadFormMemory)

	if err := r.ParseMultipartForm(uploadFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}

		writeError(c, http.StatusBadRequest, "invalid multipart form")

		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	reportType := labs.ReportType(strings.TrimSpace(r.FormValue("report_type")))
	if !reportType.Valid() {
		writeError(c, http.StatusBadRequest, "report_type must be one of: "+reportTypeList())
		return
	}

	reportDate, err := parseReportDate(r.FormValue("report_date"), svc.now())
	if err != nil {
		writeError(c, http.StatusBadRequest, "report_date must be a unix timestamp in milliseconds or an RFC 3339 date")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Size > svc.maxUploadSize() {
		writeError(c, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}

	fileType := textextract.FileTypeFromName(header.Filename)
	if fileType == "" {
		fileType = textextract.FileTypeFromMIME(header.Header.Get("Content-Type"))
	}

	if fileType == "" {
		fileType = "txt"
	}

	ctx := c.Request().Context()
	reportID := uuid.New()
	key := storage.Key(u.ID, reportID, fileType)

	if _, err := svc.Store.Save(ctx, key, file, header.Size); err != nil {
		writeInternalError(c, "failed to store upload", err)
		return
	}

	report, err := createReportFn(ctx, db.CreateReportInput{
		ID:         &reportID,
		UserID:     u.ID,
		ReportType: reportType,
		ReportDate: reportDate,
		FileKey:    key,
		FileName:   filepath.Base(header.Filename),
		FileType:   fileType,
	})
	if err != nil {
		removeStoredFile(ctx, svc, key)
		writeInternalError(c, "failed to create report", err)

		return
	}

	if err := svc.Jobs.Submit(processor.Job{ReportID: report.ID}); err != nil {
		// Nothing will pick the report up until the next restart, so undo
		// the upload and let the client retry.
		if _, delErr := deleteReportFn(ctx, report.ID, u.ID); delErr != nil {
			logger.Error("Failed to roll back report", "report_id", report.ID, "error", delErr)
		}

		removeStoredFile(ctx, svc, key)

		if errors.Is(err, processor.ErrQueueFull) {
			writeError(c, http.StatusServiceUnavailable, "processing queue is full, try again later")
			return
		}

		writeInternalError(c, "failed to queue report", err)

		return
	}

	invalidateUserCache(ctx, svc, u.ID)

	logger.Info("Report uploaded",
		"report_id", report.ID,
		"user_id", u.ID,
		"report_type", reportType,
		"file_type", fileType,
		"size", header.Size,
	)

	writeJSON(c, http.StatusCreated, uploadResponse{
		Report:  report,
		Message: "Report uploaded successfully. Processing in background.",
	})
}

// ListReports returns one page of the caller's reports.
func ListReports(c flamego.Context, u AuthUser) {
	query := c.Request().URL.Query()

	page, ok := queryInt(query.Get("page"), 1, 1, 0)
	if !ok {
		writeError(c, http.StatusBadRequest, "page must be a positive integer")
		return
	}

	limit, ok := queryInt(query.Get("limit"), 10, 1, maxListLimit)
	if !ok {
		writeError(c, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}

	reportType := labs.ReportType(strings.TrimSpace(query.Get("report_type")))
	if reportType != "" && !reportType.Valid() {
		writeError(c, http.StatusBadRequest, "report_type must be one of: "+reportTypeList())
		return
	}

	result, err := listReportsFn(c.Request().Context(), db.ListReportsInput{
		UserID:     u.ID,
		Page:       page,
		Limit:      limit,
		ReportType: reportType,
	})
	if err != nil {
		writeInternalError(c, "failed to list reports", err)
		return
	}

	writeJSON(c, http.StatusOK, result)
}

// GetReport returns one report with its recommendations and follow-up.
func GetReport(c flamego.Context, u AuthUser) {
	report, ok := loadOwnedReport(c, u)
	if !ok {
		return
	}

	writeJSON(c, http.StatusOK, reportDetailResponse{
		Report:          report,
		Recommendations: labs.Recommend(report.ReportType, report.Metrics),
		FollowUp:        labs.FollowUp(report.ReportType, report.Metrics),
	})
}

// CompareReport compares a report with the previous completed report of the
// same type.
func CompareReport(c flamego.Context, u AuthUser) {
	current, ok := loadOwnedReport(c, u)
	if !ok {
		return
	}

	previous, err := getPreviousReportFn(c.Request().Context(), current)
	if err != nil {
		writeInternalError(c, "failed to load previous report", err)
		return
	}

	if previous == nil {
		writeJSON(c, http.StatusOK, comparisonResponse{
			Message:       "No previous report found for comparison",
			CurrentReport: current,
		})

		return
	}

	comparison := labs.CompareSnapshots(previous.Snapshot(), current.Snapshot())

	writeJSON(c, http.StatusOK, comparisonResponse{
		CurrentReport:  current,
		PreviousReport: previous,
		Comparison:     &comparison,
	})
}

// ReportFile streams the original upload of a report.
func ReportFile(c flamego.Context, u AuthUser, svc *Services) {
	report, ok := loadOwnedReport(c, u)
	if !ok {
		return
	}

	rc, err := svc.Store.Open(c.Request().Context(), report.FileKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			writeError(c, http.StatusNotFound, "report file not found")
			return
		}

		writeInternalError(c, "failed to open report file", err)

		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension("." + report.FileType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := c.ResponseWriter().Header()
	header.Set("Content-Type", contentType)
	header.Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": report.FileName}))
	c.ResponseWriter().WriteHeader(http.StatusOK)

	if _, err := io.Copy(c.ResponseWriter(), rc); err != nil {
		logger.Warn("Failed to stream report file", "report_id", report.ID, "error", err)
	}
}

// DeleteReport removes a report, its readings and its stored file.
func DeleteReport(c flamego.Context, u AuthUser, svc *Services) {
	reportID, ok := parseReportID(c)
	if !ok {
		return
	}

	ctx := c.Request().Context()

	report, err := deleteReportFn(ctx, reportID, u.ID)
	if err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			writeError(c, http.StatusNotFound, "Report not found or does not belong to this user")
			return
		}

		writeInternalError(c, "failed to delete report", err)

		return
	}

	removeStoredFile(ctx, svc, report.FileKey)
	invalidateUserCache(ctx, svc, u.ID)

	logger.Info("Report deleted", "report_id", report.ID, "user_id", u.ID)
	writeJSON(c, http.StatusOK, messageResponse{Message: "Report deleted successfully"})
}

func parseReportID(c flamego.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("reportId"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "Invalid report ID")
		return uuid.Nil, false
	}

	return id, true
}

func loadOwnedReport(c flamego.Context, u AuthUser) (*db.Report, bool) {
	reportID, ok := parseReportID(c)
	if !ok {
		return nil, false
	}

	report, err := getReportFn(c.Request().Context(), reportID, u.ID)
	if err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			writeError(c, http.StatusNotFound, "Report not found or does not belong to this user")
			return nil, false
		}

		writeInternalError(c, "failed to load report", err)

		return nil, false
	}

	return report, true
}

func removeStoredFile(ctx context.Context, svc *Services, key string) {
	if err := svc.Store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		logger.Warn("Failed to remove stored file", "key", key, "error", err)
	}
}

// parseReportDate accepts unix milliseconds, RFC 3339 or a plain date. An
// empty value means now.
func parseReportDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, nil
	}

	var date time.Time

	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		date = time.UnixMilli(ms).UTC()
	} else if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		date = parsed
	} else if parsed, err := time.Parse(time.DateOnly, raw); err == nil {
		date = parsed
	} else {
		return time.Time{}, errInvalidDate
	}

	if date.Year() < 1900 || date.After(now.Add(24*time.Hour)) {
		return time.Time{}, errDateOutOfRange
	}

	return date, nil
}

// queryInt parses an optional integer query value. A zero maximum means
// unbounded.
func queryInt(raw string, fallback, minimum, maximum int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, true
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < minimum || (maximum > 0 && v > maximum) {
		return 0, false
	}

	return v, true
}

func reportTypeList() string {
	types := labs.ReportTypes()
	names := make([]string, 0, len(types))

	for _, rt := range types {
		names = append(names, string(rt))
	}

	return strings.Join(names, ", ")
}
