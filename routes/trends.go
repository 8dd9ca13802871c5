/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/flamego/flamego"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/google/uuid"

	"github.com/humaidq/labwise/cache"
	"github.com/humaidq/labwise/db"
	"github.com/humaidq/labwise/labs"
)

const (
	defaultTrendMonths = 6
	maxTrendMonths     = 24
)

var (
	getCompletedSnapshotsFn = db.GetCompletedSnapshots
	getMetricHistoryFn      = db.GetMetricHistory
)

type allTrendsResponse struct {
	UserID       uuid.UUID           `json:"user_id"`
	ReportType   string              `json:"report_type"`
	TotalReports int                 `json:"total_reports"`
	Metrics      []labs.TrendSummary `json:"metrics"`
}

// AllTrends aggregates every metric of the caller's completed reports.
func AllTrends(c flamego.Context, u AuthUser, svc *Services) {
	reportType := labs.ReportType(strings.TrimSpace(c.Query("report_type")))
	if reportType != "" && !reportType.Valid() {
		writeError(c, http.StatusBadRequest, "report_type must be one of: "+reportTypeList())
		return
	}

	months, ok := queryInt(c.Query("months"), defaultTrendMonths, 1, maxTrendMonths)
	if !ok {
		writeError(c, http.StatusBadRequest, "Months must be between 1 and 24")
		return
	}

	label := string(reportType)
	if label == "" {
		label = "all"
	}

	ctx := c.Request().Context()
	key := cache.UserKey(u.ID.String(), "trends", label, strconv.Itoa(months))

	var resp allTrendsResponse
	if cachedJSON(ctx, svc, key, &resp) {
		writeJSON(c, http.StatusOK, resp)
		return
	}

	history, err := getCompletedSnapshotsFn(ctx, u.ID, reportType, db.MonthsAgo(svc.now(), months))
	if err != nil {
		writeInternalError(c, "failed to load trends", err)
		return
	}

	resp = allTrendsResponse{
		UserID:       u.ID,
		ReportType:   label,
		TotalReports: len(history),
		Metrics:      labs.Trends(history),
	}
	if resp.Metrics == nil {
		resp.Metrics = []labs.TrendSummary{}
	}

	storeJSON(ctx, svc, key, resp)
	writeJSON(c, http.StatusOK, resp)
}

// MetricTrend returns every reading of one metric in the window.
func MetricTrend(c flamego.Context, u AuthUser, svc *Services) {
	series, ok := loadSeries(c, u, svc)
	if !ok {
		return
	}

	writeJSON(c, http.StatusOK, series)
}

// MetricTrendChart renders one metric as an HTML line chart with the
// reference band drawn as mark lines.
func MetricTrendChart(c flamego.Context, u AuthUser, svc *Services) {
	series, ok := loadSeries(c, u, svc)
	if !ok {
		return
	}

	html, err := renderTrendChart(series)
	if err != nil {
		if errors.Is(err, errNoChartData) {
			writeError(c, http.StatusNotFound, "no numeric readings for "+series.MetricName)
			return
		}

		writeInternalError(c, "failed to render chart", err)

		return
	}

	c.ResponseWriter().Header().Set("Content-Type", "text/html; charset=utf-8")
	c.ResponseWriter().WriteHeader(http.StatusOK)
	_, _ = c.ResponseWriter().Write(html)
}

func loadSeries(c flamego.Context, u AuthUser, svc *Services) (labs.MetricSeries, bool) {
	name := strings.TrimSpace(c.Query("metric_name"))
	if name == "" {
		writeError(c, http.StatusBadRequest, "metric_name is required")
		return labs.MetricSeries{}, false
	}

	months, ok := queryInt(c.Query("months"), defaultTrendMonths, 1, maxTrendMonths)
	if !ok {
		writeError(c, http.StatusBadRequest, "Months must be between 1 and 24")
		return labs.MetricSeries{}, false
	}

	history, err := getMetricHistoryFn(c.Request().Context(), u.ID, name, db.MonthsAgo(svc.now(), months))
	if err != nil {
		writeInternalError(c, "failed to load metric history", err)
		return labs.MetricSeries{}, false
	}

	return labs.Series(history, name), true
}

func renderTrendChart(series labs.MetricSeries) ([]byte, error) {
	xAxis := make([]string, 0, len(series.DataPoints))
	yData := make([]opts.LineData, 0, len(series.DataPoints))

	var (
		unit             string
		dataMin, dataMax float64
	)

	for _, point := range series.DataPoints {
		value, ok := labs.ParseValue(point.Value)
		if !ok {
			continue
		}

		if len(yData) == 0 {
			dataMin, dataMax = value, value
		}

		dataMin = min(dataMin, value)
		dataMax = max(dataMax, value)

		if unit == "" {
			unit = point.Unit
		}

		xAxis = append(xAxis, point.ReportDate.Format("Jan 2, 2006"))
		yData = append(yData, opts.LineData{Value: value})
	}

	if len(yData) == 0 {
		return nil, errNoChartData
	}

	var (
		refMin, refMax     *float64
		yAxisMin, yAxisMax interface{}
	)

	if def, ok := labs.LookupDefinition(series.MetricName); ok {
		refMin, refMax = def.ReferenceBounds()
	}

	if refMin != nil && refMax != nil {
		padding := (*refMax - *refMin) * 0.1
		lo := min(*refMin-padding, dataMin-(dataMax-dataMin)*0.05)
		hi := max(*refMax+padding, dataMax+(dataMax-dataMin)*0.05)
		yAxisMin, yAxisMax = lo, hi
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: series.DisplayName,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: unit,
			Min:  yAxisMin,
			Max:  yAxisMax,
		}),
	)

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(true),
		}),
		charts.WithMarkPointNameTypeItemOpts(
			opts.MarkPointNameTypeItem{Name: "Max", Type: "max"},
			opts.MarkPointNameTypeItem{Name: "Min", Type: "min"},
		),
	}

	var markLineItems []interface{}
	if refMin != nil {
		markLineItems = append(markLineItems, opts.MarkLineNameYAxisItem{Name: "Ref Min", YAxis: *refMin})
	}

	if refMax != nil {
		markLineItems = append(markLineItems, opts.MarkLineNameYAxisItem{Name: "Ref Max", YAxis: *refMax})
	}

	if len(markLineItems) > 0 {
		seriesOpts = append(seriesOpts, func(s *charts.SingleSeries) {
			s.MarkLines = &opts.MarkLines{
				Data: markLineItems,
				MarkLineStyle: opts.MarkLineStyle{
					Symbol: []string{"none", "none"},
					LineStyle: &opts.LineStyle{
						Color: "rgba(128, 128, 128, 0.6)",
						Type:  "dashed",
						Width: 1.5,
					},
				},
			}
		})
	}

	line.SetXAxis(xAxis).
		AddSeries(series.DisplayName, yData).
		SetSeriesOptions(seriesOpts...)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
