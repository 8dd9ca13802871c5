/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "github.com/flamego/flamego"

// Mount registers the API on f. Session, CSRF and *Services must already be
// available for injection.
func Mount(f *flamego.Flame) {
	f.Get("/healthz", Healthz)
	f.Get("/api/csrf", CSRFToken)
	f.Post("/api/auth/login", Login)
	f.Post("/api/auth/logout", Logout)
	f.Get("/api/medical-reports/types", ReportTypes)
	f.Get("/api/medical-reports/metrics", MetricDefinitions)

	f.Group("/api", func() {
		f.Post("/medical-reports/upload", UploadReport)
		f.Get("/medical-reports", ListReports)
		f.Get("/medical-reports/trends/all", AllTrends)
		f.Get("/medical-reports/trends/data", MetricTrend)
		f.Get("/medical-reports/trends/chart", MetricTrendChart)
		f.Get("/medical-reports/export.xlsx", ExportReadings)
		f.Get("/medical-reports/{reportId}", GetReport)
		f.Get("/medical-reports/{reportId}/compare", CompareReport)
		f.Get("/medical-reports/{reportId}/file", ReportFile)
		f.Delete("/medical-reports/{reportId}", DeleteReport)

		f.Get("/dashboard", Dashboard)
		f.Get("/dashboard/stats", DashboardStats)

		f.Post("/devices", RegisterDevice)
		f.Delete("/devices", UnregisterDevice)
		f.Put("/profile/phone", UpdatePhone)
	}, RequireAuth)

	f.Group("/api/whatsapp", func() {
		f.Get("/status", WhatsAppStatus)
		f.Post("/connect", WhatsAppConnect)
		f.Post("/disconnect", WhatsAppDisconnect)
	}, RequireAuth, RequireAdmin)

	f.NotFound(NotFound)
}
