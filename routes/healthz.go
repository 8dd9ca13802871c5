/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/flamego/flamego"

	"github.com/humaidq/labwise/db"
)

const healthCheckTimeout = 2 * time.Second

var pingDatabaseFn = db.Ping

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// Healthz reports whether the database and cache are reachable.
func Healthz(c flamego.Context, svc *Services) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Database: "ok", Cache: "disabled"}
	status := http.StatusOK

	if err := pingDatabaseFn(ctx); err != nil {
		logger.Warn("Database health check failed", "error", err)

		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if svc.Cache != nil {
		resp.Cache = "ok"

		// Cache failures degrade the report but keep the 200.
		if err := svc.Cache.Ping(ctx); err != nil {
			logger.Warn("Cache health check failed", "error", err)

			resp.Status = "degraded"
			resp.Cache = "unreachable"
		}
	}

	writeJSON(c, status, resp)
}
