/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"net/http"
	"strconv"

	"github.com/flamego/flamego"
	"github.com/google/uuid"

	"github.com/humaidq/labwise/cache"
	"github.com/humaidq/labwise/db"
)

var (
	getDashboardFn = db.GetDashboard
	getStatsFn     = db.GetStats
)

// Dashboard returns the caller's health overview.
func Dashboard(c flamego.Context, u AuthUser, svc *Services) {
	ctx := c.Request().Context()
	key := cache.UserKey(u.ID.String(), "dashboard")

	var dash db.Dashboard
	if cachedJSON(ctx, svc, key, &dash) {
		writeJSON(c, http.StatusOK, dash)
		return
	}

	fresh, err := getDashboardFn(ctx, u.ID, svc.now())
	if err != nil {
		writeInternalError(c, "failed to load dashboard", err)
		return
	}

	storeJSON(ctx, svc, key, fresh)
	writeJSON(c, http.StatusOK, fresh)
}

// DashboardStats summarises the caller's reports over the last months.
func DashboardStats(c flamego.Context, u AuthUser, svc *Services) {
	months, ok := queryInt(c.Query("months"), defaultTrendMonths, 1, maxTrendMonths)
	if !ok {
		writeError(c, http.StatusBadRequest, "months must be between 1 and 24")
		return
	}

	ctx := c.Request().Context()
	key := cache.UserKey(u.ID.String(), "stats", strconv.Itoa(months))

	var stats db.Stats
	if cachedJSON(ctx, svc, key, &stats) {
		writeJSON(c, http.StatusOK, stats)
		return
	}

	fresh, err := getStatsFn(ctx, u.ID, months, svc.now())
	if err != nil {
		writeInternalError(c, "failed to load stats", err)
		return
	}

	storeJSON(ctx, svc, key, fresh)
	writeJSON(c, http.StatusOK, fresh)
}

// cachedJSON loads key into dest. Cache failures count as misses.
func cachedJSON(ctx context.Context, svc *Services, key string, dest any) bool {
	hit, err := svc.Cache.GetJSON(ctx, key, dest)
	if err != nil {
		logger.Warn("Cache read failed", "key", key, "error", err)
		return false
	}

	return hit
}

func storeJSON(ctx context.Context, svc *Services, key string, value any) {
	if err := svc.Cache.SetJSON(ctx, key, value); err != nil {
		logger.Warn("Cache write failed", "key", key, "error", err)
	}
}

func invalidateUserCache(ctx context.Context, svc *Services, userID uuid.UUID) {
	if err := svc.Cache.InvalidateUser(ctx, userID.String()); err != nil {
		logger.Warn("Cache invalidation failed", "user_id", userID, "error", err)
	}
}
