/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

var (
	errSessionUserMissing = errors.New("session user missing")
	errJWTSecretRequired  = errors.New("JWT secret is required")
	errInvalidToken       = errors.New("invalid token")
	errInvalidDate        = errors.New("invalid date")
	errDateOutOfRange     = errors.New("date out of range")
	errNoChartData        = errors.New("no data for metric")
)
