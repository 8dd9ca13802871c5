/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "errors"

var (
	errDatabaseURLRequired   = errors.New("database-url is required (set via --database-url or DATABASE_URL env var)")
	errMigrationNameRequired = errors.New("migration name is required")
	errCSRFSecretRequired    = errors.New("CSRF_SECRET is required")
	errJWTSecretRequired     = errors.New("JWT_SECRET is required")
	errInvalidRuntimeEnv     = errors.New(runtimeEnvVar + " must be one of: development, dev, production, prod")
	errInvalidReportType     = errors.New("report type must be one of: cbc, sugar, lipid_profile")
	errFileRequired          = errors.New("a report file is required")
	errUserIDRequired        = errors.New("user id is required")
)
