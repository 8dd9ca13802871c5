/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "errors"

var (
	ErrDatabaseConnectionNotInitialized = errors.New("database connection not initialized")
	ErrDatabaseURLEnvVarNotSet          = errors.New("DATABASE_URL environment variable is not set")
	ErrDatabaseNameNotSpecified         = errors.New("database name not specified in DATABASE_URL")

	// ErrReportNotFound is returned when a report does not exist or belongs
	// to another user.
	ErrReportNotFound = errors.New("report not found")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned by AuthenticateUser for unknown
	// emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when creating a user with an existing email.
	ErrEmailTaken = errors.New("email already registered")

	errEmailRequired        = errors.New("email is required")
	errDisplayNameRequired  = errors.New("display name is required")
	errPasswordTooShort     = errors.New("password must be at least 8 characters")
	errInvalidReportType    = errors.New("invalid report type")
	errTokenRequired        = errors.New("fcm token is required")
	errInvalidSessionConfig = errors.New("invalid PostgresSessionConfig")
)
