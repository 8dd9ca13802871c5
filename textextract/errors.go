/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package textextract

import "errors"

var (
	// ErrNotFound is returned when the input file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrUnreadable is returned when no text can be obtained from the file.
	ErrUnreadable = errors.New("no text could be extracted from the file")
	// ErrUpstream is returned when the OCR service fails.
	ErrUpstream = errors.New("ocr service failed")

	errOCRNotConfigured  = errors.New("ocr service is not configured")
	errPasswordProtected = errors.New("pdf is password protected")
)
