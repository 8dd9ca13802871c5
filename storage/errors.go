/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package storage

import "errors"

var (
	// ErrObjectNotFound is returned when no object is stored under a key.
	ErrObjectNotFound = errors.New("object not found")
	// ErrObjectExists is returned when saving over an existing object.
	ErrObjectExists = errors.New("object already exists")
	// ErrInvalidKey is returned for keys that are empty or escape the store root.
	ErrInvalidKey = errors.New("invalid object key")

	errUnknownBackend    = errors.New("unknown storage backend")
	errWebDAVURLRequired = errors.New("webdav url is required")
	errUploadReaderNil   = errors.New("upload reader is nil")
	errUploadSizeUnknown = errors.New("upload size unknown")
	errUploadDirNotADir  = errors.New("upload path is not a directory")
	errLocalDirRequired  = errors.New("upload directory is required")
)
