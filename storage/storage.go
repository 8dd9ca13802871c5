/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package storage keeps the original uploaded report files.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backend names accepted by Config.
const (
	BackendLocal  = "local"
	BackendWebDAV = "webdav"
)

// DefaultDir is where the local backend keeps uploads when none is configured.
const DefaultDir = "uploads/medical-reports"

// Object describes a stored file.
type Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// Store saves and retrieves uploaded report files by key.
type Store interface {
	// Save stores r under key. size is the expected length, or -1 when
	// unknown. Existing objects are never overwritten.
	Save(ctx context.Context, key string, r io.ReadSeeker, size int64) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// LocalPath returns a filesystem path holding the object's bytes. The
	// cleanup function must be called once the caller is done with it.
	LocalPath(ctx context.Context, key string) (string, func(), error)
	Delete(ctx context.Context, key string) error
}

// Config selects and configures a Store.
type Config struct {
	Backend        string
	Dir            string
	WebDAVURL      string
	WebDAVUsername string
	WebDAVPassword string
	WebDAVTimeout  time.Duration
}

// New builds the Store described by cfg.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendLocal:
		dir := cfg.Dir
		if dir == "" {
			dir = DefaultDir
		}

		return NewLocal(dir)
	case BackendWebDAV:
		return NewWebDAV(WebDAVConfig{
			URL:      cfg.WebDAVURL,
			Username: cfg.WebDAVUsername,
			Password: cfg.WebDAVPassword,
			Timeout:  cfg.WebDAVTimeout,
		})
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownBackend, cfg.Backend)
	}
}

// Key builds the object key of a report's original file.
func Key(userID, reportID uuid.UUID, ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		ext = "bin"
	}

	return fmt.Sprintf("%s/%s.%s", userID, reportID, ext)
}

// cleanKey validates a key and returns it in canonical slash form.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}

	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}

	return cleaned, nil
}

// uploadSize finds the length of reader and checks it against expectedSize
// (negative when unknown), leaving the reader rewound.
func uploadSize(reader io.ReadSeeker, expectedSize int64) (int64, error) {
	if reader == nil {
		return 0, errUploadReaderNil
	}

	end, err := reader.Seek(0, io.SeekEnd)
	if err != nil {
		if expectedSize < 0 {
			return 0, fmt.Errorf("failed to determine upload size: %w", err)
		}

		end = expectedSize
	}

	if expectedSize >= 0 && end != expectedSize {
		return 0, fmt.Errorf("upload size mismatch: expected %d bytes, got %d", expectedSize, end)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to rewind upload: %w", err)
	}

	return end, nil
}
