/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local stores objects as files below a directory.
type Local struct {
	root string
}

// NewLocal returns a Local store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, errLocalDirRequired
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory: %w", err)
	}

	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &Local{root: abs}, nil
}

// Root returns the directory objects are stored under.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) path(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	return filepath.Join(l.root, filepath.FromSlash(cleaned)), nil
}

// Save writes r to a temporary file next to the destination and links it into
// place, so a partially written upload is never visible under key.
func (l *Local) Save(_ context.Context, key string, r io.ReadSeeker, size int64) (Object, error) {
	dest, err := l.path(key)
	if err != nil {
		return Object{}, err
	}

	expected, err := uploadSize(r, size)
	if err != nil {
		return Object{}, err
	}

	if _, err := os.Stat(dest); err == nil {
		return Object{}, ErrObjectExists
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return Object{}, fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpName := tmp.Name()
	defer func() {
		if err := os.Remove(tmpName); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to remove temp upload", "path", tmpName, "error", err)
		}
	}()

	written, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return Object{}, fmt.Errorf("failed to write object: %w", err)
	}

	if written != expected {
		return Object{}, fmt.Errorf("upload size mismatch: expected %d bytes, wrote %d", expected, written)
	}

	// os.Link fails when dest exists, unlike os.Rename.
	if err := os.Link(tmpName, dest); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return Object{}, ErrObjectExists
		}

		return Object{}, fmt.Errorf("failed to finalize object: %w", err)
	}

	return Object{Key: key, Size: written}, nil
}

// Open opens the object stored under key.
func (l *Local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p) //nolint:gosec // Path is confined to the store root by cleanKey.
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}

		return nil, fmt.Errorf("failed to open object: %w", err)
	}

	return f, nil
}

// LocalPath returns the object's own file; cleanup is a no-op.
func (l *Local) LocalPath(_ context.Context, key string) (string, func(), error) {
	p, err := l.path(key)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, ErrObjectNotFound
		}

		return "", nil, fmt.Errorf("failed to stat object: %w", err)
	}

	if info.IsDir() {
		return "", nil, ErrObjectNotFound
	}

	return p, func() {}, nil
}

// Delete removes the object stored under key.
func (l *Local) Delete(_ context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrObjectNotFound
		}

		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}
