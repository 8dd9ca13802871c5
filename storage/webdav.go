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
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/emersion/go-webdav"
)

const defaultWebDAVTimeout = 30 * time.Second

// WebDAVConfig holds the connection settings of a WebDAV store.
type WebDAVConfig struct {
	URL      string // base collection, e.g. https://dav.example.com/labwise/
	Username string
	Password string
	Timeout  time.Duration
}

// WebDAV stores objects in a WebDAV collection.
type WebDAV struct {
	base       *url.URL
	httpClient *http.Client
	client     *webdav.Client
}

// NewWebDAV returns a store for the collection at cfg.URL. Credentials are
// optional.
func NewWebDAV(cfg WebDAVConfig) (*WebDAV, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if raw == "" {
		return nil, errWebDAVURLRequired
	}

	base, err := url.Parse(raw + "/")
	if err != nil {
		return nil, fmt.Errorf("failed to parse webdav url: %w", err)
	}

	httpClient := newWebDAVHTTPClient(cfg)

	client, err := webdav.NewClient(httpClient, base.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create webdav client: %w", err)
	}

	return &WebDAV{base: base, httpClient: httpClient, client: client}, nil
}

func newWebDAVHTTPClient(cfg WebDAVConfig) *http.Client {
	transport := http.DefaultTransport

	if cfg.Username != "" && cfg.Password != "" {
		transport = &basicAuthTransport{
			Username: cfg.Username,
			Password: cfg.Password,
			Base:     http.DefaultTransport,
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultWebDAVTimeout
	}

	return &http.Client{Timeout: timeout, Transport: transport}
}

// basicAuthTransport adds HTTP Basic Authentication to all requests
type basicAuthTransport struct {
	Username string
	Password string
	Base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.Username, t.Password)

	return t.Base.RoundTrip(req)
}

// Save uploads to a temporary name in the destination collection, verifies
// the stored size, and moves it into place without overwriting.
func (w *WebDAV) Save(ctx context.Context, key string, r io.ReadSeeker, size int64) (Object, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return Object{}, err
	}

	exists, err := w.exists(ctx, cleaned)
	if err != nil {
		return Object{}, err
	}

	if exists {
		return Object{}, ErrObjectExists
	}

	dir := path.Dir(cleaned)
	if dir == "." {
		dir = ""
	}

	if err := w.ensureDir(ctx, dir); err != nil {
		return Object{}, err
	}

	total, err := uploadSize(r, size)
	if err != nil {
		return Object{}, err
	}

	tempPath := fmt.Sprintf(".upload_%d_%s", time.Now().UnixNano(), path.Base(cleaned))
	if dir != "" {
		tempPath = path.Join(dir, tempPath)
	}

	if err := w.put(ctx, tempPath, r, total); err != nil {
		w.cleanup(ctx, tempPath)
		return Object{}, err
	}

	info, err := w.client.Stat(ctx, tempPath)
	if err != nil {
		w.cleanup(ctx, tempPath)
		return Object{}, fmt.Errorf("failed to verify uploaded object: %w", err)
	}

	if info.Size != total {
		w.cleanup(ctx, tempPath)
		return Object{}, fmt.Errorf("uploaded size mismatch: expected %d bytes, got %d", total, info.Size)
	}

	if err := w.client.Move(ctx, tempPath, cleaned, &webdav.MoveOptions{NoOverwrite: true}); err != nil {
		w.cleanup(ctx, tempPath)

		if exists, existsErr := w.exists(ctx, cleaned); existsErr == nil && exists {
			return Object{}, ErrObjectExists
		}

		return Object{}, fmt.Errorf("failed to finalize upload: %w", err)
	}

	logger.Debug("Stored object", "key", cleaned, "size", total)

	return Object{Key: key, Size: total}, nil
}

// Open streams the object stored under key.
func (w *WebDAV) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	body, err := w.client.Open(ctx, cleaned)
	if err != nil {
		if isWebDAVNotFound(err) {
			return nil, ErrObjectNotFound
		}

		return nil, fmt.Errorf("failed to open object: %w", err)
	}

	return body, nil
}

// LocalPath downloads the object into a temporary file that cleanup removes.
func (w *WebDAV) LocalPath(ctx context.Context, key string) (string, func(), error) {
	body, err := w.Open(ctx, key)
	if err != nil {
		return "", nil, err
	}

	defer func() {
		if err := body.Close(); err != nil {
			logger.Warn("Failed to close WebDAV download", "key", key, "error", err)
		}
	}()

	tmp, err := os.CreateTemp("", "labwise-*"+path.Ext(key))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	cleanup := func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Failed to remove temp download", "path", tmp.Name(), "error", err)
		}
	}

	_, err = io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to download object: %w", err)
	}

	return tmp.Name(), cleanup, nil
}

// Delete removes the object stored under key.
func (w *WebDAV) Delete(ctx context.Context, key string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}

	exists, err := w.exists(ctx, cleaned)
	if err != nil {
		return err
	}

	if !exists {
		return ErrObjectNotFound
	}

	if err := w.client.RemoveAll(ctx, cleaned); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

func (w *WebDAV) ensureDir(ctx context.Context, dir string) error {
	if dir == "" {
		return nil
	}

	info, err := w.client.Stat(ctx, dir)
	if err == nil {
		if !info.IsDir {
			return errUploadDirNotADir
		}

		return nil
	}

	if !isWebDAVNotFound(err) {
		return fmt.Errorf("failed to verify upload directory: %w", err)
	}

	if parent := path.Dir(dir); parent != "." {
		if err := w.ensureDir(ctx, parent); err != nil {
			return err
		}
	}

	if err := w.client.Mkdir(ctx, dir); err != nil {
		// Another upload may have created it concurrently.
		if exists, existsErr := w.exists(ctx, dir); existsErr == nil && exists {
			return nil
		}

		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	return nil
}

func (w *WebDAV) put(ctx context.Context, entryPath string, reader io.Reader, size int64) error {
	if size < 0 {
		return errUploadSizeUnknown
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, w.entryURL(entryPath), reader)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("Failed to close WebDAV upload response body", "error", err)
		}
	}()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("failed to upload object: HTTP %d", resp.StatusCode)
	}

	return nil
}

func (w *WebDAV) entryURL(entryPath string) string {
	u := *w.base
	u.Path = path.Join(u.Path, strings.TrimPrefix(entryPath, "/"))

	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}

	return u.String()
}

func (w *WebDAV) exists(ctx context.Context, entryPath string) (bool, error) {
	_, err := w.client.Stat(ctx, entryPath)
	if err == nil {
		return true, nil
	}

	if isWebDAVNotFound(err) {
		return false, nil
	}

	return false, fmt.Errorf("failed to stat webdav entry: %w", err)
}

func (w *WebDAV) cleanup(ctx context.Context, entryPath string) {
	if err := w.client.RemoveAll(ctx, entryPath); err != nil && !isWebDAVNotFound(err) {
		logger.Warn("Failed to clean up WebDAV temp entry", "path", entryPath, "error", err)
	}
}

func isWebDAVNotFound(err error) bool {
	if err == nil {
		return false
	}

	message := strings.ToLower(err.Error())

	return strings.Contains(message, "404") || strings.Contains(message, "not found")
}
