/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package textextract turns uploaded report files into plain text.
package textextract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/unidoc/unipdf/v3/common/license"
)

const (
	defaultOCRTimeout = 60 * time.Second
	defaultOCRRetries = 2
)

// Config configures an Extractor.
type Config struct {
	// OCRURL is the base URL of a tesseract-server instance. Images cannot
	// be read when it is empty.
	OCRURL       string
	OCRLanguages []string
	OCRTimeout   time.Duration
	// OCRRetries of zero uses the default; a negative value disables retries.
	OCRRetries int
	// PDFLicenseKey is a unidoc metered API key.
	PDFLicenseKey string
}

// Extractor reads text out of PDF, image and text files.
type Extractor struct {
	ocr       *resty.Client
	languages []string
}

// New returns an Extractor for cfg.
func New(cfg Config) (*Extractor, error) {
	if cfg.PDFLicenseKey != "" {
		if err := license.SetMeteredKey(cfg.PDFLicenseKey); err != nil {
			return nil, fmt.Errorf("failed to load pdf license: %w", err)
		}
	}

	e := &Extractor{languages: cfg.OCRLanguages}
	if len(e.languages) == 0 {
		e.languages = []string{"eng"}
	}

	if url := strings.TrimRight(strings.TrimSpace(cfg.OCRURL), "/"); url != "" {
		e.ocr = newOCRClient(url, cfg)
	}

	return e, nil
}

// FromFile extracts the text of the file at path. fileType is the short type
// tag of the upload, such as "pdf", "png" or "plain".
func (e *Extractor) FromFile(ctx context.Context, path, fileType string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrUnreadable, path)
	}

	logger.Debug("Extracting text", "path", path, "file_type", fileType, "size", info.Size())

	var text string

	switch kindOf(fileType) {
	case kindPDF:
		text, err = extractPDF(path)
	case kindImage:
		text, err = e.extractImage(ctx, path)
	default:
		text, err = extractPlain(path)
	}

	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrUnreadable
	}

	return text, nil
}

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Paths come from the report store, not from requests.
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}

	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}

	return text, nil
}
