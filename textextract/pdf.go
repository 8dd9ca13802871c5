/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package textextract

import (
	"fmt"
	"os"
	"strings"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

// extractPDF returns the text of every readable page. Encrypted files are
// tried with an empty user password.
func extractPDF(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // Paths come from the report store, not from requests.
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Failed to close pdf", "path", path, "error", err)
		}
	}()

	reader, err := model.NewPdfReader(f)
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse pdf: %w", ErrUnreadable, err)
	}

	encrypted, err := reader.IsEncrypted()
	if err != nil {
		return "", fmt.Errorf("%w: failed to check pdf encryption: %w", ErrUnreadable, err)
	}

	if encrypted {
		ok, err := reader.Decrypt([]byte(""))
		if err != nil {
			return "", fmt.Errorf("%w: failed to decrypt pdf: %w", ErrUnreadable, err)
		}

		if !ok {
			return "", fmt.Errorf("%w: %w", ErrUnreadable, errPasswordProtected)
		}
	}

	pages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("%w: failed to count pdf pages: %w", ErrUnreadable, err)
	}

	var (
		sb      strings.Builder
		lastErr error
	)

	for i := 1; i <= pages; i++ {
		text, err := pageText(reader, i)
		if err != nil {
			logger.Warn("Skipping unreadable pdf page", "path", path, "page", i, "error", err)
			lastErr = err

			continue
		}

		sb.WriteString(text)
		sb.WriteString("\n")
	}

	if strings.TrimSpace(sb.String()) == "" && lastErr != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, lastErr)
	}

	return sb.String(), nil
}

func pageText(reader *model.PdfReader, number int) (string, error) {
	page, err := reader.GetPage(number)
	if err != nil {
		return "", fmt.Errorf("failed to load page: %w", err)
	}

	ex, err := extractor.New(page)
	if err != nil {
		return "", fmt.Errorf("failed to create extractor: %w", err)
	}

	text, err := ex.ExtractText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}

	return text, nil
}
