/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package textextract

import (
	"mime"
	"path/filepath"
	"strings"
)

type kind int

const (
	kindText kind = iota
	kindPDF
	kindImage
)

func kindOf(fileType string) kind {
	switch strings.ToLower(strings.TrimSpace(fileType)) {
	case "pdf":
		return kindPDF
	case "jpg", "jpeg", "png", "tiff", "bmp":
		return kindImage
	default:
		// txt, text, plain and anything unknown are read as text.
		return kindText
	}
}

// FileTypeFromName returns the lower-case extension of name without the dot.
func FileTypeFromName(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSpace(name)), "."))
}

// FileTypeFromMIME returns the subtype of a media type, e.g. "pdf" for
// "application/pdf". Parameters are ignored. Invalid input yields "".
func FileTypeFromMIME(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ""
	}

	_, subtype, ok := strings.Cut(mediaType, "/")
	if !ok {
		return ""
	}

	return subtype
}

// IsImage reports whether fileType is only readable through OCR.
func IsImage(fileType string) bool {
	return kindOf(fileType) == kindImage
}
