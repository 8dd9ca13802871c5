/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package textextract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ocrResponse is the tesseract-server reply to POST /tesseract.
type ocrResponse struct {
	Data struct {
		Stdout string `json:"stdout"`
		Stderr string `json:"stderr"`
	} `json:"data"`
}

type ocrOptions struct {
	Languages []string `json:"languages"`
}

func newOCRClient(baseURL string, cfg Config) *resty.Client {
	timeout := cfg.OCRTimeout
	if timeout <= 0 {
		timeout = defaultOCRTimeout
	}

	retries := cfg.OCRRetries
	if retries < 0 {
		retries = 0
	} else if retries == 0 {
		retries = defaultOCRRetries
	}

	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
}

// extractImage sends the image to the OCR service.
func (e *Extractor) extractImage(ctx context.Context, path string) (string, error) {
	if e.ocr == nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, errOCRNotConfigured)
	}

	options, err := json.Marshal(ocrOptions{Languages: e.languages})
	if err != nil {
		return "", fmt.Errorf("failed to encode ocr options: %w", err)
	}

	var result ocrResponse

	resp, err := e.ocr.R().
		SetContext(ctx).
		SetFile("file", path).
		SetFormData(map[string]string{"options": string(options)}).
		SetResult(&result).
		Post("/tesseract")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode())
	}

	if stderr := strings.TrimSpace(result.Data.Stderr); stderr != "" {
		logger.Debug("OCR reported diagnostics", "path", path, "stderr", stderr)
	}

	return result.Data.Stdout, nil
}
