/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labwise/analyzer"
	"github.com/humaidq/labwise/labs"
	"github.com/humaidq/labwise/processor"
	"github.com/humaidq/labwise/textextract"
)

var CmdAnalyze = &cli.Command{
	Name:      "analyze",
	Usage:     "Analyze a report file and print the result as JSON",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "type",
			Aliases:  []string{"t"},
			Required: true,
			Usage:    "report type: cbc, sugar or lipid_profile",
		},
		&cli.StringFlag{
			Name:    "analyzer",
			Value:   analyzer.EngineHeuristic,
			Sources: cli.EnvVars("ANALYZER_ENGINE"),
		},
		&cli.StringFlag{Name: "gemini-api-key", Sources: cli.EnvVars("GEMINI_API_KEY")},
		&cli.StringFlag{Name: "gemini-model", Sources: cli.EnvVars("GEMINI_MODEL")},
		&cli.StringFlag{Name: "ollama-url", Sources: cli.EnvVars("OLLAMA_URL")},
		&cli.StringFlag{Name: "ollama-model", Sources: cli.EnvVars("OLLAMA_MODEL")},
		&cli.StringFlag{Name: "ocr-url", Sources: cli.EnvVars("OCR_URL")},
		&cli.StringFlag{Name: "pdf-license", Sources: cli.EnvVars("UNIDOC_LICENSE_API_KEY")},
		&cli.DurationFlag{Name: "timeout", Value: 5 * time.Minute},
	},
	Action: analyze,
}

type analyzeOutput struct {
	File            string                `json:"file"`
	ReportType      labs.ReportType       `json:"report_type"`
	Analysis        *analyzer.Analysis    `json:"analysis"`
	Recommendations []labs.Advice         `json:"recommendations"`
	FollowUp        labs.FollowUpSchedule `json:"follow_up"`
}

func analyze(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errFileRequired
	}

	reportType := labs.ReportType(strings.TrimSpace(cmd.String("type")))
	if !reportType.Valid() {
		return errInvalidReportType
	}

	extractor, err := textextract.New(textextract.Config{
		OCRURL:        cmd.String("ocr-url"),
		PDFLicenseKey: cmd.String("pdf-license"),
	})
	if err != nil {
		return err
	}

	engine, err := analyzer.New(ctx, analyzer.Config{
		Engine:       cmd.String("analyzer"),
		GeminiAPIKey: cmd.String("gemini-api-key"),
		GeminiModel:  cmd.String("gemini-model"),
		OllamaURL:    cmd.String("ollama-url"),
		OllamaModel:  cmd.String("ollama-model"),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	return analyzeFile(ctx, extractor, engine, path, reportType, os.Stdout)
}

// analyzeFile runs extraction and analysis on a local file and writes the
// indented JSON result to w.
func analyzeFile(ctx context.Context, extractor processor.TextExtractor, engine analyzer.Analyzer, path string, rt labs.ReportType, w io.Writer) error {
	fileType := textextract.FileTypeFromName(path)
	if fileType == "" {
		fileType = "txt"
	}

	text, err := extractor.FromFile(ctx, path, fileType)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, err := engine.Analyze(ctx, text, rt)
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", path, err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(analyzeOutput{
		File:            filepath.Base(path),
		ReportType:      rt,
		Analysis:        result,
		Recommendations: labs.Recommend(rt, result.Readings),
		FollowUp:        labs.FollowUp(rt, result.Readings),
	})
}
