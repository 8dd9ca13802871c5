// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/humaidq/labwise/analyzer"
	"github.com/humaidq/labwise/labs"
	"github.com/humaidq/labwise/textextract"
)

const sugarReport = `BLOOD SUGAR REPORT
FASTING BLOOD SUGAR
Result: 130 mg/dL

HbA1c
Result: 6.8%
`

func TestParseRuntimeEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    bool
		wantErr bool
	}{
		{raw: "", want: false},
		{raw: "dev", want: false},
		{raw: "Development", want: false},
		{raw: "prod", want: true},
		{raw: " production ", want: true},
		{raw: "staging", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseRuntimeEnv(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, errInvalidRuntimeEnv) {
				t.Fatalf("parseRuntimeEnv(%q) error = %v, want errInvalidRuntimeEnv", tt.raw, err)
			}

			continue
		}

		if err != nil || got != tt.want {
			t.Fatalf("parseRuntimeEnv(%q) = %v, %v; want %v", tt.raw, got, err, tt.want)
		}
	}
}

func TestStartConfigValidate(t *testing.T) {
	t.Parallel()

	valid := startConfig{DatabaseURL: "postgres://localhost/labwise", CSRFSecret: "secret"}

	tests := []struct {
		name   string
		mutate func(*startConfig)
		want   error
	}{
		{name: "valid", mutate: func(*startConfig) {}},
		{name: "missing database", mutate: func(c *startConfig) { c.DatabaseURL = "" }, want: errDatabaseURLRequired},
		{name: "missing csrf secret", mutate: func(c *startConfig) { c.CSRFSecret = "" }, want: errCSRFSecretRequired},
		{name: "production needs jwt", mutate: func(c *startConfig) { c.Production = true }, want: errJWTSecretRequired},
		{name: "production with jwt", mutate: func(c *startConfig) {
			c.Production = true
			c.JWTSecret = "jwt"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)

			err := cfg.validate()
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildNotifierWithoutChannels(t *testing.T) {
	t.Parallel()

	n, err := buildNotifier(context.Background(), startConfig{})
	if err != nil {
		t.Fatalf("buildNotifier failed: %v", err)
	}

	if n != nil {
		t.Fatalf("expected no notifier, got %T", n)
	}
}

func TestAnalyzeFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sugar.txt")
	if err := os.WriteFile(path, []byte(sugarReport), 0o600); err != nil {
		t.Fatalf("failed to write report: %v", err)
	}

	extractor, err := textextract.New(textextract.Config{})
	if err != nil {
		t.Fatalf("textextract.New failed: %v", err)
	}

	var out bytes.Buffer
	if err := analyzeFile(context.Background(), extractor, analyzer.Heuristic{}, path, labs.ReportSugar, &out); err != nil {
		t.Fatalf("analyzeFile failed: %v", err)
	}

	var result analyzeOutput
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}

	if result.File != "sugar.txt" || result.ReportType != labs.ReportSugar {
		t.Fatalf("unexpected header %+v", result)
	}

	if result.Analysis == nil || len(result.Analysis.Readings) != 2 {
		t.Fatalf("unexpected analysis %+v", result.Analysis)
	}

	if result.Analysis.RiskLevel != labs.RiskCritical || result.FollowUp.Urgency == "" {
		t.Fatalf("risk = %q, follow-up %+v", result.Analysis.RiskLevel, result.FollowUp)
	}

	if len(result.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
}

func TestAnalyzeFileMissing(t *testing.T) {
	t.Parallel()

	extractor, err := textextract.New(textextract.Config{})
	if err != nil {
		t.Fatalf("textextract.New failed: %v", err)
	}

	missing := filepath.Join(t.TempDir(), "nope.txt")

	err = analyzeFile(context.Background(), extractor, analyzer.Heuristic{}, missing, labs.ReportCBC, &bytes.Buffer{})
	if !errors.Is(err, textextract.ErrNotFound) {
		t.Fatalf("error = %v, want textextract.ErrNotFound", err)
	}
}
