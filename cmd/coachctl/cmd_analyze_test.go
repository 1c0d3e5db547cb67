package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jbustamante27/Fitness-AI-agent/internal/risk"
)

const twoRunCSV = "date,distance,time\n2025-03-03,10.0,55:00\n2025-03-05,8.0,44:00\n"

// A lone 10k inside the acute window spikes ACWR and dominates the weekly
// volume, so this history always carries flags.
const flaggedCSV = "date,distance,time\n2025-03-03,10.0,55:00\n"

func resetAnalyzeFlags() {
	lookbackDays = 0
	runnerName = ""
	distanceUnit = "km"
	withNarrative = false
	outputFormat = "md"
	outputPath = ""
	failOn = ""
}

func writeRunsFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestExecuteAnalyzeMarkdownToStdout(t *testing.T) {
	defer resetAnalyzeFlags()
	resetAnalyzeFlags()
	runnerName = "Casey"

	path := writeRunsFile(t, "runs.csv", twoRunCSV)

	var stdout bytes.Buffer
	code, err := executeAnalyze(context.Background(), []string{path}, &stdout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Fatalf("expected exit code 0 got %d", code)
	}
	if !strings.Contains(stdout.String(), "# Running Coach Report — Casey") {
		t.Fatalf("expected markdown report, got:\n%s", stdout.String())
	}
	if !strings.Contains(stdout.String(), "## Summary") {
		t.Fatal("expected summary section in report")
	}
}

func TestExecuteAnalyzeJSONWithFailOn(t *testing.T) {
	defer resetAnalyzeFlags()
	resetAnalyzeFlags()
	outputFormat = "json"
	failOn = "low"

	path := writeRunsFile(t, "runs.csv", flaggedCSV)

	var stdout bytes.Buffer
	code, err := executeAnalyze(context.Background(), []string{path}, &stdout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 1 {
		t.Fatalf("expected exit code 1 got %d", code)
	}

	var out analysisOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if out.AnalysisID == "" {
		t.Fatal("expected analysis_id to be set")
	}
	if out.Risk.RiskLevel != risk.LevelModerate {
		t.Fatalf("expected moderate risk got %q", out.Risk.RiskLevel)
	}
}

func TestExecuteAnalyzeFailOnNotTripped(t *testing.T) {
	defer resetAnalyzeFlags()
	resetAnalyzeFlags()
	outputFormat = "json"
	failOn = "high"

	path := writeRunsFile(t, "runs.csv", flaggedCSV)

	var stdout bytes.Buffer
	code, err := executeAnalyze(context.Background(), []string{path}, &stdout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Fatalf("expected exit code 0 got %d", code)
	}
}

func TestExecuteAnalyzeWritesOutputFile(t *testing.T) {
	defer resetAnalyzeFlags()
	resetAnalyzeFlags()
	outputPath = filepath.Join(t.TempDir(), "report.md")

	path := writeRunsFile(t, "runs.csv", twoRunCSV)

	var stdout bytes.Buffer
	if _, err := executeAnalyze(context.Background(), []string{path}, &stdout); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout.Len() != 0 {
		t.Fatal("expected no stdout output when --out is set")
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	if !strings.Contains(string(data), "## Summary") {
		t.Fatal("expected summary section in written report")
	}
}

func TestExecuteAnalyzeRendersPDF(t *testing.T) {
	defer resetAnalyzeFlags()
	resetAnalyzeFlags()
	outputFormat = "pdf"
	outputPath = filepath.Join(t.TempDir(), "report.pdf")

	path := writeRunsFile(t, "runs.csv", twoRunCSV)

	var stdout bytes.Buffer
	if _, err := executeAnalyze(context.Background(), []string{path}, &stdout); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("failed to read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatal("expected a PDF document")
	}
}

func TestExecuteAnalyzeUsageErrors(t *testing.T) {
	path := writeRunsFile(t, "runs.csv", twoRunCSV)

	cases := []struct {
		name   string
		setup  func()
		detail string
	}{
		{"bad format", func() { outputFormat = "xml" }, "unsupported format"},
		{"bad fail-on", func() { failOn = "catastrophic" }, "unsupported fail-on level"},
		{"pdf needs out", func() { outputFormat = "pdf" }, "--out is required"},
		{"narrative needs key", func() { withNarrative = true }, "OPENAI_API_KEY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			defer resetAnalyzeFlags()
			resetAnalyzeFlags()
			t.Setenv("OPENAI_API_KEY", "")
			tc.setup()

			var stdout bytes.Buffer
			_, err := executeAnalyze(context.Background(), []string{path}, &stdout)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.detail) {
				t.Fatalf("expected error containing %q got %v", tc.detail, err)
			}
		})
	}
}

func TestExecuteAnalyzeMissingFile(t *testing.T) {
	defer resetAnalyzeFlags()
	resetAnalyzeFlags()

	var stdout bytes.Buffer
	_, err := executeAnalyze(context.Background(), []string{"does-not-exist.csv"}, &stdout)
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestExecuteAssess(t *testing.T) {
	t.Run("object document", func(t *testing.T) {
		defer resetAnalyzeFlags()
		resetAnalyzeFlags()
		path := writeRunsFile(t, "metrics.json", `{"acwr": 1.7}`)

		var stdout bytes.Buffer
		code, err := executeAssess(path, &stdout)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if code != 0 {
			t.Fatalf("expected exit code 0 got %d", code)
		}
		if !strings.Contains(stdout.String(), "volume_spike") {
			t.Fatalf("expected volume_spike flag, got:\n%s", stdout.String())
		}
	})

	t.Run("fail-on trips on a single flag", func(t *testing.T) {
		defer resetAnalyzeFlags()
		resetAnalyzeFlags()
		failOn = "low"
		path := writeRunsFile(t, "metrics.json", `{"acwr": 1.7}`)

		var stdout bytes.Buffer
		code, err := executeAssess(path, &stdout)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if code != 1 {
			t.Fatalf("expected exit code 1 got %d", code)
		}
		if !strings.Contains(stdout.String(), "volume_spike") {
			t.Fatalf("assessment should still print before the gate, got:\n%s", stdout.String())
		}
	})

	t.Run("fail-on above the verdict stays zero", func(t *testing.T) {
		defer resetAnalyzeFlags()
		resetAnalyzeFlags()
		failOn = "high"
		path := writeRunsFile(t, "metrics.json", `{"acwr": 1.7}`)

		var stdout bytes.Buffer
		code, err := executeAssess(path, &stdout)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if code != 0 {
			t.Fatalf("expected exit code 0 got %d", code)
		}
	})

	t.Run("bad fail-on level", func(t *testing.T) {
		defer resetAnalyzeFlags()
		resetAnalyzeFlags()
		failOn = "critical"
		path := writeRunsFile(t, "metrics.json", `{"acwr": 1.7}`)

		var stdout bytes.Buffer
		_, err := executeAssess(path, &stdout)
		if err == nil || !strings.Contains(err.Error(), "unsupported fail-on level") {
			t.Fatalf("expected a fail-on usage error got %v", err)
		}
	})

	t.Run("non-object document", func(t *testing.T) {
		defer resetAnalyzeFlags()
		resetAnalyzeFlags()
		path := writeRunsFile(t, "metrics.json", `[1, 2, 3]`)

		var stdout bytes.Buffer
		_, err := executeAssess(path, &stdout)
		if !errors.Is(err, risk.ErrInvalidMetrics) {
			t.Fatalf("expected ErrInvalidMetrics got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		defer resetAnalyzeFlags()
		resetAnalyzeFlags()
		path := writeRunsFile(t, "metrics.json", `{"acwr":`)

		var stdout bytes.Buffer
		if _, err := executeAssess(path, &stdout); err == nil {
			t.Fatal("expected a parse error")
		}
	})
}
