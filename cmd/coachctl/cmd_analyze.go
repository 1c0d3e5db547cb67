package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbustamante27/Fitness-AI-agent/internal/analysis"
	"github.com/jbustamante27/Fitness-AI-agent/internal/metrics"
	"github.com/jbustamante27/Fitness-AI-agent/internal/narrative"
	"github.com/jbustamante27/Fitness-AI-agent/internal/report"
	"github.com/jbustamante27/Fitness-AI-agent/internal/risk"
)

var severityRank = map[string]int{
	risk.LevelLow:      0,
	risk.LevelModerate: 1,
	risk.LevelHigh:     2,
}

// analysisOutput mirrors the HTTP analysis payload so scripted consumers can
// switch between the CLI and the API without remapping keys.
type analysisOutput struct {
	AnalysisID     string               `json:"analysis_id"`
	RunnerName     string               `json:"runner_name,omitempty"`
	GeneratedAt    time.Time            `json:"generated_at"`
	LookbackDays   int                  `json:"lookback_days"`
	Metrics        metrics.Snapshot     `json:"metrics"`
	Risk           risk.Assessment      `json:"risk"`
	Narrative      *narrative.Narrative `json:"narrative"`
	NarrativeError string               `json:"narrative_error,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) {
	code, err := executeAnalyze(cmd.Context(), args, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coachctl: %v\n", err)
		os.Exit(2)
	}
	if code != 0 {
		os.Exit(code)
	}
}

func executeAnalyze(ctx context.Context, paths []string, stdout io.Writer) (int, error) {
	switch outputFormat {
	case "json", "md", "pdf":
	default:
		return 0, fmt.Errorf("unsupported format %q (expected json, md, or pdf)", outputFormat)
	}
	if failOn != "" {
		if _, ok := severityRank[failOn]; !ok {
			return 0, fmt.Errorf("unsupported fail-on level %q (expected low, moderate, or high)", failOn)
		}
	}
	if outputFormat == "pdf" && outputPath == "" {
		return 0, errors.New("--out is required for pdf output")
	}

	var opts []analysis.Option
	if withNarrative {
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return 0, errors.New("--narrative requires OPENAI_API_KEY to be set")
		}
		generator, err := narrative.New(narrative.Config{
			APIKey:  key,
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   os.Getenv("OPENAI_MODEL"),
		})
		if err != nil {
			return 0, err
		}
		opts = append(opts, analysis.WithNarrativeGenerator(generator))
	}
	svc := analysis.NewService(opts...)

	files := make([]analysis.UploadFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, err
		}
		files = append(files, analysis.UploadFile{Name: path, Data: data})
	}

	runs, err := svc.IngestUploads(ctx, files, distanceUnit)
	if err != nil {
		return 0, err
	}

	res := svc.Analyze(ctx, analysis.Request{
		RunnerName:    runnerName,
		LookbackDays:  lookbackDays,
		Runs:          runs,
		Source:        analysis.SourceCLI,
		WithNarrative: withNarrative,
	})
	if res.NarrativeError != "" {
		fmt.Fprintf(os.Stderr, "coachctl: narrative skipped: %s\n", res.NarrativeError)
	}

	if err := renderAnalysis(res, stdout); err != nil {
		return 0, err
	}

	if failOn != "" && severityRank[res.Risk.RiskLevel] >= severityRank[failOn] {
		return 1, nil
	}
	return 0, nil
}

func renderAnalysis(res *analysis.Result, stdout io.Writer) error {
	rep := report.Report{
		RunnerName:  res.RunnerName,
		GeneratedAt: res.GeneratedAt,
		Metrics:     res.Metrics,
		Risk:        res.Risk,
	}
	if res.Narrative != nil {
		rep.Narrative = *res.Narrative
	}

	switch outputFormat {
	case "json":
		payload := analysisOutput{
			AnalysisID:     res.ID,
			RunnerName:     res.RunnerName,
			GeneratedAt:    res.GeneratedAt,
			LookbackDays:   res.Metrics.LookbackDays,
			Metrics:        res.Metrics,
			Risk:           res.Risk,
			Narrative:      res.Narrative,
			NarrativeError: res.NarrativeError,
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(append(data, '\n'), stdout)
	case "md":
		return writeOutput([]byte(report.RenderMarkdown(rep)), stdout)
	case "pdf":
		out, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		if err := report.RenderPDF(report.RenderMarkdown(rep), out); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}
	return nil
}

func writeOutput(data []byte, stdout io.Writer) error {
	if outputPath == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}
