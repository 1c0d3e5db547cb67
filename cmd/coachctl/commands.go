package main

import (
	"github.com/spf13/cobra"
)

var (
	lookbackDays  int
	runnerName    string
	distanceUnit  string
	withNarrative bool
	outputFormat  string
	outputPath    string
	failOn        string

	rootCmd = &cobra.Command{
		Use:   "coachctl",
		Short: "Training-load analysis for running history",
		Long: `coachctl reads running history exports (CSV or FIT), computes
training-load metrics over a rolling window, evaluates overtraining risk
rules, and renders the result as JSON, Markdown, or PDF.`,
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Analyze run history files and report training-load risk",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAnalyze, // Defined in cmd_analyze.go
	}

	assessCmd = &cobra.Command{
		Use:   "assess [metrics.json]",
		Short: "Evaluate a precomputed metrics document against the risk rules",
		Long: `assess skips ingestion and metric aggregation: it reads a JSON
object of training-load metrics (use - for stdin) and prints the risk
assessment. Missing or malformed fields degrade to reported limitations.`,
		Args: cobra.ExactArgs(1),
		Run:  runAssess, // Defined in cmd_assess.go
	}
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().IntVar(&lookbackDays, "lookback", 0, "Analysis window in days (default 28)")
	analyzeCmd.Flags().StringVar(&runnerName, "runner", "", "Runner name stamped on reports")
	analyzeCmd.Flags().StringVar(&distanceUnit, "distance-unit", "km", "Unit assumed for bare CSV distance columns (km, mi, m)")
	analyzeCmd.Flags().BoolVar(&withNarrative, "narrative", false, "Generate a coaching narrative (requires OPENAI_API_KEY)")
	analyzeCmd.Flags().StringVar(&outputFormat, "format", "md", "Output format: json, md, or pdf")
	analyzeCmd.Flags().StringVar(&outputPath, "out", "", "Write output to a file instead of stdout (required for pdf)")
	analyzeCmd.Flags().StringVar(&failOn, "fail-on", "", "Exit 1 when the risk level is at or above: low, moderate, high")

	rootCmd.AddCommand(assessCmd)
	assessCmd.Flags().StringVar(&failOn, "fail-on", "", "Exit 1 when the risk level is at or above: low, moderate, high")
}
