package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jbustamante27/Fitness-AI-agent/internal/risk"
)

func runAssess(cmd *cobra.Command, args []string) {
	code, err := executeAssess(args[0], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coachctl: %v\n", err)
		os.Exit(2)
	}
	if code != 0 {
		os.Exit(code)
	}
}

func executeAssess(path string, stdout io.Writer) (int, error) {
	if failOn != "" {
		if _, ok := severityRank[failOn]; !ok {
			return 0, fmt.Errorf("unsupported fail-on level %q (expected low, moderate, or high)", failOn)
		}
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return 0, err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	inputs, err := risk.DecodeAny(raw)
	if err != nil {
		return 0, err
	}

	assessment := risk.Evaluate(inputs)
	out, err := json.MarshalIndent(assessment, "", "  ")
	if err != nil {
		return 0, err
	}
	if _, err := stdout.Write(append(out, '\n')); err != nil {
		return 0, err
	}

	if failOn != "" && severityRank[assessment.RiskLevel] >= severityRank[failOn] {
		return 1, nil
	}
	return 0, nil
}
