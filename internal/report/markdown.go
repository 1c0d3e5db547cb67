// Package report renders an analysis into human-readable output, Markdown
// first and PDF derived from it.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jbustamante27/Fitness-AI-agent/internal/metrics"
	"github.com/jbustamante27/Fitness-AI-agent/internal/narrative"
	"github.com/jbustamante27/Fitness-AI-agent/internal/risk"
)

// Report bundles everything one rendered document needs.
type Report struct {
	RunnerName  string
	GeneratedAt time.Time
	Metrics     metrics.Snapshot
	Risk        risk.Assessment
	Narrative   narrative.Narrative
}

// RenderMarkdown produces the canonical Markdown document. Output is
// deterministic: map-backed sections iterate in sorted order.
func RenderMarkdown(rep Report) string {
	runner := rep.RunnerName
	if runner == "" {
		runner = "Runner"
	}
	generated := ""
	if !rep.GeneratedAt.IsZero() {
		generated = rep.GeneratedAt.Format(time.RFC3339)
	}

	m := rep.Metrics
	detailKeys := make([]string, 0, len(rep.Risk.FlagDetails))
	for k := range rep.Risk.FlagDetails {
		detailKeys = append(detailKeys, k)
	}
	sort.Strings(detailKeys)
	detailLines := make([]string, 0, len(detailKeys))
	for _, k := range detailKeys {
		detailLines = append(detailLines, fmt.Sprintf("**%s** — %s", k, rep.Risk.FlagDetails[k]))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Running Coach Report — %s\n\n", runner)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", generated)
	b.WriteString("---\n\n")

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- **Risk level:** **%s**\n", rep.Risk.RiskLevel)
	fmt.Fprintf(&b, "- **Runs in last %d days:** %d\n", m.LookbackDays, m.RunCount)
	fmt.Fprintf(&b, "- **Total distance (km):** %.2f\n", m.TotalDistanceKm)
	fmt.Fprintf(&b, "- **ACWR:** %s\n", ratio(m.ACWR))
	fmt.Fprintf(&b, "- **Longest run share:** %s\n", ratio(m.LongestRunPct))
	fmt.Fprintf(&b, "- **Rest days (last 14):** %d\n", m.RestDaysLast14)
	fmt.Fprintf(&b, "- **Back-to-back run days (last 14):** %d\n", m.BackToBackRunsLast14)
	fmt.Fprintf(&b, "- **Easy %%:** %.1f | **Hard %%:** %.1f\n\n", m.EasyPct, m.HardPct)
	b.WriteString("---\n\n")

	b.WriteString("## Risk flags\n")
	b.WriteString(bulletList(rep.Risk.RiskFlags) + "\n\n")
	b.WriteString("### Flag details\n")
	b.WriteString(bulletList(detailLines) + "\n\n")
	b.WriteString("### Limitations\n")
	b.WriteString(bulletList(rep.Risk.Limitations) + "\n\n")
	b.WriteString("---\n\n")

	b.WriteString("## Interpretation\n")
	b.WriteString(cleanMD(rep.Narrative.Interpretation) + "\n\n")
	b.WriteString("---\n\n")

	b.WriteString("## Recommendations\n")
	b.WriteString(cleanMD(rep.Narrative.Recommendations) + "\n\n")
	b.WriteString("---\n\n")

	b.WriteString("## Key takeaways\n")
	b.WriteString(cleanMD(rep.Narrative.Takeaways) + "\n")

	return b.String()
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "_None_"
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+it)
	}
	return strings.Join(lines, "\n")
}

// cleanMD strips the bold wrappers some models put around whole sections.
func cleanMD(text string) string {
	t := strings.TrimSpace(text)
	if t == "" {
		return ""
	}
	if strings.HasPrefix(t, "**") {
		t = strings.TrimSpace(strings.TrimLeft(t, "*"))
	}
	if strings.HasSuffix(t, "**") {
		t = strings.TrimSpace(strings.TrimRight(t, "*"))
	}
	return t
}

func ratio(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
