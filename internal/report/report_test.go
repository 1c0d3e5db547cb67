package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jbustamante27/Fitness-AI-agent/internal/metrics"
	"github.com/jbustamante27/Fitness-AI-agent/internal/narrative"
	"github.com/jbustamante27/Fitness-AI-agent/internal/risk"
)

func sampleReport() Report {
	acwr := 1.62
	longest := 0.42
	return Report{
		RunnerName:  "Jordan",
		GeneratedAt: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
		Metrics: metrics.Snapshot{
			LookbackDays:         28,
			RunCount:             12,
			TotalDistanceKm:      107.0,
			WeeklyDistance:       []float64{18, 22, 29, 38},
			WeeklyFrequency:      []int{3, 3, 3, 3},
			ACWR:                 &acwr,
			LongestRunPct:        &longest,
			RestDaysLast14:       1,
			BackToBackRunsLast14: 6,
			EasyPct:              58.0,
			HardPct:              22.0,
		},
		Risk: risk.Assessment{
			RiskLevel:   risk.LevelHigh,
			RiskFlags:   []string{risk.FlagInsufficientRecovery, risk.FlagVolumeSpike},
			Limitations: []string{},
			FlagDetails: map[string]string{
				risk.FlagVolumeSpike:          "Training volume increased sharply.",
				risk.FlagInsufficientRecovery: "Recovery spacing is limited.",
			},
		},
		Narrative: narrative.Narrative{
			Interpretation:  "**Load jumped quickly.**",
			Recommendations: "Hold volume steady.",
			Takeaways:       "Recover first.",
		},
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(sampleReport())

	require.True(t, strings.HasPrefix(md, "# Running Coach Report — Jordan\n"))
	require.Contains(t, md, "**Generated:** 2025-03-10T09:00:00Z")
	require.Contains(t, md, "- **Risk level:** **high**")
	require.Contains(t, md, "- **Runs in last 28 days:** 12")
	require.Contains(t, md, "- **Total distance (km):** 107.00")
	require.Contains(t, md, "- **ACWR:** 1.62")
	require.Contains(t, md, "- **Easy %:** 58.0 | **Hard %:** 22.0")
	require.Contains(t, md, "- insufficient_recovery\n- volume_spike")

	// Flag details sorted by flag name, not map order.
	recIdx := strings.Index(md, "**insufficient_recovery** — Recovery spacing is limited.")
	spikeIdx := strings.Index(md, "**volume_spike** — Training volume increased sharply.")
	require.Greater(t, spikeIdx, recIdx)
	require.Greater(t, recIdx, 0)

	// Section bold wrappers are stripped from narrative text.
	require.Contains(t, md, "## Interpretation\nLoad jumped quickly.")
	require.Contains(t, md, "### Limitations\n_None_")
}

func TestRenderMarkdownDefaults(t *testing.T) {
	md := RenderMarkdown(Report{})

	require.Contains(t, md, "# Running Coach Report — Runner")
	require.Contains(t, md, "**Generated:** \n")
	require.Contains(t, md, "- **ACWR:** n/a")
	require.Contains(t, md, "## Risk flags\n_None_")
}

func TestRenderMarkdownIsDeterministic(t *testing.T) {
	rep := sampleReport()
	require.Equal(t, RenderMarkdown(rep), RenderMarkdown(rep))
}

func TestRenderPDF(t *testing.T) {
	md := RenderMarkdown(sampleReport())

	var buf bytes.Buffer
	require.NoError(t, RenderPDF(md, &buf))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	require.Greater(t, buf.Len(), 1000)
}
