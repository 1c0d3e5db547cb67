package narrative

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jbustamante27/Fitness-AI-agent/internal/metrics"
	"github.com/jbustamante27/Fitness-AI-agent/internal/risk"
)

const systemPrompt = `You are an experienced endurance training analyst specializing in recreational runners.
You interpret provided training metrics and deterministic risk flags.

You do NOT calculate metrics.
You do NOT invent missing data.
You ONLY analyze the metrics explicitly provided.

Tone: professional, calm, evidence-based, non-alarmist, plain English.`

const (
	headerInterpretation  = "INTERPRETATION:"
	headerRecommendations = "RECOMMENDATIONS:"
	headerTakeaways       = "TAKEAWAYS:"
)

// buildUserPrompt serializes the metrics and the risk verdict into the JSON
// block the model is asked to analyze. The risk keys are part of the prompt
// contract; renaming them changes model behavior.
func buildUserPrompt(snap metrics.Snapshot, assessment risk.Assessment) (string, error) {
	payload := map[string]any{
		"metrics": snap,
		"risk": map[string]any{
			"risk_level":  assessment.RiskLevel,
			"risk_flags":  assessment.RiskFlags,
			"limitations": assessment.Limitations,
		},
	}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("narrative: marshal prompt payload: %w", err)
	}

	var b strings.Builder
	b.WriteString("Analyze the following JSON (metrics + risk flags). Use established endurance training principles.\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Use only provided metrics/flags\n")
	b.WriteString("- Respect the provided risk_flags\n")
	b.WriteString("- Keep recommendations conservative and actionable\n")
	b.WriteString("- If limitations exist, acknowledge briefly\n\n")
	b.WriteString("Return EXACTLY three sections with headers:\n")
	b.WriteString(headerInterpretation + "\n")
	b.WriteString(headerRecommendations + "\n")
	b.WriteString(headerTakeaways + "\n\n")
	b.WriteString("JSON:\n")
	b.Write(body)
	b.WriteString("\n")
	return b.String(), nil
}

// splitSections carves the model's reply into the three required sections.
// Headers must appear in order; anything else is a malformed reply.
func splitSections(text string) (Narrative, error) {
	i1 := strings.Index(text, headerInterpretation)
	i2 := strings.Index(text, headerRecommendations)
	i3 := strings.Index(text, headerTakeaways)
	for header, idx := range map[string]int{
		headerInterpretation:  i1,
		headerRecommendations: i2,
		headerTakeaways:       i3,
	} {
		if idx == -1 {
			return Narrative{}, fmt.Errorf("narrative: missing section header: %s", header)
		}
	}
	if !(i1 < i2 && i2 < i3) {
		return Narrative{}, fmt.Errorf("narrative: section headers out of order")
	}

	return Narrative{
		Interpretation:  strings.TrimSpace(text[i1+len(headerInterpretation) : i2]),
		Recommendations: strings.TrimSpace(text[i2+len(headerRecommendations) : i3]),
		Takeaways:       strings.TrimSpace(text[i3+len(headerTakeaways):]),
		Raw:             text,
	}, nil
}
