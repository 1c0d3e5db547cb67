// Package narrative asks a chat-completion model to interpret an assessment
// in plain English. The model only narrates; every number and flag it sees
// was computed deterministically upstream.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jbustamante27/Fitness-AI-agent/internal/metrics"
	"github.com/jbustamante27/Fitness-AI-agent/internal/risk"
)

const (
	defaultModel       = openai.GPT4oMini
	defaultTemperature = 0.4
)

// Narrative is the model's reply, split into the three contract sections.
// Raw keeps the unsplit text for debugging and reprocessing.
type Narrative struct {
	Interpretation  string `json:"interpretation"`
	Recommendations string `json:"recommendations"`
	Takeaways       string `json:"takeaways"`
	Raw             string `json:"raw"`
}

// Config holds the completion backend settings.
type Config struct {
	APIKey      string
	BaseURL     string // optional override, mainly for tests and proxies
	Model       string
	Temperature float32
}

// Generator produces narratives through a chat-completion API.
type Generator struct {
	client      *openai.Client
	model       string
	temperature float32
}

// New builds a Generator. The API key is the only required setting.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("narrative: API key is required")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	g := &Generator{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
	if g.model == "" {
		g.model = defaultModel
	}
	if g.temperature == 0 {
		g.temperature = defaultTemperature
	}
	return g, nil
}

// Generate sends one completion request and parses the sectioned reply.
// Cancellation and deadlines arrive through ctx; the caller owns the policy.
func (g *Generator) Generate(ctx context.Context, snap metrics.Snapshot, assessment risk.Assessment) (Narrative, error) {
	prompt, err := buildUserPrompt(snap, assessment)
	if err != nil {
		return Narrative{}, err
	}

	started := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		recordRequest(outcomeError, time.Since(started))
		return Narrative{}, fmt.Errorf("narrative: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		recordRequest(outcomeMalformed, time.Since(started))
		return Narrative{}, errors.New("narrative: completion returned no choices")
	}

	out, err := splitSections(resp.Choices[0].Message.Content)
	if err != nil {
		recordRequest(outcomeMalformed, time.Since(started))
		return Narrative{}, err
	}
	recordRequest(outcomeSuccess, time.Since(started))
	return out, nil
}
