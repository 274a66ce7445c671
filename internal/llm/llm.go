// Package llm asks an OpenAI-compatible model for advisory IELTS writing marks.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/bandscore/internal/exam"
	"github.com/pavelanni/bandscore/internal/llm/prompts"
	"github.com/pavelanni/bandscore/internal/model"
	"github.com/pavelanni/bandscore/internal/scoring"
)

// Assessment is the JSON object the model is asked to return.
type Assessment struct {
	TaskAchievement   float64 `json:"task_achievement"`
	CoherenceCohesion float64 `json:"coherence_cohesion"`
	LexicalResource   float64 `json:"lexical_resource"`
	GrammaticalRange  float64 `json:"grammatical_range"`
	Feedback          string  `json:"feedback"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api     *openai.Client
	model   string
	variant prompts.PromptVariant
}

var _ exam.Assessor = (*Client)(nil)

// New creates a client. An empty variant means standard.
func New(baseURL, apiKey, modelName, variant string) (*Client, error) {
	if variant == "" {
		variant = string(prompts.PromptStandard)
	}
	if !prompts.IsValidVariant(variant) {
		return nil, fmt.Errorf("unknown prompt variant %q", variant)
	}
	if err := prompts.Load(prompts.Templates); err != nil {
		return nil, err
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		variant: prompts.PromptVariant(variant),
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Ping lists models to check the endpoint and credentials.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM list models: %w", err)
	}
	return nil
}

// AssessWriting scores response against the four writing criteria.
// Out-of-range criterion scores are clamped to valid bands.
func (c *Client) AssessWriting(ctx context.Context, task model.Task, response string) (model.WritingSuggestion, error) {
	prompt, err := prompts.BuildWritingPrompt(c.variant, prompts.WritingData{
		TaskNumber: task.TaskNumber,
		TaskPrompt: task.Prompt,
		MinWords:   exam.MinWords(task.TaskNumber),
		WordCount:  exam.CountWords(response),
		Response:   response,
	})
	if err != nil {
		return model.WritingSuggestion{}, fmt.Errorf("build prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return model.WritingSuggestion{}, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.WritingSuggestion{}, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	a, err := parseAssessment(raw)
	if err != nil {
		return model.WritingSuggestion{}, err
	}
	scores := model.CriteriaScores{
		TaskAchievement:   scoring.ClampBand(a.TaskAchievement),
		CoherenceCohesion: scoring.ClampBand(a.CoherenceCohesion),
		LexicalResource:   scoring.ClampBand(a.LexicalResource),
		GrammaticalRange:  scoring.ClampBand(a.GrammaticalRange),
	}
	return model.WritingSuggestion{
		Scores:    scores,
		BandScore: scoring.CriteriaBand(scores),
		Feedback:  strings.TrimSpace(a.Feedback),
		Model:     c.model,
	}, nil
}

// parseAssessment decodes the model output, tolerating a Markdown code fence.
func parseAssessment(raw string) (Assessment, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	var a Assessment
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &a); err != nil {
		return Assessment{}, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	return a, nil
}
