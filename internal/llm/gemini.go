package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is the Gemini model used when Settings.Model is empty.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiCompleter sends prompts to Gemini through the Gen AI SDK.
type GeminiCompleter struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiCompleter creates the Gen AI client once; it is reused for every call.
func NewGeminiCompleter(ctx context.Context, s Settings) (*GeminiCompleter, error) {
	cfg := &genai.ClientConfig{
		APIKey:      s.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	}
	if s.BaseURL != "" {
		cfg.HTTPOptions.BaseURL = s.BaseURL
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("NewGeminiCompleter: create genai client: %w", err)
	}

	model := s.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiCompleter{
		client:      client,
		model:       model,
		temperature: s.Temperature,
	}, nil
}

// Complete sends prompt as a single user turn and returns the response text.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	temperature := g.temperature
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("GeminiCompleter.Complete: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GeminiCompleter.Complete: %w", ErrEmptyCompletion)
	}
	return text, nil
}

var _ Completer = (*GeminiCompleter)(nil)
