package llm

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// GroqBaseURL is Groq's OpenAI-compatible endpoint.
	GroqBaseURL = "https://api.groq.com/openai/v1"

	// DefaultGroqModel is the Groq model used when Settings.Model is empty.
	DefaultGroqModel = "llama-3.3-70b-versatile"
)

// OpenAICompleter talks to any OpenAI-compatible chat completion API.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAICompleter builds a completer for an OpenAI-compatible endpoint.
func NewOpenAICompleter(s Settings) *OpenAICompleter {
	cfg := openai.DefaultConfig(s.APIKey)
	if s.BaseURL != "" {
		cfg.BaseURL = s.BaseURL
	}
	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(cfg),
		model:       s.Model,
		temperature: s.Temperature,
	}
}

// NewGroqCompleter points an OpenAICompleter at Groq unless BaseURL overrides it.
func NewGroqCompleter(s Settings) *OpenAICompleter {
	if s.BaseURL == "" {
		s.BaseURL = GroqBaseURL
	}
	if s.Model == "" {
		s.Model = DefaultGroqModel
	}
	return NewOpenAICompleter(s)
}

// Complete sends prompt as a single user message.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	temperature := c.temperature
	if temperature == 0 {
		// a zero temperature is dropped by omitempty and the server default applies
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAICompleter.Complete: create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("OpenAICompleter.Complete: %w", ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}

var _ Completer = (*OpenAICompleter)(nil)
