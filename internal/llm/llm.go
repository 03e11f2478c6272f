package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

var (
	// ErrEmptyCompletion is returned when the model answers with no text.
	ErrEmptyCompletion = errors.New("empty completion from model")

	// ErrUnknownProvider is returned by New for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown llm provider")

	// ErrMissingAPIKey is returned by New when the provider credential is empty.
	ErrMissingAPIKey = errors.New("llm api key is not set")
)

// Completer maps a prompt to a completion. Implementations are single-shot:
// no retries, errors are returned to the caller as-is.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Settings selects and configures a provider.
type Settings struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float32
	BaseURL     string // optional endpoint override
}

// New builds the Completer for s.Provider.
func New(ctx context.Context, s Settings) (Completer, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, fmt.Errorf("New: %s: %w", s.Provider, ErrMissingAPIKey)
	}

	switch strings.ToLower(s.Provider) {
	case ProviderGemini:
		return NewGeminiCompleter(ctx, s)
	case ProviderGroq:
		return NewGroqCompleter(s), nil
	default:
		return nil, fmt.Errorf("New: %q: %w", s.Provider, ErrUnknownProvider)
	}
}
