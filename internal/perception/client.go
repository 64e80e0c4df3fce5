// Package perception talks to the generative-language model and turns its
// free-form replies into structured data.
package perception

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sanctuary/internal/config"
)

// LLMClient defines the interface for LLM providers.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

var (
	// ErrNoAPIKey is returned when no model API key is configured.
	ErrNoAPIKey = errors.New("no API key configured for the language model")

	// ErrNoCandidates is returned when the model produced no candidates.
	ErrNoCandidates = errors.New("LLM response has no candidates")

	// ErrNoContent is returned when the first candidate has no text parts.
	ErrNoContent = errors.New("LLM response has no content parts")
)

// UsageRecorder receives the token counts of each model call.
type UsageRecorder interface {
	Track(ctx context.Context, model, provider string, input, output int)
}

// NewClient builds the configured client wrapped for tracing.
// rec may be nil.
func NewClient(ctx context.Context, cfg config.LLMConfig, timeout time.Duration, rec UsageRecorder) (*TracingLLMClient, error) {
	switch cfg.Provider {
	case "gemini", "":
		c, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: timeout,
			Usage:   rec,
		})
		if err != nil {
			return nil, err
		}
		return NewTracingLLMClient(c, c.Model()), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
