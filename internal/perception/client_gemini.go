package perception

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"sanctuary/internal/logging"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiConfig holds configuration for GeminiClient.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Usage   UsageRecorder // optional
}

// GeminiClient implements LLMClient for Google Gemini via the genai SDK.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	usage   UsageRecorder
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	logging.API("Gemini client ready (model=%s, timeout=%v)", model, cfg.Timeout)
	return &GeminiClient{client: client, model: model, timeout: cfg.Timeout, usage: cfg.Usage}, nil
}

// Model returns the model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// Complete sends a single user prompt.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with an optional system instruction and
// returns the text of the first candidate.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	logging.APIDebug("Gemini request: model=%s prompt_chars=%d", c.model, len(userPrompt))
	return c.generate(ctx, systemPrompt, genai.Text(userPrompt))
}

func (c *GeminiClient) generate(ctx context.Context, systemPrompt string, contents []*genai.Content) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var genCfg *genai.GenerateContentConfig
	if systemPrompt != "" {
		genCfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	c.recordUsage(ctx, resp)
	return firstText(resp)
}

func (c *GeminiClient) recordUsage(ctx context.Context, resp *genai.GenerateContentResponse) {
	if c.usage == nil || resp == nil || resp.UsageMetadata == nil {
		return
	}
	md := resp.UsageMetadata
	c.usage.Track(ctx, c.model, "gemini", int(md.PromptTokenCount), int(md.CandidatesTokenCount+md.ThoughtsTokenCount))
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrNoCandidates
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", ErrNoContent
	}
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		if p != nil && !p.Thought {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrNoContent
	}
	return sb.String(), nil
}
