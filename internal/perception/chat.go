package perception

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"sanctuary/internal/logging"
)

// Conversation roles, as the Gemini API names them.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one message of a conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ChatClient continues a multi-turn conversation.
type ChatClient interface {
	Chat(ctx context.Context, systemPrompt string, turns []Turn) (string, error)
}

// ErrChatUnsupported is returned by TracingLLMClient.Chat when the wrapped
// client has no multi-turn support.
var ErrChatUnsupported = errors.New("LLM client does not support multi-turn chat")

// Chat sends the whole conversation; the last turn must come from the user.
func (c *GeminiClient) Chat(ctx context.Context, systemPrompt string, turns []Turn) (string, error) {
	contents, err := buildContents(turns)
	if err != nil {
		return "", err
	}
	logging.APIDebug("Gemini chat: model=%s turns=%d", c.model, len(contents))
	return c.generate(ctx, systemPrompt, contents)
}

// buildContents converts turns to genai contents. Blank turns are dropped.
func buildContents(turns []Turn) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(turns))
	last := ""
	for i, t := range turns {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		var role genai.Role
		switch t.Role {
		case RoleUser:
			role = genai.RoleUser
		case RoleModel:
			role = genai.RoleModel
		default:
			return nil, fmt.Errorf("turn %d: unknown role %q", i, t.Role)
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
		last = t.Role
	}
	if len(contents) == 0 {
		return nil, errors.New("conversation is empty")
	}
	if last != RoleUser {
		return nil, errors.New("conversation must end with a user turn")
	}
	return contents, nil
}

// Chat implements ChatClient when the wrapped client does.
func (tc *TracingLLMClient) Chat(ctx context.Context, systemPrompt string, turns []Turn) (string, error) {
	cc, ok := tc.underlying.(ChatClient)
	if !ok {
		return "", ErrChatUnsupported
	}
	start := time.Now()
	out, err := cc.Chat(ctx, systemPrompt, turns)
	tc.record(start, out, err)
	return out, err
}
