// Package chat runs the Control Zone conversation with the language model
// and keeps its history and feedback.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sanctuary/internal/logging"
	"sanctuary/internal/perception"
	"sanctuary/internal/usage"
)

const (
	// DefaultSession holds the history of callers that send no session.
	DefaultSession = "default"

	// DefaultHistoryLimit is the number of past exchanges replayed to the model.
	DefaultHistoryLimit = 20

	// FallbackReply is stored and returned when the model answers with nothing.
	FallbackReply = "Erro: Não foi possível obter resposta da IA."

	// replyPrefix is how earlier replies were shown to the user.
	replyPrefix = "IA: "

	slowReply = 20 * time.Second
)

// Feedback types.
const (
	Like    = "like"
	Dislike = "dislike"
)

var (
	// ErrEmptyMessage is returned for a blank user message.
	ErrEmptyMessage = errors.New("mensagem vazia")

	// ErrInvalidFeedback is returned for a feedback type other than like or dislike.
	ErrInvalidFeedback = errors.New("feedbackType deve ser 'like' ou 'dislike'")

	// ErrMissingResponse is returned for feedback without the rated reply.
	ErrMissingResponse = errors.New("aiResponse é obrigatório")

	// ErrLLM wraps failures of the model call.
	ErrLLM = errors.New("erro ao conversar com a IA")
)

// Entry is one user message and the reply it got.
type Entry struct {
	Session     string    `json:"session" bson:"session"`
	UserMessage string    `json:"userMessage" bson:"userMessage"`
	AIResponse  string    `json:"aiResponse" bson:"aiResponse"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

// Feedback is a like or dislike given to one reply.
type Feedback struct {
	Session      string    `json:"session" bson:"session"`
	UserMessage  string    `json:"userMessage" bson:"userMessage"`
	AIResponse   string    `json:"aiResponse" bson:"aiResponse"`
	FeedbackType string    `json:"feedbackType" bson:"feedbackType"`
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
}

// History persists entries and feedback per session.
type History interface {
	Append(ctx context.Context, e Entry) error
	// List returns the last limit entries oldest first; limit <= 0 means all.
	List(ctx context.Context, session string, limit int) ([]Entry, error)
	AddFeedback(ctx context.Context, f Feedback) error
	Name() string
}

// Service answers chat messages with the model.
type Service struct {
	llm     perception.ChatClient
	history History
	limit   int
	now     func() time.Time
}

// NewService creates a chat service. llm may be nil when no API key is
// configured; Send then reports perception.ErrNoAPIKey.
func NewService(llm perception.ChatClient, history History, limit int) *Service {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Service{llm: llm, history: history, limit: limit, now: time.Now}
}

// Backend returns the name of the history backend.
func (s *Service) Backend() string { return s.history.Name() }

// Send replays the session history plus message to the model, stores the
// exchange and returns it. An empty model reply is stored as FallbackReply.
func (s *Service) Send(ctx context.Context, session, message string) (*Entry, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if s.llm == nil {
		return nil, fmt.Errorf("%w: %w", ErrLLM, perception.ErrNoAPIKey)
	}
	session = sessionOrDefault(session)

	past, err := s.history.List(ctx, session, s.limit)
	if err != nil {
		return nil, err
	}

	timer := logging.StartTimer(logging.CategoryChat, "Send")
	defer timer.StopWithThreshold(slowReply)

	reply, err := s.llm.Chat(usage.WithOperation(ctx, "chat"), "", Turns(past, message))
	switch {
	case errors.Is(err, perception.ErrNoCandidates), errors.Is(err, perception.ErrNoContent):
		logging.Get(logging.CategoryChat).Warn("Model returned no reply for session %s: %v", session, err)
		reply = FallbackReply
	case err != nil:
		logging.Get(logging.CategoryChat).Error("Chat call failed for session %s: %v", session, err)
		return nil, fmt.Errorf("%w: %w", ErrLLM, err)
	}

	entry := Entry{
		Session:     session,
		UserMessage: message,
		AIResponse:  strings.TrimSpace(reply),
		Timestamp:   s.now().UTC(),
	}
	if err := s.history.Append(ctx, entry); err != nil {
		return nil, err
	}
	logging.Chat("Session %s: %d past exchanges, reply %d chars", session, len(past), len(entry.AIResponse))
	return &entry, nil
}

// History returns the stored exchanges of session, oldest first.
func (s *Service) History(ctx context.Context, session string) ([]Entry, error) {
	entries, err := s.history.List(ctx, sessionOrDefault(session), 0)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Rate stores a like or dislike for a reply.
func (s *Service) Rate(ctx context.Context, f Feedback) (*Feedback, error) {
	if f.FeedbackType != Like && f.FeedbackType != Dislike {
		return nil, ErrInvalidFeedback
	}
	if strings.TrimSpace(f.AIResponse) == "" {
		return nil, ErrMissingResponse
	}
	f.Session = sessionOrDefault(f.Session)
	f.Timestamp = s.now().UTC()
	if err := s.history.AddFeedback(ctx, f); err != nil {
		return nil, err
	}
	logging.Chat("Session %s: %s feedback", f.Session, f.FeedbackType)
	return &f, nil
}

// Turns converts stored exchanges into model turns ending with message.
// The "IA: " display prefix is removed from replies.
func Turns(past []Entry, message string) []perception.Turn {
	turns := make([]perception.Turn, 0, 2*len(past)+1)
	for _, e := range past {
		turns = append(turns,
			perception.Turn{Role: perception.RoleUser, Text: e.UserMessage},
			perception.Turn{Role: perception.RoleModel, Text: strings.TrimPrefix(e.AIResponse, replyPrefix)},
		)
	}
	return append(turns, perception.Turn{Role: perception.RoleUser, Text: message})
}

func sessionOrDefault(session string) string {
	session = strings.TrimSpace(session)
	if session == "" {
		return DefaultSession
	}
	return session
}
