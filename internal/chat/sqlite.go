package chat

import (
	"context"

	"sanctuary/internal/store"
)

// RowStore is the subset of store.Store used by SQLiteHistory.
type RowStore interface {
	AppendChat(ctx context.Context, row store.ChatRow) (int64, error)
	ChatHistory(ctx context.Context, session string, limit int) ([]store.ChatRow, error)
	AddFeedback(ctx context.Context, row store.FeedbackRow) (int64, error)
}

// SQLiteHistory keeps the chat in the chat_history and ai_feedback tables
// of the local database.
type SQLiteHistory struct {
	rows RowStore
}

// NewSQLiteHistory creates a history on top of the local database.
func NewSQLiteHistory(rows RowStore) *SQLiteHistory {
	return &SQLiteHistory{rows: rows}
}

// Name returns the backend name.
func (h *SQLiteHistory) Name() string { return "sqlite" }

// Append implements History.
func (h *SQLiteHistory) Append(ctx context.Context, e Entry) error {
	_, err := h.rows.AppendChat(ctx, store.ChatRow{
		Session:     e.Session,
		UserMessage: e.UserMessage,
		AIResponse:  e.AIResponse,
		CreatedAt:   e.Timestamp,
	})
	return err
}

// List implements History.
func (h *SQLiteHistory) List(ctx context.Context, session string, limit int) ([]Entry, error) {
	rows, err := h.rows.ChatHistory(ctx, session, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = Entry{
			Session:     r.Session,
			UserMessage: r.UserMessage,
			AIResponse:  r.AIResponse,
			Timestamp:   r.CreatedAt,
		}
	}
	return out, nil
}

// AddFeedback implements History.
func (h *SQLiteHistory) AddFeedback(ctx context.Context, f Feedback) error {
	_, err := h.rows.AddFeedback(ctx, store.FeedbackRow{
		Session:     f.Session,
		UserMessage: f.UserMessage,
		AIResponse:  f.AIResponse,
		Type:        f.FeedbackType,
		CreatedAt:   f.Timestamp,
	})
	return err
}
