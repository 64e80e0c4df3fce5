package store

import (
	"context"
	"fmt"
	"time"
)

// ChatRow is one exchange of the Control Zone chat.
type ChatRow struct {
	ID          int64
	Session     string
	UserMessage string
	AIResponse  string
	CreatedAt   time.Time
}

// FeedbackRow is a like or dislike given to one chat reply.
type FeedbackRow struct {
	ID          int64
	Session     string
	UserMessage string
	AIResponse  string
	Type        string
	CreatedAt   time.Time
}

// AppendChat stores one exchange and returns its id.
func (s *Store) AppendChat(ctx context.Context, row ChatRow) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_history (session, user_message, ai_response, created_at) VALUES (?, ?, ?, ?)",
		row.Session, row.UserMessage, row.AIResponse, row.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save chat entry: %w", err)
	}
	return res.LastInsertId()
}

// ChatHistory returns the last limit exchanges of session, oldest first.
// limit <= 0 returns the whole history.
func (s *Store) ChatHistory(ctx context.Context, session string, limit int) ([]ChatRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session, user_message, ai_response, created_at
		FROM chat_history WHERE session = ? ORDER BY id DESC LIMIT ?`, session, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}
	defer rows.Close()

	var out []ChatRow
	for rows.Next() {
		var r ChatRow
		if err := rows.Scan(&r.ID, &r.Session, &r.UserMessage, &r.AIResponse, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat entry: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// AddFeedback stores a like or dislike and returns its id.
func (s *Store) AddFeedback(ctx context.Context, row FeedbackRow) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO ai_feedback (session, user_message, ai_response, feedback_type, created_at) VALUES (?, ?, ?, ?, ?)",
		row.Session, row.UserMessage, row.AIResponse, row.Type, row.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save feedback: %w", err)
	}
	return res.LastInsertId()
}

// Feedback lists the feedback of session, oldest first.
func (s *Store) Feedback(ctx context.Context, session string) ([]FeedbackRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session, user_message, ai_response, feedback_type, created_at
		FROM ai_feedback WHERE session = ? ORDER BY id`, session)
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback: %w", err)
	}
	defer rows.Close()

	var out []FeedbackRow
	for rows.Next() {
		var r FeedbackRow
		if err := rows.Scan(&r.ID, &r.Session, &r.UserMessage, &r.AIResponse, &r.Type, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
