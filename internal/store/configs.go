package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrConfigNotFound is returned by GetConfig for an unknown name.
var ErrConfigNotFound = errors.New("config not found")

// GetConfig returns the raw JSON body stored under name.
func (s *Store) GetConfig(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM configs WHERE name = ?", name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", name, err)
	}
	return []byte(body), nil
}

// PutConfig stores body under name, replacing any previous value.
func (s *Store) PutConfig(ctx context.Context, name string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO configs (name, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = CURRENT_TIMESTAMP`,
		name, string(body),
	)
	if err != nil {
		return fmt.Errorf("failed to write config %q: %w", name, err)
	}
	return nil
}

// UpdateConfig rewrites the body stored under name in one transaction.
// fn receives the current body (nil and found=false if absent) and returns
// the replacement. Concurrent updates through the same Store are serialized.
func (s *Store) UpdateConfig(ctx context.Context, name string, fn func(body []byte, found bool) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin config update: %w", err)
	}
	defer tx.Rollback()

	var (
		current string
		found   = true
	)
	err = tx.QueryRowContext(ctx, "SELECT body FROM configs WHERE name = ?", name).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		found = false
	} else if err != nil {
		return fmt.Errorf("failed to read config %q: %w", name, err)
	}

	var old []byte
	if found {
		old = []byte(current)
	}
	next, err := fn(old, found)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO configs (name, body, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = CURRENT_TIMESTAMP`,
		name, string(next),
	); err != nil {
		return fmt.Errorf("failed to write config %q: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit config %q: %w", name, err)
	}
	return nil
}
