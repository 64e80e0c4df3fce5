package weights

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"sanctuary/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ConfigStore is the subset of store.Store used by SQLiteStore.
type ConfigStore interface {
	GetConfig(ctx context.Context, name string) ([]byte, error)
	UpdateConfig(ctx context.Context, name string, fn func(body []byte, found bool) ([]byte, error)) error
}

// SQLiteStore keeps the weights as a JSON document in the local configs table.
type SQLiteStore struct {
	configs ConfigStore
}

// NewSQLiteStore creates a store on top of the local database.
func NewSQLiteStore(configs ConfigStore) *SQLiteStore {
	return &SQLiteStore{configs: configs}
}

// Name returns the backend name.
func (s *SQLiteStore) Name() string { return "sqlite" }

// Load reads the weights document.
func (s *SQLiteStore) Load(ctx context.Context) (Weights, bool, error) {
	body, err := s.configs.GetConfig(ctx, DocumentName)
	if errors.Is(err, store.ErrConfigNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var w Weights
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, false, fmt.Errorf("failed to decode stored weights: %w", err)
	}
	return w, true, nil
}

// Save merges w into the stored document in a single read-modify-write.
func (s *SQLiteStore) Save(ctx context.Context, w Weights) error {
	return s.configs.UpdateConfig(ctx, DocumentName, func(body []byte, found bool) ([]byte, error) {
		var current Weights
		if found {
			if err := json.Unmarshal(body, &current); err != nil {
				return nil, fmt.Errorf("failed to decode stored weights: %w", err)
			}
		}
		out, err := json.Marshal(Merge(current, w))
		if err != nil {
			return nil, fmt.Errorf("failed to encode weights: %w", err)
		}
		return out, nil
	})
}
