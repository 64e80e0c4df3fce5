package store

import (
	"context"
)

// MockEmbeddingEngine implements embedding.EmbeddingEngine for testing.
type MockEmbeddingEngine struct {
	EmbedFunc      func(ctx context.Context, text string) ([]float32, error)
	EmbedBatchFunc func(ctx context.Context, texts []string) ([][]float32, error)
	DimensionsFunc func() int
	NameFunc       func() string
}

func (m *MockEmbeddingEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	// Return a dummy vector of length 4 by default
	return []float32{0.1, 0.2, 0.3, 0.4}, nil
}

func (m *MockEmbeddingEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.EmbedBatchFunc != nil {
		return m.EmbedBatchFunc(ctx, texts)
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		v, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func (m *MockEmbeddingEngine) Dimensions() int {
	if m.DimensionsFunc != nil {
		return m.DimensionsFunc()
	}
	return 4
}

func (m *MockEmbeddingEngine) Name() string {
	if m.NameFunc != nil {
		return m.NameFunc()
	}
	return "mock-embedding-engine"
}
