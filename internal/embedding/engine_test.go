package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashEngine_Deterministic(t *testing.T) {
	e := NewHashEngine(0)
	require.Equal(t, DefaultHashDimensions, e.Dimensions())

	a, err := e.Embed(context.Background(), "marketing digital")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "marketing digital")
	require.NoError(t, err)
	c, err := e.Embed(context.Background(), "mapas mentais")
	require.NoError(t, err)

	assert.Len(t, a, DefaultHashDimensions)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	for _, v := range a {
		assert.True(t, v >= 0 && v < 1, "component out of range: %v", v)
	}
}

func TestHashEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashEngine(8).Embed(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashEngine_EmbedBatch(t *testing.T) {
	e := NewHashEngine(16)
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "a"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, vecs[0], vecs[2])
	assert.Equal(t, "hash:16", e.Name())
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(Config{Provider: "hash", Dimensions: 32})
	require.NoError(t, err)
	assert.Equal(t, 32, e.Dimensions())

	_, err = NewEngine(Config{Provider: "genai"})
	assert.Error(t, err, "genai without key must fail")

	_, err = NewEngine(Config{Provider: "ollama"})
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}

	_, err := CosineSimilarity([]float32{1}, []float32{1, 2})
	assert.Error(t, err)
}

func TestFindTopK(t *testing.T) {
	query := []float32{1, 0}
	corpus := [][]float32{
		{0, 1},    // 0
		{1, 0},    // 1
		{1, 1},    // 2
		{1, 2, 3}, // mismatched, skipped
	}

	got := FindTopK(query, corpus, 2)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, 2, got[1].Index)
	assert.InDelta(t, 1/math.Sqrt2, got[1].Similarity, 1e-6)

	all := FindTopK(query, corpus, 0)
	assert.Len(t, all, 3)
}

func TestNormalizeTaskType(t *testing.T) {
	assert.Equal(t, "RETRIEVAL_QUERY", normalizeTaskType(" retrieval_query "))
	assert.Equal(t, "SEMANTIC_SIMILARITY", normalizeTaskType(""))
	assert.Equal(t, "SEMANTIC_SIMILARITY", normalizeTaskType("bogus"))
}
