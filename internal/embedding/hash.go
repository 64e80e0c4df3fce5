package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"

	"sanctuary/internal/logging"
)

// DefaultHashDimensions is the vector size stored in banco_local.db.
const DefaultHashDimensions = 512

// HashEngine produces deterministic pseudo-random vectors seeded by a hash
// of the text. Identical texts always map to identical vectors, which is
// enough for duplicate detection and for running the SEO section offline.
type HashEngine struct {
	dims int
}

// NewHashEngine creates a hash engine. dims <= 0 selects DefaultHashDimensions.
func NewHashEngine(dims int) *HashEngine {
	if dims <= 0 {
		dims = DefaultHashDimensions
	}
	return &HashEngine{dims: dims}
}

// Embed returns a vector with components in [0,1).
func (e *HashEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float32, e.dims)
	for i := range vec {
		vec[i] = rng.Float32()
	}
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *HashEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	logging.EmbeddingDebug("Hash embed batch: texts=%d dims=%d", len(texts), e.dims)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("hash embed %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the dimensionality of embeddings.
func (e *HashEngine) Dimensions() int { return e.dims }

// Name returns the engine name.
func (e *HashEngine) Name() string { return fmt.Sprintf("hash:%d", e.dims) }
