package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sanctuary/internal/embedding"
	"sanctuary/internal/logging"
)

// Match is one similarity search result.
type Match struct {
	ID         int64   `json:"id"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// DefaultDocuments are inserted by SeedDefaults into an empty database.
var DefaultDocuments = []string{
	"O marketing digital é essencial para empresas hoje em dia.",
	"SEO on-page otimiza o conteúdo de uma página para motores de busca.",
	"Mapas mentais são ferramentas visuais para organizar ideias.",
	"Gerenciamento de vídeos e sua otimização para plataformas.",
	"Inteligência artificial e aprendizado de máquina estão revolucionando a análise de dados.",
}

// InsertDocument embeds text and stores it. Returns the new document ID.
func (s *Store) InsertDocument(ctx context.Context, text string) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("document text is empty")
	}

	vec, err := s.engine.Embed(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("failed to generate embedding: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (content, embedding) VALUES (?, ?)",
		text, encodeVector(vec),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read document id: %w", err)
	}

	logging.StoreDebug("Inserted document %d (%d chars)", id, len(text))
	logging.Audit().DocumentAdded(id, len(strings.Fields(text)))
	return id, nil
}

// SearchSimilar returns the k documents most similar to text, sorted by
// descending cosine similarity. k <= 0 selects 10. With sqlite-vec loaded
// the ranking runs in SQL; otherwise every embedding is scanned in process.
func (s *Store) SearchSimilar(ctx context.Context, text string, k int) ([]Match, error) {
	timer := logging.StartTimer(logging.CategoryStore, "SearchSimilar")
	defer timer.StopWithThreshold(searchSlowThreshold)

	if k <= 0 {
		k = 10
	}
	query, err := s.engine.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.vectorExt {
		matches, err := s.searchVec(ctx, query, k)
		if err == nil {
			logging.StoreDebug("SearchSimilar (sqlite-vec) returning %d", len(matches))
			return matches, nil
		}
		logging.StoreWarn("sqlite-vec search failed, falling back to scan: %v", err)
	}
	return s.searchScan(ctx, query, k)
}

// searchSlowThreshold marks similarity searches worth a performance warning.
const searchSlowThreshold = 500 * time.Millisecond

// searchVec ranks documents with sqlite-vec's vec_distance_cosine.
// Rows whose embedding length differs from the query are skipped.
func (s *Store) searchVec(ctx context.Context, query []float32, k int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, vec_distance_cosine(embedding, ?) AS distance
		FROM documents
		WHERE length(embedding) = ?
		ORDER BY distance, id
		LIMIT ?`,
		encodeVector(query), 4*len(query), k,
	)
	if err != nil {
		return nil, fmt.Errorf("vec query: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			m        Match
			distance sql.NullFloat64
		)
		if err := rows.Scan(&m.ID, &m.Content, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		// A zero vector has no direction; treat it as unrelated like CosineSimilarity does.
		if distance.Valid && !math.IsNaN(distance.Float64) {
			m.Similarity = 1 - distance.Float64
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	return matches, nil
}

// searchScan loads every embedding and ranks them in process.
func (s *Store) searchScan(ctx context.Context, query []float32, k int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, content, embedding FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var (
		ids      []int64
		contents []string
		corpus   [][]float32
	)
	for rows.Next() {
		var (
			id      int64
			content string
			blob    []byte
		)
		if err := rows.Scan(&id, &content, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		vec, err := decodeVector(blob, nil)
		if err != nil {
			logging.StoreWarn("Skipping document %d: %v", id, err)
			continue
		}
		ids = append(ids, id)
		contents = append(contents, content)
		corpus = append(corpus, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	top := embedding.FindTopK(query, corpus, k)
	matches := make([]Match, len(top))
	for i, r := range top {
		matches[i] = Match{ID: ids[r.Index], Content: contents[r.Index], Similarity: r.Similarity}
	}

	logging.StoreDebug("SearchSimilar scanned %d documents, returning %d", len(corpus), len(matches))
	return matches, nil
}

// CountDocuments returns the number of stored documents.
func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// SeedDefaults inserts DefaultDocuments when the documents table is empty.
// Returns the number of inserted documents.
func (s *Store) SeedDefaults(ctx context.Context) (int, error) {
	n, err := s.CountDocuments(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.StoreDebug("SeedDefaults: %d documents present, skipping", n)
		return 0, nil
	}

	// Embeddings may hit a remote API, so compute them concurrently and
	// insert in order afterwards.
	vecs := make([][]float32, len(DefaultDocuments))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for i, doc := range DefaultDocuments {
		eg.Go(func() error {
			v, err := s.engine.Embed(egCtx, doc)
			if err != nil {
				return fmt.Errorf("embed seed document %d: %w", i, err)
			}
			vecs[i] = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO documents (content, embedding) VALUES (?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare seed insert: %w", err)
	}
	defer stmt.Close()

	for i, doc := range DefaultDocuments {
		if _, err := stmt.ExecContext(ctx, doc, encodeVector(vecs[i])); err != nil {
			return 0, fmt.Errorf("failed to insert seed document %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed documents: %w", err)
	}

	logging.Store("Seeded %d default documents", len(DefaultDocuments))
	return len(DefaultDocuments), nil
}
