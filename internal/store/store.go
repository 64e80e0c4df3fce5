// Package store persists SEO documents and named JSON configuration
// documents in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"sanctuary/internal/embedding"
	"sanctuary/internal/logging"
)

// vecCompiled is set by init_vec.go in builds tagged sqlite_vec.
var vecCompiled bool

// Store is the local SQLite database behind the SEO section and the
// sqlite weights backend.
type Store struct {
	db        *sql.DB
	mu        sync.RWMutex
	dbPath    string
	engine    embedding.EmbeddingEngine
	vectorExt bool // sqlite-vec available
}

// Open initializes the SQLite database at path and applies migrations.
// Use ":memory:" for an ephemeral database.
func Open(path string, engine embedding.EmbeddingEngine) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if engine == nil {
		return nil, fmt.Errorf("embedding engine is required")
	}

	logging.Store("Opening store at path: %s", path)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logging.Get(logging.CategoryStore).Error("Failed to create directory %s: %v", dir, err)
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and
	// serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	version, err := runMigrations(db)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to migrate schema: %v", err)
		db.Close()
		return nil, err
	}
	logging.StoreDebug("Schema at version %d", version)

	s := &Store{db: db, dbPath: path, engine: engine}
	s.detectVecExtension()
	if s.vectorExt {
		logging.Store("sqlite-vec extension detected")
	} else {
		logging.StoreDebug("sqlite-vec extension not available; using in-process cosine scan")
	}

	logging.Store("Store ready (engine=%s, dims=%d)", engine.Name(), engine.Dimensions())
	return s, nil
}

// detectVecExtension checks for the sqlite-vec functions registered by
// init_vec.go when built with the sqlite_vec tag.
func (s *Store) detectVecExtension() {
	var v string
	err := s.db.QueryRow("SELECT vec_version()").Scan(&v)
	switch {
	case err == nil:
		s.vectorExt = true
		logging.StoreDebug("sqlite-vec version %s", v)
	case vecCompiled:
		logging.StoreWarn("sqlite-vec was compiled in but is not loaded: %v", err)
	}
}

// VectorExtension reports whether sqlite-vec is loaded.
func (s *Store) VectorExtension() bool {
	return s.vectorExt
}

// Engine returns the embedding engine used for documents.
func (s *Store) Engine() embedding.EmbeddingEngine {
	return s.engine
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.dbPath
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
