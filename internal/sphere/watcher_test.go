package sphere

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoSectors = `{"sectors":[
 {"id":"a","name":"A","micro_niches":[{"id":"a1","name":"A1","sigla":"A1","status":"ativo"}]},
 {"id":"b","name":"B","micro_niches":[]}
]}`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestLoadMarketData(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	writeFile(t, good, twoSectors)
	data, err := LoadMarketData(good)
	require.NoError(t, err)
	require.Len(t, data.Sectors, 2)
	assert.Equal(t, 1, data.Sectors[0].ActiveCount())

	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, "{")
	_, err = LoadMarketData(bad)
	assert.True(t, errors.Is(err, ErrInvalidData))

	empty := filepath.Join(dir, "empty.json")
	writeFile(t, empty, `{"sectors":[]}`)
	_, err = LoadMarketData(empty)
	assert.True(t, errors.Is(err, ErrInvalidData))

	_, err = LoadMarketData(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestWatcher_ReloadsValidChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "market.json")
	writeFile(t, path, twoSectors)

	var mu sync.Mutex
	var got []*MarketData
	w, err := NewWatcher(path, func(d *MarketData) {
		mu.Lock()
		got = append(got, d)
		mu.Unlock()
	})
	require.NoError(t, err)
	w.debounce = 30 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Unrelated files in the same directory are ignored.
	writeFile(t, filepath.Join(dir, "other.json"), twoSectors)

	writeFile(t, path, `{"sectors":[{"id":"only","name":"Only","micro_niches":[]}]}`)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "only", got[0].Sectors[0].ID)
	mu.Unlock()

	writeFile(t, path, `{"sectors":[]}`)
	require.Eventually(t, func() bool {
		_, failures := w.Stats()
		return failures == 1
	}, 5*time.Second, 10*time.Millisecond)

	reloads, _ := w.Stats()
	assert.Equal(t, 1, reloads)
	mu.Lock()
	assert.Len(t, got, 1)
	mu.Unlock()
}

func TestNewWatcher_MissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope", "market.json"), func(*MarketData) {})
	assert.Error(t, err)
}
