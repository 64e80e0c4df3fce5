// Package usage records model token usage and persists the totals to
// <dir>/usage.json.
package usage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"sanctuary/internal/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileName is the persisted usage file inside the tracker directory.
const FileName = "usage.json"

type operationKey struct{}

// Tracker manages token usage recording and persistence.
type Tracker struct {
	mu       sync.Mutex
	data     Data
	filePath string
	dirty    bool
	now      func() time.Time
}

// NewTracker creates a tracker persisting to dir/usage.json and loads any
// previous totals. A corrupt file is logged and replaced on the next Flush.
func NewTracker(dir string) (*Tracker, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create usage dir: %w", err)
	}

	t := &Tracker{
		filePath: filepath.Join(dir, FileName),
		data:     Data{Version: "1.0", Aggregate: newStats()},
		now:      time.Now,
	}
	if err := t.Load(); err != nil {
		logging.Get(logging.CategoryAPI).Warn("Ignoring unreadable usage file %s: %v", t.filePath, err)
	}
	return t, nil
}

// Load reads the usage data from disk.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	raw, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return err
	}

	// Files written by older versions may lack some maps.
	fresh := newStats()
	if d.Aggregate.ByProvider == nil {
		d.Aggregate.ByProvider = fresh.ByProvider
	}
	if d.Aggregate.ByModel == nil {
		d.Aggregate.ByModel = fresh.ByModel
	}
	if d.Aggregate.ByOperation == nil {
		d.Aggregate.ByOperation = fresh.ByOperation
	}
	if d.Aggregate.ByDay == nil {
		d.Aggregate.ByDay = fresh.ByDay
	}
	t.data = d
	return nil
}

// Flush writes the usage data if anything was tracked since the last write.
func (t *Tracker) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dirty {
		return nil
	}
	return t.saveLocked()
}

// Save writes the usage data to disk.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.saveLocked()
}

func (t *Tracker) saveLocked() error {
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(t.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write usage file: %w", err)
	}
	t.dirty = false
	return nil
}

// Track records one model call. The operation is taken from ctx.
func (t *Tracker) Track(ctx context.Context, model, provider string, input, output int) {
	op := Operation(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	agg := &t.data.Aggregate
	agg.Total.Add(input, output)
	addToMap(agg.ByProvider, provider, input, output)
	addToMap(agg.ByModel, model, input, output)
	addToMap(agg.ByOperation, op, input, output)
	addToMap(agg.ByDay, now.Format("2006-01-02"), input, output)
	t.data.UpdatedAt = now
	t.dirty = true
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByProvider = copyTokenCountsMap(stats.ByProvider)
	stats.ByModel = copyTokenCountsMap(stats.ByModel)
	stats.ByOperation = copyTokenCountsMap(stats.ByOperation)
	stats.ByDay = copyTokenCountsMap(stats.ByDay)
	return stats
}

func copyTokenCountsMap(src map[string]TokenCounts) map[string]TokenCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]TokenCounts, key string, input, output int) {
	entry := m[key]
	entry.Add(input, output)
	m[key] = entry
}

// WithOperation tags ctx with the operation that model calls made under it
// are accounted to.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

// Operation returns the operation tag of ctx, or "unknown".
func Operation(ctx context.Context) string {
	if op, ok := ctx.Value(operationKey{}).(string); ok && op != "" {
		return op
	}
	return "unknown"
}
