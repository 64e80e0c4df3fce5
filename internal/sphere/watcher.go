package sphere

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"sanctuary/internal/logging"
)

// DefaultDebounce batches the burst of events an editor produces on save.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reloads a market data file whenever it changes on disk.
// The parent directory is watched so rename-on-save editors keep working.
type Watcher struct {
	path     string
	onChange func(*MarketData)
	debounce time.Duration

	watcher *fsnotify.Watcher

	mu       sync.Mutex
	pending  bool
	lastSeen time.Time
	reloads  int
	failures int
}

// NewWatcher prepares a watcher for path. onChange receives every valid
// reload; invalid files are logged and skipped.
func NewWatcher(path string, onChange func(*MarketData)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		onChange: onChange,
		debounce: DefaultDebounce,
		watcher:  fw,
	}, nil
}

// Run processes events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	logging.Sphere("Watching market data file %s", w.path)

	tick := time.NewTicker(w.debounce / 3)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ev)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logging.Get(logging.CategorySphere).Error("Market data watcher error: %v", err)

		case now := <-tick.C:
			if w.due(now) {
				w.reload()
			}
		}
	}
}

// Stats returns the number of applied and rejected reloads.
func (w *Watcher) Stats() (reloads, failures int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads, w.failures
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	logging.SphereDebug("Market data event %s on %s", ev.Op, ev.Name)
	w.mu.Lock()
	w.pending = true
	w.lastSeen = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) due(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.pending || now.Sub(w.lastSeen) < w.debounce {
		return false
	}
	w.pending = false
	return true
}

func (w *Watcher) reload() {
	data, err := LoadMarketData(w.path)
	w.mu.Lock()
	if err != nil {
		w.failures++
	} else {
		w.reloads++
	}
	w.mu.Unlock()

	if err != nil {
		logging.Get(logging.CategorySphere).Warn("Ignoring market data change: %v", err)
		return
	}
	logging.Sphere("Market data reloaded from %s: %d sectors", w.path, len(data.Sectors))
	w.onChange(data)
}
