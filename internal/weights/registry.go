package weights

import (
	"context"
	"sync"

	"sanctuary/internal/logging"
)

// Registry is the process-wide holder of the current weights.
type Registry struct {
	mu      sync.RWMutex
	current Weights
	store   Store

	// writeMu orders store writes with the in-memory update that follows them.
	writeMu sync.Mutex
}

// NewRegistry creates a registry initialised with Defaults.
func NewRegistry(store Store) *Registry {
	return &Registry{current: Defaults(), store: store}
}

// Current returns a copy of the weights in use.
func (r *Registry) Current() Weights {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Clone()
}

// Backend returns the store name.
func (r *Registry) Backend() string {
	return r.store.Name()
}

// Save persists patch and merges it into the in-memory weights.
// Memory is untouched if the store fails. Saves are serialized so the
// stored document and the in-memory weights see patches in the same order.
func (r *Registry) Save(ctx context.Context, patch Weights) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.store.Save(ctx, patch); err != nil {
		logging.WeightsWarn("Save via %s failed: %v", r.store.Name(), err)
		logging.Audit().WeightsOp(logging.AuditWeightsSave, r.store.Name(), false, err.Error())
		return err
	}

	r.mu.Lock()
	r.current = Merge(r.current, patch)
	r.mu.Unlock()

	logging.Weights("Saved %d weight groups via %s", len(patch), r.store.Name())
	logging.Audit().WeightsOp(logging.AuditWeightsSave, r.store.Name(), true, "")
	return nil
}

// Reload replaces the in-memory weights with the stored document, or with
// Defaults when nothing is stored. The returned weights are the new current set.
func (r *Registry) Reload(ctx context.Context) (Weights, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	w, found, err := r.store.Load(ctx)
	if err != nil {
		logging.WeightsWarn("Load via %s failed: %v", r.store.Name(), err)
		logging.Audit().WeightsOp(logging.AuditWeightsLoad, r.store.Name(), false, err.Error())
		return nil, err
	}
	if !found {
		logging.Weights("No stored weights in %s, returning defaults", r.store.Name())
		w = Defaults()
	}

	r.mu.Lock()
	r.current = w.Clone()
	r.mu.Unlock()

	logging.Audit().WeightsOp(logging.AuditWeightsLoad, r.store.Name(), true, "")
	return w, nil
}

// Bootstrap loads stored weights, writing the defaults when none exist.
// A store failure is logged and the defaults stay in effect.
func (r *Registry) Bootstrap(ctx context.Context) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	w, found, err := r.store.Load(ctx)
	if err != nil {
		logging.WeightsWarn("Bootstrap: load via %s failed, using defaults: %v", r.store.Name(), err)
		return
	}
	if found {
		r.mu.Lock()
		r.current = w.Clone()
		r.mu.Unlock()
		logging.Weights("Bootstrap: loaded weights from %s", r.store.Name())
		return
	}

	if err := r.store.Save(ctx, Defaults()); err != nil {
		logging.WeightsWarn("Bootstrap: writing defaults via %s failed: %v", r.store.Name(), err)
		return
	}
	logging.Weights("Bootstrap: wrote default weights to %s", r.store.Name())
}
