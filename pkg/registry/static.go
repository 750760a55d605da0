package registry

import (
	"context"
	"sync"
)

// StaticRegistry is an in-memory RegistryAdapter for tests and dev_mode
// deployments that do not run an external registry service.
type StaticRegistry struct {
	mu        sync.RWMutex
	block     uint64
	mrenclave map[string]uint64
	mrsigner  map[string]uint64
}

// NewStaticRegistry builds a StaticRegistry with the given initial state.
// Nil maps are treated as empty.
func NewStaticRegistry(block uint64, mrenclave, mrsigner map[string]uint64) *StaticRegistry {
	if mrenclave == nil {
		mrenclave = map[string]uint64{}
	}
	if mrsigner == nil {
		mrsigner = map[string]uint64{}
	}
	return &StaticRegistry{block: block, mrenclave: mrenclave, mrsigner: mrsigner}
}

// SetBlock updates the current block height, for tests that advance time.
func (r *StaticRegistry) SetBlock(block uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.block = block
}

// CurrentBlockNumber implements handover.RegistryAdapter.
func (r *StaticRegistry) CurrentBlockNumber(ctx context.Context) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.block, nil
}

// MrenclaveRegistry implements handover.RegistryAdapter.
func (r *StaticRegistry) MrenclaveRegistry(ctx context.Context) (map[string]uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]uint64, len(r.mrenclave))
	for k, v := range r.mrenclave {
		out[k] = v
	}
	return out, nil
}

// MrsignerRegistry implements handover.RegistryAdapter.
func (r *StaticRegistry) MrsignerRegistry(ctx context.Context) (map[string]uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]uint64, len(r.mrsigner))
	for k, v := range r.mrsigner {
		out[k] = v
	}
	return out, nil
}
