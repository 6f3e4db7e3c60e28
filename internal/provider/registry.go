package provider

import (
	"fmt"
	"log/slog"
)

// Registry is the process-wide adapter catalog. It is constructed once in
// main and passed by handle into the sync engine and HTTP handlers; there
// is no package-level instance.
//
// Registration happens during single-threaded startup, before any sync
// traffic; the registry is read-only afterwards, so no lock is held.
// There is deliberately no removal: adapters are re-initialized, not
// unregistered, when configuration changes.
type Registry struct {
	log *slog.Logger

	byID map[string]Adapter
	// order preserves registration order for capability lookups.
	order []string
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{log: log, byID: map[string]Adapter{}}
}

// Register inserts an adapter by its ID. Re-registration under the same id
// overwrites the earlier adapter and logs a warning; last-registered wins.
// This lets a meta-gateway integration intentionally supersede a direct
// integration registered earlier in startup.
func (r *Registry) Register(a Adapter) {
	if a == nil {
		return
	}
	id := a.ID()
	if _, exists := r.byID[id]; exists {
		r.log.Warn("provider re-registered, overwriting", "provider", id)
	} else {
		r.order = append(r.order, id)
	}
	r.byID[id] = a
}

// ByID resolves an adapter by its id. If no adapter is registered under
// id, the id is treated as a capability tag and the first-registered
// adapter with that capability is returned.
func (r *Registry) ByID(id string) (Adapter, error) {
	if a, ok := r.byID[id]; ok {
		return a, nil
	}
	if a, err := r.DefaultByCapability(Capability(id)); err == nil {
		return a, nil
	}
	return nil, fmt.Errorf("provider: %q not found", id)
}

// AllByCapability returns every registered adapter supporting cap, in
// registration order.
func (r *Registry) AllByCapability(cap Capability) []Adapter {
	var out []Adapter
	for _, id := range r.order {
		if a := r.byID[id]; a.Supports(cap) {
			out = append(out, a)
		}
	}
	return out
}

// DefaultByCapability returns the first-registered adapter supporting cap.
func (r *Registry) DefaultByCapability(cap Capability) (Adapter, error) {
	all := r.AllByCapability(cap)
	if len(all) == 0 {
		return nil, fmt.Errorf("provider: no adapter for capability %q", cap)
	}
	return all[0], nil
}

// IDs returns the registered adapter ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
