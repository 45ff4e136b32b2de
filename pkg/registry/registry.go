// Package registry holds the live set of provider adapters and answers the
// availability queries the orchestrator depends on. Providers are kept in
// registration order, which fixes the iteration order of fan-out, health
// sweeps and status listings.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
)

// Registry is a thread-safe collection of named providers.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]providers.Provider
	order  []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]providers.Provider)}
}

// Register adds a provider under its own name. Registering a duplicate name
// is an error; the existing provider is kept.
func (r *Registry) Register(p providers.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("provider %q is already registered", name)
	}
	r.byName[name] = p
	r.order = append(r.order, name)

	slog.Info("provider registered", "provider", name, "weight", p.Weight())
	return nil
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (providers.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("provider %q is not registered", name)
	}
	return p, nil
}

// Available returns the providers eligible for consensus, in registration
// order: enabled and in a state that accepts requests (ACTIVE or DEGRADED).
func (r *Registry) Available() []providers.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var available []providers.Provider
	for _, name := range r.order {
		p := r.byName[name]
		if !p.Enabled() {
			continue
		}
		switch p.Status().State {
		case providers.StateActive, providers.StateDegraded:
			available = append(available, p)
		}
	}
	return available
}

// All returns every registered provider in registration order, regardless of
// enablement or state.
func (r *Registry) All() []providers.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]providers.Provider, 0, len(r.order))
	for _, name := range r.order {
		all = append(all, r.byName[name])
	}
	return all
}

// Names returns the registered provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// SetEnabled toggles a provider's participation in consensus.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	p, err := r.Get(name)
	if err != nil {
		return err
	}
	p.SetEnabled(enabled)
	slog.Info("provider enablement changed", "provider", name, "enabled", enabled)
	return nil
}

// HealthCheckAll probes every registered provider concurrently and returns
// the per-provider results. Disabled providers are probed too; an operator
// re-enabling one wants a current answer.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	all := r.All()

	results := make(map[string]error, len(all))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, p := range all {
		wg.Add(1)
		go func(p providers.Provider) {
			defer wg.Done()
			err := p.HealthCheck(ctx)
			mu.Lock()
			results[p.Name()] = err
			mu.Unlock()
			if err != nil {
				slog.Warn("health probe failed", "provider", p.Name(), "error", err)
			}
		}(p)
	}
	wg.Wait()

	return results
}

// Close shuts down every provider in reverse registration order. The first
// error is returned; later closes still run.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for i := len(r.order) - 1; i >= 0; i-- {
		p := r.byName[r.order[i]]
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
