package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
)

// fakeProvider is a minimal Provider for registry tests.
type fakeProvider struct {
	name      string
	weight    float64
	state     providers.State
	healthErr error

	mu      sync.Mutex
	enabled bool
	closed  bool
	probes  int
}

func newFake(name string, state providers.State) *fakeProvider {
	return &fakeProvider{name: name, weight: 1.0, state: state, enabled: true}
}

func (f *fakeProvider) GenerateSignal(ctx context.Context, req *providers.SignalRequest) (*providers.SignalResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProvider) HealthCheck(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	return f.healthErr
}

func (f *fakeProvider) EstimateCost(tokensIn, tokensOut int) float64 { return 0 }
func (f *fakeProvider) Name() string                                 { return f.name }
func (f *fakeProvider) Weight() float64                              { return f.weight }

func (f *fakeProvider) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

func (f *fakeProvider) SetEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = enabled
}

func (f *fakeProvider) Status() providers.Status {
	return providers.Status{State: f.state}
}

func (f *fakeProvider) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestRegisterAndGet(t *testing.T) {
	reg := New()
	p := newFake("anthropic", providers.StateActive)

	if err := reg.Register(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := reg.Register(newFake("anthropic", providers.StateActive)); err == nil {
		t.Error("duplicate registration must fail")
	}

	got, err := reg.Get("anthropic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != providers.Provider(p) {
		t.Error("Get returned a different provider")
	}

	if _, err := reg.Get("missing"); err == nil {
		t.Error("Get of unregistered name must fail")
	}
}

func TestAvailableFiltersStateAndEnablement(t *testing.T) {
	reg := New()
	reg.Register(newFake("anthropic", providers.StateActive))
	reg.Register(newFake("openai", providers.StateDegraded))
	reg.Register(newFake("gemini", providers.StateCircuitOpen))
	reg.Register(newFake("grok", providers.StateUnavailable))

	available := reg.Available()
	if len(available) != 2 {
		t.Fatalf("available = %d, want 2 (active + degraded)", len(available))
	}
	if available[0].Name() != "anthropic" || available[1].Name() != "openai" {
		t.Errorf("availability order = %s, %s; want registration order", available[0].Name(), available[1].Name())
	}

	reg.SetEnabled("anthropic", false)
	if available := reg.Available(); len(available) != 1 || available[0].Name() != "openai" {
		t.Errorf("disabled provider must not be available")
	}

	// SetEnabled is idempotent.
	reg.SetEnabled("anthropic", false)
	reg.SetEnabled("anthropic", true)
	reg.SetEnabled("anthropic", true)
	if available := reg.Available(); len(available) != 2 {
		t.Errorf("re-enabled provider must be available again")
	}
}

func TestSetEnabledUnknownProvider(t *testing.T) {
	reg := New()
	if err := reg.SetEnabled("nope", true); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNamesAndLen(t *testing.T) {
	reg := New()
	reg.Register(newFake("anthropic", providers.StateActive))
	reg.Register(newFake("openai", providers.StateActive))

	names := reg.Names()
	if len(names) != 2 || names[0] != "anthropic" || names[1] != "openai" {
		t.Errorf("names = %v, want registration order", names)
	}
	if reg.Len() != 2 {
		t.Errorf("len = %d, want 2", reg.Len())
	}
}

func TestHealthCheckAll(t *testing.T) {
	reg := New()
	healthy := newFake("anthropic", providers.StateActive)
	sick := newFake("openai", providers.StateActive)
	sick.healthErr = errors.New("unreachable")
	disabled := newFake("gemini", providers.StateActive)
	disabled.SetEnabled(false)
	reg.Register(healthy)
	reg.Register(sick)
	reg.Register(disabled)

	results := reg.HealthCheckAll(context.Background())
	if len(results) != 3 {
		t.Fatalf("results = %d, want all providers probed, disabled included", len(results))
	}
	if results["anthropic"] != nil {
		t.Errorf("anthropic = %v, want nil", results["anthropic"])
	}
	if results["openai"] == nil {
		t.Error("openai probe failure must be reported")
	}
	if disabled.probes != 1 {
		t.Error("disabled provider must still be probed")
	}
}

func TestCloseClosesEveryProvider(t *testing.T) {
	reg := New()
	first := newFake("anthropic", providers.StateActive)
	second := newFake("openai", providers.StateActive)
	reg.Register(first)
	reg.Register(second)

	if err := reg.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.closed || !second.closed {
		t.Error("all providers must be closed")
	}
}
