package handlers

import (
	"net/http"

	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
)

// HealthHandler is the process liveness probe. It answers 200 as long as
// the server is serving; provider readiness lives on the strategy resource.
type HealthHandler struct{}

// NewHealthHandler creates the liveness handler.
func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ProviderStatusHandler lists every registered provider with its runtime
// status snapshot.
type ProviderStatusHandler struct {
	lister ProviderLister
}

// NewProviderStatusHandler wires the handler to the registry.
func NewProviderStatusHandler(lister ProviderLister) *ProviderStatusHandler {
	return &ProviderStatusHandler{lister: lister}
}

// providerStatus is one row of the listing.
type providerStatus struct {
	Name    string           `json:"name"`
	Enabled bool             `json:"enabled"`
	Weight  float64          `json:"weight"`
	Status  providers.Status `json:"status"`
}

func (h *ProviderStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	all := h.lister.All()
	statuses := make([]providerStatus, 0, len(all))
	for _, p := range all {
		statuses = append(statuses, providerStatus{
			Name:    p.Name(),
			Enabled: p.Enabled(),
			Weight:  p.Weight(),
			Status:  p.Status(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"providers": statuses})
}
