package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/thalas777/thalas-trader-sub000/pkg/consensus"
	"github.com/thalas777/thalas-trader-sub000/pkg/orchestrator"
	"github.com/thalas777/thalas-trader-sub000/pkg/providers"
	"github.com/thalas777/thalas-trader-sub000/pkg/server/middleware"
)

// ConsensusEngine is the orchestrator surface the handler consumes.
type ConsensusEngine interface {
	GenerateConsensus(ctx context.Context, req *orchestrator.Request) (*consensus.Result, error)
}

// ProviderLister is the registry surface the health probe consumes.
type ProviderLister interface {
	All() []providers.Provider
	Available() []providers.Provider
}

// ConsensusHandler serves the consensus resource: POST generates a
// consensus, GET reports strategy health.
type ConsensusHandler struct {
	engine       ConsensusEngine
	lister       ProviderLister
	minProviders int
}

// NewConsensusHandler wires the handler to its orchestrator and registry.
func NewConsensusHandler(engine ConsensusEngine, lister ProviderLister, minProviders int) *ConsensusHandler {
	return &ConsensusHandler{engine: engine, lister: lister, minProviders: minProviders}
}

// ServeHTTP dispatches on method.
func (h *ConsensusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.generate(w, r)
	case http.MethodGet:
		h.health(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, ErrorResponse{
			Error:  "method_not_allowed",
			Detail: "only GET and POST are supported",
		})
	}
}

// generate validates the request, runs the consensus pipeline and maps
// failures to status codes.
func (h *ConsensusHandler) generate(w http.ResponseWriter, r *http.Request) {
	var req ConsensusRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{
			Error:  "validation_error",
			Detail: "request body is not valid JSON: " + err.Error(),
		})
		return
	}

	if details := req.Validate(); details != nil {
		writeError(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Details: details,
		})
		return
	}

	slog.InfoContext(r.Context(), "consensus requested",
		"pair", req.Pair,
		"timeframe", req.Timeframe,
		"indicators", len(req.MarketData),
		"request_id", middleware.GetRequestID(r.Context()),
	)

	result, err := h.engine.GenerateConsensus(r.Context(), &orchestrator.Request{
		MarketData:   req.MarketData,
		Pair:         req.Pair,
		Timeframe:    req.Timeframe,
		CurrentPrice: req.CurrentPrice,
		Weights:      req.ProviderWeights,
	})
	if err != nil {
		h.writeOrchestratorError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeOrchestratorError maps pipeline failures to status codes: feasibility
// failures are 503, everything unexpected is an opaque 500.
func (h *ConsensusHandler) writeOrchestratorError(w http.ResponseWriter, r *http.Request, err error) {
	var noProviders *orchestrator.NoProvidersError
	if errors.As(err, &noProviders) {
		writeError(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:  "no_providers",
			Detail: noProviders.Error(),
		})
		return
	}

	var insufficient *orchestrator.InsufficientError
	if errors.As(err, &insufficient) {
		perProvider := make(map[string]string, len(insufficient.Errors))
		for name, perr := range insufficient.Errors {
			perProvider[name] = perr.Error()
		}
		writeError(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:             "insufficient_successes",
			Detail:            insufficient.Error(),
			PerProviderErrors: perProvider,
		})
		return
	}

	var aggregate *orchestrator.AggregateError
	if errors.As(err, &aggregate) {
		if errors.Is(aggregate.Cause, consensus.ErrInsufficient) || errors.Is(aggregate.Cause, consensus.ErrEmptyVotes) {
			writeError(w, http.StatusServiceUnavailable, ErrorResponse{
				Error:  "aggregation_failed",
				Detail: aggregate.Error(),
			})
			return
		}
	}

	slog.ErrorContext(r.Context(), "consensus request failed unexpectedly",
		"error", err,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	writeError(w, http.StatusInternalServerError, ErrorResponse{
		Error:  "internal_error",
		Detail: "an internal error occurred",
	})
}

// health reports strategy readiness: healthy when enough providers are
// available, degraded otherwise.
func (h *ConsensusHandler) health(w http.ResponseWriter, r *http.Request) {
	all := h.lister.All()
	available := h.lister.Available()

	providerHealth := make(map[string]bool, len(all))
	availableNames := make(map[string]bool, len(available))
	for _, p := range available {
		availableNames[p.Name()] = true
	}
	for _, p := range all {
		providerHealth[p.Name()] = availableNames[p.Name()]
	}

	status := "healthy"
	if len(available) < h.minProviders {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:             status,
		AvailableProviders: len(available),
		RequiredProviders:  h.minProviders,
		ProviderHealth:     providerHealth,
	})
}
