// Package handlers provides HTTP handlers for portfolio optimization runs.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mfreitas/quantfolio/internal/modules/allocation"
	"github.com/mfreitas/quantfolio/internal/modules/interpreter"
	"github.com/mfreitas/quantfolio/internal/modules/marketdata"
	"github.com/mfreitas/quantfolio/internal/modules/portfolio"
	"github.com/mfreitas/quantfolio/internal/modules/qubo"
	"github.com/mfreitas/quantfolio/internal/modules/solver"
	"github.com/mfreitas/quantfolio/internal/modules/statistics"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service  *portfolio.Service
	defaults portfolio.Request
	log      zerolog.Logger
}

// NewHandler creates a new portfolio handler. The defaults request fills any
// field the client request leaves unset.
func NewHandler(
	service *portfolio.Service,
	defaults portfolio.Request,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:  service,
		defaults: defaults,
		log:      log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleOptimize handles POST /api/portfolio/optimize
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	req := h.defaults
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.log.Error().Err(err).Msg("Failed to decode request body")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	result, err := h.service.Optimize(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetRun handles GET /api/portfolio/runs/{id}
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request, id string) {
	result, err := h.service.GetRun(id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if result == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
	})
}

// HandleListRuns handles GET /api/portfolio/runs
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	summaries, err := h.service.ListRuns(limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if summaries == nil {
		summaries = []portfolio.RunSummary{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"data": summaries,
		"metadata": map[string]interface{}{
			"count": len(summaries),
		},
	})
}

// respondError maps pipeline errors onto HTTP status codes.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, statistics.ErrInsufficientData),
		errors.Is(err, statistics.ErrDimensionMismatch),
		errors.Is(err, qubo.ErrInvalidConstraints),
		errors.Is(err, allocation.ErrEmptyBudget),
		errors.Is(err, allocation.ErrEmptySelection):
		status = http.StatusBadRequest
	case errors.Is(err, interpreter.ErrNoFeasibleSolution):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, solver.ErrSolverUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, marketdata.ErrNoData):
		status = http.StatusBadGateway
	}

	h.log.Error().Err(err).Int("status", status).Msg("Optimization request failed")
	h.respondJSON(w, status, map[string]interface{}{
		"error": err.Error(),
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
