// Package server exposes the ledger services over a JSON HTTP API. It owns
// the wire format and the mapping from engine error kinds to status codes;
// the engine itself knows nothing about HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/middleware"
	"github.com/tallyhq/tally/internal/service"
)

// Server routes HTTP requests to the group and ledger services.
type Server struct {
	groups *service.GroupService
	ledger *service.LedgerService
}

// New creates a Server over the given services.
func New(groups *service.GroupService, ledger *service.LedgerService) *Server {
	return &Server{groups: groups, ledger: ledger}
}

// Routes builds the router with logging and metrics middleware applied.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/groups", s.handleCreateGroup)
		r.Get("/groups", s.handleListGroups)
		r.Get("/groups/{groupID}", s.handleGetGroup)
		r.Post("/groups/{groupID}/members", s.handleAddMembers)

		r.Post("/groups/{groupID}/expenses", s.handleAddExpense)
		r.Get("/groups/{groupID}/expenses", s.handleListExpenses)
		r.Get("/expenses/{expenseID}", s.handleGetExpense)
		r.Post("/expenses/{expenseID}/reverse", s.handleReverseExpense)

		r.Get("/groups/{groupID}/balances", s.handleGetBalances)

		r.Get("/groups/{groupID}/settlements", s.handleListSettlements)
		r.Get("/groups/{groupID}/settlements/suggestions", s.handleSuggestSettlements)
		r.Post("/groups/{groupID}/settlements", s.handleCreateSettlement)
		r.Post("/settlements/{settlementID}/complete", s.handleCompleteSettlement)
		r.Post("/settlements/{settlementID}/cancel", s.handleCancelSettlement)
	})

	return r
}

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondError maps engine error kinds to HTTP status codes: validation and
// rate errors are the caller's fault (400), missing records are 404, state
// and write conflicts are 409, everything else is a 500.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var (
		validation *errs.ValidationError
		rate       *errs.InvalidRateError
		notFound   *errs.NotFoundError
		state      *errs.InvalidStateError
		conflict   *errs.ConflictError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &rate):
		status = http.StatusBadRequest
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &state), errors.As(err, &conflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Validationf("bad request body: %v", err)
	}
	return nil
}
