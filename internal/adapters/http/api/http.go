// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	repository "github.com/airomo/payday/internal/adapters/repository"
	"github.com/airomo/payday/internal/domain/dedupe"
	"github.com/airomo/payday/internal/domain/model"
	"github.com/airomo/payday/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a session event for async processing. Returns false on backpressure.
	Enqueue(ctx context.Context, e model.SessionEvent) bool

	// Read operations expose ledger data.
	Balance(ctx context.Context, userID string) (types.Balance, error)
	TopEarners(ctx context.Context, n int) ([]types.Earner, error)

	// Payout operations quote and execute fee-split withdrawals.
	QuotePayout(ctx context.Context, userID, amount string) (types.PayoutQuote, error)
	ExecutePayout(ctx context.Context, userID, amount string) (types.PayoutReceipt, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	earnersHandler  *EarnersHandler
	balanceHandler  *BalanceHandler
	payoutsHandler  *PayoutsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxEarnersLimit int) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		sessionsHandler: NewSessionsHandler(deps),
		earnersHandler:  NewEarnersHandler(deps, maxEarnersLimit),
		balanceHandler:  NewBalanceHandler(deps),
		payoutsHandler:  NewPayoutsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/sessions", MetricsMiddleware(s.sessionsHandler.HandlePostSession, "sessions"))
	mux.HandleFunc("/earners", MetricsMiddleware(s.earnersHandler.HandleGetEarners, "earners"))
	mux.HandleFunc("/balance/", MetricsMiddleware(s.balanceHandler.HandleGetBalance, "balance"))
	mux.HandleFunc("/payouts/quote", MetricsMiddleware(s.payoutsHandler.HandleQuotePayout, "payouts_quote"))
	mux.HandleFunc("/payouts", MetricsMiddleware(s.payoutsHandler.HandleExecutePayout, "payouts"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// pathParam extracts the trailing path segment after prefix, e.g. the user id
// in /balance/{user_id}. Returns "" when the path has extra segments.
func pathParam(path, prefix string) string {
	p := strings.TrimPrefix(path, prefix)
	if p == "" || strings.Contains(p, "/") {
		return ""
	}
	return p
}

// isNotFound allows the API to translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
