// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/airomo/payday/internal/domain/types"
)

// BalanceDependencies defines the interface for balance lookups.
type BalanceDependencies interface {
	Balance(ctx context.Context, userID string) (types.Balance, error)
}

// BalanceHandler handles balance requests.
type BalanceHandler struct {
	deps BalanceDependencies
}

// NewBalanceHandler creates a new balance handler.
func NewBalanceHandler(deps BalanceDependencies) *BalanceHandler {
	return &BalanceHandler{deps: deps}
}

// HandleGetBalance handles GET /balance/{user_id} requests.
func (h *BalanceHandler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_balance"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID := pathParam(r.URL.Path, "/balance/")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	balance, err := h.deps.Balance(r.Context(), userID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, balance)
}
