// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	repository "github.com/airomo/payday/internal/adapters/repository"
	"github.com/airomo/payday/internal/domain/rewards"
	"github.com/airomo/payday/internal/domain/types"
)

// PayoutDependencies defines the interface for payout operations.
type PayoutDependencies interface {
	QuotePayout(ctx context.Context, userID, amount string) (types.PayoutQuote, error)
	ExecutePayout(ctx context.Context, userID, amount string) (types.PayoutReceipt, error)
}

// PayoutsHandler handles payout quote and execution requests.
type PayoutsHandler struct {
	deps PayoutDependencies
}

// NewPayoutsHandler creates a new payouts handler.
func NewPayoutsHandler(deps PayoutDependencies) *PayoutsHandler {
	return &PayoutsHandler{deps: deps}
}

// payoutRequest mirrors the wire schema for POST /payouts and /payouts/quote.
// Amount is a decimal string; empty means the whole balance.
type payoutRequest struct {
	UserID string `json:"user_id"`
	Amount string `json:"amount,omitempty"`
}

func (p payoutRequest) validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return errors.New("missing user_id")
	}
	return nil
}

// HandleQuotePayout handles POST /payouts/quote requests.
func (h *PayoutsHandler) HandleQuotePayout(w http.ResponseWriter, r *http.Request) {
	const op = "api.quote_payout"
	req, ok := h.decode(w, r, op)
	if !ok {
		return
	}
	quote, err := h.deps.QuotePayout(r.Context(), req.UserID, req.Amount)
	if err != nil {
		h.writePayoutError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// HandleExecutePayout handles POST /payouts requests.
func (h *PayoutsHandler) HandleExecutePayout(w http.ResponseWriter, r *http.Request) {
	const op = "api.execute_payout"
	req, ok := h.decode(w, r, op)
	if !ok {
		return
	}
	receipt, err := h.deps.ExecutePayout(r.Context(), req.UserID, req.Amount)
	if err != nil {
		h.writePayoutError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *PayoutsHandler) decode(w http.ResponseWriter, r *http.Request, op string) (payoutRequest, bool) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return payoutRequest{}, false
	}
	var req payoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return payoutRequest{}, false
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return payoutRequest{}, false
	}
	return req, true
}

// writePayoutError maps domain errors onto HTTP statuses.
func (h *PayoutsHandler) writePayoutError(w http.ResponseWriter, op string, err error) {
	switch {
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, rewards.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid_amount", err)
	case errors.Is(err, rewards.ErrBelowMinimum):
		writeError(w, http.StatusUnprocessableEntity, "below_minimum", err)
	case errors.Is(err, repository.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient_funds", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
