// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/airomo/payday/internal/domain/types"
)

// EarnerDependencies defines the interface for earner board operations.
type EarnerDependencies interface {
	TopEarners(ctx context.Context, n int) ([]types.Earner, error)
}

// EarnersHandler handles top-earner requests.
type EarnersHandler struct {
	deps     EarnerDependencies
	maxLimit int
}

// NewEarnersHandler creates a new earners handler.
func NewEarnersHandler(deps EarnerDependencies, maxLimit int) *EarnersHandler {
	return &EarnersHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetEarners handles GET /earners?limit=N requests.
func (h *EarnersHandler) HandleGetEarners(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_earners"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	limitStr := r.URL.Query().Get("limit")
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	earners, err := h.deps.TopEarners(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, earners)
}
