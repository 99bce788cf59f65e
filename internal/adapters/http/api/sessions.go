// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/airomo/payday/internal/domain/dedupe"
	"github.com/airomo/payday/internal/domain/model"
)

// SessionDependencies defines the interface for session ingestion dependencies.
type SessionDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, e model.SessionEvent) bool
}

// SessionsHandler handles session submission requests.
type SessionsHandler struct {
	deps SessionDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps SessionDependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// sessionRequest mirrors the wire schema for POST /sessions.
type sessionRequest struct {
	EventID    string   `json:"event_id"`
	UserID     string   `json:"user_id"`
	GameID     string   `json:"game_id"`
	Platform   string   `json:"platform"`
	Score      int64    `json:"score"`
	DurationMS int64    `json:"duration_ms"`
	Bonuses    []string `json:"bonuses,omitempty"`
	TS         string   `json:"ts"`
}

func (s sessionRequest) validate() error {
	switch {
	case strings.TrimSpace(s.EventID) == "":
		return errors.New("missing event_id")
	case strings.TrimSpace(s.UserID) == "":
		return errors.New("missing user_id")
	case strings.TrimSpace(s.GameID) == "":
		return errors.New("missing game_id")
	case strings.TrimSpace(s.Platform) == "":
		return errors.New("missing platform")
	case s.Score < 0:
		return errors.New("score must not be negative")
	case s.DurationMS < 0:
		return errors.New("duration_ms must not be negative")
	case strings.TrimSpace(s.TS) == "":
		return errors.New("missing ts")
	}
	if _, err := time.Parse(time.RFC3339, s.TS); err != nil {
		return errors.New("invalid ts; must be RFC3339")
	}
	return nil
}

// toEvent converts a validated request into the internal event shape.
func (s sessionRequest) toEvent() model.SessionEvent {
	ts, _ := time.Parse(time.RFC3339, s.TS)
	return model.SessionEvent{
		EventID:  s.EventID,
		UserID:   s.UserID,
		GameID:   s.GameID,
		Platform: s.Platform,
		Score:    s.Score,
		Duration: time.Duration(s.DurationMS) * time.Millisecond,
		Bonuses:  s.Bonuses,
		TS:       ts,
	}
}

// HandlePostSession handles POST /sessions requests.
func (h *SessionsHandler) HandlePostSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_session"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), req.EventID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	// Try to enqueue for async processing
	if ok := h.deps.Enqueue(r.Context(), req.toEvent()); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), req.EventID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
