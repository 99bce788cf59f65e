// Package model contains domain models passed between layers.
package model

import "time"

// SessionEvent represents a finished game session reported by a client.
// Fields mirror the JSON schema for POST /sessions.
type SessionEvent struct {
	EventID  string        // unique id for idempotency
	UserID   string        // player identifier
	GameID   string        // game the session belongs to
	Platform string        // platform tag, e.g. "mobile", "web"
	Score    int64         // raw game-defined points, non-negative
	Duration time.Duration // session length, informational only
	Bonuses  []string      // bonus tags; duplicates apply repeatedly
	TS       time.Time     // session end timestamp
}
