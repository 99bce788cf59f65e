package loadgen

import "time"

// Config holds configuration for the session load test.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumSessions int           // Number of sessions to generate
	NumUsers    int           // Number of distinct users the sessions belong to
	TopN        int           // Number of top earners to fetch
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for generated sessions
	LogFile     string        // Log file for test output
	Verbose     bool          // Enable verbose logging
}

// Session represents a session event to be submitted.
type Session struct {
	EventID    string   `json:"event_id"`
	UserID     string   `json:"user_id"`
	GameID     string   `json:"game_id"`
	Platform   string   `json:"platform"`
	Score      int64    `json:"score"`
	DurationMS int64    `json:"duration_ms"`
	Bonuses    []string `json:"bonuses,omitempty"`
	TS         string   `json:"ts"`
}

// Balance mirrors the balance read shape returned by the service.
type Balance struct {
	UserID      string `json:"user_id"`
	Balance     string `json:"balance"`
	TotalEarned string `json:"total_earned"`
	Sessions    int64  `json:"sessions"`
	Currency    string `json:"currency"`
	Eligible    bool   `json:"eligible_for_payout"`
}

// Earner mirrors an earner board row returned by the service.
type Earner struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	TotalEarned string `json:"total_earned"`
	Sessions    int64  `json:"sessions"`
}

// AckResponse represents the response from session submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds test statistics.
type Stats struct {
	SessionsGenerated  int
	SessionsSubmitted  int
	SessionsSuccessful int
	SessionsDuplicate  int
	SessionsFailed     int
	BalancesRetrieved  int
	EarnerEntries      int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
