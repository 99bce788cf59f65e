package loadgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/airomo/payday/pkg/logger"
	"github.com/google/uuid"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	eventIDDivisor     = 10000
	scoreProfileCount  = 6
)

// Constants for score generation ranges.
const (
	casualScoreMin    = 100
	casualScoreRange  = 900
	regularScoreMin   = 1000
	regularScoreRange = 4000
	skilledScoreMin   = 5000
	skilledScoreRange = 5000
	eliteScoreMin     = 10000
	eliteScoreRange   = 40000
	idleScoreMax      = 100
)

// Constants for score profile cases.
const (
	caseCasualPlayer  = 0
	caseRegularPlayer = 1
	caseSkilledPlayer = 2
	caseElitePlayer   = 3
	caseIdlePlayer    = 4
	caseWideRange     = 5
)

// Session duration bounds in milliseconds.
const (
	minDurationMS   = 30_000
	durationRangeMS = 1_770_000 // up to ~30 minutes
)

var (
	platforms = []string{"mobile", "mobile", "mobile", "web"} // weighted toward mobile
	gameIDs   = []string{"match3", "runner", "puzzle", "cards"}
	bonusTags = []string{"daily_bonus", "streak_week"}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, max).
func getRandomInt(max int64) int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(max))
	return n.Int64()
}

// generateSessions creates the specified number of session events spread
// across a fixed pool of user IDs.
func generateSessions(ctx context.Context, config *Config, stats *Stats) ([]Session, error) {
	logger.Get().Info(ctx, "generating sessions",
		logger.Int("numSessions", config.NumSessions),
		logger.Int("numUsers", config.NumUsers))

	sessions := make([]Session, config.NumSessions)

	// Pre-allocate user IDs so several sessions can share a user
	userIDs := make([]string, config.NumUsers)
	for i := 0; i < config.NumUsers; i++ {
		userIDs[i] = uuid.New().String()
	}

	// Generate sessions concurrently
	type sessionResult struct {
		index   int
		session Session
		err     error
	}

	resultChan := make(chan sessionResult, config.NumSessions)

	// Use worker pool for session generation
	workerCount := minInt(config.Workers, config.NumSessions)
	sessionsPerWorker := config.NumSessions / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * sessionsPerWorker
		end := start + sessionsPerWorker
		if worker == workerCount-1 {
			end = config.NumSessions // Last worker gets remaining sessions
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- sessionResult{index: i, err: ctx.Err()}
					return
				default:
					userID := userIDs[getRandomInt(int64(len(userIDs)))]
					session := generateSingleSession(i, userID)
					resultChan <- sessionResult{index: i, session: session, err: nil}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumSessions; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during session generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate session %d: %w", result.index, result.err)
			}
			sessions[result.index] = result.session
		}
	}

	stats.SessionsGenerated = len(sessions)
	logger.Get().Info(ctx, "generated sessions successfully", logger.Int("count", len(sessions)))

	return sessions, nil
}

// generateSingleSession creates a single session event for the given user.
func generateSingleSession(index int, userID string) Session {
	score := generateVariedScore()
	platform := platforms[getRandomInt(int64(len(platforms)))]
	gameID := gameIDs[getRandomInt(int64(len(gameIDs)))]
	durationMS := minDurationMS + getRandomInt(durationRangeMS)

	// Roughly a third of sessions carry a bonus tag
	var bonuses []string
	if getRandomInt(3) == 0 {
		bonuses = []string{bonusTags[getRandomInt(int64(len(bonusTags)))]}
	}

	// Current timestamp in RFC3339 format
	timestamp := time.Now().UTC().Format(time.RFC3339)

	// Generate unique event ID
	randNum, _ := rand.Int(rand.Reader, big.NewInt(eventIDDivisor))
	eventID := "session_" + strconv.FormatInt(int64(index), 10) + "_" + strconv.FormatInt(time.Now().Unix(), 10) + "_" + strconv.FormatInt(randNum.Int64(), 10)

	return Session{
		EventID:    eventID,
		UserID:     userID,
		GameID:     gameID,
		Platform:   platform,
		Score:      score,
		DurationMS: durationMS,
		Bonuses:    bonuses,
		TS:         timestamp,
	}
}

// generateVariedScore creates a score with a varied player-profile distribution.
func generateVariedScore() int64 {
	switch getRandomInt(scoreProfileCount) {
	case caseCasualPlayer:
		// Casual players (100 - 1000) - most common
		return casualScoreMin + int64(getRandomFloat()*casualScoreRange)
	case caseRegularPlayer:
		// Regular players (1000 - 5000)
		return regularScoreMin + int64(getRandomFloat()*regularScoreRange)
	case caseSkilledPlayer:
		// Skilled players (5000 - 10000)
		return skilledScoreMin + int64(getRandomFloat()*skilledScoreRange)
	case caseElitePlayer:
		// Elite players (10000 - 50000) - rare
		return eliteScoreMin + int64(getRandomFloat()*eliteScoreRange)
	case caseIdlePlayer:
		// Idle sessions (0 - 100)
		return getRandomInt(idleScoreMax)
	case caseWideRange:
		// Random across full range
		return getRandomInt(eliteScoreMin + eliteScoreRange)
	default:
		return getRandomInt(eliteScoreMin + eliteScoreRange)
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
