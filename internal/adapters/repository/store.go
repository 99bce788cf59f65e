// Package repository defines the earnings ledger interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Account is a row in the earnings ledger.
type Account struct {
	UserID      string
	Balance     decimal.Decimal
	TotalEarned decimal.Decimal
	Sessions    int64
	LastEventID string
	LastGameID  string
	UpdatedAt   time.Time
}

// Earner is a ranked row for top-earner queries.
type Earner struct {
	Rank        int
	UserID      string
	TotalEarned decimal.Decimal
	Sessions    int64
}

// Ledger provides read/write access to per-user earnings state.
type Ledger interface {
	// Credit adds earnings to a user account, creating it on first credit.
	// The amount must not be negative; zero credits still count the session.
	Credit(ctx context.Context, userID string, amount decimal.Decimal, eventID, gameID string) (Account, error)

	// Debit withdraws from a user balance. Returns ErrNotFound for an
	// unknown user and ErrInsufficientFunds when the balance cannot cover
	// the amount; the balance never goes negative.
	Debit(ctx context.Context, userID string, amount decimal.Decimal) (Account, error)

	// Account returns the current state for a user.
	// Returns ErrNotFound if the user has never been credited.
	Account(ctx context.Context, userID string) (Account, error)

	// TopEarners returns the top-N accounts ordered by total earned desc.
	TopEarners(ctx context.Context, n int) ([]Earner, error)

	// Count returns the number of accounts tracked in the ledger.
	Count(ctx context.Context) int
}
