package rewards

import "errors"

// Sentinel kinds for reward calculation errors.
var (
	// ErrInvalidScore marks a negative raw score.
	ErrInvalidScore = errors.New("invalid score")

	// ErrUnknownPlatform marks a platform absent from the rate table.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrInvalidAmount marks a negative amount or an out-of-range fee percentage.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRateTable marks rate table configuration that cannot be used.
	ErrInvalidRateTable = errors.New("invalid rate table")

	// ErrBelowMinimum marks a payout request under the configured minimum.
	ErrBelowMinimum = errors.New("amount below minimum payout")
)
