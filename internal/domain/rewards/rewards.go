// Package rewards computes monetary earnings from raw game scores and decides
// payout eligibility. The engine is a pure function of its rate table: no
// hidden state, no I/O, safe for any number of concurrent callers.
package rewards

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Monetary precision constants. Earnings round to four fractional digits,
// fees to cents. Both use banker's rounding so repeated conversions do not
// drift in one direction.
const (
	earningsScale = 4
	feeScale      = 2
	maxFeePercent = 100
)

// Earnings is the result of a single calculation, immutable once produced.
type Earnings struct {
	Amount   decimal.Decimal
	Currency string
}

// Calculator computes earnings from a session score. The worker pool depends
// on this interface rather than the concrete engine.
type Calculator interface {
	// CalculateEarnings computes the monetary amount earned for a raw score
	// on a platform with the given bonus tags, honoring ctx for cancellation.
	CalculateEarnings(ctx context.Context, score int64, platform string, bonuses []string) (Earnings, error)
}

// Engine implements Calculator against an immutable RateTable.
type Engine struct {
	table *RateTable
}

// NewEngine creates an engine bound to a validated rate table.
func NewEngine(table *RateTable) *Engine {
	return &Engine{table: table}
}

// Table exposes the engine's rate table for read-side collaborators.
func (e *Engine) Table() *RateTable {
	return e.table
}

// CalculateEarnings converts a raw score into money.
//
// amount = score * baseRate(platform) * product(multiplier(tag) for tag in bonuses)
//
// A repeated bonus tag applies its multiplier once per occurrence; an unknown
// tag multiplies by one. The result is rounded to four fractional digits with
// banker's rounding and is never negative.
func (e *Engine) CalculateEarnings(ctx context.Context, score int64, platform string, bonuses []string) (Earnings, error) {
	if err := ctx.Err(); err != nil {
		return Earnings{}, fmt.Errorf("calculation cancelled: %w", err)
	}
	if score < 0 {
		return Earnings{}, fmt.Errorf("%w: score %d is negative", ErrInvalidScore, score)
	}

	rate, ok := e.table.BaseRate(platform)
	if !ok {
		return Earnings{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}

	amount := decimal.NewFromInt(score).Mul(rate)
	for _, tag := range bonuses {
		amount = amount.Mul(e.table.Multiplier(tag))
	}

	return Earnings{
		Amount:   amount.RoundBank(earningsScale),
		Currency: e.table.Currency(),
	}, nil
}

// PayoutEligible reports whether a requested amount meets the configured
// minimum payout. The comparison happens at the amount's own precision; the
// boundary case amount == minimum is eligible.
func (e *Engine) PayoutEligible(amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, fmt.Errorf("%w: requested amount is negative", ErrInvalidAmount)
	}
	return amount.GreaterThanOrEqual(e.table.MinimumPayout()), nil
}

// SplitFee deducts the table's platform fee from a gross amount.
func (e *Engine) SplitFee(amount decimal.Decimal) (net, fee decimal.Decimal, err error) {
	return SplitFee(amount, e.table.FeePercent())
}

// SplitFee splits a gross amount into the net credited to the user and the
// platform's fee. The fee is rounded to cents with banker's rounding and
// net + fee always reassembles the gross amount exactly.
func SplitFee(amount, feePercent decimal.Decimal) (net, fee decimal.Decimal, err error) {
	if amount.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: amount is negative", ErrInvalidAmount)
	}
	if feePercent.IsNegative() || feePercent.GreaterThan(decimal.NewFromInt(maxFeePercent)) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: fee percent must be within [0, 100]", ErrInvalidAmount)
	}

	fee = amount.Mul(feePercent).Div(decimal.NewFromInt(maxFeePercent)).RoundBank(feeScale)
	net = amount.Sub(fee)
	return net, fee, nil
}
