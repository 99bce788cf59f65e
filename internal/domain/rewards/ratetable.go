package rewards

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Default rate table configuration. Values are decimal strings; floats never
// touch monetary configuration.
const (
	defaultMinimumPayout = "5.00"
	defaultFeePercent    = "10"
	defaultCurrency      = "usd"
)

// tableConfig carries the raw configuration strings a RateTable is built from.
type tableConfig struct {
	baseRates     map[string]string
	multipliers   map[string]string
	minimumPayout string
	feePercent    string
	currency      string
}

// TableOption applies a configuration option to a RateTable under construction.
type TableOption func(*tableConfig)

// WithBaseRates sets the per-platform rates (platform tag -> decimal string).
func WithBaseRates(rates map[string]string) TableOption {
	return func(c *tableConfig) {
		c.baseRates = rates
	}
}

// WithBonusMultipliers sets the bonus multipliers (bonus tag -> decimal string).
func WithBonusMultipliers(multipliers map[string]string) TableOption {
	return func(c *tableConfig) {
		c.multipliers = multipliers
	}
}

// WithMinimumPayout sets the minimum payout amount as a decimal string.
func WithMinimumPayout(amount string) TableOption {
	return func(c *tableConfig) {
		if amount != "" {
			c.minimumPayout = amount
		}
	}
}

// WithFeePercent sets the platform fee percentage as a decimal string.
func WithFeePercent(percent string) TableOption {
	return func(c *tableConfig) {
		if percent != "" {
			c.feePercent = percent
		}
	}
}

// WithCurrency sets the currency code all amounts are denominated in.
func WithCurrency(currency string) TableOption {
	return func(c *tableConfig) {
		if currency != "" {
			c.currency = currency
		}
	}
}

// RateTable holds the monetary configuration of the reward engine.
// It is immutable after construction and safe for concurrent reads.
type RateTable struct {
	baseRates     map[string]decimal.Decimal
	multipliers   map[string]decimal.Decimal
	minimumPayout decimal.Decimal
	feePercent    decimal.Decimal
	currency      string
}

// NewRateTable parses and validates the configured rates. A platform with a
// negative rate, a non-positive multiplier, a negative minimum payout, a fee
// percentage outside [0, 100], or any unparsable decimal is a configuration
// error: the table refuses to build rather than fall back at runtime.
func NewRateTable(opts ...TableOption) (*RateTable, error) {
	cfg := &tableConfig{
		minimumPayout: defaultMinimumPayout,
		feePercent:    defaultFeePercent,
		currency:      defaultCurrency,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.baseRates) == 0 {
		return nil, fmt.Errorf("%w: no base rates configured", ErrInvalidRateTable)
	}

	t := &RateTable{
		baseRates:   make(map[string]decimal.Decimal, len(cfg.baseRates)),
		multipliers: make(map[string]decimal.Decimal, len(cfg.multipliers)),
		currency:    cfg.currency,
	}

	for platform, raw := range cfg.baseRates {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: base rate for platform %q: %v", ErrInvalidRateTable, platform, err)
		}
		if rate.IsNegative() {
			return nil, fmt.Errorf("%w: base rate for platform %q is negative", ErrInvalidRateTable, platform)
		}
		t.baseRates[platform] = rate
	}

	for tag, raw := range cfg.multipliers {
		factor, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: multiplier for bonus %q: %v", ErrInvalidRateTable, tag, err)
		}
		if !factor.IsPositive() {
			return nil, fmt.Errorf("%w: multiplier for bonus %q must be positive", ErrInvalidRateTable, tag)
		}
		t.multipliers[tag] = factor
	}

	minPayout, err := decimal.NewFromString(cfg.minimumPayout)
	if err != nil {
		return nil, fmt.Errorf("%w: minimum payout: %v", ErrInvalidRateTable, err)
	}
	if minPayout.IsNegative() {
		return nil, fmt.Errorf("%w: minimum payout is negative", ErrInvalidRateTable)
	}
	t.minimumPayout = minPayout

	feePercent, err := decimal.NewFromString(cfg.feePercent)
	if err != nil {
		return nil, fmt.Errorf("%w: fee percent: %v", ErrInvalidRateTable, err)
	}
	if feePercent.IsNegative() || feePercent.GreaterThan(decimal.NewFromInt(maxFeePercent)) {
		return nil, fmt.Errorf("%w: fee percent must be within [0, 100]", ErrInvalidRateTable)
	}
	t.feePercent = feePercent

	return t, nil
}

// BaseRate returns the per-point rate for a platform.
func (t *RateTable) BaseRate(platform string) (decimal.Decimal, bool) {
	rate, ok := t.baseRates[platform]
	return rate, ok
}

// Multiplier returns the factor for a bonus tag. Unknown tags are a no-op
// and yield the identity multiplier.
func (t *RateTable) Multiplier(tag string) decimal.Decimal {
	if factor, ok := t.multipliers[tag]; ok {
		return factor
	}
	return decimal.NewFromInt(1)
}

// Platforms returns the configured platform tags in sorted order.
func (t *RateTable) Platforms() []string {
	platforms := make([]string, 0, len(t.baseRates))
	for platform := range t.baseRates {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)
	return platforms
}

// MinimumPayout returns the configured minimum payout amount.
func (t *RateTable) MinimumPayout() decimal.Decimal {
	return t.minimumPayout
}

// FeePercent returns the configured platform fee percentage.
func (t *RateTable) FeePercent() decimal.Decimal {
	return t.feePercent
}

// Currency returns the currency code all amounts are denominated in.
func (t *RateTable) Currency() string {
	return t.currency
}
