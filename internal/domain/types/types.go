// Package types contains common read shapes shared between the service
// layer and the HTTP API. Monetary fields are decimal strings: JSON numbers
// are floats and floats do not carry money.
package types

// Balance is an account snapshot for a single user.
type Balance struct {
	UserID        string `json:"user_id"`
	Balance       string `json:"balance"`
	TotalEarned   string `json:"total_earned"`
	Sessions      int64  `json:"sessions"`
	Currency      string `json:"currency"`
	Eligible      bool   `json:"eligible_for_payout"`
	MinimumPayout string `json:"minimum_payout"`
}

// Earner is a row in the top-earners ranking.
type Earner struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	TotalEarned string `json:"total_earned"`
	Sessions    int64  `json:"sessions"`
}

// PayoutQuote is the priced answer to "can this amount be withdrawn".
type PayoutQuote struct {
	UserID        string `json:"user_id"`
	Eligible      bool   `json:"eligible"`
	Amount        string `json:"amount"`
	NetAmount     string `json:"net_amount"`
	FeeAmount     string `json:"fee_amount"`
	Currency      string `json:"currency"`
	MinimumPayout string `json:"minimum_payout"`
}

// PayoutReceipt reports an executed payout and the balance that remains.
type PayoutReceipt struct {
	UserID    string `json:"user_id"`
	Amount    string `json:"amount"`
	NetAmount string `json:"net_amount"`
	FeeAmount string `json:"fee_amount"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
}
