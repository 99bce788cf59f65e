package repository

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrNotFound          = errors.New("account not found")
	ErrInvalidLimit      = errors.New("invalid earners limit")
	ErrNegativeAmount    = errors.New("negative amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
