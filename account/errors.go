package account

import "errors"

// Validation failures. Each rejected command wraps exactly one of these with
// a human-readable reason; the command pipeline additionally wraps them with
// eventledger.ErrBusinessRuleViolation so callers can classify without
// knowing the domain.
var (
	// ErrNotFound means the account has no events, so it does not exist.
	ErrNotFound = errors.New("account not found")

	// ErrAlreadyExists means an OpenAccount targeted an existing stream.
	ErrAlreadyExists = errors.New("account already exists")

	// ErrClosed means the account reached its terminal state and rejects
	// every further command.
	ErrClosed = errors.New("account is closed")

	// ErrInvalidAmount means a non-positive amount or a negative initial
	// balance.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientFunds means a withdrawal exceeded the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
