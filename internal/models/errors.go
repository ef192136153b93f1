package models

import "errors"

// Error taxonomy shared by the engine, the ledger and the HTTP layer.
// Caller and configuration errors are rejected before any write;
// storage failures after partial commits trigger the rollback path.
var (
	// Caller errors
	ErrInvalidStake    = errors.New("stake must be positive")
	ErrInvalidAward    = errors.New("awarded amount must be non-negative")
	ErrCaseNotFound    = errors.New("case not found")
	ErrCaseInactive    = errors.New("case is not active")
	ErrItemNotFound    = errors.New("item not found")
	ErrAccountNotFound = errors.New("account not found")

	ErrInsufficientFunds = errors.New("insufficient funds")

	// Configuration errors: fail fast, never guess a default
	ErrBadTierTable = errors.New("tier table does not sum to 100")
	ErrZeroTierSum  = errors.New("tier table sums to zero")
	ErrEmptyPool    = errors.New("reward pool is empty")

	// Concurrency
	ErrConflict       = errors.New("version conflict")
	ErrAlreadyClaimed = errors.New("bonus already claimed today")
)

// IsCallerError reports whether err is the caller's fault rather than a
// storage or configuration problem.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrInvalidStake) ||
		errors.Is(err, ErrInvalidAward) ||
		errors.Is(err, ErrCaseNotFound) ||
		errors.Is(err, ErrCaseInactive) ||
		errors.Is(err, ErrItemNotFound)
}

// IsConfigError reports whether err comes from a misconfigured catalog.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrBadTierTable) ||
		errors.Is(err, ErrZeroTierSum) ||
		errors.Is(err, ErrEmptyPool)
}
