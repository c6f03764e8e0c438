package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInsufficientFunds indicates a debit was attempted beyond the available balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInactiveAccount indicates an operation was attempted on a non-active account.
var ErrInactiveAccount = errors.New("account is not active")

// ErrAccountMismatch indicates the account does not belong to the given member or SACCO.
var ErrAccountMismatch = errors.New("account does not belong to member")

// ErrNotReversible indicates the transaction is not in a reversible state.
var ErrNotReversible = errors.New("transaction is not reversible")

// ErrTransient indicates a persistence-layer failure that may succeed on retry
// (sequence collision, lock timeout). Callers retry a bounded number of times.
var ErrTransient = errors.New("transient persistence error")

// ErrUnbalanced indicates a debit/credit mismatch was detected at posting time.
// This must never occur in a correct code path; the whole operation is aborted
// rather than persisting an unbalanced ledger.
var ErrUnbalanced = errors.New("ledger entries do not balance")

// AppError carries an internal code and message alongside a wrapped cause.
// Repositories use it to surface infrastructure failures with context.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates a new AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}
