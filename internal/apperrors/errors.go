package apperrors

import (
	"context"
	"errors"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the identity is not allowed to perform the operation.
var ErrForbidden = errors.New("forbidden")

// ErrConfiguration indicates that stored data is inconsistent with what the operation requires,
// e.g. a sub-account that is not linked to a valid primary account.
var ErrConfiguration = errors.New("configuration error")

// ErrInsufficientFunds indicates that the available balance is below the required amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrAccountAbnormal indicates that the billing account is not in NORMAL status.
var ErrAccountAbnormal = errors.New("billing account is not in a usable state")

// ErrUnavailable indicates a temporary infrastructure failure. Operations failing with it may be retried.
var ErrUnavailable = errors.New("service temporarily unavailable")

// ErrInternal indicates an unexpected failure.
var ErrInternal = errors.New("internal error")

var permanent = []error{
	ErrNotFound,
	ErrValidation,
	ErrDuplicate,
	ErrForbidden,
	ErrConfiguration,
	ErrInsufficientFunds,
	ErrAccountAbnormal,
}

// IsRetryable reports whether an operation that failed with err could succeed on a later attempt.
// Unclassified errors are treated as retryable; the caller bounds the number of attempts.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	for _, p := range permanent {
		if errors.Is(err, p) {
			return false
		}
	}
	return true
}
