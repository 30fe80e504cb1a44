package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateIdentity  = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrUserNotFound       = errors.New("user not found")
	ErrValidation         = errors.New("invalid request")

	// ErrNotFound covers both "absent" and "owned by someone else".
	ErrNotFound         = errors.New("not found")
	ErrProjectNotFound  = fmt.Errorf("project %w", ErrNotFound)
	ErrTaskNotFound     = fmt.Errorf("task %w", ErrNotFound)
	ErrInvalidReference = errors.New("invalid project selection")
	ErrNoFieldsToUpdate = errors.New("no valid fields to update")

	// ErrRequestInProgress is returned for a repeated Idempotency-Key whose
	// first request has not finished.
	ErrRequestInProgress = errors.New("a request with this idempotency key is in progress")
)

// TokenReason classifies why a bearer token was rejected. It is meant for
// server-side logs and metrics; clients only ever see ErrUnauthenticated.
type TokenReason string

const (
	TokenMissing   TokenReason = "missing"
	TokenMalformed TokenReason = "malformed"
	TokenSignature TokenReason = "signature"
	TokenExpired   TokenReason = "expired"
	TokenClaims    TokenReason = "claims"
)

// TokenError is returned by token verification.
type TokenError struct {
	Reason TokenReason
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return "token " + string(e.Reason) + ": " + e.Err.Error()
	}
	return "token " + string(e.Reason)
}

// Unwrap lets errors.Is(err, ErrUnauthenticated) match every token failure.
func (e *TokenError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUnauthenticated, e.Err}
	}
	return []error{ErrUnauthenticated}
}
