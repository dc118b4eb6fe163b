package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context for query")

	// Code validation errors
	ErrEmptyCode       = errors.New("activation code is empty")
	ErrCodeNotFound    = errors.New("activation code not found")
	ErrCodeInactive    = errors.New("activation code is inactive")
	ErrCodeAlreadyUsed = errors.New("activation code already used")
	ErrCodeNotYetValid = errors.New("activation code not yet valid")
	ErrCodeExpired     = errors.New("activation code expired")

	// Redemption errors
	ErrSubjectChoiceRequired   = errors.New("subject choice is required for this code")
	ErrMissingUserIdentity     = errors.New("user identity is required")
	ErrSubscriptionStillActive = errors.New("user already has an active subscription")
)
