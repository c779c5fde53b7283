package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound             = errors.New("entity not found")
	ErrAlreadyExists        = errors.New("entity already exists")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrConflict             = errors.New("conflicting state")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrNotPostAuthor        = errors.New("user is not the post author")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrSignatureInvalid     = errors.New("webhook signature invalid")
	ErrNotRefundable        = errors.New("payment is not refundable")
	ErrRefundExceedsBalance = errors.New("refund amount exceeds refundable balance")
	ErrLockNotAcquired      = errors.New("could not acquire lock")

	// Storage-layer errors
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrInvalidExecContext = errors.New("invalid exec context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
