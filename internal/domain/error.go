package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Catalog
	ErrInvalidCategory = errors.New("unknown course category")
	ErrCourseNotFound  = errors.New("course not found")
	ErrEmptyCategory   = errors.New("no courses found for category")

	// Payments / entitlements
	ErrSignatureMismatch      = errors.New("payment signature mismatch")
	ErrDuplicate              = errors.New("active entitlement already exists")
	ErrVerificationInProgress = errors.New("payment verification already in progress")
	ErrGatewayUnavailable     = errors.New("payment gateway unavailable")
	ErrEntitlementImmutable   = errors.New("completed entitlement cannot be modified")

	// Orders
	ErrOrderNotFound = errors.New("payment order not found")
	ErrOrderMismatch = errors.New("payment does not match the order")
	ErrOrderConsumed = errors.New("payment order already used")
	ErrOrderSettled  = errors.New("payment order already settled")

	// Storage
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid database execution context")
)

// ValidationError reports request fields that failed validation before any
// store or gateway interaction happened.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Is lets errors.Is(err, ErrInvalidArgument) match validation failures.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidArgument }

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
