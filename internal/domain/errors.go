package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Error types for consistent error handling across the API.

// FieldError is a single validation violation on a named field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrValidation indicates one or more validation errors (bad input).
// Violations across fields are accumulated so the caller sees them all.
type ErrValidation struct {
	Fields []FieldError
}

// NewValidation builds a single-field validation error.
func NewValidation(field, message string) *ErrValidation {
	return &ErrValidation{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ErrValidation) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("validation error on '%s': %s", e.Fields[0].Field, e.Fields[0].Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation errors: " + strings.Join(parts, "; ")
}

// ErrNotFound indicates a resource was not found or is not owned by the caller.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrDuplicate indicates the duplicate guard matched an existing record.
type ErrDuplicate struct {
	Resource string
	Key      string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("duplicate %s: %s", e.Resource, e.Key)
}

// ErrInsufficientDebtBalance indicates a payment exceeding the debt's
// remaining amount.
type ErrInsufficientDebtBalance struct {
	DebtID    string
	Remaining decimal.Decimal
	Requested decimal.Decimal
}

func (e *ErrInsufficientDebtBalance) Error() string {
	return fmt.Sprintf("payment exceeds remaining debt %s: remaining=%s requested=%s",
		e.DebtID, e.Remaining.String(), e.Requested.String())
}

// ErrStorage indicates a failure in the underlying store. It is propagated
// unchanged so the caller can retry or surface it.
type ErrStorage struct {
	Op  string
	Err error
}

func (e *ErrStorage) Error() string {
	return fmt.Sprintf("storage error [%s]: %v", e.Op, e.Err)
}

func (e *ErrStorage) Unwrap() error {
	return e.Err
}

// ErrReconciliationDrift indicates a derived-state write failed after the
// primary record write succeeded and compensation also failed: balances or
// debt state no longer match the source records. The most serious class;
// logged and counted separately from user-facing errors.
type ErrReconciliationDrift struct {
	Op       string
	EntityID string
	Err      error
}

func (e *ErrReconciliationDrift) Error() string {
	return fmt.Sprintf("reconciliation drift [%s] entity=%s: %v", e.Op, e.EntityID, e.Err)
}

func (e *ErrReconciliationDrift) Unwrap() error {
	return e.Err
}

// ErrUnauthorized indicates an invalid or missing token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
