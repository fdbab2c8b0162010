package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies gateway failures so callers can render an actionable message
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindState      ErrorKind = "state"
	KindCredential ErrorKind = "credential"
	KindNetwork    ErrorKind = "network"
	KindInternal   ErrorKind = "internal"
)

// ValidationError represents a caller-correctable input failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}

// NotFoundError reports an unknown invoice identifier
type NotFoundError struct {
	InvoiceID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("invoice not found: %s", e.InvoiceID)
}

// NewNotFoundError creates a new not-found error
func NewNotFoundError(invoiceID string) *NotFoundError {
	return &NotFoundError{InvoiceID: invoiceID}
}

// StateError reports an illegal status transition
type StateError struct {
	InvoiceID string
	From      Status
	To        Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invoice %s: cannot transition from %s to %s", e.InvoiceID, e.From, e.To)
}

// NewStateError creates a new state error
func NewStateError(invoiceID string, from, to Status) *StateError {
	return &StateError{
		InvoiceID: invoiceID,
		From:      from,
		To:        to,
	}
}

// CredentialError reports placeholder or malformed credentials.
// Message never contains the credential values.
type CredentialError struct {
	Message     string
	Placeholder bool
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credentials rejected: %s", e.Message)
}

// NewCredentialError creates a new credential error
func NewCredentialError(message string, placeholder bool) *CredentialError {
	return &CredentialError{
		Message:     message,
		Placeholder: placeholder,
	}
}

// NetworkError represents a transport or protocol fault against the real backend
type NetworkError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("network failure [%s]: %s (%v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("network failure [%s]: %s", e.Operation, e.Message)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a new network error
func NewNetworkError(operation, message string, cause error) *NetworkError {
	return &NetworkError{
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// UnsignedDraftError reports a draft the backend accepted but failed to sign.
// The draft exists under InvoiceID; the kind follows Cause.
type UnsignedDraftError struct {
	InvoiceID string
	Cause     error
}

func (e *UnsignedDraftError) Error() string {
	return fmt.Sprintf("draft %s created but not signed: %v", e.InvoiceID, e.Cause)
}

func (e *UnsignedDraftError) Unwrap() error {
	return e.Cause
}

// NewUnsignedDraftError creates a new unsigned draft error
func NewUnsignedDraftError(invoiceID string, cause error) *UnsignedDraftError {
	return &UnsignedDraftError{
		InvoiceID: invoiceID,
		Cause:     cause,
	}
}

// KindOf extracts the error kind from an error chain
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var (
		ve *ValidationError
		ne *NotFoundError
		se *StateError
		ce *CredentialError
		we *NetworkError
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &ne):
		return KindNotFound
	case errors.As(err, &se):
		return KindState
	case errors.As(err, &ce):
		return KindCredential
	case errors.As(err, &we):
		return KindNetwork
	default:
		return KindInternal
	}
}
