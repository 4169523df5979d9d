package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrValidation       = errors.New("validation error")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNoSession        = errors.New("no session")
	ErrNotInitialized   = errors.New("session not initialized")
	ErrRelationMissing  = errors.New("relation does not exist")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAuthExpired      = errors.New("auth expired")
	ErrSaveInProgress   = errors.New("save already in progress")
	ErrUnknownSection   = errors.New("unknown section")
)

// Backend error codes understood by the classifier.
const (
	CodeRelationMissing  = "42P01"
	CodeInsufficientPriv = "42501"
	CodePermissionDenied = "PGRST301"
	CodeNoRows           = "PGRST116"
	CodeUniqueViolation  = "23505"
	CodeCheckViolation   = "23514"
	CodeInvalidText      = "22P02"
)

// GatewayError is the error shape returned by the remote data gateway.
type GatewayError struct {
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *GatewayError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is lets errors.Is match a GatewayError against the taxonomy sentinels.
func (e *GatewayError) Is(target error) bool {
	switch target {
	case ErrRelationMissing:
		return e.Code == CodeRelationMissing
	case ErrPermissionDenied:
		return e.Code == CodePermissionDenied || e.Code == CodeInsufficientPriv
	case ErrNotFound:
		return e.Code == CodeNoRows
	case ErrAlreadyExists:
		return e.Code == CodeUniqueViolation
	case ErrValidation:
		return e.Code == CodeCheckViolation || e.Code == CodeInvalidText
	case ErrAuthExpired:
		return mentionsExpiredAuth(e.Message)
	}
	return false
}

// ErrorClass is the user-facing category of a failed operation.
type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassNoSession
	ClassRelationMissing
	ClassPermissionDenied
	ClassAuthExpired
	ClassValidation
	ClassNotFoundEmpty
	ClassSaveInProgress
	ClassUnknown
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassNoSession:
		return "no_session"
	case ClassRelationMissing:
		return "relation_missing"
	case ClassPermissionDenied:
		return "permission_denied"
	case ClassAuthExpired:
		return "auth_expired"
	case ClassValidation:
		return "validation"
	case ClassNotFoundEmpty:
		return "not_found"
	case ClassSaveInProgress:
		return "save_in_progress"
	}
	return "unknown"
}

// Classify maps an error onto the taxonomy. Order matters: auth expiry is
// detected by message content and must win over a generic gateway code.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrNoSession), errors.Is(err, ErrNotInitialized), errors.Is(err, ErrUnauthorized):
		return ClassNoSession
	case errors.Is(err, ErrAuthExpired), mentionsExpiredAuth(err.Error()):
		return ClassAuthExpired
	case errors.Is(err, ErrRelationMissing):
		return ClassRelationMissing
	case errors.Is(err, ErrPermissionDenied):
		return ClassPermissionDenied
	case errors.Is(err, ErrValidation):
		return ClassValidation
	case errors.Is(err, ErrSaveInProgress):
		return ClassSaveInProgress
	case errors.Is(err, ErrNotFound):
		return ClassNotFoundEmpty
	}
	return ClassUnknown
}

func mentionsExpiredAuth(msg string) bool {
	return strings.Contains(msg, "JWT") || strings.Contains(msg, "Invalid API key")
}

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s — %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}
