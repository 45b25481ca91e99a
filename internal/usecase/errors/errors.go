package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound   = errors.New("resource not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("resource conflict")
)

// Synthesis errors
var (
	ErrNoSubmissions       = errors.New("no submissions found, need at least one perspective to generate synthesis")
	ErrNoCritiques         = errors.New("no critiques found, need feedback to refine synthesis")
	ErrSynthesisInProgress = fmt.Errorf("%w: a synthesis is already being generated for this session", ErrConflict)
)

// Participation errors
var (
	ErrEmptyContent          = errors.New("content must not be empty")
	ErrForeignStakeholder    = errors.New("stakeholder does not belong to this session")
	ErrInvalidRole           = errors.New("invalid stakeholder role")
	ErrInvalidSessionType    = errors.New("invalid session type")
	ErrInvalidStatus         = errors.New("invalid session status")
	ErrUnsupportedAttachment = errors.New("unsupported attachment")
	ErrAttachmentsDisabled   = errors.New("attachment submissions are not configured")
)

// NotFoundError reports a missing record. It matches ErrNotFound.
type NotFoundError struct {
	Resource string
	ID       string
	Err      error
}

// NotFound builds a NotFoundError wrapping the repository error
func NotFound(resource, id string, err error) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id, Err: err}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// ValidationError reports input that violates a precondition. It matches ErrValidation.
type ValidationError struct {
	Err    error
	Detail string
}

// Validation builds a ValidationError around a sentinel reason
func Validation(err error, detail string) *ValidationError {
	return &ValidationError{Err: err, Detail: detail}
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
