package entities

import "errors"

// Domain errors
var (
	// Lookup errors
	ErrSessionNotFound     = errors.New("session not found")
	ErrStakeholderNotFound = errors.New("stakeholder not found")
	ErrSynthesisNotFound   = errors.New("synthesis not found")

	// Invariant errors
	ErrSynthesisVersionConflict = errors.New("synthesis version already exists for session")
	ErrInvalidMetadata          = errors.New("synthesis metadata must carry exactly one variant")
)
