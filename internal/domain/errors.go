package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeAlreadyExists   = "ALREADY_EXISTS"
	ErrCodeSizingViolation = "SIZING_VIOLATION"
	ErrCodeMissingFiles    = "MISSING_FILES"
	ErrCodeUnavailable     = "PROVIDER_UNAVAILABLE"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidPlan          = NewDomainError(ErrCodeValidation, "segmentation plan points must be strictly increasing within the recording")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrAudioNotDownloaded   = NewDomainError(ErrCodeValidation, "recording audio has not been downloaded")
)

// Not found errors
var (
	ErrRecordingNotFound  = NewDomainError(ErrCodeNotFound, "recording not found")
	ErrTranscriptNotFound = NewDomainError(ErrCodeNotFound, "transcript not found")
	ErrGenerationNotFound = NewDomainError(ErrCodeNotFound, "generation not found")
)

// Already exists errors
var (
	ErrRecordingAlreadyExists       = NewDomainError(ErrCodeAlreadyExists, "recording already exists")
	ErrChunkTranscriptAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "chunk transcript already exists for this chunk")
)

// Segmentation and transcription errors
var (
	// ErrChunkTooLarge is raised when a materialized chunk exceeds the size
	// ceiling; the whole chunk set is rolled back, never partially kept.
	ErrChunkTooLarge = NewDomainError(ErrCodeSizingViolation, "materialized chunk exceeds maximum size")

	// ErrChunkFilesMissing aborts a chunked transcription run before any
	// provider call when one or more chunk files are gone from disk.
	ErrChunkFilesMissing = NewDomainError(ErrCodeMissingFiles, "one or more chunk files are missing")

	// ErrProviderUnavailable distinguishes "the provider cannot be reached"
	// from "the provider ran and produced nothing".
	ErrProviderUnavailable = NewDomainError(ErrCodeUnavailable, "provider is unavailable")
)
