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
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeExtraction    = "EXTRACTION_ERROR"
	ErrCodeEmbedding     = "EMBEDDING_ERROR"
	ErrCodeStore         = "STORE_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrUnsupportedType   = NewDomainError(ErrCodeValidation, "unsupported file type")
	ErrImageTypeRejected = NewDomainError(ErrCodeValidation, "image files are not accepted")
	ErrFileTooLarge      = NewDomainError(ErrCodeValidation, "file exceeds the maximum allowed size")
	ErrEmptyDocument     = NewDomainError(ErrCodeValidation, "document contains no bytes")
	ErrMissingOwner      = NewDomainError(ErrCodeValidation, "owner id is required")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "no records found for document")
)

// Pipeline errors
var (
	ErrNoExtractableText = NewDomainError(ErrCodeExtraction, "no text could be extracted from document")
	ErrAllChunksFailed   = NewDomainError(ErrCodeEmbedding, "embedding failed for every chunk")
)

// NewExtractionError wraps a parser-level failure, preserving the cause message.
func NewExtractionError(mediaType string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeExtraction, fmt.Sprintf("failed to extract text from %s", mediaType), err)
}

// NewStoreError wraps a persistence failure.
func NewStoreError(op string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeStore, fmt.Sprintf("store operation %s failed", op), err)
}
