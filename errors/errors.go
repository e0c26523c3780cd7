package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents the classification of a pipeline failure
type ErrorType string

const (
	ErrTypeConfiguration ErrorType = "configuration"
	ErrTypeUpstream      ErrorType = "upstream"
	ErrTypePipeline      ErrorType = "pipeline"
	ErrTypeValidation    ErrorType = "validation"
	ErrTypeNotFound      ErrorType = "not_found"
)

// Stage labels identify where in the RAG pipeline an error originated
const (
	StageEmbeddingsConfig = "openai_embeddings_config"
	StageEmbeddings       = "openai_embeddings"
	StageVectorConfig     = "upstash_config"
	StageVectorQuery      = "upstash_query"
	StageChatConfig       = "openai_chat_config"
	StageChat             = "openai_chat"
	StagePipeline         = "rag_pipeline"
	StageRequest          = "request"
)

// Predefined error codes
const (
	ErrCodeMissingCredential = "MISSING_CREDENTIAL"
	ErrCodeUpstreamFailed    = "UPSTREAM_FAILED"
	ErrCodePipelineFailed    = "PIPELINE_FAILED"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeInvalidFormat     = "INVALID_FORMAT"
	ErrCodeNotFound          = "NOT_FOUND"
)

// PipelineFailureMessage is the client-visible message for unanticipated failures
const PipelineFailureMessage = "Unexpected error while running the RAG pipeline"

// AppError represents a staged application error
type AppError struct {
	Type          ErrorType `json:"type"`
	Stage         string    `json:"stage"`
	Code          string    `json:"code"`
	Message       string    `json:"message"`
	UpstreamError string    `json:"upstream_error,omitempty"`
	Cause         error     `json:"-"`
	StatusCode    int       `json:"-"`

	// UpstreamStatus is the status code returned by the external service, when one was received
	UpstreamStatus int `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// GetHTTPStatusCode returns the appropriate HTTP status code
func (e *AppError) GetHTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrTypeValidation:
		return http.StatusBadRequest
	case ErrTypeNotFound:
		return http.StatusNotFound
	case ErrTypeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewConfigurationError creates an error for a missing or unusable credential
func NewConfigurationError(stage, message string) *AppError {
	return &AppError{
		Type:       ErrTypeConfiguration,
		Stage:      stage,
		Code:       ErrCodeMissingCredential,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewUpstreamError creates an error for a failed call to an external service
func NewUpstreamError(stage, message string, cause error) *AppError {
	appErr := &AppError{
		Type:       ErrTypeUpstream,
		Stage:      stage,
		Code:       ErrCodeUpstreamFailed,
		Message:    message,
		Cause:      cause,
		StatusCode: http.StatusBadGateway,
	}
	if cause != nil {
		appErr.UpstreamError = cause.Error()
	}
	return appErr
}

// WithUpstreamStatus records the status code returned by the external service
func (e *AppError) WithUpstreamStatus(code int) *AppError {
	e.UpstreamStatus = code
	return e
}

// NewPipelineError wraps an unanticipated failure at the orchestrator boundary
func NewPipelineError(cause error) *AppError {
	appErr := &AppError{
		Type:       ErrTypePipeline,
		Stage:      StagePipeline,
		Code:       ErrCodePipelineFailed,
		Message:    PipelineFailureMessage,
		Cause:      cause,
		StatusCode: http.StatusInternalServerError,
	}
	if cause != nil {
		appErr.UpstreamError = cause.Error()
	}
	return appErr
}

// NewValidationError creates a validation error for malformed requests
func NewValidationError(code, message string, cause error) *AppError {
	return &AppError{
		Type:       ErrTypeValidation,
		Stage:      StageRequest,
		Code:       code,
		Message:    message,
		Cause:      cause,
		StatusCode: http.StatusBadRequest,
	}
}

// NewNotFoundError creates an error for a request naming an unknown resource
func NewNotFoundError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrTypeNotFound,
		Stage:      StageRequest,
		Code:       ErrCodeNotFound,
		Message:    message,
		Cause:      cause,
		StatusCode: http.StatusNotFound,
	}
}

// AsAppError extracts the first AppError in the error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Ensure passes staged errors through untouched and wraps everything else as a
// pipeline error. A nil error stays nil.
func Ensure(err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return NewPipelineError(err)
}

// IsKind reports whether err carries a staged error of the given type
func IsKind(err error, errType ErrorType) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Type == errType
}
