package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrEmptyInput      = errors.New("input is empty or contains only whitespace")
	ErrInvalidJSON     = errors.New("invalid JSON format")
	ErrMultipleJSON    = errors.New("multiple JSON values found at the root, only one is allowed")
	ErrTooDeep         = errors.New("JSON nesting exceeds the maximum depth")
	ErrFileNotFound    = errors.New("file not found")
	ErrFileEmpty       = errors.New("file is empty")
	ErrNoInput         = errors.New("no input provided: pass a document ID, a file with -i, or pipe a response to stdin")
	ErrInvalidFilePath = errors.New("invalid file path")
	ErrNoDocumentID    = errors.New("document ID is empty")
	ErrHTTPStatus      = errors.New("unexpected HTTP status")
	ErrUnknownDataset  = errors.New("unknown dataset")
	ErrRowOutOfRange   = errors.New("row index out of range")
	ErrNoDrillDown     = errors.New("row has no incoming data")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput   ErrorType = "input"
	ErrorTypeParsing ErrorType = "parsing"
	ErrorTypeConfig  ErrorType = "config"
	ErrorTypeFetch   ErrorType = "fetch"
	ErrorTypeQuery   ErrorType = "query"
	ErrorTypeRender  ErrorType = "render"
	ErrorTypeOutput  ErrorType = "output"
	ErrorTypeUnknown ErrorType = "unknown"
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another *AppError of the same Type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

func newError(t ErrorType, message string, err error) *AppError {
	return &AppError{Type: t, Message: message, Err: err}
}

// NewInputError creates a new error related to input processing
func NewInputError(message string, err error) *AppError {
	return newError(ErrorTypeInput, message, err)
}

// NewParsingError creates a new error related to JSON parsing
func NewParsingError(message string, err error) *AppError {
	return newError(ErrorTypeParsing, message, err)
}

// NewConfigError creates a new error related to configuration loading
func NewConfigError(message string, err error) *AppError {
	return newError(ErrorTypeConfig, message, err)
}

// NewFetchError creates a new error related to the webhook call
func NewFetchError(message string, err error) *AppError {
	return newError(ErrorTypeFetch, message, err)
}

// NewQueryError creates a new error related to jq pre-selection
func NewQueryError(message string, err error) *AppError {
	return newError(ErrorTypeQuery, message, err)
}

// NewRenderError creates a new error related to report rendering
func NewRenderError(message string, err error) *AppError {
	return newError(ErrorTypeRender, message, err)
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return newError(ErrorTypeOutput, message, err)
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", appErr.Message)
		case ErrorTypeParsing:
			return fmt.Sprintf("JSON parsing error: %s", appErr.Message)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", appErr.Message)
		case ErrorTypeFetch:
			if appErr.Err != nil {
				return fmt.Sprintf("Failed to fetch tracking data: %s: %v", appErr.Message, appErr.Err)
			}
			return fmt.Sprintf("Failed to fetch tracking data: %s", appErr.Message)
		case ErrorTypeQuery:
			return fmt.Sprintf("Query error: %s", appErr.Message)
		case ErrorTypeRender:
			return fmt.Sprintf("Render error: %s", appErr.Message)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", appErr.Message)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide a webhook response."
	}
	if errors.Is(err, ErrInvalidJSON) {
		return "Error: The input contains invalid JSON. Please check your JSON syntax."
	}
	if errors.Is(err, ErrMultipleJSON) {
		return "Error: Multiple JSON values found. Please provide a single JSON object or array."
	}
	if errors.Is(err, ErrTooDeep) {
		return "Error: The input is nested too deeply to be processed."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrFileEmpty) {
		return "Error: The specified file is empty. Please provide a file with a webhook response."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Pass a document ID, a file with -i, or pipe a response to stdin."
	}
	if errors.Is(err, ErrNoDocumentID) {
		return "Error: Please enter a Document ID before submitting."
	}
	if errors.Is(err, ErrInvalidFilePath) {
		return "Error: Invalid file path. Please provide a valid file path."
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
