package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Standard application errors
var (
	ErrEmptyInput       = errors.New("input is empty or contains only whitespace")
	ErrInvalidJSON      = errors.New("invalid JSON format")
	ErrMultipleJSON     = errors.New("multiple JSON values found at the root, only one is allowed")
	ErrTooDeep          = errors.New("document too deep")
	ErrFileNotFound     = errors.New("file not found")
	ErrFileEmpty        = errors.New("file is empty")
	ErrNoInput          = errors.New("no input provided: please specify a file with -i or pipe JSON data to stdin")
	ErrInvalidFilePath  = errors.New("invalid file path")
	ErrInvalidPath      = errors.New("invalid tree path")
	ErrDocumentNotFound = errors.New("document not found")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput   ErrorType = "input"
	ErrorTypeParsing ErrorType = "parsing"
	ErrorTypeTree    ErrorType = "tree"
	ErrorTypeRender  ErrorType = "render"
	ErrorTypeConfig  ErrorType = "config"
	ErrorTypeStore   ErrorType = "store"
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

// Is reports whether target is an *AppError of the same type.
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

// NewTreeError creates a new error related to building the expression tree
func NewTreeError(message string, err error) *AppError {
	return newError(ErrorTypeTree, message, err)
}

// NewRenderError creates a new error related to template rendering
func NewRenderError(message string, err error) *AppError {
	return newError(ErrorTypeRender, message, err)
}

// NewConfigError creates a new error related to configuration loading
func NewConfigError(message string, err error) *AppError {
	return newError(ErrorTypeConfig, message, err)
}

// NewStoreError creates a new error related to the document store
func NewStoreError(message string, err error) *AppError {
	return newError(ErrorTypeStore, message, err)
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return newError(ErrorTypeOutput, message, err)
}

// InvalidJSONMessage describes a JSON parse failure the way the preview UI
// shows it: "Invalid JSON: <parser message>", or a generic fallback when the
// failure is not a recognizable parse error.
func InvalidJSONMessage(err error) string {
	var syntaxErr *json.SyntaxError
	var appErr *AppError
	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("Invalid JSON: %s", syntaxErr.Error())
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "Invalid JSON: unexpected end of JSON input"
	case errors.As(err, &appErr) && appErr.Type == ErrorTypeParsing:
		return fmt.Sprintf("Invalid JSON: %s", appErr.Message)
	default:
		return "Invalid JSON: unable to parse input"
	}
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", appErr.Message)
		case ErrorTypeParsing:
			return InvalidJSONMessage(appErr)
		case ErrorTypeTree:
			return fmt.Sprintf("Tree error: %s", appErr.Message)
		case ErrorTypeRender:
			return fmt.Sprintf("Render error: %s", appErr.Message)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", appErr.Message)
		case ErrorTypeStore:
			return fmt.Sprintf("Storage error: %s", appErr.Message)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", appErr.Message)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide valid JSON data."
	}
	if errors.Is(err, ErrInvalidJSON) {
		return "Error: The input contains invalid JSON. Please check your JSON syntax."
	}
	if errors.Is(err, ErrMultipleJSON) {
		return "Error: Multiple JSON values found. Please provide a single JSON value."
	}
	if errors.Is(err, ErrTooDeep) {
		return "Error: The document is nested too deeply to display."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrFileEmpty) {
		return "Error: The specified file is empty. Please provide a file with valid JSON content."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Please specify a file with -i or pipe JSON data to stdin."
	}
	if errors.Is(err, ErrInvalidFilePath) {
		return "Error: Invalid file path. Please provide a valid file path."
	}
	if errors.Is(err, ErrDocumentNotFound) {
		return "Error: The requested document does not exist or has expired."
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %s", strings.TrimSpace(err.Error()))
}
