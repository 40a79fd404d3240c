package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeConfig       ErrorType = "CONFIG"
	ErrTypeDatasetLoad  ErrorType = "DATASET_LOAD"
	ErrTypeEmptyDataset ErrorType = "EMPTY_DATASET"
	ErrTypeOutputPath   ErrorType = "OUTPUT_PATH"
	ErrTypeRender       ErrorType = "RENDER"
	ErrTypeDelivery     ErrorType = "DELIVERY"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewConfigError creates a configuration error (missing file, malformed
// content, missing secrets).
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewDatasetLoadError creates an error for a source workbook that is missing,
// unreadable or malformed.
func NewDatasetLoadError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDatasetLoad, message, cause)
}

// NewEmptyDatasetError creates an error for statistics requested over zero records.
func NewEmptyDatasetError(message string) *AppError {
	return NewAppError(ErrTypeEmptyDataset, message, nil)
}

// NewOutputPathError creates an error for an artifact whose target directory is absent.
func NewOutputPathError(path string, cause error) *AppError {
	return NewAppError(ErrTypeOutputPath, fmt.Sprintf("output directory for %s is not available", path), cause).
		WithContext("path", path)
}

// NewRenderError creates an error for a library failure while producing an artifact.
func NewRenderError(message string, cause error) *AppError {
	return NewAppError(ErrTypeRender, message, cause)
}

// NewDeliveryError creates a mail transport error
func NewDeliveryError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDelivery, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err's chain contains an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}
