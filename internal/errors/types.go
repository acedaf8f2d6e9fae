package errors

import (
	"fmt"
)

// NeedlrError defines the base interface for all needlr host errors. These
// cover failures of the run itself (loading, configuration, output); findings
// about the analyzed code are diagnostics, not errors.
type NeedlrError interface {
	error
	ErrorCode() ErrorCode
	Context() map[string]interface{}
	Suggestions() []string
	Unwrap() error
}

// ErrorCode represents the type of error that occurred
type ErrorCode int

const (
	UnknownErrorCode ErrorCode = iota
	UniverseLoadErrorCode
	ConfigurationErrorCode
	ModuleResolutionErrorCode
	ManifestWriteErrorCode
	ReportErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case UniverseLoadErrorCode:
		return "UniverseLoadError"
	case ConfigurationErrorCode:
		return "ConfigurationError"
	case ModuleResolutionErrorCode:
		return "ModuleResolutionError"
	case ManifestWriteErrorCode:
		return "ManifestWriteError"
	case ReportErrorCode:
		return "ReportError"
	default:
		return "UnknownError"
	}
}

// BaseError provides a common implementation of the NeedlrError interface
type BaseError struct {
	Code        ErrorCode
	Message     string
	Path        string // file or directory the error is about, if any
	Cause       error
	ContextData map[string]interface{}
	Hints       []string
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ErrorCode returns the error code
func (e *BaseError) ErrorCode() ErrorCode {
	return e.Code
}

// Context returns the error context data
func (e *BaseError) Context() map[string]interface{} {
	if e.ContextData == nil {
		return make(map[string]interface{})
	}
	return e.ContextData
}

// Suggestions returns helpful suggestions for fixing the error
func (e *BaseError) Suggestions() []string {
	return e.Hints
}

// Unwrap returns the underlying error cause for error chain inspection
func (e *BaseError) Unwrap() error {
	return e.Cause
}

// WithPath records the file or directory the error is about
func (e *BaseError) WithPath(path string) *BaseError {
	e.Path = path
	return e
}

// WithCause adds an underlying error cause
func (e *BaseError) WithCause(cause error) *BaseError {
	e.Cause = cause
	return e
}

// WithContext adds a key-value pair to the error context
func (e *BaseError) WithContext(key string, value interface{}) *BaseError {
	if e.ContextData == nil {
		e.ContextData = make(map[string]interface{})
	}
	e.ContextData[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *BaseError) WithSuggestion(hint string) *BaseError {
	e.Hints = append(e.Hints, hint)
	return e
}

// NewUniverseLoadError reports a failure to load or type-check source packages
func NewUniverseLoadError(message string, cause error) *BaseError {
	return &BaseError{
		Code:    UniverseLoadErrorCode,
		Message: message,
		Cause:   cause,
		Hints:   []string{"run 'go build ./...' to see the underlying compile errors"},
	}
}

// NewConfigurationError reports an invalid or unreadable configuration
func NewConfigurationError(message string, cause error) *BaseError {
	return &BaseError{
		Code:    ConfigurationErrorCode,
		Message: message,
		Cause:   cause,
	}
}

// NewModuleResolutionError reports a failure to determine the module path
func NewModuleResolutionError(message string, cause error) *BaseError {
	return &BaseError{
		Code:    ModuleResolutionErrorCode,
		Message: message,
		Cause:   cause,
		Hints:   []string{"pass --module to set the module path explicitly"},
	}
}

// NewManifestWriteError reports a failure to write the manifest output
func NewManifestWriteError(path string, cause error) *BaseError {
	return &BaseError{
		Code:    ManifestWriteErrorCode,
		Message: "failed to write manifest",
		Path:    path,
		Cause:   cause,
	}
}

// NewReportError reports a failure to render or write a report
func NewReportError(path string, cause error) *BaseError {
	return &BaseError{
		Code:    ReportErrorCode,
		Message: "failed to write report",
		Path:    path,
		Cause:   cause,
	}
}
