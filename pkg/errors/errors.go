package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Warehouse connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "GBI1001"
	ErrCodeConnectionTimeout    ErrorCode = "GBI1002"
	ErrCodeAuthenticationFailed ErrorCode = "GBI1003"
	ErrCodeUnsupportedDriver    ErrorCode = "GBI1004"

	// Configuration errors (2xxx)
	ErrCodeConfigInvalid ErrorCode = "GBI2001"

	// Dataset errors (3xxx)
	ErrCodeDatasetNotFound    ErrorCode = "GBI3001"
	ErrCodeDatasetUnreadable  ErrorCode = "GBI3002"
	ErrCodeDatasetMalformed   ErrorCode = "GBI3003"
	ErrCodeDatasetMissingCols ErrorCode = "GBI3004"

	// SQL execution errors (4xxx)
	ErrCodeSQLExecution   ErrorCode = "GBI4001"
	ErrCodeSQLTransaction ErrorCode = "GBI4002"
	ErrCodeSQLTimeout     ErrorCode = "GBI4003"
	ErrCodeSQLScan        ErrorCode = "GBI4004"
	ErrCodeSQLPermission  ErrorCode = "GBI4005"

	// Report errors (5xxx)
	ErrCodeViewNotFound  ErrorCode = "GBI5001"
	ErrCodeReportBuild   ErrorCode = "GBI5002"
	ErrCodeRenderFailed  ErrorCode = "GBI5003"
	ErrCodeUnknownFormat ErrorCode = "GBI5004"

	// Cache errors (6xxx)
	ErrCodeCacheUnavailable ErrorCode = "GBI6001"
	ErrCodeCacheCorrupted   ErrorCode = "GBI6002"

	// Validation errors (7xxx)
	ErrCodeValidationFailed ErrorCode = "GBI7001"
	ErrCodeInvalidInput     ErrorCode = "GBI7002"

	// System errors (9xxx)
	ErrCodeInternal           ErrorCode = "GBI9001"
	ErrCodeTimeout            ErrorCode = "GBI9002"
	ErrCodeMaxRetriesExceeded ErrorCode = "GBI9003"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL"
	SeverityError    ErrorSeverity = "ERROR"
	SeverityWarning  ErrorSeverity = "WARNING"
	SeverityInfo     ErrorSeverity = "INFO"
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError by code
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	var inner *AppError
	if errors.As(err, &inner) {
		for k, v := range inner.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a warehouse connection error
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSuggestions(
			"Check the warehouse host and credentials in the configuration",
			"Verify the warehouse is reachable from this machine",
			"Run 'grocerybi config show' to inspect the active settings",
		)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'grocerybi config init' to reconfigure",
		)
}

// DatasetError creates an error for an unreadable or malformed dataset
func DatasetError(code ErrorCode, message, path string, cause error) *AppError {
	var err *AppError
	if cause != nil {
		err = Wrap(cause, code, message)
	} else {
		err = New(code, message)
	}
	return err.WithContext("path", path).
		WithSuggestions(
			"Verify the dataset path with --file or dataset.path",
			"Ensure the file is a CSV export with a header row",
		)
}

// SQLError creates an SQL execution error
func SQLError(message string, query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeSQLExecution, message).
		WithContext("query", truncateString(query, 200))

	lower := strings.ToLower(message + " " + fmt.Sprint(cause))
	switch {
	case strings.Contains(lower, "permission") || strings.Contains(lower, "access denied"):
		err.Code = ErrCodeSQLPermission
		return err.WithSuggestions(
			"Check the privileges of warehouse.username on the sales table",
			"Verify warehouse.role grants read and write access",
		)
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		err.Code = ErrCodeSQLTimeout
		return err.WithSuggestions(
			"Increase warehouse.timeout",
			"Check the warehouse load",
		)
	}

	return err.WithSuggestions(
		"Check warehouse.table exists (run 'grocerybi load')",
		"Verify the configured user can read the table",
	)
}

// ViewNotFound creates an error for an unknown report view
func ViewNotFound(name string, known []string) *AppError {
	return New(ErrCodeViewNotFound, fmt.Sprintf("Unknown view %q", name)).
		WithContext("view", name).
		WithSeverity(SeverityWarning).
		WithSuggestions(
			"Run 'grocerybi views' to list the available views",
			"Known views: "+strings.Join(known, ", "),
		)
}

// ValidationError creates a validation error
func ValidationError(field string, value interface{}, reason string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("Validation failed for %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity(SeverityWarning).
		AsRecoverable()
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
