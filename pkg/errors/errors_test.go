package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "basic error",
			err:      New(ErrCodeConnectionFailed, "Connection failed"),
			expected: "[GBI1001] ERROR: Connection failed",
		},
		{
			name: "error with suggestions",
			err: New(ErrCodeConnectionFailed, "Connection failed").
				WithSuggestions("Check network", "Verify credentials"),
			expected: "[GBI1001] ERROR: Connection failed\nSuggestions:\n  1. Check network\n  2. Verify credentials",
		},
		{
			name: "error with context",
			err: New(ErrCodeConnectionFailed, "Connection failed").
				WithContext("host", "db.internal").
				WithContext("port", 5432),
			expected: "[GBI1001] ERROR: Connection failed",
		},
		{
			name:     "wrapped error",
			err:      Wrap(fmt.Errorf("connection refused"), ErrCodeConnectionFailed, "Connection failed"),
			expected: "[GBI1001] ERROR: Connection failed\nCaused by: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != ErrCodeConnectionFailed {
				t.Errorf("Expected code %s, got %s", ErrCodeConnectionFailed, tt.err.Code)
			}
			if tt.err.Error() != tt.expected {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.expected)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	baseErr := fmt.Errorf("dial tcp: connection refused")

	appErr := Wrap(baseErr, ErrCodeConnectionFailed, "Failed to connect to the warehouse")

	if appErr.Cause != baseErr {
		t.Error("Wrapped error should contain original error as cause")
	}
	if !errors.Is(appErr, baseErr) {
		t.Error("errors.Is should reach the cause")
	}
	if Wrap(nil, ErrCodeInternal, "nothing") != nil {
		t.Error("Wrapping nil should return nil")
	}
}

func TestWrapKeepsInnerContext(t *testing.T) {
	inner := DatasetError(ErrCodeDatasetMalformed, "Malformed value", "sales.csv", nil).
		WithContext("column", "Sales")
	outer := Wrap(fmt.Errorf("load: %w", inner), ErrCodeReportBuild, "Report build failed")

	if outer.Context["path"] != "sales.csv" || outer.Context["column"] != "Sales" {
		t.Errorf("context not carried over: %v", outer.Context)
	}
	if GetErrorCode(outer) != ErrCodeReportBuild {
		t.Errorf("outer code expected, got %s", GetErrorCode(outer))
	}
	if !errors.Is(outer, New(ErrCodeDatasetMalformed, "")) {
		t.Error("errors.Is should match the inner code")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
		ctx  string
	}{
		{"connection", ConnectionError("Failed to connect", fmt.Errorf("refused")), ErrCodeConnectionFailed, ""},
		{"config", ConfigError("Missing path", "dataset.path"), ErrCodeConfigInvalid, "field"},
		{"dataset", DatasetError(ErrCodeDatasetNotFound, "Not found", "x.csv", nil), ErrCodeDatasetNotFound, "path"},
		{"sql", SQLError("Query failed", "SELECT 1", fmt.Errorf("syntax error")), ErrCodeSQLExecution, "query"},
		{"sql timeout", SQLError("Query failed", "SELECT 1", context.DeadlineExceeded), ErrCodeSQLTimeout, "query"},
		{"sql permission", SQLError("Query failed", "SELECT 1", fmt.Errorf("Error 1142: SELECT command denied, access denied for user")), ErrCodeSQLPermission, "query"},
		{"sql permission in message", SQLError("Insert failed: permission denied", "INSERT", fmt.Errorf("boom")), ErrCodeSQLPermission, "query"},
		{"view", ViewNotFound("nope", []string{"total-sales"}), ErrCodeViewNotFound, "view"},
		{"validation", ValidationError("cache.backend", "disk", "unknown backend"), ErrCodeValidationFailed, "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.ctx != "" {
				if _, ok := tt.err.Context[tt.ctx]; !ok {
					t.Errorf("Expected context key %q in %v", tt.ctx, tt.err.Context)
				}
			}
			if tt.code != ErrCodeValidationFailed && len(tt.err.Suggestions) == 0 {
				t.Error("Expected suggestions")
			}
		})
	}
}

func TestSQLErrorTruncatesQuery(t *testing.T) {
	query := "INSERT INTO grocery_sales VALUES " + strings.Repeat("(?),", 100)
	err := SQLError("Insert failed", query, fmt.Errorf("boom"))

	got := err.Context["query"].(string)
	if len(got) != 203 || !strings.HasSuffix(got, "...") {
		t.Errorf("query not truncated: %d chars", len(got))
	}
}

func TestViewNotFoundListsKnownViews(t *testing.T) {
	err := ViewNotFound("sales", []string{"total-sales", "average-sales"})
	if err.Severity != SeverityWarning {
		t.Errorf("Expected warning severity, got %s", err.Severity)
	}
	if !strings.Contains(err.Error(), "Known views: total-sales, average-sales") {
		t.Errorf("known views missing: %s", err.Error())
	}
}

func TestRetryLogic(t *testing.T) {
	attempts := 0
	maxAttempts := 3

	var notified []int
	config := &RetryConfig{
		MaxRetries:   maxAttempts - 1,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       false,
		RetryableError: func(err error) bool {
			return true
		},
		OnRetry: func(attempt int, _ time.Duration, _ error) {
			notified = append(notified, attempt)
		},
	}

	err := Retry(context.Background(), config, func(ctx context.Context) error {
		attempts++
		if attempts < maxAttempts {
			return New(ErrCodeConnectionTimeout, "Timeout").AsRecoverable()
		}
		return nil
	})

	if err != nil {
		t.Error("Expected retry to succeed")
	}
	if attempts != maxAttempts {
		t.Errorf("Expected %d attempts, got %d", maxAttempts, attempts)
	}
	if len(notified) != 2 || notified[0] != 1 || notified[1] != 2 {
		t.Errorf("Unexpected OnRetry calls: %v", notified)
	}
}

func TestRetryExhausted(t *testing.T) {
	attempts := 0
	config := &RetryConfig{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
	}

	err := Retry(context.Background(), config, func(ctx context.Context) error {
		attempts++
		return fmt.Errorf("still down")
	})

	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if GetErrorCode(err) != ErrCodeMaxRetriesExceeded {
		t.Errorf("Expected %s, got %s", ErrCodeMaxRetriesExceeded, GetErrorCode(err))
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	attempts := 0
	authErr := New(ErrCodeAuthenticationFailed, "Bad password")

	err := Retry(context.Background(), DefaultRetryConfig(), func(ctx context.Context) error {
		attempts++
		return authErr
	})

	if attempts != 1 {
		t.Errorf("Expected a single attempt, got %d", attempts)
	}
	if err != authErr {
		t.Errorf("Expected the original error, got %v", err)
	}
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := &RetryConfig{
		MaxRetries:   5,
		InitialDelay: time.Hour,
		MaxDelay:     time.Hour,
		Multiplier:   1,
		OnRetry: func(int, time.Duration, error) {
			cancel()
		},
	}

	err := Retry(ctx, config, func(ctx context.Context) error {
		return fmt.Errorf("unavailable")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestCalculateDelay(t *testing.T) {
	config := &RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{5, time.Second},
	}
	for _, tt := range tests {
		if got := calculateDelay(tt.attempt, config); got != tt.expected {
			t.Errorf("calculateDelay(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}

	config.Jitter = true
	got := calculateDelay(1, config)
	if got < 200*time.Millisecond || got > 260*time.Millisecond {
		t.Errorf("jittered delay out of range: %v", got)
	}
}

func TestErrorCodes(t *testing.T) {
	err1 := New(ErrCodeViewNotFound, "Test")
	if GetErrorCode(err1) != ErrCodeViewNotFound {
		t.Error("Failed to extract error code from AppError")
	}

	err2 := fmt.Errorf("regular error")
	if GetErrorCode(err2) != ErrCodeInternal {
		t.Error("Should return internal error code for non-AppError")
	}

	if !IsRecoverable(fmt.Errorf("wrapped: %w", New(ErrCodeTimeout, "slow").AsRecoverable())) {
		t.Error("Recoverable flag should be found through wrapping")
	}
}

func TestErrorSeverity(t *testing.T) {
	tests := []struct {
		severity ErrorSeverity
		err      *AppError
	}{
		{
			severity: SeverityCritical,
			err:      New(ErrCodeInternal, "Critical error").WithSeverity(SeverityCritical),
		},
		{
			severity: SeverityWarning,
			err:      New(ErrCodeValidationFailed, "Warning").WithSeverity(SeverityWarning),
		},
		{
			severity: SeverityError,
			err:      New(ErrCodeRenderFailed, "Default"),
		},
	}

	for _, tt := range tests {
		if tt.err.Severity != tt.severity {
			t.Errorf("Expected severity %s, got %s", tt.severity, tt.err.Severity)
		}
	}
}

func BenchmarkErrorCreation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = New(ErrCodeDatasetMalformed, "Malformed value").
			WithContext("column", "Sales").
			WithSuggestions("Check the export")
	}
}

func BenchmarkRetryExecution(b *testing.B) {
	config := &RetryConfig{
		MaxRetries:   0,
		InitialDelay: 0,
		RetryableError: func(err error) bool {
			return false
		},
	}

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Retry(ctx, config, func(ctx context.Context) error {
			return nil
		})
	}
}
