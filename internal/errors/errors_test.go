package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "job not found",
			},
			want: "job not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeInternal,
				Message: "failed to persist job",
				Cause:   errors.New("connection refused"),
			},
			want: "failed to persist job: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{
		Code:    ErrCodeInternal,
		Message: "wrapped error",
		Cause:   cause,
	}

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("AppError.Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestConstructorsSetCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"NotFound", NotFound("missing"), ErrCodeNotFound},
		{"Conflict", Conflict("duplicate"), ErrCodeConflict},
		{"Validation", Validation("bad input"), ErrCodeValidation},
		{"Internal", Internal("boom"), ErrCodeInternal},
		{"JobNotSaved", JobNotSaved("save first"), ErrCodeJobNotSaved},
		{"RateLimited", RateLimited("slow down", time.Minute), ErrCodeRateLimited},
		{"SourceUnavailable", SourceUnavailable("adzuna", errors.New("quota")), ErrCodeSourceUnavailable},
		{"SourceTimeout", SourceTimeout("remotive", errors.New("deadline")), ErrCodeSourceTimeout},
		{"AllSourcesFailed", AllSourcesFailed(errors.New("a"), errors.New("b")), ErrCodeAllSourcesFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
		})
	}
}

func TestIsPredicates(t *testing.T) {
	if !IsJobNotSaved(JobNotSaved("save first")) {
		t.Error("IsJobNotSaved should match JobNotSaved error")
	}
	if !IsRateLimited(fmt.Errorf("wrapped: %w", RateLimited("slow down", time.Minute))) {
		t.Error("IsRateLimited should match through wrapping")
	}
	if IsJobNotSaved(NotFound("missing")) {
		t.Error("IsJobNotSaved should not match NotFound error")
	}
	if !IsAllSourcesFailed(AllSourcesFailed(errors.New("x"))) {
		t.Error("IsAllSourcesFailed should match AllSourcesFailed error")
	}
	if !IsSourceUnavailable(SourceUnavailable("adzuna", nil)) {
		t.Error("IsSourceUnavailable should match SourceUnavailable error")
	}
}

func TestSourceErrorsCarrySource(t *testing.T) {
	err := SourceTimeout("jsearch", errors.New("deadline exceeded"))
	if err.Source != "jsearch" {
		t.Errorf("Source = %q, want %q", err.Source, "jsearch")
	}

	var appErr *AppError
	if !errors.As(fmt.Errorf("scrape: %w", err), &appErr) {
		t.Fatal("errors.As should find AppError through wrapping")
	}
	if appErr.Source != "jsearch" {
		t.Errorf("wrapped Source = %q, want %q", appErr.Source, "jsearch")
	}
}

func TestAllSourcesFailedJoinsCauses(t *testing.T) {
	causeA := errors.New("adzuna: quota exceeded")
	causeB := errors.New("remotive: timeout")
	err := AllSourcesFailed(causeA, causeB)

	if !errors.Is(err, causeA) {
		t.Error("AllSourcesFailed should preserve first cause")
	}
	if !errors.Is(err, causeB) {
		t.Error("AllSourcesFailed should preserve second cause")
	}
}

func TestGetRetryAfter(t *testing.T) {
	err := RateLimited("too many scrapes", 42*time.Second)
	if got := GetRetryAfter(err); got != 42*time.Second {
		t.Errorf("GetRetryAfter = %v, want %v", got, 42*time.Second)
	}
	if got := GetRetryAfter(errors.New("plain")); got != 0 {
		t.Errorf("GetRetryAfter on plain error = %v, want 0", got)
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if Wrap(nil, ErrCodeInternal, "ignored") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, ErrCodeInternal, "ignored %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}

func TestGetCodeAndField(t *testing.T) {
	err := ValidationField("salary_min", "must be positive")
	if GetCode(err) != ErrCodeValidation {
		t.Errorf("GetCode = %v, want %v", GetCode(err), ErrCodeValidation)
	}
	if GetField(err) != "salary_min" {
		t.Errorf("GetField = %v, want salary_min", GetField(err))
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("GetCode on plain error should return empty string")
	}
}
