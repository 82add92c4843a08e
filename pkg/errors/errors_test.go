package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	t.Run("with code", func(t *testing.T) {
		err := NewRateLimit("too many requests", 429)
		want := "rate_limit error (code 429): too many requests"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("without code", func(t *testing.T) {
		err := NewNotFound("venue not listed")
		want := "not_found error: venue not listed"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewNetwork("fetch failed", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}

	wrapped := fmt.Errorf("ingest brewery 1001: %w", err)
	var typed *Error
	if !stderrors.As(wrapped, &typed) {
		t.Fatal("expected errors.As to find *Error through wrapping")
	}
	if typed.Type != ErrorTypeNetwork {
		t.Errorf("Type = %v, want %v", typed.Type, ErrorTypeNetwork)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      bool
	}{
		{ErrorTypeNetwork, true},
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeAuth, false},
		{ErrorTypeNotFound, false},
		{ErrorTypeParsing, false},
		{ErrorTypeStorage, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.errorType); got != tt.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tt.errorType, got, tt.want)
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	if !IsRetryableError(NewNetwork("timeout", nil)) {
		t.Error("network errors should be retryable")
	}
	if IsRetryableError(NewNotFound("gone")) {
		t.Error("not found errors should not be retryable")
	}
	if IsRetryableError(stderrors.New("plain")) {
		t.Error("foreign errors should not be retryable")
	}
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{429, ErrorTypeRateLimit},
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{418, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		err := FromStatusCode(tt.code, "boom")
		if err.Type != tt.want {
			t.Errorf("FromStatusCode(%d).Type = %v, want %v", tt.code, err.Type, tt.want)
		}
		if err.Code != tt.code {
			t.Errorf("FromStatusCode(%d).Code = %d", tt.code, err.Code)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(NewNotFound("absent")) {
		t.Error("expected IsNotFound to be true for not found errors")
	}
	if IsNotFound(NewStorage("write failed", nil)) {
		t.Error("expected IsNotFound to be false for storage errors")
	}
}
