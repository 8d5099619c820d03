package entity

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"invalid public key", errors.New("Invalid public key input"), ErrorInvalidInput},
		{"sentinel address", fmt.Errorf("parse: %w", ErrInvalidAddress), ErrorInvalidInput},
		{"rate limited", errors.New("429 Too Many Requests"), ErrorTransient},
		{"timeout", errors.New("request timeout"), ErrorTransient},
		{"network", errors.New("network unreachable"), ErrorTransient},
		{"unavailable", fmt.Errorf("tx: %w", ErrDataUnavailable), ErrorDataUnavailable},
		{"unknown", errors.New("something odd"), ErrorTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	if !IsRateLimited(errors.New("server responded with 429")) {
		t.Error("429 should be rate limited")
	}
	if !IsRateLimited(fmt.Errorf("wrap: %w", ErrRateLimited)) {
		t.Error("wrapped sentinel should be rate limited")
	}
	if IsRateLimited(errors.New("connection reset")) {
		t.Error("connection reset is not a rate limit")
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(errors.New("invalid public key")) {
		t.Error("invalid input must not be retried")
	}
	if !IsRetryable(errors.New("429")) {
		t.Error("rate limits should be retried")
	}
	if IsRetryable(context.Canceled) {
		t.Error("cancellation must not be retried")
	}
}

func TestAnalysisErrorKeepsKind(t *testing.T) {
	inner := NewAnalysisError("collect", "addr", ErrInvalidAddress)
	outer := NewAnalysisError("analyze", "addr", inner)
	if outer.Kind != ErrorInvalidInput {
		t.Errorf("kind = %s", outer.Kind)
	}
	if !errors.Is(outer, ErrInvalidAddress) {
		t.Error("expected unwrap chain to reach ErrInvalidAddress")
	}
}
