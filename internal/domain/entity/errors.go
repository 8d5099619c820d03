package entity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind is the coarse taxonomy of analysis failures
type ErrorKind string

const (
	ErrorInvalidInput    ErrorKind = "invalid_input"
	ErrorTransient       ErrorKind = "transient"
	ErrorDataUnavailable ErrorKind = "data_unavailable"
)

// ErrRateLimited marks a ledger response that asked the caller to slow down
var ErrRateLimited = errors.New("rate limited")

// ErrDataUnavailable marks a ledger object that does not exist or was pruned
var ErrDataUnavailable = errors.New("data unavailable")

// ErrNoWalletsAnalyzed is returned when not a single wallet of a bundle could be analyzed
var ErrNoWalletsAnalyzed = errors.New("no wallets could be analyzed")

// ErrInvalidAddress marks a malformed account address
var ErrInvalidAddress = errors.New("invalid address")

// AnalysisError carries the error kind together with the failed operation
type AnalysisError struct {
	Kind    ErrorKind
	Op      string
	Address string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Address != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Address, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// NewAnalysisError wraps err with a classified kind
func NewAnalysisError(op, address string, err error) *AnalysisError {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return &AnalysisError{Kind: ae.Kind, Op: op, Address: address, Err: err}
	}
	return &AnalysisError{Kind: ClassifyError(err), Op: op, Address: address, Err: err}
}

// ClassifyError maps a raw error to its kind.
// Unrecognised errors are treated as transient so callers may retry them.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, ErrInvalidAddress) || errors.Is(err, ErrInvalidStats) {
		return ErrorInvalidInput
	}
	if errors.Is(err, ErrDataUnavailable) {
		return ErrorDataUnavailable
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid public key"),
		strings.Contains(msg, "invalid address"),
		strings.Contains(msg, "invalid base58"):
		return ErrorInvalidInput
	case strings.Contains(msg, "not found"):
		return ErrorDataUnavailable
	default:
		return ErrorTransient
	}
}

// IsRateLimited reports whether err signals a 429 / rate limit response
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

// IsRetryable reports whether an operation that failed with err is worth retrying
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return ClassifyError(err) == ErrorTransient
}
