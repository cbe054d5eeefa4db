package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorType categorizes different types of scraper errors
type ErrorType string

const (
	ErrorTypeServiceUnavailable ErrorType = "service_unavailable"
	ErrorTypeTimeout            ErrorType = "timeout"
	ErrorTypeNetwork            ErrorType = "network"
	ErrorTypeRemote             ErrorType = "remote"
	ErrorTypeInvalidRequest     ErrorType = "invalid_request"
	ErrorTypeInvalidResponse    ErrorType = "invalid_response"
	ErrorTypeCancelled          ErrorType = "cancelled"
)

// ScraperError represents a structured error from the scraping backend
type ScraperError struct {
	Type       ErrorType
	Op         string
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface
func (e *ScraperError) Error() string {
	prefix := string(e.Type)
	if e.Op != "" {
		prefix = e.Op + ": " + prefix
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *ScraperError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if the error is likely to succeed on retry
func (e *ScraperError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeServiceUnavailable, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// IsTransport reports whether the call never produced a backend verdict.
func (e *ScraperError) IsTransport() bool {
	switch e.Type {
	case ErrorTypeServiceUnavailable, ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeCancelled:
		return true
	default:
		return false
	}
}

// UserMessage returns a user-friendly error message
func (e *ScraperError) UserMessage() string {
	switch e.Type {
	case ErrorTypeServiceUnavailable:
		return "Scraping service unavailable. Please check if the service is running."
	case ErrorTypeTimeout:
		return "Request timed out. The scraping service may be busy."
	case ErrorTypeNetwork:
		return "Network error while talking to the scraping service. Please check your connection and try again."
	case ErrorTypeRemote:
		if e.Message != "" {
			return e.Message
		}
		return "The scraping service reported a failure."
	case ErrorTypeInvalidRequest:
		return fmt.Sprintf("Invalid request: %s", e.Message)
	case ErrorTypeInvalidResponse:
		return "Received invalid response from the scraping service. Please try again."
	case ErrorTypeCancelled:
		return "Operation was cancelled."
	default:
		return e.Message
	}
}

// UserMessage returns the operator-facing text for any error, using the
// structured message when err wraps a ScraperError.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var scraperErr *ScraperError
	if errors.As(err, &scraperErr) {
		return scraperErr.UserMessage()
	}
	return err.Error()
}

// IsRetryable reports whether err wraps a retryable ScraperError.
func IsRetryable(err error) bool {
	var scraperErr *ScraperError
	return errors.As(err, &scraperErr) && scraperErr.IsRetryable()
}

// Helper functions to create specific error types
func newServiceUnavailableError(op string, statusCode int, cause error) *ScraperError {
	return &ScraperError{
		Type:       ErrorTypeServiceUnavailable,
		Op:         op,
		Message:    "Service not available",
		StatusCode: statusCode,
		Cause:      cause,
	}
}

func newTimeoutError(op string, cause error) *ScraperError {
	return &ScraperError{
		Type:    ErrorTypeTimeout,
		Op:      op,
		Message: "Request timed out",
		Cause:   cause,
	}
}

func newNetworkError(op string, cause error) *ScraperError {
	return &ScraperError{
		Type:    ErrorTypeNetwork,
		Op:      op,
		Message: "Network error",
		Cause:   cause,
	}
}

func newRemoteError(op string, statusCode int, message string) *ScraperError {
	return &ScraperError{
		Type:       ErrorTypeRemote,
		Op:         op,
		Message:    message,
		StatusCode: statusCode,
	}
}

func newInvalidRequestError(op, message string, cause error) *ScraperError {
	return &ScraperError{
		Type:    ErrorTypeInvalidRequest,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

func newInvalidResponseError(op, message string, cause error) *ScraperError {
	return &ScraperError{
		Type:    ErrorTypeInvalidResponse,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

func newCancelledError(op string, cause error) *ScraperError {
	return &ScraperError{
		Type:    ErrorTypeCancelled,
		Op:      op,
		Message: "Operation cancelled",
		Cause:   cause,
	}
}

// classifyTransportError maps an error from http.Client.Do (or from the
// retry loop) onto the taxonomy.
func classifyTransportError(op string, err error) *ScraperError {
	var scraperErr *ScraperError
	if errors.As(err, &scraperErr) {
		return scraperErr
	}
	if errors.Is(err, context.Canceled) {
		return newCancelledError(op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return newTimeoutError(op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newTimeoutError(op, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return newServiceUnavailableError(op, 0, err)
	}
	return newNetworkError(op, err)
}

// classifyStatus maps a non-2xx HTTP status onto the taxonomy.
func classifyStatus(op string, statusCode int, message string) *ScraperError {
	switch {
	case statusCode == http.StatusTooManyRequests,
		statusCode == http.StatusBadGateway,
		statusCode == http.StatusServiceUnavailable,
		statusCode == http.StatusGatewayTimeout:
		return newServiceUnavailableError(op, statusCode, fmt.Errorf("status %d: %s", statusCode, message))
	default:
		if message == "" {
			message = http.StatusText(statusCode)
		}
		return newRemoteError(op, statusCode, message)
	}
}
