package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"duologue/internal/textutil"
)

// Error classes attached to RemoteError.
const (
	ClassAuth                = "auth"
	ClassRateLimit           = "rate_limit"
	ClassTimeout             = "timeout"
	ClassEndpointUnreachable = "endpoint_unreachable"
	ClassModelMissing        = "model_missing"
	ClassTransportTransient  = "transport_transient"
	ClassUnknown             = "unknown"
)

// RemoteError is a failed completion call.
type RemoteError struct {
	Provider   string
	Class      string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s http %d (%s): %s", e.Provider, e.StatusCode, e.Class, e.Message)
	}
	return fmt.Sprintf("%s request failed (%s): %s", e.Provider, e.Class, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Retryable reports whether resubmitting the same request could succeed.
// Nothing retries automatically; status lines add a try-again hint.
func (e *RemoteError) Retryable() bool {
	switch e.Class {
	case ClassRateLimit, ClassTimeout, ClassTransportTransient:
		return true
	default:
		return false
	}
}

func newRemoteError(provider string, statusCode int, message string, err error) *RemoteError {
	message = textutil.CompactSingleLine(message, 400)
	if message == "" && err != nil {
		message = textutil.CompactSingleLine(err.Error(), 400)
	}
	text := message
	if err != nil {
		text += " " + err.Error()
	}
	class := Classify(statusCode, text)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		class = ClassTimeout
	}
	return &RemoteError{
		Provider:   provider,
		Class:      class,
		StatusCode: statusCode,
		Message:    message,
		Err:        err,
	}
}

// Classify maps an HTTP status and error text to an error class.
func Classify(statusCode int, errText string) string {
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return ClassAuth
	case statusCode == http.StatusTooManyRequests:
		return ClassRateLimit
	case statusCode == http.StatusNotFound:
		return ClassModelMissing
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusGatewayTimeout:
		return ClassTimeout
	case statusCode == http.StatusBadGateway, statusCode == http.StatusServiceUnavailable:
		return ClassTransportTransient
	}

	normalized := strings.ToLower(strings.TrimSpace(errText))
	switch {
	case strings.Contains(normalized, "invalid api key"), strings.Contains(normalized, "incorrect api key"),
		strings.Contains(normalized, "unauthorized"), strings.Contains(normalized, "permission denied"),
		strings.Contains(normalized, "api key not valid"), strings.Contains(normalized, "authentication"):
		return ClassAuth
	case strings.Contains(normalized, "rate limit"), strings.Contains(normalized, "rate_limit"),
		strings.Contains(normalized, "quota"), strings.Contains(normalized, "too many requests"),
		strings.Contains(normalized, "resource_exhausted"):
		return ClassRateLimit
	case strings.Contains(normalized, "context deadline exceeded"), strings.Contains(normalized, "timed out"),
		strings.Contains(normalized, "timeout"):
		return ClassTimeout
	case strings.Contains(normalized, "connection refused"), strings.Contains(normalized, "dial tcp"),
		strings.Contains(normalized, "no such host"):
		return ClassEndpointUnreachable
	case strings.Contains(normalized, "model not found"), strings.Contains(normalized, "does not exist"),
		strings.Contains(normalized, "pull it first"), strings.Contains(normalized, "not_found"):
		return ClassModelMissing
	case strings.Contains(normalized, "connection reset"), strings.Contains(normalized, "broken pipe"),
		strings.Contains(normalized, "eof"), strings.Contains(normalized, "overloaded"):
		return ClassTransportTransient
	default:
		return ClassUnknown
	}
}
