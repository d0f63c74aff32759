package usecase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"parker-electrical/internal/domain"
)

type ErrorCode string

const (
	ErrorInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrorNotConfigured ErrorCode = "NOT_CONFIGURED"
	ErrorRateLimited   ErrorCode = "RATE_LIMITED"
	ErrorUnavailable   ErrorCode = "UNAVAILABLE"
	ErrorUpstream      ErrorCode = "UPSTREAM_ERROR"
	ErrorInternal      ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
	// Fields is set for form validation failures, one entry per field.
	Fields []domain.FieldError
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf returns the code carried by err, or ErrorInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Code
	}
	return ErrorInternal
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// classifyProviderError maps a generative-AI failure onto the relay taxonomy.
// Status codes win; provider message text is the fallback for SDKs that only
// surface a string.
func classifyProviderError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(ErrorUnavailable, "provider_timeout", err)
	}
	if status, ok := upstreamStatusCode(err); ok {
		switch status {
		case http.StatusTooManyRequests:
			return newError(ErrorRateLimited, "provider_rate_limited", err)
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return newError(ErrorUnavailable, "provider_overloaded", err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return newError(ErrorUpstream, "provider_auth", err)
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "quota", "rate limit", "[429"):
		return newError(ErrorRateLimited, "provider_rate_limited", err)
	case containsAny(msg, "high demand", "service unavailable", "overloaded", "[503"):
		return newError(ErrorUnavailable, "provider_overloaded", err)
	case containsAny(msg, "api key", "permission"):
		return newError(ErrorUpstream, "provider_auth", err)
	}
	return newError(ErrorUpstream, "provider_error", err)
}

// classifyMailerError maps a transactional email failure onto the relay
// taxonomy: transport trouble is retryable, credentials are not.
func classifyMailerError(err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return newError(ErrorUnavailable, "email_unavailable", err)
	}
	if status, ok := upstreamStatusCode(err); ok {
		switch {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return newError(ErrorUpstream, "email_auth_failed", err)
		case status == http.StatusTooManyRequests || status >= 500:
			return newError(ErrorUnavailable, "email_unavailable", err)
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "etimedout", "econnrefused", "network"):
		return newError(ErrorUnavailable, "email_unavailable", err)
	case containsAny(msg, "unauthorized", "401", "api key"):
		return newError(ErrorUpstream, "email_auth_failed", err)
	}
	return newError(ErrorInternal, "email_send_failed", err)
}
