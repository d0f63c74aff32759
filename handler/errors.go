package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"parker-electrical/internal/logging"
	"parker-electrical/internal/usecase"
)

// routeMessages holds the client-facing text for each failure class.
type routeMessages struct {
	invalid       func(*usecase.Error) string
	notConfigured string
	rateLimited   string
	unavailable   string
	authFailed    string
	generic       string
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorNotConfigured, usecase.ErrorUnavailable:
		return http.StatusServiceUnavailable
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) mapError(ctx context.Context, err error, msgs routeMessages) (int, any) {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		ue = &usecase.Error{Code: usecase.ErrorInternal, Reason: "unexpected", Err: err}
	}
	status := statusFor(ue.Code)
	resp := errorResponse{Code: string(ue.Code), Errors: ue.Fields}

	switch {
	case ue.Code == usecase.ErrorInvalidInput:
		resp.Message = msgs.invalid(ue)
	case ue.Code == usecase.ErrorNotConfigured:
		resp.Message = msgs.notConfigured
	case ue.Code == usecase.ErrorRateLimited:
		resp.Message = msgs.rateLimited
	case ue.Code == usecase.ErrorUnavailable:
		resp.Message = msgs.unavailable
	case ue.Reason == "provider_auth" || ue.Reason == "email_auth_failed":
		resp.Message = msgs.authFailed
	default:
		resp.Message = msgs.generic
	}

	logger := logging.FromContext(ctx, h.logger)
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("code", string(ue.Code)),
		zap.String("reason", ue.Reason),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", append(fields, zap.Error(err))...)
	} else {
		logger.Info("request rejected", fields...)
	}
	return status, h.errorBody(resp, err)
}

func (h *Handler) chatMessages() routeMessages {
	phone := h.dir.Profile().Phone
	return routeMessages{
		invalid: func(ue *usecase.Error) string {
			switch ue.Reason {
			case "message_too_long":
				return "Message is too long. Please keep it shorter."
			case "invalid_history_role":
				return "History entries must have the role user or assistant"
			default:
				return "Message is required and must be a string"
			}
		},
		notConfigured: fmt.Sprintf("Chat assistant is temporarily unavailable because the AI API key is not configured. Please try again later or contact us by phone on %s.", phone),
		rateLimited:   fmt.Sprintf("Our AI assistant has hit its request limit. Please try again later or call us directly on %s.", phone),
		unavailable:   "Our AI assistant is currently experiencing high demand from the provider. Please try again in a few minutes or call us directly.",
		authFailed:    "Chat assistant configuration error. Please contact us by phone instead.",
		generic:       "An error occurred while processing your chat request. Please try again later.",
	}
}

func (h *Handler) bookingMessages() routeMessages {
	phone := h.dir.Profile().Phone
	return routeMessages{
		invalid:       firstFieldError("Name, phone number and service are required"),
		notConfigured: "Email service is temporarily unavailable. Please try again later or call us directly.",
		rateLimited:   fmt.Sprintf("Email service is currently unavailable. Please try again later or call us directly on %s.", phone),
		unavailable:   fmt.Sprintf("Email service is currently unavailable. Please try again later or call us directly on %s.", phone),
		authFailed:    "Email service authentication failed. Please contact support.",
		generic:       "An error occurred while processing your booking. Please try again later.",
	}
}

func (h *Handler) contactMessages() routeMessages {
	return routeMessages{
		invalid:       func(*usecase.Error) string { return "Validation failed" },
		notConfigured: "Email service is temporarily unavailable. Please try again later or call us directly.",
		rateLimited:   "Email service is currently unavailable. Please try again later or contact us directly by phone or email.",
		unavailable:   "Email service is currently unavailable (network issue). Please try again later or contact us directly by phone or email.",
		authFailed:    "Email service configuration error. Please contact support.",
		generic:       "An error occurred while processing your request. Please try again later.",
	}
}

func firstFieldError(fallback string) func(*usecase.Error) string {
	return func(ue *usecase.Error) string {
		if len(ue.Fields) > 0 {
			return ue.Fields[0].Error
		}
		return fallback
	}
}
