package handler

import (
	"parker-electrical/internal/directory"
	"parker-electrical/internal/domain"
)

type chatRequest struct {
	// Message is decoded loosely so a non-string value is reported as a
	// missing message rather than a malformed body.
	Message           any                  `json:"message"`
	SystemInstruction string               `json:"systemInstruction"`
	History           []domain.ChatMessage `json:"history"`
}

type chatResponse struct {
	Success  bool           `json:"success"`
	Response string         `json:"response"`
	Booking  *bookingStatus `json:"booking,omitempty"`
}

type bookingStatus struct {
	Submitted bool   `json:"submitted"`
	Message   string `json:"message"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Code    string              `json:"code,omitempty"`
	Error   string              `json:"error,omitempty"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	GeminiAPI bool   `json:"geminiApi"`
	BrevoAPI  bool   `json:"brevoApi"`
	Provider  string `json:"provider"`
}

type servicesResponse struct {
	Success  bool                `json:"success"`
	Business directory.Profile   `json:"business"`
	Services []directory.Service `json:"services"`
}
