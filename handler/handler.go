package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"parker-electrical/internal/config"
	"parker-electrical/internal/directory"
	"parker-electrical/internal/domain"
	"parker-electrical/internal/logging"
	"parker-electrical/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type ChatUseCase interface {
	Reply(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

type BookingUseCase interface {
	Notify(ctx context.Context, req domain.BookingRequest) error
}

type ContactUseCase interface {
	Submit(ctx context.Context, sub domain.ContactSubmission) error
}

type Options struct {
	// Development echoes internal error detail to clients.
	Development    bool
	Provider       string
	Capabilities   config.Capabilities
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Handler serves the relay API as API Gateway proxy events.
type Handler struct {
	chat    ChatUseCase
	booking BookingUseCase
	contact ContactUseCase
	dir     *directory.Directory
	opts    Options
	logger  *zap.Logger
	routes  map[string]route
}

type route struct {
	method string
	serve  func(ctx context.Context, body []byte) (int, any)
}

func NewHandler(chat ChatUseCase, booking BookingUseCase, contact ContactUseCase, dir *directory.Directory, opts Options) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	if booking == nil {
		return nil, errors.New("handler: booking use case must not be nil")
	}
	if contact == nil {
		return nil, errors.New("handler: contact use case must not be nil")
	}
	if dir == nil {
		return nil, errors.New("handler: directory must not be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	h := &Handler{chat: chat, booking: booking, contact: contact, dir: dir, opts: opts, logger: logger}
	h.routes = map[string]route{
		"/api/chat":         {method: http.MethodPost, serve: h.serveChat},
		"/api/chat-booking": {method: http.MethodPost, serve: h.serveBooking},
		"/api/contact":      {method: http.MethodPost, serve: h.serveContact},
		"/api/health":       {method: http.MethodGet, serve: h.serveHealth},
		"/api/services":     {method: http.MethodGet, serve: h.serveServices},
	}
	return h, nil
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	corrID := headerValue(req.Headers, correlationHeader)
	if corrID == "" {
		corrID = uuid.NewString()
	}
	path := strings.TrimRight(req.Path, "/")
	if path == "" {
		path = "/"
	}
	logger := h.logger.With(
		zap.String("correlation_id", corrID),
		zap.String("method", req.HTTPMethod),
		zap.String("path", path),
	)
	ctx = logging.WithContext(ctx, logger)

	status, body := h.dispatch(ctx, req, path)
	resp := h.respond(status, body, corrID, headerValue(req.Headers, "Origin"))
	logger.Info("request completed",
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)),
	)
	return resp, nil
}

func (h *Handler) dispatch(ctx context.Context, req events.APIGatewayProxyRequest, path string) (int, any) {
	rt, ok := h.routes[path]
	if !ok {
		return http.StatusNotFound, errorResponse{Message: "Not found"}
	}
	if req.HTTPMethod == http.MethodOptions {
		return http.StatusOK, nil
	}
	if req.HTTPMethod != rt.method {
		return http.StatusMethodNotAllowed, errorResponse{Message: "Method not allowed"}
	}
	body, err := requestBody(req)
	if err != nil {
		return http.StatusBadRequest, h.errorBody(errorResponse{Message: "Invalid request body", Code: string(usecase.ErrorInvalidInput)}, err)
	}
	return rt.serve(ctx, body)
}

func requestBody(req events.APIGatewayProxyRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	b, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, fmt.Errorf("handler: decode base64 body: %w", err)
	}
	return b, nil
}

// decodeJSON treats an empty body as an empty object.
func decodeJSON(body []byte, v any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (h *Handler) serveChat(ctx context.Context, body []byte) (int, any) {
	var req chatRequest
	if err := decodeJSON(body, &req); err != nil {
		return http.StatusBadRequest, h.errorBody(errorResponse{Message: "Invalid request body", Code: string(usecase.ErrorInvalidInput)}, err)
	}
	message, _ := req.Message.(string)
	out, err := h.chat.Reply(ctx, usecase.ChatInput{
		Message:           message,
		SystemInstruction: req.SystemInstruction,
		History:           req.History,
	})
	if err != nil {
		return h.mapError(ctx, err, h.chatMessages())
	}
	resp := chatResponse{Success: true, Response: out.Reply}
	if out.Booking != nil {
		resp.Booking = &bookingStatus{Submitted: out.Booking.Submitted, Message: out.Booking.Message}
	}
	return http.StatusOK, resp
}

func (h *Handler) serveBooking(ctx context.Context, body []byte) (int, any) {
	var req domain.BookingRequest
	if err := decodeJSON(body, &req); err != nil {
		return http.StatusBadRequest, h.errorBody(errorResponse{Message: "Invalid request body", Code: string(usecase.ErrorInvalidInput)}, err)
	}
	if err := h.booking.Notify(ctx, req); err != nil {
		return h.mapError(ctx, err, h.bookingMessages())
	}
	return http.StatusOK, messageResponse{
		Success: true,
		Message: fmt.Sprintf("Your booking has been received. %s will call you shortly.", h.leadFirstName()),
	}
}

func (h *Handler) serveContact(ctx context.Context, body []byte) (int, any) {
	var req domain.ContactSubmission
	if err := decodeJSON(body, &req); err != nil {
		return http.StatusBadRequest, h.errorBody(errorResponse{Message: "Invalid request body", Code: string(usecase.ErrorInvalidInput)}, err)
	}
	if err := h.contact.Submit(ctx, req); err != nil {
		return h.mapError(ctx, err, h.contactMessages())
	}
	return http.StatusOK, messageResponse{
		Success: true,
		Message: "Your contact request has been sent successfully. We will get back to you soon.",
	}
}

func (h *Handler) serveHealth(_ context.Context, _ []byte) (int, any) {
	return http.StatusOK, healthResponse{
		Status:    "ok",
		GeminiAPI: h.opts.Capabilities.Chat,
		BrevoAPI:  h.opts.Capabilities.Email,
		Provider:  h.opts.Provider,
	}
}

func (h *Handler) serveServices(_ context.Context, _ []byte) (int, any) {
	return http.StatusOK, servicesResponse{
		Success:  true,
		Business: h.dir.Profile(),
		Services: h.dir.Services(),
	}
}

func (h *Handler) leadFirstName() string {
	if f := strings.Fields(h.dir.Profile().Lead); len(f) > 0 {
		return f[0]
	}
	return "We"
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

func (h *Handler) respond(status int, body any, corrID, origin string) events.APIGatewayProxyResponse {
	headers := map[string]string{
		"Content-Type":                 "application/json",
		correlationHeader:              corrID,
		"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, X-Correlation-Id",
	}
	if allow := h.allowOrigin(origin); allow != "" {
		headers["Access-Control-Allow-Origin"] = allow
		if allow != "*" {
			headers["Vary"] = "Origin"
		}
	}
	if body == nil {
		return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers}
	}
	b, err := json.Marshal(body)
	if err != nil {
		h.logger.Error("failed to marshal response", zap.Error(err))
		status = http.StatusInternalServerError
		b = []byte(`{"success":false,"message":"Internal server error","code":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers, Body: string(b)}
}

func (h *Handler) allowOrigin(origin string) string {
	for _, o := range h.opts.AllowedOrigins {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

func (h *Handler) errorBody(resp errorResponse, err error) errorResponse {
	if h.opts.Development && err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func headerValue(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
