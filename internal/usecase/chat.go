package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"parker-electrical/internal/directory"
	"parker-electrical/internal/domain"
	"parker-electrical/internal/logging"
)

const (
	DefaultHistoryLimit    = 6
	DefaultMaxReplyChars   = 800
	DefaultMaxMessageChars = 2000
	DefaultProviderTimeout = 30 * time.Second
)

// LLMClient sends one chat turn to a generative-AI provider.
type LLMClient interface {
	Chat(ctx context.Context, systemPrompt string, history []domain.ChatMessage, message string) (string, error)
}

type ChatConfig struct {
	ProviderName    string
	HistoryLimit    int
	MaxReplyChars   int
	MaxMessageChars int
	ProviderTimeout time.Duration
}

func (c ChatConfig) withDefaults() ChatConfig {
	if c.ProviderName == "" {
		c.ProviderName = "unknown"
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
	if c.MaxReplyChars <= 0 {
		c.MaxReplyChars = DefaultMaxReplyChars
	}
	if c.MaxMessageChars <= 0 {
		c.MaxMessageChars = DefaultMaxMessageChars
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = DefaultProviderTimeout
	}
	return c
}

type ChatInput struct {
	Message           string
	SystemInstruction string
	History           []domain.ChatMessage
}

type ChatOutput struct {
	Reply string
	// Booking is set when the transcript produced a new call-back request.
	Booking *BookingOutcome
}

type ChatService struct {
	llm          LLMClient
	capture      *BookingCapture
	systemPrompt string
	cfg          ChatConfig
	logger       *zap.Logger
}

type ChatOption func(*ChatService)

// WithBookingCapture scans each completed transcript for call-back details.
func WithBookingCapture(c *BookingCapture) ChatOption {
	return func(s *ChatService) {
		s.capture = c
	}
}

// NewChatService builds the chat relay. A nil llm is allowed and reports the
// assistant as not configured on every call.
func NewChatService(llm LLMClient, dir *directory.Directory, cfg ChatConfig, logger *zap.Logger, opts ...ChatOption) (*ChatService, error) {
	if dir == nil {
		return nil, errors.New("usecase: directory must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ChatService{
		llm:          llm,
		systemPrompt: DefaultSystemPrompt(dir),
		cfg:          cfg.withDefaults(),
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Configured reports whether a provider credential was supplied.
func (s *ChatService) Configured() bool {
	return s.llm != nil
}

func (s *ChatService) Reply(ctx context.Context, in ChatInput) (out ChatOutput, err error) {
	defer func() { observeOutcome("chat", err) }()

	message := strings.TrimSpace(in.Message)
	if message == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if utf8.RuneCountInString(message) > s.cfg.MaxMessageChars {
		return ChatOutput{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}
	for _, m := range in.History {
		if !domain.ValidRole(m.Role) {
			return ChatOutput{}, newError(ErrorInvalidInput, "invalid_history_role", nil)
		}
	}
	if s.llm == nil {
		return ChatOutput{}, newError(ErrorNotConfigured, "llm_not_configured", nil)
	}

	prompt := strings.TrimSpace(in.SystemInstruction)
	if prompt == "" {
		prompt = s.systemPrompt
	}
	history := TruncateHistory(in.History, s.cfg.HistoryLimit)

	raw, err := s.send(ctx, prompt, history, message)
	if err != nil {
		ue := classifyProviderError(err)
		logging.FromContext(ctx, s.logger).Warn("provider call failed",
			zap.String("provider", s.cfg.ProviderName),
			zap.String("code", string(ue.Code)),
			zap.String("reason", ue.Reason),
			zap.Error(err),
		)
		return ChatOutput{}, ue
	}
	if strings.TrimSpace(raw) == "" {
		return ChatOutput{}, newError(ErrorUpstream, "empty_response", nil)
	}

	out = ChatOutput{Reply: CapReply(raw, s.cfg.MaxReplyChars)}
	if s.capture != nil {
		transcript := make([]domain.ChatMessage, 0, len(in.History)+2)
		transcript = append(transcript, in.History...)
		transcript = append(transcript,
			domain.ChatMessage{Role: domain.RoleUser, Text: message},
			domain.ChatMessage{Role: domain.RoleAssistant, Text: out.Reply},
		)
		if outcome := s.capture.Capture(ctx, transcript); outcome.Submitted {
			out.Booking = &outcome
		}
	}
	return out, nil
}

func (s *ChatService) send(ctx context.Context, prompt string, history []domain.ChatMessage, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	start := time.Now()
	raw, err := s.llm.Chat(ctx, prompt, history, message)
	status := "ok"
	if err != nil {
		status = "error"
	}
	providerLatency.WithLabelValues(s.cfg.ProviderName, status).Observe(time.Since(start).Seconds())
	return raw, err
}
