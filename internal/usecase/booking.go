package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"parker-electrical/internal/directory"
	"parker-electrical/internal/domain"
	"parker-electrical/internal/logging"
)

// Mailer delivers one transactional email.
type Mailer interface {
	Send(ctx context.Context, email domain.Email) error
}

// BookingService forwards chat call-back requests to the business inbox.
type BookingService struct {
	mailer  Mailer
	profile directory.Profile
	cfg     EmailConfig
	logger  *zap.Logger
}

// NewBookingService builds the booking relay. A nil mailer is allowed and
// reports email as not configured on every call.
func NewBookingService(mailer Mailer, dir *directory.Directory, cfg EmailConfig, logger *zap.Logger) (*BookingService, error) {
	if dir == nil {
		return nil, errors.New("usecase: directory must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := dir.Profile()
	return &BookingService{
		mailer:  mailer,
		profile: p,
		cfg:     cfg.withDefaults(p),
		logger:  logger,
	}, nil
}

func (s *BookingService) Configured() bool {
	return s.mailer != nil
}

// Notify validates req and emails it to the business inbox.
func (s *BookingService) Notify(ctx context.Context, req domain.BookingRequest) (err error) {
	defer func() { observeOutcome("chat_booking", err) }()

	req = domain.BookingRequest{
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Service: strings.TrimSpace(req.Service),
		Email:   strings.TrimSpace(req.Email),
	}
	if fe, ok := validateBooking(req); !ok {
		return &Error{Code: ErrorInvalidInput, Reason: "missing_" + fe.Field, Fields: []domain.FieldError{fe}}
	}
	if s.mailer == nil {
		return newError(ErrorNotConfigured, "email_not_configured", nil)
	}

	email, err := bookingNotification(s.profile, s.cfg, req)
	if err != nil {
		return newError(ErrorInternal, "template_error", err)
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		ue := classifyMailerError(err)
		logging.FromContext(ctx, s.logger).Error("booking email failed",
			zap.String("code", string(ue.Code)),
			zap.String("reason", ue.Reason),
			zap.Error(err),
		)
		return ue
	}
	logging.FromContext(ctx, s.logger).Info("booking email sent", zap.String("service", req.Service))
	return nil
}

// validateBooking reports the first missing field in name, phone, service order.
func validateBooking(req domain.BookingRequest) (domain.FieldError, bool) {
	switch {
	case req.Name == "":
		return domain.FieldError{Field: "name", Error: "Name is required"}, false
	case req.Phone == "":
		return domain.FieldError{Field: "phone", Error: "Phone number is required"}, false
	case req.Service == "":
		return domain.FieldError{Field: "service", Error: "Service is required"}, false
	}
	return domain.FieldError{}, true
}
