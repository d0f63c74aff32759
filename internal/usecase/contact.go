package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"parker-electrical/internal/directory"
	"parker-electrical/internal/domain"
	"parker-electrical/internal/logging"
)

var emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactService relays quote request forms by email.
type ContactService struct {
	mailer  Mailer
	profile directory.Profile
	cfg     EmailConfig
	logger  *zap.Logger
}

// NewContactService builds the contact relay. A nil mailer is allowed and
// reports email as not configured on every valid submission.
func NewContactService(mailer Mailer, dir *directory.Directory, cfg EmailConfig, logger *zap.Logger) (*ContactService, error) {
	if dir == nil {
		return nil, errors.New("usecase: directory must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := dir.Profile()
	return &ContactService{
		mailer:  mailer,
		profile: p,
		cfg:     cfg.withDefaults(p),
		logger:  logger,
	}, nil
}

func (s *ContactService) Configured() bool {
	return s.mailer != nil
}

// Submit validates sub, emails the business and then acknowledges the
// customer. Only the business email can fail the call.
func (s *ContactService) Submit(ctx context.Context, sub domain.ContactSubmission) (err error) {
	defer func() { observeOutcome("contact", err) }()

	sub = domain.ContactSubmission{
		FullName:      strings.TrimSpace(sub.FullName),
		Phone:         strings.TrimSpace(sub.Phone),
		Email:         strings.TrimSpace(sub.Email),
		ServiceNeeded: strings.TrimSpace(sub.ServiceNeeded),
		Message:       strings.TrimSpace(sub.Message),
	}
	if fields := ValidateContact(sub); len(fields) > 0 {
		return &Error{Code: ErrorInvalidInput, Reason: "validation_failed", Fields: fields}
	}
	if s.mailer == nil {
		return newError(ErrorNotConfigured, "email_not_configured", nil)
	}

	notification, err := quoteNotification(s.profile, s.cfg, sub)
	if err != nil {
		return newError(ErrorInternal, "template_error", err)
	}
	if err := s.mailer.Send(ctx, notification); err != nil {
		ue := classifyMailerError(err)
		logging.FromContext(ctx, s.logger).Error("quote notification failed",
			zap.String("code", string(ue.Code)),
			zap.String("reason", ue.Reason),
			zap.Error(err),
		)
		return ue
	}

	ack, err := quoteAcknowledgment(s.profile, s.cfg, sub)
	if err == nil {
		err = s.mailer.Send(ctx, ack)
	}
	if err != nil {
		logging.FromContext(ctx, s.logger).Warn("quote acknowledgment failed", zap.Error(err))
	}
	return nil
}

// ValidateContact returns one entry per offending field, in form order.
func ValidateContact(sub domain.ContactSubmission) []domain.FieldError {
	var out []domain.FieldError
	if strings.TrimSpace(sub.FullName) == "" {
		out = append(out, domain.FieldError{Field: "fullName", Error: "Full name is required"})
	}
	if strings.TrimSpace(sub.Phone) == "" {
		out = append(out, domain.FieldError{Field: "phone", Error: "Phone number is required"})
	}
	switch email := strings.TrimSpace(sub.Email); {
	case email == "":
		out = append(out, domain.FieldError{Field: "email", Error: "Email is required"})
	case !emailRE.MatchString(email):
		out = append(out, domain.FieldError{Field: "email", Error: "Email address is invalid"})
	}
	if strings.TrimSpace(sub.ServiceNeeded) == "" {
		out = append(out, domain.FieldError{Field: "serviceNeeded", Error: "Service is required"})
	}
	if strings.TrimSpace(sub.Message) == "" {
		out = append(out, domain.FieldError{Field: "message", Error: "Message is required"})
	}
	return out
}
