package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"parker-electrical/internal/directory"
	"parker-electrical/internal/domain"
	"parker-electrical/internal/extract"
	"parker-electrical/internal/logging"
)

// Ledger remembers which call-back requests were already forwarded.
type Ledger interface {
	// Claim records fingerprint and reports whether it was new.
	Claim(ctx context.Context, fingerprint string) (bool, error)
	// Release forgets fingerprint so a later transcript may claim it again.
	Release(ctx context.Context, fingerprint string) error
}

// BookingNotifier is satisfied by *BookingService.
type BookingNotifier interface {
	Notify(ctx context.Context, req domain.BookingRequest) error
}

type BookingOutcome struct {
	Submitted bool
	Message   string
	Candidate extract.Candidate
}

// BookingCapture turns complete chat transcripts into call-back requests.
// It never returns an error; failures are logged and the chat carries on.
type BookingCapture struct {
	extractor *extract.Extractor
	ledger    Ledger
	notifier  BookingNotifier
	profile   directory.Profile
	logger    *zap.Logger
}

func NewBookingCapture(extractor *extract.Extractor, ledger Ledger, notifier BookingNotifier, dir *directory.Directory, logger *zap.Logger) (*BookingCapture, error) {
	if extractor == nil {
		return nil, errors.New("usecase: extractor must not be nil")
	}
	if ledger == nil {
		return nil, errors.New("usecase: ledger must not be nil")
	}
	if notifier == nil {
		return nil, errors.New("usecase: notifier must not be nil")
	}
	if dir == nil {
		return nil, errors.New("usecase: directory must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingCapture{
		extractor: extractor,
		ledger:    ledger,
		notifier:  notifier,
		profile:   dir.Profile(),
		logger:    logger,
	}, nil
}

func (c *BookingCapture) Capture(ctx context.Context, transcript []domain.ChatMessage) BookingOutcome {
	logger := logging.FromContext(ctx, c.logger)
	cand := c.extractor.Scan(extract.Transcript(transcript))
	if !cand.Complete() {
		bookingCaptureTotal.WithLabelValues("incomplete").Inc()
		logger.Debug("booking candidate incomplete", zap.Strings("missing", cand.Missing()))
		return BookingOutcome{Candidate: cand}
	}

	fp := Fingerprint(cand)
	claimed, err := c.ledger.Claim(ctx, fp)
	if err != nil {
		// Fail open: forward the lead even if it may be a duplicate.
		logger.Warn("booking ledger claim failed", zap.Error(err))
		claimed = true
	}
	if !claimed {
		bookingCaptureTotal.WithLabelValues("duplicate").Inc()
		logger.Debug("booking already forwarded")
		return BookingOutcome{Candidate: cand}
	}

	req := domain.BookingRequest{Name: cand.Name, Phone: cand.Phone, Service: cand.Service}
	if err := c.notifier.Notify(ctx, req); err != nil {
		bookingCaptureTotal.WithLabelValues("error").Inc()
		logger.Error("booking capture notify failed", zap.Error(err))
		if rerr := c.ledger.Release(ctx, fp); rerr != nil {
			logger.Warn("booking ledger release failed", zap.Error(rerr))
		}
		return BookingOutcome{Candidate: cand}
	}

	bookingCaptureTotal.WithLabelValues("submitted").Inc()
	return BookingOutcome{
		Submitted: true,
		Message:   confirmationMessage(c.profile, cand),
		Candidate: cand,
	}
}

// Fingerprint identifies a call-back request independent of letter case and
// surrounding whitespace.
func Fingerprint(c extract.Candidate) string {
	key := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(c.Name)),
		strings.TrimSpace(c.Phone),
		strings.ToLower(strings.TrimSpace(c.Service)),
	}, "|")
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func confirmationMessage(p directory.Profile, c extract.Candidate) string {
	who := "the team"
	if f := strings.Fields(p.Lead); len(f) > 0 {
		who = f[0]
	}
	return fmt.Sprintf("Thanks %s! I've passed your details to %s, who will call you on %s about %s shortly.",
		c.Name, who, c.Phone, c.Service)
}
