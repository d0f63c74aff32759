package usecase

import (
	"context"
	"errors"
	"sync"

	"parker-electrical/internal/domain"
)

type fakeLLM struct {
	reply        string
	err          error
	calls        int
	systemPrompt string
	history      []domain.ChatMessage
	message      string
}

func (f *fakeLLM) Chat(_ context.Context, systemPrompt string, history []domain.ChatMessage, message string) (string, error) {
	f.calls++
	f.systemPrompt = systemPrompt
	f.history = history
	f.message = message
	return f.reply, f.err
}

type blockingLLM struct{}

func (blockingLLM) Chat(ctx context.Context, _ string, _ []domain.ChatMessage, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type statusErr struct {
	code int
}

func (e *statusErr) Error() string       { return "upstream status error" }
func (e *statusErr) HTTPStatusCode() int { return e.code }

type fakeMailer struct {
	mu   sync.Mutex
	sent []domain.Email
	// errs is consumed one entry per Send call; a nil entry succeeds.
	errs []error
}

func (m *fakeMailer) Send(_ context.Context, email domain.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var err error
	if len(m.errs) > 0 {
		err = m.errs[0]
		m.errs = m.errs[1:]
	}
	if err == nil {
		m.sent = append(m.sent, email)
	}
	return err
}

type fakeLedger struct {
	claimed  map[string]bool
	claimErr error
	released []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{claimed: map[string]bool{}}
}

func (l *fakeLedger) Claim(_ context.Context, fp string) (bool, error) {
	if l.claimErr != nil {
		return false, l.claimErr
	}
	if l.claimed[fp] {
		return false, nil
	}
	l.claimed[fp] = true
	return true, nil
}

func (l *fakeLedger) Release(_ context.Context, fp string) error {
	delete(l.claimed, fp)
	l.released = append(l.released, fp)
	return nil
}

type fakeNotifier struct {
	calls []domain.BookingRequest
	err   error
}

func (n *fakeNotifier) Notify(_ context.Context, req domain.BookingRequest) error {
	n.calls = append(n.calls, req)
	return n.err
}

var errBoom = errors.New("boom")
