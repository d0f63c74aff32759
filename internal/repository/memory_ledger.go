package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// MemoryLedger is the single-process BookingLedger used when no table is
// configured. Entries expire after ttl.
type MemoryLedger struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]time.Time
}

func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryLedger{ttl: ttl, now: time.Now, entries: make(map[string]time.Time)}
}

func (l *MemoryLedger) Claim(_ context.Context, fingerprint string) (bool, error) {
	if strings.TrimSpace(fingerprint) == "" {
		return false, errors.New("repository: fingerprint must not be empty")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)
	if _, ok := l.entries[fingerprint]; ok {
		return false, nil
	}
	l.entries[fingerprint] = now.Add(l.ttl)
	return true, nil
}

func (l *MemoryLedger) Release(_ context.Context, fingerprint string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, fingerprint)
	return nil
}

func (l *MemoryLedger) sweepLocked(now time.Time) {
	for fp, expires := range l.entries {
		if !now.Before(expires) {
			delete(l.entries, fp)
		}
	}
}
