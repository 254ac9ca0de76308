package memstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/slicehq/slice/internal/domain/auth"
)

// StateStore tracks pending login state tokens. Each issued state can be
// consumed at most once; entries older than the TTL are invalid even when
// presented correctly, and a periodic sweep drops abandoned entries so
// unfinished login attempts cannot grow memory without bound.
type StateStore struct {
	mu      sync.Mutex
	pending map[string]domainauth.Pending
	ttl     time.Duration
	now     func() time.Time
}

// NewStateStore creates a state store whose entries expire after ttl.
func NewStateStore(ttl time.Duration) *StateStore {
	return &StateStore{
		pending: make(map[string]domainauth.Pending),
		ttl:     ttl,
		now:     time.Now,
	}
}

// NewStateStoreWithClock creates a state store with an injectable clock for tests.
func NewStateStoreWithClock(ttl time.Duration, now func() time.Time) *StateStore {
	s := NewStateStore(ttl)
	if now != nil {
		s.now = now
	}
	return s
}

// Issue mints a cryptographically random state/nonce pair and records it.
func (s *StateStore) Issue(_ context.Context) (string, string, error) {
	state, err := randomString(32)
	if err != nil {
		return "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(32)
	if err != nil {
		return "", "", fmt.Errorf("generate nonce: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[state] = domainauth.Pending{State: state, Nonce: nonce, IssuedAt: s.now()}
	return state, nonce, nil
}

// Consume atomically removes the entry for state and returns its nonce.
// The lookup and delete happen under one lock so two racing callbacks with
// the same state cannot both succeed.
func (s *StateStore) Consume(_ context.Context, state string) (string, bool) {
	if state == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[state]
	if !ok {
		return "", false
	}
	delete(s.pending, state)

	if s.now().Sub(p.IssuedAt) > s.ttl {
		return "", false
	}
	return p.Nonce, true
}

// PendingCount reports the number of recorded entries. Used by tests.
func (s *StateStore) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Sweep removes entries older than the TTL and returns how many were dropped.
func (s *StateStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for state, p := range s.pending {
		if now.Sub(p.IssuedAt) > s.ttl {
			delete(s.pending, state)
			dropped++
		}
	}
	return dropped
}

// Run sweeps abandoned entries at the given interval until the context is
// cancelled.
func (s *StateStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// randomString generates a cryptographically secure URL-safe random string of
// exact length.
func randomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	// Compute number of random bytes needed to produce at least 'length' base64 URL-safe chars
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}
