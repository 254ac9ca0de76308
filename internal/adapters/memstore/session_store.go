package memstore

// Package memstore provides process-local, mutex-guarded stores for sessions
// and pending login states. The dashboard runs as a single instance and
// sessions are deliberately not persisted across restarts.

import (
	"context"
	"errors"
	"sync"
	"time"

	domainauth "github.com/slicehq/slice/internal/domain/auth"
)

// ErrNotFound is returned when a session is not found or has expired.
type notFoundError struct{}

func (notFoundError) Error() string { return "session not found" }

var ErrNotFound error = notFoundError{}

// SessionStore is an in-memory session store. Expiry is lazy: an expired
// session is evicted on the first lookup after its deadline. An optional
// sweep loop bounds memory growth from sessions that are never looked up
// again.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
	now      func() time.Time
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domainauth.Session),
		now:      time.Now,
	}
}

// NewSessionStoreWithClock creates a session store with an injectable clock
// for tests.
func NewSessionStoreWithClock(now func() time.Time) *SessionStore {
	s := NewSessionStore()
	if now != nil {
		s.now = now
	}
	return s
}

func (s *SessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.Token == "" {
		return errors.New("session token cannot be empty")
	}
	if !sess.ExpiresAt.After(s.now()) {
		// Refuse to store a session that is already dead.
		return errors.New("session is expired")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

func (s *SessionStore) Get(_ context.Context, token string) (domainauth.Session, error) {
	if token == "" {
		return domainauth.Session{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	if sess.Expired(s.now()) {
		delete(s.sessions, token)
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	if token == "" {
		return nil // Nothing to delete
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Len reports the number of live entries, expired or not. Used by tests and
// the sweep loop.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes all expired sessions and returns how many were evicted.
// Correctness does not depend on it; Get already evicts lazily.
func (s *SessionStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for token, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, token)
			evicted++
		}
	}
	return evicted
}

// Run sweeps expired sessions at the given interval until the context is
// cancelled.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
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
