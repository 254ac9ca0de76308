package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/slicehq/slice/internal/domain/auth"
	"github.com/slicehq/slice/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider = (*MockAuthProvider)(nil)
	_ ports.SessionStore = (*MemorySessionStore)(nil)
	_ ports.StateStore   = (*MemoryStateStore)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic behavior.
type MockAuthProvider struct {
	AuthCodeURLFunc func(state, nonce string) string
	ExchangeFunc    func(ctx context.Context, code string) (string, error)
	VerifyFunc      func(ctx context.Context, rawAssertion, nonce string) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	Assertion   string
	DefaultUser domainauth.Identity

	// Call tracking
	ExchangeCalls int
	VerifyCalls   int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:   "https://mock-idp/auth",
		Assertion: "mock-assertion",
		DefaultUser: domainauth.Identity{
			Subject:   "mock-user-1",
			Email:     "mock.user@example.com",
			Name:      "Mock User",
			AvatarURL: "https://mock-idp/avatar.png",
		},
	}
}

func (m *MockAuthProvider) AuthCodeURL(state, nonce string) string {
	if m.AuthCodeURLFunc != nil {
		return m.AuthCodeURLFunc(state, nonce)
	}
	return fmt.Sprintf("%s?state=%s&nonce=%s", m.AuthURL, state, nonce)
}

func (m *MockAuthProvider) Exchange(ctx context.Context, code string) (string, error) {
	m.ExchangeCalls++
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, code)
	}
	return m.Assertion, nil
}

func (m *MockAuthProvider) Verify(ctx context.Context, rawAssertion, nonce string) (domainauth.Identity, error) {
	m.VerifyCalls++
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, rawAssertion, nonce)
	}
	return m.DefaultUser, nil
}

// MemorySessionStore is a minimal map-backed SessionStore for tests. Unlike
// the production store it never expires entries; tests control expiry through
// the session's ExpiresAt.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates an empty MemorySessionStore.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (s *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, token string) (domainauth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return domainauth.Session{}, fmt.Errorf("session %q not found", token)
	}
	return sess, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Len reports the number of stored sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// MemoryStateStore is a deterministic StateStore for tests: states and nonces
// are sequential, and entries never expire.
type MemoryStateStore struct {
	mu      sync.Mutex
	pending map[string]string
	count   int
}

// NewMemoryStateStore creates an empty MemoryStateStore.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{pending: make(map[string]string)}
}

func (s *MemoryStateStore) Issue(_ context.Context) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	state := fmt.Sprintf("state-%d", s.count)
	nonce := fmt.Sprintf("nonce-%d", s.count)
	s.pending[state] = nonce
	return state, nonce, nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nonce, ok := s.pending[state]
	if !ok {
		return "", false
	}
	delete(s.pending, state)
	return nonce, true
}

// Seed records a state/nonce pair directly, bypassing Issue.
func (s *MemoryStateStore) Seed(state, nonce string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[state] = nonce
}

// FixedClock returns a clock function pinned to t, for stores and services
// that accept an injectable clock.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
