package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/slicehq/slice/internal/domain/auth"
	"github.com/slicehq/slice/internal/ports"
)

// Login failure reasons surfaced to the HTTP layer. Each maps to a distinct
// error indicator on the login page without leaking provider internals.
var (
	// ErrInvalidState is returned when a callback presents a state that was
	// never issued, already consumed, or expired.
	ErrInvalidState = errors.New("invalid or expired state")

	// ErrNotAllowed is returned when a verified identity is not in a
	// non-empty allow-list.
	ErrNotAllowed = errors.New("email not in allow-list")

	errSessionExpired = errors.New("session expired")
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider   ports.AuthProvider
	Sessions   ports.SessionStore
	States     ports.StateStore
	AllowList  domainauth.AllowList
	SessionTTL time.Duration
}

// AuthService orchestrates authentication flows by coordinating the identity
// provider, the state store, and session persistence.
type AuthService struct {
	provider   ports.AuthProvider
	sessions   ports.SessionStore
	states     ports.StateStore
	allowList  domainauth.AllowList
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &AuthService{
		provider:   opts.Provider,
		sessions:   opts.Sessions,
		states:     opts.States,
		allowList:  opts.AllowList,
		sessionTTL: ttl,
		now:        time.Now,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
}

// BeginLogin issues a pending state token and returns the provider
// authorization URL to redirect the caller to.
func (s *AuthService) BeginLogin(ctx context.Context) (*BeginLoginResult, error) {
	state, nonce, err := s.states.Issue(ctx)
	if err != nil {
		return nil, fmt.Errorf("issue state: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: s.provider.AuthCodeURL(state, nonce),
		State:   state,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
}

// CompleteLogin completes an authentication flow: the state is consumed
// exactly once before any network call, then the code is exchanged for an
// assertion, the assertion verified, and allow-list membership enforced. On
// success a session with a fixed absolute expiry is created.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}

	// Forged and replayed callbacks are rejected here, before the provider
	// is ever contacted.
	nonce, ok := s.states.Consume(ctx, input.State)
	if !ok {
		return nil, ErrInvalidState
	}

	rawAssertion, err := s.provider.Exchange(ctx, input.Code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	identity, err := s.provider.Verify(ctx, rawAssertion, nonce)
	if err != nil {
		return nil, fmt.Errorf("verify assertion: %w", err)
	}

	if !s.allowList.Permits(identity.Email) {
		return nil, ErrNotAllowed
	}

	now := s.now()
	session := domainauth.Session{
		Token:     generateSessionToken(),
		Identity:  identity,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	return &CompleteLoginResult{Session: session}, nil
}

// GetSession retrieves a session by token. Expired sessions are reported as
// errors; eviction is handled by the store.
func (s *AuthService) GetSession(ctx context.Context, token string) (*domainauth.Session, error) {
	if token == "" {
		return nil, errors.New("session token is required")
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.Expired(s.now()) {
		if deleteErr := s.sessions.Delete(ctx, token); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &session, nil
}

// Logout removes a session. Revoking an absent or already-revoked token is a
// no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil // Nothing to logout
	}

	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// generateSessionToken creates a cryptographically secure random session token.
func generateSessionToken() string {
	// UUIDv4 is URL-safe and has sufficient entropy for an opaque token.
	return uuid.New().String()
}
