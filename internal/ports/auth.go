package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/slicehq/slice/internal/domain/auth"
)

// AuthProvider performs the three network steps of an OAuth2
// authorization-code flow against an identity provider. The steps are kept
// separate so each failure mode (bad state, bad code, untrusted assertion)
// surfaces as a distinct reason.
type AuthProvider interface {
	// AuthCodeURL builds the provider's authorization redirect URL for the
	// given state and nonce. Pure; performs no I/O.
	AuthCodeURL(state, nonce string) string

	// Exchange trades an authorization code for a raw identity assertion
	// (the provider's ID token). Fails when the provider rejects the code
	// or the response lacks an assertion.
	Exchange(ctx context.Context, code string) (string, error)

	// Verify validates a raw assertion (signature, audience, nonce,
	// email-verified flag) and returns the normalized identity.
	Verify(ctx context.Context, rawAssertion, nonce string) (domainauth.Identity, error)
}

// SessionStore owns session records. Implementations must treat a session as
// dead the instant its expiry passes, even if not yet evicted.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, token string) (domainauth.Session, error)
	// Delete is idempotent; deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error
}

// StateStore tracks short-lived, single-use anti-forgery tokens issued when a
// login flow begins.
type StateStore interface {
	// Issue mints a new state/nonce pair and records it.
	Issue(ctx context.Context) (state, nonce string, err error)

	// Consume atomically removes the entry and returns its nonce iff the
	// state exists and is within its TTL. A given state can satisfy Consume
	// exactly once; unknown, replayed, and expired states return ok=false.
	Consume(ctx context.Context, state string) (nonce string, ok bool)
}
