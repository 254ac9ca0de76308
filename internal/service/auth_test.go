package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/slicehq/slice/internal/domain/auth"
	gomocks "github.com/slicehq/slice/internal/mocks"
	mocks "github.com/slicehq/slice/internal/mocks/auth"
	"go.uber.org/mock/gomock"
)

func newTestAuthService(provider *mocks.MockAuthProvider) (*AuthService, *mocks.MemorySessionStore, *mocks.MemoryStateStore) {
	sessions := mocks.NewMemorySessionStore()
	states := mocks.NewMemoryStateStore()
	svc := NewAuthService(AuthServiceOptions{
		Provider:   provider,
		Sessions:   sessions,
		States:     states,
		SessionTTL: time.Hour,
	})
	return svc, sessions, states
}

func TestAuthService_BeginLogin(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	svc, _, states := newTestAuthService(provider)

	result, err := svc.BeginLogin(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "state-1", result.State)
	assert.Equal(t, "https://mock-idp/auth?state=state-1&nonce=nonce-1", result.AuthURL)

	// The issued state is pending until consumed.
	nonce, ok := states.Consume(context.Background(), "state-1")
	assert.True(t, ok)
	assert.Equal(t, "nonce-1", nonce)
}

func TestAuthService_CompleteLogin_Success(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	svc, sessions, _ := newTestAuthService(provider)
	ctx := context.Background()

	begin, err := svc.BeginLogin(ctx)
	require.NoError(t, err)

	result, err := svc.CompleteLogin(ctx, CompleteLoginInput{Code: "code-xyz", State: begin.State})

	require.NoError(t, err)
	assert.NotEmpty(t, result.Session.Token)
	assert.Equal(t, provider.DefaultUser, result.Session.Identity)
	assert.True(t, result.Session.ExpiresAt.After(result.Session.CreatedAt))
	assert.Equal(t, 1, sessions.Len())

	// The created session resolves through GetSession.
	sess, err := svc.GetSession(ctx, result.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, provider.DefaultUser.Email, sess.Identity.Email)
}

func TestAuthService_CompleteLogin_UnknownState(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	svc, _, _ := newTestAuthService(provider)

	_, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "code", State: "never-issued"})

	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Zero(t, provider.ExchangeCalls, "provider must not be contacted for an unknown state")
}

func TestAuthService_CompleteLogin_StateReplay(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	svc, _, _ := newTestAuthService(provider)
	ctx := context.Background()

	begin, err := svc.BeginLogin(ctx)
	require.NoError(t, err)

	_, err = svc.CompleteLogin(ctx, CompleteLoginInput{Code: "code", State: begin.State})
	require.NoError(t, err)

	// Replaying the same callback must fail without another exchange.
	_, err = svc.CompleteLogin(ctx, CompleteLoginInput{Code: "code", State: begin.State})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, provider.ExchangeCalls)
}

func TestAuthService_CompleteLogin_MissingCode(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	svc, _, states := newTestAuthService(provider)
	states.Seed("state-a", "nonce-a")

	_, err := svc.CompleteLogin(context.Background(), CompleteLoginInput{State: "state-a"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "authorization code is required")
}

func TestAuthService_CompleteLogin_ExchangeError(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	provider.ExchangeFunc = func(_ context.Context, _ string) (string, error) {
		return "", errors.New("provider unreachable")
	}
	svc, sessions, _ := newTestAuthService(provider)
	ctx := context.Background()

	begin, err := svc.BeginLogin(ctx)
	require.NoError(t, err)

	_, err = svc.CompleteLogin(ctx, CompleteLoginInput{Code: "code", State: begin.State})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange authorization code")
	assert.Zero(t, sessions.Len(), "no session may be created on failure")
}

func TestAuthService_CompleteLogin_VerifyError(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	provider.VerifyFunc = func(_ context.Context, _, _ string) (domainauth.Identity, error) {
		return domainauth.Identity{}, errors.New("audience mismatch")
	}
	svc, sessions, _ := newTestAuthService(provider)
	ctx := context.Background()

	begin, err := svc.BeginLogin(ctx)
	require.NoError(t, err)

	_, err = svc.CompleteLogin(ctx, CompleteLoginInput{Code: "code", State: begin.State})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "verify assertion")
	assert.Zero(t, sessions.Len())
}

func TestAuthService_CompleteLogin_AllowList(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	provider.DefaultUser.Email = "bob@example.com"

	sessions := mocks.NewMemorySessionStore()
	states := mocks.NewMemoryStateStore()
	svc := NewAuthService(AuthServiceOptions{
		Provider:   provider,
		Sessions:   sessions,
		States:     states,
		AllowList:  domainauth.NewAllowList([]string{"alice@example.com"}),
		SessionTTL: time.Hour,
	})
	ctx := context.Background()

	begin, err := svc.BeginLogin(ctx)
	require.NoError(t, err)

	_, err = svc.CompleteLogin(ctx, CompleteLoginInput{Code: "code", State: begin.State})

	assert.ErrorIs(t, err, ErrNotAllowed)
	assert.Zero(t, sessions.Len(), "no session for identities outside the allow-list")
}

func TestAuthService_CompleteLogin_EmptyAllowListPermitsAnyone(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	provider.DefaultUser.Email = "anyone@example.com"
	svc, _, _ := newTestAuthService(provider)
	ctx := context.Background()

	begin, err := svc.BeginLogin(ctx)
	require.NoError(t, err)

	result, err := svc.CompleteLogin(ctx, CompleteLoginInput{Code: "code", State: begin.State})

	require.NoError(t, err)
	assert.Equal(t, "anyone@example.com", result.Session.Identity.Email)
}

func TestAuthService_CompleteLogin_NonceFlowsToVerify(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := gomocks.NewMockAuthProvider(ctrl)
	provider.EXPECT().AuthCodeURL("state-1", "nonce-1").Return("https://idp/auth")
	provider.EXPECT().Exchange(gomock.Any(), "code-xyz").Return("raw-token", nil)
	provider.EXPECT().Verify(gomock.Any(), "raw-token", "nonce-1").
		Return(domainauth.Identity{Subject: "sub", Email: "alice@example.com"}, nil)

	svc := NewAuthService(AuthServiceOptions{
		Provider:   provider,
		Sessions:   mocks.NewMemorySessionStore(),
		States:     mocks.NewMemoryStateStore(),
		SessionTTL: time.Hour,
	})
	ctx := context.Background()

	begin, err := svc.BeginLogin(ctx)
	require.NoError(t, err)

	result, err := svc.CompleteLogin(ctx, CompleteLoginInput{Code: "code-xyz", State: begin.State})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", result.Session.Identity.Email)
}

func TestAuthService_GetSession_Expired(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	svc, sessions, _ := newTestAuthService(provider)
	ctx := context.Background()

	// Seed a session that is already past its expiry; the permissive test
	// store accepts it.
	require.NoError(t, sessions.Save(ctx, domainauth.Session{
		Token:     "stale",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	_, err := svc.GetSession(ctx, "stale")

	require.Error(t, err)
	assert.Zero(t, sessions.Len(), "expired session must be evicted on lookup")
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	provider := mocks.NewMockAuthProvider()
	svc, _, _ := newTestAuthService(provider)
	ctx := context.Background()

	begin, err := svc.BeginLogin(ctx)
	require.NoError(t, err)
	result, err := svc.CompleteLogin(ctx, CompleteLoginInput{Code: "code", State: begin.State})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.Session.Token))
	require.NoError(t, svc.Logout(ctx, result.Session.Token))
	require.NoError(t, svc.Logout(ctx, ""))

	_, err = svc.GetSession(ctx, result.Session.Token)
	assert.Error(t, err)
}
