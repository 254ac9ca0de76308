package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/slicehq/slice/config"
	"github.com/slicehq/slice/internal/adapters/devauth"
	"github.com/slicehq/slice/internal/adapters/memstore"
	"github.com/slicehq/slice/internal/adapters/oidc"
	domainauth "github.com/slicehq/slice/internal/domain/auth"
	"github.com/slicehq/slice/internal/ports"
	"github.com/slicehq/slice/internal/service"
)

// AuthComponents bundles everything the HTTP layer and the runtime need from
// the authentication stack.
type AuthComponents struct {
	Service  *service.AuthService
	Sessions *memstore.SessionStore
	States   *memstore.StateStore

	// Misconfigured marks a deployment whose OAuth client credentials are
	// absent in oauth mode. The router then refuses all traffic.
	Misconfigured bool
}

// BuildAuthService wires the identity provider, stores, and auth service for
// the configured mode.
func BuildAuthService(ctx context.Context, cfg *config.AuthConfig, isDev bool, logger *slog.Logger) (*AuthComponents, error) {
	sessions := memstore.NewSessionStore()
	states := memstore.NewStateStore(cfg.StateTTL)

	components := &AuthComponents{
		Sessions: sessions,
		States:   states,
	}

	var provider ports.AuthProvider
	switch cfg.Mode {
	case config.AuthModeMock:
		if !isDev {
			return nil, fmt.Errorf("auth mode %q requires dev mode", cfg.Mode)
		}
		logger.Warn("mock authentication enabled, do not use in production")
		p, err := devauth.NewProvider(devauth.Config{
			Subject: cfg.DevAuth.Subject,
			Email:   cfg.DevAuth.Email,
			Name:    cfg.DevAuth.Name,
		})
		if err != nil {
			return nil, fmt.Errorf("build dev auth provider: %w", err)
		}
		provider = p

	case config.AuthModeOAuth:
		if !cfg.OAuth.IsComplete() {
			// The server still starts so the operator sees a clear 500
			// instead of a silent connection refusal, but nothing is
			// served until credentials are provided.
			logger.Error("oauth client credentials missing, refusing all requests",
				"hint", "set OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET")
			components.Misconfigured = true
			return components, nil
		}
		p, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
			Scope:        cfg.OAuth.Scope,
			IssuerURL:    cfg.OAuth.IssuerURL,
		})
		if err != nil {
			return nil, fmt.Errorf("build oidc provider: %w", err)
		}
		provider = p

	default:
		return nil, fmt.Errorf("unknown auth mode: %q", cfg.Mode)
	}

	components.Service = service.NewAuthService(service.AuthServiceOptions{
		Provider:   provider,
		Sessions:   sessions,
		States:     states,
		AllowList:  domainauth.NewAllowList(cfg.AllowedEmails),
		SessionTTL: cfg.SessionTTL,
	})

	if len(cfg.AllowedEmails) == 0 {
		logger.Warn("allow-list is empty, any verified account may sign in")
	}

	return components, nil
}

// StartSweepers launches the background eviction loops for both stores. They
// stop when ctx is canceled.
func (c *AuthComponents) StartSweepers(ctx context.Context, stateInterval, sessionInterval time.Duration) {
	go c.States.Run(ctx, stateInterval)
	go c.Sessions.Run(ctx, sessionInterval)
}
