package devauth

// Package devauth provides a simple, config-driven AuthProvider for local
// development. It short-circuits the OAuth flow by redirecting straight back
// to our own callback; Exchange and Verify return the configured identity.

import (
	"context"
	"errors"
	"net/url"
	"strings"

	domainauth "github.com/slicehq/slice/internal/domain/auth"
)

const devAssertion = "dev-assertion"

// Config controls the dev auth provider behavior.
type Config struct {
	Subject string
	Email   string
	Name    string
}

// Provider implements ports.AuthProvider for local development.
type Provider struct {
	identity domainauth.Identity
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Subject == "" {
		return nil, errors.New("dev auth: Subject is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	return &Provider{
		identity: domainauth.Identity{
			Subject: cfg.Subject,
			Email:   strings.ToLower(cfg.Email),
			Name:    cfg.Name,
		},
	}, nil
}

// AuthCodeURL returns a local callback URL so the browser loops straight back
// into the normal callback handler.
func (p *Provider) AuthCodeURL(state, _ string) string {
	q := url.Values{}
	q.Set("code", "dev")
	q.Set("state", state)
	return "/auth/google/callback?" + q.Encode()
}

// Exchange ignores the code and hands back a fixed assertion marker.
func (p *Provider) Exchange(_ context.Context, code string) (string, error) {
	if code == "" {
		return "", errors.New("authorization code is required")
	}
	return devAssertion, nil
}

// Verify returns the configured identity for the dev assertion.
func (p *Provider) Verify(_ context.Context, rawAssertion, _ string) (domainauth.Identity, error) {
	if rawAssertion != devAssertion {
		return domainauth.Identity{}, errors.New("unknown assertion")
	}
	return p.identity, nil
}
