package oidc

// Package oidc implements the AuthProvider port against a Google-style OIDC
// identity provider using the authorization-code flow.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/slicehq/slice/internal/domain/auth"
	"golang.org/x/oauth2"
)

// Sentinel errors keep each verification failure mode distinct so the login
// flow can surface a specific reason without leaking provider internals.
var (
	ErrNoAssertion     = errors.New("missing id_token in token response")
	ErrInvalidNonce    = errors.New("invalid nonce")
	ErrUnverifiedEmail = errors.New("email not verified by provider")
)

// Provider implements ports.AuthProvider using OIDC/OAuth2.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	IssuerURL    string
	HTTPClient   *http.Client // Optional; a 15s-timeout client is used when nil
}

// NewProvider creates a new OIDC provider. The discovery document is fetched
// once at construction.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	p := &Provider{httpClient: httpClient}

	// Initialize go-oidc provider and verifier (single discovery fetch)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op

	// The verifier enforces signature, issuer, expiry, and audience: an
	// assertion whose aud claim is not our client ID never verifies.
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       strings.Fields(config.Scope),
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

// AuthCodeURL builds the provider's authorization endpoint URL. Pure: the
// state and nonce are echoed back by the provider on callback.
func (p *Provider) AuthCodeURL(state, nonce string) string {
	return p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
	)
}

// Exchange trades an authorization code for the raw ID token. The provider's
// error description is surfaced when present; a stale code is never retried.
func (p *Provider) Exchange(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", errors.New("authorization code is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.ErrorDescription != "" {
			return "", fmt.Errorf("exchange code for token: %s: %s", rErr.ErrorCode, rErr.ErrorDescription)
		}
		return "", fmt.Errorf("exchange code for token: %w", err)
	}

	rawID, ok := token.Extra("id_token").(string)
	if !ok || rawID == "" {
		return "", ErrNoAssertion
	}
	return rawID, nil
}

// idTokenClaims is the subset of Google ID token claims we consume.
type idTokenClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Nonce         string `json:"nonce"`
}

// Verify validates the raw assertion and returns the normalized identity.
// Signature, issuer, expiry, and audience are checked by the verifier; nonce
// and the email-verified flag are checked here.
func (p *Provider) Verify(ctx context.Context, rawAssertion, nonce string) (domainauth.Identity, error) {
	if rawAssertion == "" {
		return domainauth.Identity{}, ErrNoAssertion
	}

	idTok, err := p.verifier.Verify(ctx, rawAssertion)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("verify id_token: %w", err)
	}

	var claims idTokenClaims
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return domainauth.Identity{}, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}

	if nonce != "" && claims.Nonce != nonce {
		return domainauth.Identity{}, ErrInvalidNonce
	}
	if !claims.EmailVerified {
		return domainauth.Identity{}, ErrUnverifiedEmail
	}

	return domainauth.Identity{
		Subject:   claims.Subject,
		Email:     strings.ToLower(claims.Email),
		Name:      claims.Name,
		AvatarURL: claims.Picture,
	}, nil
}
