package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses the Google OAuth2/OIDC authorization-code flow.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains the Google OAuth2/OIDC client configuration.
// ClientID and ClientSecret carry no defaults on purpose: when either is
// missing the server starts in misconfigured mode and answers 500 to every
// request until corrected.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/google/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid email profile"`
	IssuerURL    string `env:"ISSUER_URL"    envDefault:"https://accounts.google.com"`
}

// IsComplete reports whether the OAuth client is fully configured.
func (o OAuthConfig) IsComplete() bool {
	return o.ClientID != "" && o.ClientSecret != "" && o.RedirectURL != ""
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	Subject string `env:"SUBJECT" envDefault:"dev-user"`
	Email   string `env:"EMAIL"   envDefault:"dev@example.com"`
	Name    string `env:"NAME"    envDefault:"Dev User"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AllowedEmails is a comma-separated list of emails permitted to sign in.
	// An empty list permits any verified identity (single-operator default).
	AllowedEmails []string `env:"ALLOWED_EMAILS" envSeparator:","`

	// SessionTTL is the fixed lifetime of a session. Sessions do not renew
	// on access; expiry is absolute from creation.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	// StateTTL is the lifetime of a pending login state token.
	StateTTL time.Duration `env:"STATE_TTL" envDefault:"10m"`

	// StateSweepInterval controls how often abandoned state tokens are swept.
	StateSweepInterval time.Duration `env:"STATE_SWEEP_INTERVAL" envDefault:"60s"`

	// SecureCookies forces the Secure attribute on session cookies.
	// When false, Secure is still set for requests arriving over TLS.
	SecureCookies bool `env:"SECURE_COOKIES" envDefault:"false"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL < time.Minute {
		a.SessionTTL = time.Minute
	}
	if a.StateTTL < time.Minute {
		a.StateTTL = time.Minute
	}
	if a.StateSweepInterval < time.Second {
		a.StateSweepInterval = time.Second
	}

	// Normalize allow-list entries; matching is case-insensitive.
	cleaned := a.AllowedEmails[:0]
	for _, e := range a.AllowedEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			cleaned = append(cleaned, e)
		}
	}
	a.AllowedEmails = cleaned
}
