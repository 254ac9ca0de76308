package config

import "time"

// AssetsConfig controls static asset serving for the dashboard.
type AssetsConfig struct {
	// WebRoot is the directory the static file server is confined to.
	// Requests resolving outside this root are rejected.
	WebRoot string `env:"WEB_ROOT" envDefault:"web"`

	// PublicPaths lists asset paths servable without a session
	// (e.g., the logo and login-page stylesheet).
	PublicPaths []string `env:"PUBLIC_ASSET_PATHS" envSeparator:"," envDefault:"/logo.svg,/login.css"`

	// StaticCacheMaxAge is the client-side cache lifetime for static files.
	// Data files (*.json) are always served with no-store since the refresh
	// scripts rewrite them in place.
	StaticCacheMaxAge time.Duration `env:"STATIC_CACHE_MAX_AGE" envDefault:"5m"`
}

// Sanitize applies guardrails to asset configuration values.
func (a *AssetsConfig) Sanitize() {
	if a.WebRoot == "" {
		a.WebRoot = "web"
	}
	if a.StaticCacheMaxAge < 0 {
		a.StaticCacheMaxAge = 0
	}
}
