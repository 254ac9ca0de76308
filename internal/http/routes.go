package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// routeAccess is the declared visibility of a route. Every registered route
// carries one, so a route that forgets to declare itself never silently
// becomes reachable without a session.
type routeAccess int

const (
	// accessPublic routes answer without a session.
	accessPublic routeAccess = iota

	// accessProtected routes pass through the auth gateway first.
	accessProtected
)

type route struct {
	pattern string
	access  routeAccess
	handler http.Handler
}

// RouterOptions groups dependencies for NewRouter.
type RouterOptions struct {
	Auth    *AuthHandlers
	AuthSvc AuthService
	Refresh *RefreshHandlers
	Static  *StaticHandler
	Logger  *slog.Logger

	// PublicAssetPaths are asset paths served without a session, such as
	// the logo and the login page stylesheet.
	PublicAssetPaths []string

	// Misconfigured marks a deployment whose identity provider credentials
	// are absent. Every route then answers 500 rather than letting an
	// unauthenticated instance serve quietly.
	Misconfigured bool
}

// NewRouter assembles the full route table. Each route declares whether it is
// public or protected; protected routes are wrapped by the auth gateway.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Misconfigured {
		return Chain(misconfiguredHandler(), Recover(logger), Logging(logger))
	}

	routes := []route{
		{"GET /login", accessPublic, opts.Static.ServeFile("login.html")},
		{"GET /auth/google/start", accessPublic, http.HandlerFunc(opts.Auth.Start)},
		{"GET /auth/google/callback", accessPublic, http.HandlerFunc(opts.Auth.Callback)},
		{"POST /auth/logout", accessPublic, http.HandlerFunc(opts.Auth.Logout)},
		{"GET /auth/me", accessPublic, http.HandlerFunc(opts.Auth.Me)},
		{"GET /healthz", accessPublic, http.HandlerFunc(Health)},

		{"GET /api/refresh", accessProtected, http.HandlerFunc(opts.Refresh.Refresh)},
		{"POST /api/refresh", accessProtected, http.HandlerFunc(opts.Refresh.Refresh)},

		// Everything else is a dashboard asset behind the gateway.
		{"/", accessProtected, opts.Static},
	}

	// Individually listed public assets bypass the gateway while the rest
	// of the asset tree stays protected. Entries shadowing a registered
	// route or repeated in the list would panic ServeMux registration, so
	// they are skipped with a warning instead of taking the server down.
	registered := make(map[string]struct{}, len(routes))
	for _, rt := range routes {
		registered[rt.pattern] = struct{}{}
	}
	for _, p := range opts.PublicAssetPaths {
		if p == "" || p == "/" || !strings.HasPrefix(p, "/") {
			logger.Warn("ignoring invalid public asset path", "path", p)
			continue
		}
		pattern := "GET " + p
		if _, exists := registered[pattern]; exists {
			logger.Warn("ignoring public asset path that shadows a registered route", "path", p)
			continue
		}
		registered[pattern] = struct{}{}
		routes = append(routes, route{pattern, accessPublic, opts.Static})
	}

	gate := RequireAuthBrowser(opts.AuthSvc, logger)

	mux := http.NewServeMux()
	for _, rt := range routes {
		h := rt.handler
		if rt.access == accessProtected {
			h = gate(h)
		}
		mux.Handle(rt.pattern, h)
	}

	return Chain(mux, Recover(logger), Logging(logger))
}

// misconfiguredHandler refuses all traffic when identity provider credentials
// are missing. A deployment that cannot authenticate anyone must not look
// healthy.
func misconfiguredHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "misconfigured",
			Err:     errors.New("authentication is not configured"),
		})
	})
}

// ServerOptions configures NewServer.
type ServerOptions struct {
	Addr    string
	Handler http.Handler
}

// NewServer builds the HTTP server with production timeouts.
func NewServer(opts ServerOptions) *http.Server {
	return &http.Server{
		Addr:         opts.Addr,
		Handler:      opts.Handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
