package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/slicehq/slice/internal/domain/auth"
	apperrors "github.com/slicehq/slice/internal/errors"
)

// SessionCookieName is the browser cookie carrying the opaque session token.
const SessionCookieName = "slice_session"

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares to a handler in reverse order, so the first
// middleware in the list is the outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logging logs each request with method, path, status, and duration.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// Recover converts panics into 500 responses instead of tearing down the
// connection.
func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", "path", r.URL.Path, "panic", rec)
					WriteAppError(w, apperrors.Internal("internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// IsBrowserRequest reports whether an unauthorized response should be a
// redirect to the login page rather than a JSON error. API-shaped requests
// (anything under /api/ or clients that do not accept HTML) get JSON.
func IsBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

// RequireAuthBrowser gates a route on a live session. Browser-shaped
// requests without one are redirected to the login page; API-shaped
// requests receive a 401 JSON envelope.
func RequireAuthBrowser(svc AuthService, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := resolveSession(r, svc)
			if !ok {
				if IsBrowserRequest(r) {
					redirectToLogin(w, r)
					return
				}
				WriteAppError(w, apperrors.Unauthorized("authentication required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), sess)))
		})
	}
}

func resolveSession(r *http.Request, svc AuthService) (auth.Session, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return auth.Session{}, false
	}
	sess, err := svc.GetSession(r.Context(), cookie.Value)
	if err != nil || sess == nil {
		return auth.Session{}, false
	}
	return *sess, true
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if r.URL.Path != "/" && r.Method == http.MethodGet {
		target += "?redirect_uri=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
