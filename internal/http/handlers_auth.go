package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/slicehq/slice/internal/domain/auth"
	"github.com/slicehq/slice/internal/service"
)

// AuthService is the part of the auth service the HTTP layer depends on.
type AuthService interface {
	BeginLogin(ctx context.Context) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	GetSession(ctx context.Context, token string) (*auth.Session, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandlersOptions configures AuthHandlers.
type AuthHandlersOptions struct {
	Svc           AuthService
	Logger        *slog.Logger
	CookieDomain  string
	SecureCookies bool
}

// AuthHandlers serves the login round-trip and session endpoints.
type AuthHandlers struct {
	svc           AuthService
	logger        *slog.Logger
	cookieDomain  string
	secureCookies bool
}

// NewAuthHandlers creates handlers for the Google sign-in flow.
func NewAuthHandlers(opts AuthHandlersOptions) *AuthHandlers {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandlers{
		svc:           opts.Svc,
		logger:        logger.With("component", "auth_handlers"),
		cookieDomain:  opts.CookieDomain,
		secureCookies: opts.SecureCookies,
	}
}

// Start begins the sign-in flow by redirecting the browser to the provider's
// consent screen.
//
//	GET /auth/google/start
func (h *AuthHandlers) Start(w http.ResponseWriter, r *http.Request) {
	begin, err := h.svc.BeginLogin(r.Context())
	if err != nil {
		h.logger.Error("begin login failed", "error", err)
		h.redirectLoginError(w, r, "start_failed")
		return
	}

	if redirect := r.URL.Query().Get("redirect_uri"); isSafeRedirect(redirect) {
		http.SetCookie(w, &http.Cookie{
			Name:     "slice_post_login",
			Value:    redirect,
			Path:     "/",
			MaxAge:   int((10 * time.Minute).Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   h.secure(r),
		})
	}

	http.Redirect(w, r, begin.AuthURL, http.StatusFound)
}

// Callback completes the sign-in flow. Provider-reported errors short-circuit
// before any code exchange is attempted.
//
//	GET /auth/google/callback
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if provErr := q.Get("error"); provErr != "" {
		h.logger.Warn("provider returned error", "error", provErr)
		h.redirectLoginError(w, r, sanitizeErrorCode(provErr))
		return
	}

	state := q.Get("state")
	code := q.Get("code")
	if state == "" || code == "" {
		h.redirectLoginError(w, r, "invalid_request")
		return
	}

	result, err := h.svc.CompleteLogin(r.Context(), service.CompleteLoginInput{State: state, Code: code})
	if err != nil {
		h.logger.Warn("login failed", "error", err)
		h.redirectLoginError(w, r, loginErrorCode(err))
		return
	}

	h.setSessionCookie(w, r, result.Session)
	http.Redirect(w, r, h.postLoginTarget(w, r), http.StatusSeeOther)
}

// Logout deletes the current session and clears the cookie. It succeeds even
// when no session exists.
//
//	POST /auth/logout
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.svc.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Error("logout failed", "error", err)
		}
	}
	h.clearSessionCookie(w, r)
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Me reports the caller's authentication status without requiring a session.
//
//	GET /auth/me
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := resolveSession(r, h.svc)
	if !ok {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"identity": map[string]any{
			"email":      sess.Identity.Email,
			"name":       sess.Identity.Name,
			"avatar_url": sess.Identity.AvatarURL,
		},
	})
}

func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure(r),
	})
}

func (h *AuthHandlers) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure(r),
	})
}

func (h *AuthHandlers) postLoginTarget(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie("slice_post_login")
	if err != nil || !isSafeRedirect(cookie.Value) {
		return "/"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "slice_post_login",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure(r),
	})
	return cookie.Value
}

func (h *AuthHandlers) redirectLoginError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(code), http.StatusSeeOther)
}

func (h *AuthHandlers) secure(r *http.Request) bool {
	return h.secureCookies || r.TLS != nil
}

func loginErrorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, service.ErrNotAllowed):
		return "not_allowed"
	default:
		return "login_failed"
	}
}

// isSafeRedirect permits only same-origin absolute paths as post-login
// targets. Backslashes are rejected outright: browsers normalize them to
// forward slashes, which would turn "/\evil.com" into a protocol-relative
// URL.
func isSafeRedirect(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return false
	}
	return !strings.ContainsRune(target, '\\')
}

// sanitizeErrorCode keeps provider error codes presentable in a query string.
func sanitizeErrorCode(code string) string {
	if len(code) > 64 {
		code = code[:64]
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' && r != '-' {
			return "provider_error"
		}
	}
	return code
}
