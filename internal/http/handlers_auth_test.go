package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slicehq/slice/internal/service"
)

func newTestAuthHandlers(svc AuthService) *AuthHandlers {
	return NewAuthHandlers(AuthHandlersOptions{
		Svc:    svc,
		Logger: testLogger(),
	})
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestStart_RedirectsToProvider(t *testing.T) {
	svc := newStubAuthService()
	h := newTestAuthHandlers(svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/start", nil)
	rec := httptest.NewRecorder()
	h.Start(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://idp.example/auth?state=s1", rec.Header().Get("Location"))
}

func TestStart_BeginFailureRedirectsToLogin(t *testing.T) {
	svc := newStubAuthService()
	svc.beginErr = errors.New("state store down")
	h := newTestAuthHandlers(svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/start", nil)
	rec := httptest.NewRecorder()
	h.Start(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?error=start_failed", rec.Header().Get("Location"))
}

func TestCallback_ProviderErrorShortCircuits(t *testing.T) {
	svc := newStubAuthService()
	h := newTestAuthHandlers(svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?error=access_denied&state=s1&code=c1", nil)
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?error=access_denied", rec.Header().Get("Location"))
	// The exchange must never run when the provider already reported failure.
	assert.Zero(t, svc.completeCalls)
	assert.Nil(t, sessionCookie(t, rec))
}

func TestCallback_MissingParams(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"no code", "/auth/google/callback?state=s1"},
		{"no state", "/auth/google/callback?code=c1"},
		{"neither", "/auth/google/callback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newStubAuthService()
			h := newTestAuthHandlers(svc)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			h.Callback(rec, req)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/login?error=invalid_request", rec.Header().Get("Location"))
			assert.Zero(t, svc.completeCalls)
		})
	}
}

func TestCallback_Success(t *testing.T) {
	svc := newStubAuthService()
	sess := testSession("tok-99")
	svc.completeRes = &service.CompleteLoginResult{Session: sess}
	h := newTestAuthHandlers(svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=s1&code=c1", nil)
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, service.CompleteLoginInput{State: "s1", Code: "c1"}, svc.completeInput)

	cookie := sessionCookie(t, rec)
	require.NotNil(t, cookie)
	assert.Equal(t, "tok-99", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.InDelta(t, time.Hour.Seconds(), float64(cookie.MaxAge), 5)
}

func TestCallback_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"unknown state", service.ErrInvalidState, "invalid_state"},
		{"not allow-listed", service.ErrNotAllowed, "not_allowed"},
		{"exchange failure", errors.New("exchange authorization code: boom"), "login_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newStubAuthService()
			svc.completeErr = tt.err
			h := newTestAuthHandlers(svc)

			req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=s1&code=c1", nil)
			rec := httptest.NewRecorder()
			h.Callback(rec, req)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/login?error="+tt.wantCode, rec.Header().Get("Location"))
			assert.Nil(t, sessionCookie(t, rec))
		})
	}
}

func TestIsSafeRedirect(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"/", true},
		{"/reports.html", true},
		{"/data/market.json?v=2", true},
		{"", false},
		{"reports.html", false},
		{"//evil.com", false},
		{`/\evil.com`, false},
		{`/foo\bar`, false},
		{"https://evil.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, isSafeRedirect(tt.target))
		})
	}
}

func TestStart_RejectsHostileRedirectTarget(t *testing.T) {
	svc := newStubAuthService()
	h := newTestAuthHandlers(svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/start?redirect_uri="+url.QueryEscape(`/\evil.com`), nil)
	rec := httptest.NewRecorder()
	h.Start(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	for _, c := range rec.Result().Cookies() {
		assert.NotEqual(t, "slice_post_login", c.Name)
	}
}

func TestCallback_PostLoginRedirect(t *testing.T) {
	svc := newStubAuthService()
	svc.completeRes = &service.CompleteLoginResult{Session: testSession("tok-1")}
	h := newTestAuthHandlers(svc)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=s1&code=c1", nil)
	req.AddCookie(&http.Cookie{Name: "slice_post_login", Value: "/reports.html"})
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/reports.html", rec.Header().Get("Location"))
}

func TestLogout(t *testing.T) {
	t.Run("with session", func(t *testing.T) {
		svc := newStubAuthService()
		svc.sessions["tok-1"] = testSession("tok-1")
		h := newTestAuthHandlers(svc)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok-1"})
		rec := httptest.NewRecorder()
		h.Logout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, svc.logoutCalls)

		cookie := sessionCookie(t, rec)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	})

	t.Run("without session is a no-op", func(t *testing.T) {
		svc := newStubAuthService()
		h := newTestAuthHandlers(svc)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		rec := httptest.NewRecorder()
		h.Logout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, svc.logoutCalls)
	})
}

func TestMe(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		svc := newStubAuthService()
		svc.sessions["tok-1"] = testSession("tok-1")
		h := newTestAuthHandlers(svc)

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok-1"})
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"authenticated":true`)
		assert.Contains(t, rec.Body.String(), "alice@example.com")
	})

	t.Run("anonymous", func(t *testing.T) {
		svc := newStubAuthService()
		h := newTestAuthHandlers(svc)

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		rec := httptest.NewRecorder()
		h.Me(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	})
}
