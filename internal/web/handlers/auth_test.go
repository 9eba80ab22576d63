package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"face-profile/internal/web/middleware"
)

func newTestAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	sm := middleware.NewSessionManager("test-secret", nil)
	t.Cleanup(sm.Stop)
	return &AuthHandler{sessions: sm}
}

func authenticatedRequest(t *testing.T, h *AuthHandler, method, path string) *http.Request {
	t.Helper()
	session, err := h.sessions.CreateSession(context.Background(),"00uTEST", "jana.novak")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	recorder := httptest.NewRecorder()
	h.sessions.SetSessionCookie(recorder, session)

	req := httptest.NewRequest(method, path, nil)
	for _, cookie := range recorder.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return req
}

func TestAuthStatusUnauthenticated(t *testing.T) {
	handler := newTestAuthHandler(t)

	req := httptest.NewRequest("GET", "/api/v1/auth/status", nil)
	recorder := httptest.NewRecorder()
	handler.Status(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp StatusResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Authenticated {
		t.Error("expected unauthenticated status without a session cookie")
	}
	if resp.Login != "" {
		t.Errorf("expected no login in unauthenticated status, got '%s'", resp.Login)
	}
}

func TestAuthStatusAuthenticated(t *testing.T) {
	handler := newTestAuthHandler(t)

	req := authenticatedRequest(t, handler, "GET", "/api/v1/auth/status")
	recorder := httptest.NewRecorder()
	handler.Status(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp StatusResponse
	parseJSONResponse(t, recorder, &resp)
	if !resp.Authenticated {
		t.Fatal("expected authenticated status with a valid session cookie")
	}
	if resp.Login != "jana.novak" {
		t.Errorf("expected login 'jana.novak', got '%s'", resp.Login)
	}
	if resp.ExpiresAt == "" {
		t.Error("expected an expiry timestamp in the status")
	}
}

func TestAuthLogoutDeletesSession(t *testing.T) {
	handler := newTestAuthHandler(t)

	req := authenticatedRequest(t, handler, "POST", "/api/v1/auth/logout")
	recorder := httptest.NewRecorder()
	handler.Logout(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	if session := handler.sessions.GetSessionFromRequest(req); session != nil {
		t.Error("expected session to be deleted after logout")
	}

	cleared := false
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected logout to clear the session cookie")
	}
}

func TestOAuthStateRoundTrip(t *testing.T) {
	recorder := httptest.NewRecorder()
	state := generateState(recorder)
	if state == "" {
		t.Fatal("expected a non-empty state value")
	}

	req := httptest.NewRequest("GET", "/api/v1/auth/callback?state="+state+"&code=abc", nil)
	for _, cookie := range recorder.Result().Cookies() {
		req.AddCookie(cookie)
	}
	if !validateState(req) {
		t.Error("expected state matching the cookie to validate")
	}
}

func TestOAuthStateMismatch(t *testing.T) {
	recorder := httptest.NewRecorder()
	generateState(recorder)

	req := httptest.NewRequest("GET", "/api/v1/auth/callback?state=forged&code=abc", nil)
	for _, cookie := range recorder.Result().Cookies() {
		req.AddCookie(cookie)
	}
	if validateState(req) {
		t.Error("expected a forged state to be rejected")
	}
}

func TestOAuthStateMissingCookie(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/auth/callback?state=abc", nil)
	if validateState(req) {
		t.Error("expected state without a browser cookie to be rejected")
	}
}
