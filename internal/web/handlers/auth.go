package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"face-profile/internal/config"
	"face-profile/internal/web/middleware"
)

const (
	stateCookieName = "__oauth_state"
	stateTTL        = 5 * time.Minute
)

// AuthHandler implements the OIDC authorization code flow against the
// external identity provider and manages the resulting sessions.
type AuthHandler struct {
	sessions *middleware.SessionManager
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewAuthHandler discovers the identity provider's endpoints and prepares
// the code flow configuration.
func NewAuthHandler(ctx context.Context, cfg config.OIDCConfig, sm *middleware.SessionManager) (*AuthHandler, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider discovery: %w", err)
	}

	return &AuthHandler{
		sessions: sm,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// generateState issues a single-use anti-forgery state value bound to the
// browser via a short-lived cookie.
func generateState(w http.ResponseWriter) string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	state := base64.RawURLEncoding.EncodeToString(b)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(stateTTL.Seconds()),
	})
	return state
}

func validateState(r *http.Request) bool {
	state := r.URL.Query().Get("state")
	if state == "" {
		return false
	}
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return false
	}
	return cookie.Value == state
}

func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// Login redirects the browser to the identity provider's authorization
// endpoint. An already authenticated browser goes straight back home.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.sessions.GetSessionFromRequest(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	state := generateState(w)
	http.Redirect(w, r, h.oauth.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the code flow: state check, code exchange, ID token
// verification, then session issue.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if !validateState(r) {
		respondError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	clearStateCookie(w)

	code := r.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "code exchange failed")
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "identity provider returned no id token")
		return
	}

	idToken, err := h.verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "id token verification failed")
		return
	}

	var claims struct {
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		respondError(w, http.StatusUnauthorized, "could not parse id token claims")
		return
	}
	login := claims.PreferredUsername
	if login == "" {
		login = claims.Email
	}

	session, err := h.sessions.CreateSession(r.Context(), idToken.Subject, login)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	h.sessions.SetSessionCookie(w, session)

	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout deletes the session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.sessions.GetSessionFromRequest(r); session != nil {
		h.sessions.DeleteSession(r.Context(), session.ID)
	}
	h.sessions.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StatusResponse represents the auth status response.
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Login         string `json:"login,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

// Status reports whether the browser holds a valid session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		Login:         session.Login,
		ExpiresAt:     session.ExpiresAt.Format(time.RFC3339),
	})
}
