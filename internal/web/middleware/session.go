package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	sessionCookieName = "face_profile_session"
	sessionDuration   = 24 * time.Hour
	cleanupInterval   = 15 * time.Minute
)

// Session represents an authenticated browser session. The subject id ties
// the session to a directory user; the CSRF token guards mutating routes.
type Session struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	Login     string    `json:"login"`
	CSRFToken string    `json:"csrf_token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its lifetime.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// SessionRepository persists sessions across restarts. A nil repository
// keeps sessions in memory only.
type SessionRepository interface {
	Save(ctx context.Context, s *Session) error
	Find(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// SessionManager creates, validates and expires sessions, and signs the
// session cookie so forged ids are rejected before any lookup.
type SessionManager struct {
	secret   []byte
	repo     SessionRepository
	sessions map[string]*Session
	mu       sync.RWMutex
	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionManager creates a session manager. With a nil repository
// sessions live in memory and a background janitor sweeps expired ones.
func NewSessionManager(secret string, repo SessionRepository) *SessionManager {
	// Default secret keeps local development working.
	if secret == "" {
		secret = "face-profile-dev-secret-change-in-production"
	}
	sm := &SessionManager{
		secret:   []byte(secret),
		repo:     repo,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	if repo == nil {
		go sm.janitor()
	}
	return sm
}

// randomToken returns 256 bits of URL-safe randomness.
func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CreateSession creates and stores a session for an authenticated subject.
func (sm *SessionManager) CreateSession(ctx context.Context, subjectID, login string) (*Session, error) {
	id, err := randomToken()
	if err != nil {
		return nil, err
	}
	csrf, err := randomToken()
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:        id,
		SubjectID: subjectID,
		Login:     login,
		CSRFToken: csrf,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(sessionDuration),
	}

	if sm.repo != nil {
		if err := sm.repo.Save(ctx, session); err != nil {
			return nil, err
		}
		return session, nil
	}

	sm.mu.Lock()
	sm.sessions[id] = session
	sm.mu.Unlock()
	return session, nil
}

// GetSession retrieves a live session by id, nil when missing or expired.
func (sm *SessionManager) GetSession(ctx context.Context, sessionID string) *Session {
	if sm.repo != nil {
		session, err := sm.repo.Find(ctx, sessionID)
		if err != nil || session == nil || session.Expired() {
			return nil
		}
		return session
	}

	sm.mu.RLock()
	session, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return nil
	}
	if session.Expired() {
		sm.DeleteSession(ctx, sessionID)
		return nil
	}
	return session
}

// DeleteSession removes a session.
func (sm *SessionManager) DeleteSession(ctx context.Context, sessionID string) {
	if sm.repo != nil {
		_ = sm.repo.Delete(ctx, sessionID)
		return
	}
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()
}

// SetSessionCookie sets the signed session cookie on the response.
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, session *Session) {
	signature := sm.signData(session.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID + "." + signature,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionDuration.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// GetSessionFromRequest extracts and validates the session referenced by
// the request's cookie.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	sessionID, signature, ok := strings.Cut(cookie.Value, ".")
	if !ok || !sm.verifySignature(sessionID, signature) {
		return nil
	}
	return sm.GetSession(r.Context(), sessionID)
}

// Stop shuts down the in-memory janitor. Safe to call more than once.
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() { close(sm.stop) })
}

func (sm *SessionManager) janitor() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-sm.stop:
			return
		case <-ticker.C:
			now := time.Now()
			sm.mu.Lock()
			for id, session := range sm.sessions {
				if now.After(session.ExpiresAt) {
					delete(sm.sessions, id)
				}
			}
			sm.mu.Unlock()
		}
	}
}

func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}
