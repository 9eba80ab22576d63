package middleware

import (
	"crypto/hmac"
	"net/http"
)

const (
	csrfHeaderName = "X-CSRF-Token"
	csrfFieldName  = "csrf_token"
)

// RequireCSRF guards profile-mutating routes: the request must carry the
// session's CSRF token in the X-CSRF-Token header or a csrf_token form
// field. Must run after RequireAuth.
func RequireCSRF() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSessionFromContext(r.Context())
			if session == nil {
				http.Error(w, `{"error": "not authenticated"}`, http.StatusUnauthorized)
				return
			}

			token := r.Header.Get(csrfHeaderName)
			if token == "" {
				token = r.FormValue(csrfFieldName)
			}
			if !hmac.Equal([]byte(token), []byte(session.CSRFToken)) {
				http.Error(w, `{"error": "invalid csrf token"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
