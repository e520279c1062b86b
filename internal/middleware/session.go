package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tripwise/backend/internal/domain"
)

// SessionCookie is the name of the cookie that carries the session token.
const SessionCookie = "tripwise_session"

// SessionVerifier validates a raw session token.
type SessionVerifier interface {
	VerifySession(token string) (domain.Session, error)
}

type sessionKey struct{}

// RequireSession rejects requests without a valid session token with 401 and
// stores the verified session in the request context for the next handler.
// The token is read from "Authorization: Bearer <token>" or, failing that,
// from the session cookie.
func RequireSession(v SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := v.VerifySession(TokenFromRequest(r))
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// TokenFromRequest extracts the session token, or "" when none is present.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFrom returns the session stored by RequireSession.
func SessionFrom(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(domain.Session)
	return s, ok
}
