package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripwise/backend/internal/domain"
	"github.com/tripwise/backend/internal/middleware"
)

// stubVerifier accepts exactly one token.
type stubVerifier struct {
	valid   string
	session domain.Session
}

func (s stubVerifier) VerifySession(token string) (domain.Session, error) {
	if token != s.valid {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	return s.session, nil
}

// sessionEcho writes the driver ID found in the request context.
var sessionEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	s, ok := middleware.SessionFrom(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]int64{"driver_id": s.DriverID})
})

func newSessionHandler() http.Handler {
	v := stubVerifier{valid: "good-token", session: domain.Session{DriverID: 7}}
	return middleware.RequireSession(v)(sessionEcho)
}

func TestRequireSession_BearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/me/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()

	newSessionHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"driver_id":7}`, rec.Body.String())
}

func TestRequireSession_Cookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/me/", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "good-token"})
	rec := httptest.NewRecorder()

	newSessionHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSession_MissingOrInvalid(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no token", ""},
		{"wrong token", "Bearer forged"},
		{"not bearer", "Basic Z29vZC10b2tlbg=="},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			newSessionHandler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"authentication required"}`, rec.Body.String())
		})
	}
}
