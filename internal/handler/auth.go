package handler

import (
	"errors"
	"net/http"

	"github.com/tripwise/backend/internal/domain"
	"github.com/tripwise/backend/internal/middleware"
	"github.com/tripwise/backend/internal/service"
)

// UserSummary is the public view of a driver. It never includes the password.
type UserSummary struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RegisterResponse is the body of a successful POST /auth/register/.
type RegisterResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
}

// LoginResponse is the body of a successful POST /auth/login/.
type LoginResponse struct {
	Message string      `json:"message"`
	User    UserSummary `json:"user"`
	Token   string      `json:"token"`
}

// invalidCredentials is the single body for every failed login.
var invalidCredentials = map[string]string{"error": "Invalid credentials"}

// Register handles POST /auth/register/.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var in service.Registration
	if status, msg, ok := decodeJSON(r, &in); !ok {
		writeJSON(w, r, status, map[string]string{"detail": msg})
		return
	}

	d, err := s.auth.Register(r.Context(), in)
	if err != nil {
		var fe domain.FieldErrors
		if errors.As(err, &fe) {
			writeJSON(w, r, http.StatusBadRequest, fe)
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, RegisterResponse{
		Message: "Driver registered successfully",
		User:    UserSummary{Username: d.Username, Email: d.Email},
	})
}

// Login handles POST /auth/login/.
// On success the session token is returned in the body and set as an
// HttpOnly cookie.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var in service.Credentials
	if status, msg, ok := decodeJSON(r, &in); !ok {
		writeJSON(w, r, status, map[string]string{"detail": msg})
		return
	}

	res, err := s.auth.Login(r.Context(), in)
	if err != nil {
		var fe domain.FieldErrors
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeJSON(w, r, http.StatusUnauthorized, invalidCredentials)
		case errors.As(err, &fe):
			writeJSON(w, r, http.StatusBadRequest, fe)
		default:
			internalError(w, r, err)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.Session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, r, http.StatusOK, LoginResponse{
		Message: "Login successful",
		User:    UserSummary{ID: res.Driver.ID, Username: res.Driver.Username, Email: res.Driver.Email},
		Token:   res.Token,
	})
}

// Logout handles POST /auth/logout/. Tokens are stateless, so logging out
// only expires the cookie; clients holding a bearer token discard it.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me handles GET /auth/me/. The route is SessionRequired, so a session is
// always present in the context here.
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	d, err := s.auth.Current(r.Context(), session)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			writeJSON(w, r, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			return
		}
		internalError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, UserSummary{ID: d.ID, Username: d.Username, Email: d.Email})
}
