package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tripwise/backend/internal/domain"
)

// sessionClaims is the JWT payload of a session token.
type sessionClaims struct {
	DriverID int64  `json:"driver_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionIssuer signs and verifies HS256 session tokens.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionIssuer returns an issuer whose tokens expire ttl after issue.
func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	return &SessionIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a signed token for d.
func (s *SessionIssuer) Issue(d domain.Driver) (string, domain.Session, error) {
	now := s.now()
	session := domain.Session{
		ID:        uuid.NewString(),
		DriverID:  d.ID,
		Username:  d.Username,
		ExpiresAt: now.Add(s.ttl),
	}

	claims := sessionClaims{
		DriverID: d.ID,
		Username: d.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   strconv.FormatInt(d.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", domain.Session{}, fmt.Errorf("service.SessionIssuer.Issue: %w", err)
	}
	return signed, session, nil
}

// Verify parses token and returns the session it carries.
// Any parse, signature or expiry failure yields domain.ErrUnauthenticated.
func (s *SessionIssuer) Verify(token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, domain.ErrUnauthenticated
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return domain.Session{}, errors.Join(domain.ErrUnauthenticated, err)
	}

	return domain.Session{
		ID:        claims.ID,
		DriverID:  claims.DriverID,
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
