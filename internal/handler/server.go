// Package handler implements the HTTP handlers for the TripWise API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, auth.go, trip.go) but share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"time"

	"github.com/tripwise/backend/internal/domain"
	"github.com/tripwise/backend/internal/service"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Save(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id int64) (domain.Trip, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Trip, error)
}

// AuthServicer defines the account operations the auth handlers depend on.
type AuthServicer interface {
	Register(ctx context.Context, in service.Registration) (domain.Driver, error)
	Login(ctx context.Context, in service.Credentials) (service.LoginResult, error)
	Current(ctx context.Context, session domain.Session) (domain.Driver, error)
	VerifySession(token string) (domain.Session, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	trips   TripServicer
	auth    AuthServicer
	version string

	// SecureCookies marks the session cookie Secure. Enable behind HTTPS.
	SecureCookies bool

	now func() time.Time
}

// NewServer constructs the Server with all its dependencies.
// version is reported by the status endpoint.
func NewServer(trips TripServicer, auth AuthServicer, version string) *Server {
	return &Server{trips: trips, auth: auth, version: version, now: time.Now}
}

// NewHealthHandler returns a Server for liveness-only use: it needs neither
// the database nor the auth service.
func NewHealthHandler(version string) *Server {
	return NewServer(nil, nil, version)
}
