package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tripwise/backend/internal/middleware"
)

// Access is the authentication a route demands of its caller.
type Access int

const (
	// Public routes accept anonymous requests.
	Public Access = iota
	// SessionRequired routes reject requests without a valid session token.
	SessionRequired
)

// Route describes one endpoint. Its auth requirement and throttling are part
// of the declaration rather than of the handler body.
type Route struct {
	Method    string
	Pattern   string
	Access    Access
	Throttled bool // subject to the auth rate limiter
	Handler   http.HandlerFunc
}

// Routes returns the full API surface.
func (s *Server) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/", Access: Public, Handler: s.GetStatus},
		{Method: http.MethodGet, Pattern: "/ping/", Access: Public, Handler: s.Ping},
		{Method: http.MethodGet, Pattern: "/openapi.yaml", Access: Public, Handler: s.GetOpenAPI},

		{Method: http.MethodPost, Pattern: "/auth/register/", Access: Public, Throttled: true, Handler: s.Register},
		{Method: http.MethodPost, Pattern: "/auth/login/", Access: Public, Throttled: true, Handler: s.Login},
		{Method: http.MethodPost, Pattern: "/auth/logout/", Access: Public, Handler: s.Logout},
		{Method: http.MethodGet, Pattern: "/auth/me/", Access: SessionRequired, Handler: s.Me},

		{Method: http.MethodPost, Pattern: "/trip/save/", Access: Public, Handler: s.SaveTrip},
		{Method: http.MethodGet, Pattern: "/trip/user/{userID:[0-9]+}/", Access: Public, Handler: s.ListTripsByUser},
		{Method: http.MethodGet, Pattern: "/trip/{tripID:[0-9]+}/", Access: Public, Handler: s.GetTrip},
	}
}

// Mount registers every route on r, wrapping each according to its
// declaration. throttle may be nil to disable rate limiting.
func (s *Server) Mount(r chi.Router, throttle func(http.Handler) http.Handler) {
	for _, rt := range s.Routes() {
		var mws []func(http.Handler) http.Handler
		if rt.Throttled && throttle != nil {
			mws = append(mws, throttle)
		}
		if rt.Access == SessionRequired {
			mws = append(mws, middleware.RequireSession(s.auth))
		}
		r.With(mws...).Method(rt.Method, rt.Pattern, rt.Handler)
	}
}
