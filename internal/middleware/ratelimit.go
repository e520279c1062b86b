package middleware

import (
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"
)

// NewRateLimiter returns a middleware that admits at most rps requests per
// second with bursts of up to burst, shared by every route it wraps.
// Requests over the limit get 429 and never reach the next handler.
func NewRateLimiter(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many requests, try again later"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
