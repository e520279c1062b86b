package domain

import "time"

// Session is the identity carried by a verified session token.
type Session struct {
	ID        string // unique token id (jti)
	DriverID  int64
	Username  string
	ExpiresAt time.Time
}
