package domain

import "time"

// Driver is a registered account. PasswordHash holds a bcrypt hash and is
// never serialised.
type Driver struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	LastLogin    *time.Time // nil until the first successful login
	DateJoined   time.Time
}
