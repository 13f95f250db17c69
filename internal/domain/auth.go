package domain

import "time"

// Principal is the verified caller identity derived from a bearer token.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

// IssuedToken describes a signed session token handed out at login.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}
