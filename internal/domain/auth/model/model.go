package model

import "time"

// User is the stored user record. The JSON names match the cached form written
// by earlier versions of the service.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"fullName"`
	PasswordHash string `json:"password"`
}

// Identity returns the password-free projection of u.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username, FullName: u.FullName}
}

// NewUser is a user record before the store assigns an ID.
type NewUser struct {
	Username     string
	FullName     string
	PasswordHash string
}

// Identity is the only user shape passed on after credentials were checked.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

type Claims struct {
	UserID   int64
	Username string
}

type Registration struct {
	Username string
	FullName string
	Password string
}

type Credentials struct {
	Username string
	Password string
}

type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	Identity    Identity
}
