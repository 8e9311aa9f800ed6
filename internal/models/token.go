package models

import "time"

// TokenClaims is the decoded payload of a session token.
type TokenClaims struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"exp"`
}

func (c TokenClaims) Identity() Identity {
	return Identity{ID: c.UserID, Name: c.Name, Email: c.Email}
}
