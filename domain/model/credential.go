package model

import "time"

// AppCredential is a user-supplied OAuth app credential for one platform.
// Rows exist only when no system-wide credential is configured and the user
// completed setup themselves.
type AppCredential struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Platform     Platform  `json:"platform"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CredentialSource string

const (
	CredentialSourceSystem CredentialSource = "system"
	CredentialSourceUser   CredentialSource = "user"
)

// ResolvedCredential is the effective OAuth app credential for a
// (platform, user) pair after applying system-first precedence.
type ResolvedCredential struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Source       CredentialSource
}
