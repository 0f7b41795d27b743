package model

import "time"

// Integration is a connected external social account.
// AccessToken is opaque and platform-encoded: twitter stores an OAuth1
// "token:secret" pair, linkedin/reddit store a bearer token.
type Integration struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	Platform     Platform   `json:"platform"`
	ExternalID   string     `json:"external_id"`
	ExternalName string     `json:"external_name"`
	AccessToken  string     `json:"-"`
	RefreshToken *string    `json:"-"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// AuthSession is the state handed back when an OAuth flow is started.
// Secret is opaque handshake state (request-token pair or CSRF nonce) that
// the caller must stash in a short-lived cookie and return on callback.
type AuthSession struct {
	URL    string `json:"url"`
	State  string `json:"state"`
	Secret string `json:"-"`
}

// AuthCallback carries the parameters a platform redirects back with,
// plus the handshake secret recovered from the flow cookie.
type AuthCallback struct {
	Code          string
	State         string
	OAuthToken    string
	OAuthVerifier string
	CookieSecret  string
}
