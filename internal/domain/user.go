package domain

import "time"

// User is a registered account. ORCIDSub holds the OIDC subject claim for
// accounts provisioned through ORCID login.
type User struct {
	ID        string
	Username  string
	ORCIDSub  *string
	IsStaff   bool
	CreatedAt time.Time
}

// APIKey is a named, hashed API key belonging to a user. The clear-text key
// is shown once at creation and only its SHA-256 hash is stored.
type APIKey struct {
	ID        string
	UserID    string
	Name      string
	KeyHash   string
	CreatedAt time.Time
}
