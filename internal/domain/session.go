package domain

import "time"

// Session is one issued refresh token. Only the token's SHA-256 is stored.
type Session struct {
	ID            int64
	UserID        int64
	TokenHash     string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	RevokedAt     *time.Time
	RevokedReason *string
}

const (
	SessionRevokedRefreshed = "refreshed"
	SessionRevokedLogout    = "logout"
)
