package domain

import (
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Role: u.Role}
}

// Identity is the display identity of a conversation peer.
type Identity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

const (
	RoleVolunteer = "volunteer"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
	RoleUnknown   = "unknown"
)

const UnknownUserName = "Unknown user"

// PlaceholderIdentity stands in for a peer whose identity could not be resolved.
func PlaceholderIdentity(id int64) Identity {
	return Identity{ID: id, Name: UnknownUserName, Role: RoleUnknown}
}

// Principal is the authenticated caller bound to a request or live connection.
type Principal struct {
	UserID int64
	Role   string
}
