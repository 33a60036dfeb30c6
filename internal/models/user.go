package models

import (
	"strings"
	"time"
)

// Role controls which operations a user may perform.
type Role string

const (
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// User is a Telegram user known to a tenant. The document ID is the
// Telegram user ID.
type User struct {
	ID         int64     `bson:"_id" json:"id"`
	Username   string    `bson:"username,omitempty" json:"username,omitempty"`
	FirstName  string    `bson:"firstName" json:"firstName"`
	LastName   string    `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Role       Role      `bson:"role" json:"role"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	LastSeenAt time.Time `bson:"lastSeenAt" json:"lastSeenAt"`
}

// DisplayName returns the best human-readable name we have for the user.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "unknown"
}

// Actor returns the user as a write attribution.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Name: u.DisplayName()}
}
