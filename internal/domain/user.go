package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// User represents a registered shopper, seller or administrator
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RefreshToken is an opaque long-lived token exchanged for access tokens
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

// Identity is the authenticated caller of an operation.
// The zero value is an anonymous caller.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

// Authenticated reports whether the identity names a user
func (i Identity) Authenticated() bool {
	return i.UserID != uuid.Nil
}

// HasRole reports whether the identity holds one of roles
func (i Identity) HasRole(roles ...string) bool {
	for _, role := range roles {
		if i.Role == role {
			return true
		}
	}
	return false
}
