package auth

import (
	"time"

	"github.com/ngeni/portal/internal/domain/user"
)

// Identity is the decoded session of a signed-in user.
type Identity struct {
	UserID    string
	Role      user.Role
	SessionID string
	ExpiresAt time.Time
}

// Caller is handed to every procedure. A nil Identity means anonymous.
type Caller struct {
	Identity *Identity
}

func Anonymous() Caller { return Caller{} }

func As(id Identity) Caller { return Caller{Identity: &id} }

func (c Caller) Authenticated() bool { return c.Identity != nil }

func (c Caller) IsAdmin() bool {
	return c.Identity != nil && c.Identity.Role == user.RoleAdmin
}

// UserID is empty for anonymous callers.
func (c Caller) UserID() string {
	if c.Identity == nil {
		return ""
	}
	return c.Identity.UserID
}

// Role is empty for anonymous callers.
func (c Caller) Role() user.Role {
	if c.Identity == nil {
		return ""
	}
	return c.Identity.Role
}

// Owns reports whether the caller may see a record belonging to ownerID.
func (c Caller) Owns(ownerID string) bool {
	return c.IsAdmin() || (c.Identity != nil && c.Identity.UserID == ownerID)
}
