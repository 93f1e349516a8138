// Package identity carries the authenticated caller through the request
// context. The identity stored on created records is a frozen snapshot of this
// value; later role changes never alter ownership of historical records.
package identity

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Role is the fixed account role of a user.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleUser       Role = "USER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

func (r Role) IsSuperAdmin() bool {
	return r == RoleSuperAdmin
}

// Identity is the authenticated caller.
type Identity struct {
	UserID snowflake.ID
	Role   Role
}

type identityKey struct{}

// WithIdentity stores the caller identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the caller identity, if set.
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == 0 {
		return Identity{}, false
	}
	return id, true
}
