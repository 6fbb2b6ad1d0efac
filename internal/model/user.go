// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is the access level mirrored between the identity provider's private
// metadata and the local users table.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the local mirror of an identity-provider account.
//
// WHY IS ID THE PROVIDER'S ID?
// The provider owns the account lifecycle; we only mirror it. Using the
// provider's user id as our primary key means webhook events (which carry
// that id) map straight onto rows, and there is never a second id to keep
// in sync. This is different from resources we own (categories), which get
// locally generated xids.
//
// The role lives in two places: the provider's private metadata and here.
// The provider's copy is authoritative; the reconciler copies it down on
// every created/updated event and defaults it to USER when absent.
type User struct {
	ID        string    `json:"id"        db:"id"`         // provider user id, e.g. "user_2f8a..."
	Name      string    `json:"name"      db:"name"`       // "first last", as sent by the provider
	Email     string    `json:"email"     db:"email"`      // primary email address (unique)
	Picture   string    `json:"picture"   db:"picture"`    // avatar URL
	Role      Role      `json:"role"      db:"role"`       // USER or ADMIN, default USER
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ProfileEquals reports whether the observable profile fields of u and
// other match. The reconciler uses this to skip redundant store writes:
// timestamps are deliberately excluded from the comparison.
func (u *User) ProfileEquals(other *User) bool {
	if u == nil || other == nil {
		return false
	}
	return u.Name == other.Name &&
		u.Email == other.Email &&
		u.Picture == other.Picture &&
		u.Role == other.Role
}

// Principal is the authenticated caller of a guarded operation.
//
// It is always passed explicitly as a parameter, never read from ambient
// or global state, so a service method's auth requirements are visible in
// its signature and trivially satisfiable in tests.
type Principal struct {
	UserID string
	Role   Role
}

// IsZero reports whether no authenticated caller is present.
func (p Principal) IsZero() bool {
	return p.UserID == ""
}
