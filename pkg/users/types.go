// Package users owns durable account records: roles, the on-disk store
// format and every record mutation.
package users

import (
	"fmt"
	"strconv"
)

// Role is an ordered permission level. Higher roles include the
// permissions of lower ones.
type Role int

const (
	// Guest may use basic operations only
	Guest Role = iota
	// User adds extended operations
	User
	// Admin adds user management
	Admin
)

// ParseRole converts a stored integer into a Role
func ParseRole(v int) (Role, error) {
	if v < int(Guest) || v > int(Admin) {
		return Guest, fmt.Errorf("role out of range: %d", v)
	}
	return Role(v), nil
}

func (r Role) String() string {
	switch r {
	case Admin:
		return "Administrator"
	case User:
		return "User"
	case Guest:
		return "Guest"
	default:
		return "Unknown(" + strconv.Itoa(int(r)) + ")"
	}
}

// HasPermission reports whether a session with role has at least the
// required role
func HasPermission(have, required Role) bool {
	return have >= required
}

// Account is a single user record. Owned exclusively by Store; callers
// receive copies and mutate through Store methods.
type Account struct {
	// Login is the unique, case-sensitive account key
	Login string
	// PasswordDigest is the opaque stored digest (salt and hash)
	PasswordDigest string
	Role           Role
	Active         bool
}
