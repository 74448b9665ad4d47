package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/nvoronin/seccalc/pkg/users"
)

// Session is the result of a successful authentication. It is immutable
// and lives until the interactive session ends.
type Session struct {
	ID            uuid.UUID
	Username      string
	Role          users.Role
	SourceAddress string
	CreatedAt     time.Time
}

// HasPermission reports whether the session's role grants the required
// role
func (s *Session) HasPermission(required users.Role) bool {
	return users.HasPermission(s.Role, required)
}
