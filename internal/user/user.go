package users

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePlayer    Role = "player"
	RoleArbiter   Role = "arbiter"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePlayer, RoleArbiter, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Privilege orders roles for arbiter panel ranking; higher wins.
func (r Role) Privilege() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleModerator:
		return 2
	case RoleArbiter:
		return 1
	}
	return 0
}

// ArbiterEligible reports whether the role may sit on dispute panels.
func (r Role) ArbiterEligible() bool {
	return r.Privilege() >= RoleArbiter.Privilege()
}

type Status string

const (
	StatusActive Status = "active"
	StatusBanned Status = "banned"
)

type User struct {
	ID        uuid.UUID `db:"id"`
	Username  string    `db:"username"`
	Role      Role      `db:"role"`
	Status    Status    `db:"status"`
	Rating    int       `db:"rating"`
	CreatedAt time.Time `db:"created_at"`
}
