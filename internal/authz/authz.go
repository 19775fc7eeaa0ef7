// Package authz decides what an authenticated user may do.  Handlers ask
// for a capability instead of comparing role names themselves.
package authz

import (
	"github.com/iliyamo/kanban-board/internal/model"
	"github.com/iliyamo/kanban-board/internal/repository"
)

// Capability names a privilege that is granted by role.
type Capability string

// CapManageUsers allows listing, creating, updating and deleting any user
// account and resetting passwords.
const CapManageUsers Capability = "users:manage"

var grants = map[string][]Capability{
	model.RoleAdmin: {CapManageUsers},
	model.RoleUser:  nil,
}

// Can reports whether u holds capability c.
func Can(u *model.User, c Capability) bool {
	if u == nil {
		return false
	}
	for _, g := range grants[u.Role] {
		if g == c {
			return true
		}
	}
	return false
}

// CheckBoardOwner returns repository.ErrForbidden unless u owns b.  The
// admin role grants nothing here: boards are only ever visible to their
// owner.
func CheckBoardOwner(u *model.User, b *model.Board) error {
	if u == nil || b == nil || b.OwnerID != u.ID {
		return repository.ErrForbidden
	}
	return nil
}
