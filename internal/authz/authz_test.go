package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/kanban-board/internal/model"
	"github.com/iliyamo/kanban-board/internal/repository"
)

func TestCan(t *testing.T) {
	admin := &model.User{ID: 1, Role: model.RoleAdmin}
	user := &model.User{ID: 2, Role: model.RoleUser}

	assert.True(t, Can(admin, CapManageUsers))
	assert.False(t, Can(user, CapManageUsers))
	assert.False(t, Can(nil, CapManageUsers))
	assert.False(t, Can(&model.User{Role: "superuser"}, CapManageUsers))
	assert.False(t, Can(admin, Capability("boards:any")))
}

func TestCheckBoardOwner(t *testing.T) {
	owner := &model.User{ID: 1, Role: model.RoleUser}
	admin := &model.User{ID: 2, Role: model.RoleAdmin}
	board := &model.Board{ID: 10, OwnerID: owner.ID}

	assert.NoError(t, CheckBoardOwner(owner, board))
	assert.ErrorIs(t, CheckBoardOwner(admin, board), repository.ErrForbidden)
	assert.ErrorIs(t, CheckBoardOwner(nil, board), repository.ErrForbidden)
	assert.ErrorIs(t, CheckBoardOwner(owner, nil), repository.ErrForbidden)
}
