package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/kanban-board/internal/lock"
	"github.com/iliyamo/kanban-board/internal/model"
	"github.com/iliyamo/kanban-board/internal/testutil"
)

type repos struct {
	users   *UserRepo
	tokens  *TokenRepo
	boards  *BoardRepo
	columns *ColumnRepo
	tickets *TicketRepo
}

func newRepos(t *testing.T) repos {
	t.Helper()
	db := testutil.NewTestDB(t)
	return repos{
		users:   NewUserRepo(db),
		tokens:  NewTokenRepo(db),
		boards:  NewBoardRepo(db),
		columns: NewColumnRepo(db),
		tickets: NewTicketRepo(db, lock.NewMemory()),
	}
}

func createUser(t *testing.T, r *UserRepo, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "x", Name: username}
	require.NoError(t, r.Create(context.Background(), u))
	return u
}

func createBoard(t *testing.T, r *BoardRepo, ownerID uint64, name string) *model.Board {
	t.Helper()
	b := &model.Board{Name: name, OwnerID: ownerID}
	require.NoError(t, r.Create(context.Background(), b))
	return b
}

func strPtr(s string) *string { return &s }

// countTokens returns how many tokens userID holds.
func countTokens(t *testing.T, r *TokenRepo, userID uint64) int {
	t.Helper()
	var n int
	require.NoError(t, r.db.GetContext(context.Background(), &n, "SELECT COUNT(*) FROM auth_tokens WHERE user_id = ?", userID))
	return n
}
