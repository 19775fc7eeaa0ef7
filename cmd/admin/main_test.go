package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/kanban-board/internal/model"
	"github.com/iliyamo/kanban-board/internal/repository"
	"github.com/iliyamo/kanban-board/internal/testutil"
	"github.com/iliyamo/kanban-board/internal/utils"
)

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	users := repository.NewUserRepo(testutil.NewTestDB(t))

	created, err := ensureAdmin(ctx, users, adminInput{Username: " root ", Password: "first", Name: "Root", Email: "root@example.com"}, 4)
	require.NoError(t, err)
	assert.True(t, created)

	u, err := users.GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
	require.NotNil(t, u.Email)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "first"))

	// second run resets the password and keeps the account
	created, err = ensureAdmin(ctx, users, adminInput{Username: "root", Password: "second"}, 4)
	require.NoError(t, err)
	assert.False(t, created)
	u2, err := users.GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, u.ID, u2.ID)
	assert.True(t, utils.VerifyPassword(u2.PasswordHash, "second"))
}

func TestEnsureAdminPromotesUser(t *testing.T) {
	ctx := context.Background()
	users := repository.NewUserRepo(testutil.NewTestDB(t))
	require.NoError(t, users.Create(ctx, &model.User{Username: "alice", PasswordHash: "x", Name: "Alice"}))

	created, err := ensureAdmin(ctx, users, adminInput{Username: "alice", Password: "pw"}, 4)
	require.NoError(t, err)
	assert.False(t, created)

	u, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}

func TestEnsureAdminRequiresCredentials(t *testing.T) {
	users := repository.NewUserRepo(testutil.NewTestDB(t))
	_, err := ensureAdmin(context.Background(), users, adminInput{Username: "  ", Password: "pw"}, 4)
	assert.Error(t, err)
}

func TestMigrateCommand(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "kanban.db"))

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	require.NoError(t, app.Run([]string{"kanban-admin", "migrate"}))
	assert.True(t, strings.Contains(out.String(), "schema at version 1"), out.String())

	out.Reset()
	require.NoError(t, app.Run([]string{"kanban-admin", "ensure-admin", "--username", "root", "--password", "pw"}))
	assert.Contains(t, out.String(), `admin "root" created`)
}
