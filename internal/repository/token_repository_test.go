package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/kanban-board/internal/utils"
)

func TestTokenIssueAndResolve(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := createUser(t, r.users, "alice")

	first, err := r.tokens.Issue(ctx, u.ID)
	require.NoError(t, err)
	second, err := r.tokens.Issue(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, utils.TokenPrefix))

	for _, tok := range []string{first, second} {
		got, err := r.tokens.Resolve(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "alice", got.Username)
	}

	assert.Equal(t, 2, countTokens(t, r.tokens, u.ID))
}

func TestTokenStoredHashed(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	u := createUser(t, r.users, "bob")

	raw, err := r.tokens.Issue(ctx, u.ID)
	require.NoError(t, err)

	var stored string
	require.NoError(t, r.tokens.db.GetContext(ctx, &stored, "SELECT token_hash FROM auth_tokens WHERE user_id = ?", u.ID))
	assert.NotEqual(t, raw, stored)
	assert.Equal(t, utils.HashToken(raw), stored)
}

func TestTokenResolveUnknown(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()

	_, err := r.tokens.Resolve(ctx, "token_deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.tokens.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
}
