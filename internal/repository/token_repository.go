package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/kanban-board/internal/model"
	"github.com/iliyamo/kanban-board/internal/utils"
)

// TokenRepo persists access tokens.  Only the SHA-256 digest of a token is
// stored (single 'token_hash' column), so a database leak does not expose
// usable credentials.
type TokenRepo struct{ db *sqlx.DB }

func NewTokenRepo(db *sqlx.DB) *TokenRepo { return &TokenRepo{db: db} }

// Issue generates a fresh token for userID, stores its digest and returns
// the raw token.  Earlier tokens of the user stay valid.
func (r *TokenRepo) Issue(ctx context.Context, userID uint64) (string, error) {
	raw, err := utils.NewAuthToken()
	if err != nil {
		return "", err
	}
	_, err = r.db.ExecContext(ctx,
		"INSERT INTO auth_tokens (token_hash, user_id, created_at) VALUES (?,?,?)",
		utils.HashToken(raw), userID, now())
	if err != nil {
		return "", err
	}
	return raw, nil
}

// Resolve returns the user owning raw, or ErrNotFound.
func (r *TokenRepo) Resolve(ctx context.Context, raw string) (*model.User, error) {
	if raw == "" {
		return nil, ErrNotFound
	}
	var u model.User
	err := r.db.GetContext(ctx, &u,
		`SELECT u.id, u.username, u.password_hash, u.name, u.email, u.role, u.created_at, u.updated_at
		   FROM auth_tokens t JOIN users u ON u.id = t.user_id
		  WHERE t.token_hash = ? LIMIT 1`,
		utils.HashToken(raw))
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
