package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/kanban-board/internal/model"
)

const userColumns = "id, username, password_hash, name, email, role, created_at, updated_at"

// UserRepo provides CRUD operations for user accounts.
type UserRepo struct{ db *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts u and fills in its ID and timestamps.  The username and
// email are trimmed; an empty email is stored as NULL.  A taken username
// or email yields ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = normEmail(u.Email)
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if err := checkRole(u.Role); err != nil {
		return err
	}
	at := now()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, name, email, role, created_at, updated_at) VALUES (?,?,?,?,?,?,?)",
		u.Username, u.PasswordHash, u.Name, u.Email, u.Role, at, at)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: username or email already registered", ErrDuplicate)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.CreatedAt, u.UpdatedAt = at, at
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE username = ? LIMIT 1",
		strings.TrimSpace(username))
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// List returns users ordered by id, skipping offset rows and returning at
// most limit.
func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]model.User, error) {
	users := []model.User{}
	err := r.db.SelectContext(ctx, &users,
		"SELECT "+userColumns+" FROM users ORDER BY id LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Update applies the fields present in p and returns the stored user.
func (r *UserRepo) Update(ctx context.Context, id uint64, p model.UserPatch) (*model.User, error) {
	if p.Role != nil {
		if err := checkRole(*p.Role); err != nil {
			return nil, err
		}
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	var s setList
	if p.Name != nil {
		s.add("name", *p.Name)
	}
	if p.Email.Set {
		s.add("email", normEmail(p.Email.Value))
	}
	if p.Role != nil {
		s.add("role", *p.Role)
	}
	if err := s.exec(ctx, r.db, "users", id, now()); err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: email already registered", ErrDuplicate)
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// SetPassword replaces the stored password hash.
func (r *UserRepo) SetPassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?", hash, now(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SetRole changes the role of a user.
func (r *UserRepo) SetRole(ctx context.Context, id uint64, role string) error {
	if err := checkRole(role); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET role = ?, updated_at = ? WHERE id = ?", role, now(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete removes a user together with their tokens and everything on the
// boards they own, in a single transaction.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const owned = "SELECT id FROM boards WHERE owner_id = ?"
		stmts := []string{
			"DELETE FROM tickets WHERE board_id IN (" + owned + ")",
			"DELETE FROM board_columns WHERE board_id IN (" + owned + ")",
			"DELETE FROM boards WHERE owner_id = ?",
			"DELETE FROM auth_tokens WHERE user_id = ?",
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}

func checkRole(role string) error {
	if !model.ValidRole(role) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalid, role)
	}
	return nil
}

func normEmail(e *string) *string {
	if e == nil {
		return nil
	}
	v := strings.TrimSpace(*e)
	if v == "" {
		return nil
	}
	return &v
}
