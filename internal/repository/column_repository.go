package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/kanban-board/internal/model"
)

const columnColumns = "id, board_id, name, color, position, created_at, updated_at"

// ColumnRepo provides CRUD operations for board columns.
type ColumnRepo struct{ db *sqlx.DB }

// NewColumnRepo returns a new ColumnRepo bound to the given database.
func NewColumnRepo(db *sqlx.DB) *ColumnRepo { return &ColumnRepo{db: db} }

// Create inserts c.  An empty color falls back to the default one; the
// position is stored as given and must lie in [0, MaxPosition].
func (r *ColumnRepo) Create(ctx context.Context, c *model.Column) error {
	if c.Color == "" {
		c.Color = model.DefaultColumnColor
	}
	if err := checkPosition(c.Position); err != nil {
		return err
	}
	return insertColumn(ctx, r.db, c, now())
}

// GetByID fetches a column by id.
func (r *ColumnRepo) GetByID(ctx context.Context, id uint64) (*model.Column, error) {
	var c model.Column
	err := r.db.GetContext(ctx, &c, "SELECT "+columnColumns+" FROM board_columns WHERE id = ? LIMIT 1", id)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListByBoard returns the columns of a board by ascending position.  Ties
// are broken by id so the order is stable.
func (r *ColumnRepo) ListByBoard(ctx context.Context, boardID uint64) ([]model.Column, error) {
	return listColumns(ctx, r.db, boardID)
}

// Update applies the fields present in p and returns the stored column.
func (r *ColumnRepo) Update(ctx context.Context, id uint64, p model.ColumnPatch) (*model.Column, error) {
	if p.Position != nil {
		if err := checkPosition(*p.Position); err != nil {
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
	if p.Color != nil {
		s.add("color", *p.Color)
	}
	if p.Position != nil {
		s.add("position", *p.Position)
	}
	if err := s.exec(ctx, r.db, "board_columns", id, now()); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a column and its tickets.
func (r *ColumnRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tickets WHERE column_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM board_columns WHERE id = ?", id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}

func insertColumn(ctx context.Context, ex sqlx.ExecerContext, c *model.Column, at time.Time) error {
	res, err := ex.ExecContext(ctx,
		"INSERT INTO board_columns (board_id, name, color, position, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		c.BoardID, c.Name, c.Color, c.Position, at, at)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.CreatedAt, c.UpdatedAt = at, at
	return nil
}

func listColumns(ctx context.Context, q sqlx.QueryerContext, boardID uint64) ([]model.Column, error) {
	cols := []model.Column{}
	err := sqlx.SelectContext(ctx, q, &cols,
		"SELECT "+columnColumns+" FROM board_columns WHERE board_id = ? ORDER BY position, id", boardID)
	if err != nil {
		return nil, err
	}
	return cols, nil
}
