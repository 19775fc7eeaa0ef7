package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/kanban-board/internal/model"
)

const boardColumns = "id, name, description, owner_id, created_at, updated_at"

// BoardRepo provides CRUD operations for boards.  A board owns its
// columns and tickets; deleting it removes both.
type BoardRepo struct{ db *sqlx.DB }

// NewBoardRepo returns a new BoardRepo bound to the given database.
func NewBoardRepo(db *sqlx.DB) *BoardRepo { return &BoardRepo{db: db} }

// Create inserts b together with its default columns in one transaction.
// On success b carries its ID, timestamps and the created columns.
func (r *BoardRepo) Create(ctx context.Context, b *model.Board) error {
	at := now()
	var cols []model.Column
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO boards (name, description, owner_id, created_at, updated_at) VALUES (?,?,?,?,?)",
			b.Name, b.Description, b.OwnerID, at, at)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		b.ID = uint64(id)

		cols = make([]model.Column, 0, len(model.DefaultColumnNames))
		for pos, name := range model.DefaultColumnNames {
			c := model.Column{BoardID: b.ID, Name: name, Color: model.DefaultColumnColor, Position: pos}
			if err := insertColumn(ctx, tx, &c, at); err != nil {
				return err
			}
			cols = append(cols, c)
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.CreatedAt, b.UpdatedAt = at, at
	b.Columns = cols
	return nil
}

// GetByID fetches a board without its columns.
func (r *BoardRepo) GetByID(ctx context.Context, id uint64) (*model.Board, error) {
	var b model.Board
	err := r.db.GetContext(ctx, &b, "SELECT "+boardColumns+" FROM boards WHERE id = ? LIMIT 1", id)
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// ListByOwner returns the boards owned by ownerID ordered by id, each with
// its columns in display order.
func (r *BoardRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Board, error) {
	boards := []model.Board{}
	err := r.db.SelectContext(ctx, &boards,
		"SELECT "+boardColumns+" FROM boards WHERE owner_id = ? ORDER BY id", ownerID)
	if err != nil || len(boards) == 0 {
		return boards, err
	}

	ids := make([]uint64, len(boards))
	for i, b := range boards {
		ids[i] = b.ID
	}
	q, args, err := sqlx.In("SELECT "+columnColumns+" FROM board_columns WHERE board_id IN (?) ORDER BY board_id, position, id", ids)
	if err != nil {
		return nil, err
	}
	var cols []model.Column
	if err := r.db.SelectContext(ctx, &cols, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	byBoard := make(map[uint64][]model.Column, len(boards))
	for _, c := range cols {
		byBoard[c.BoardID] = append(byBoard[c.BoardID], c)
	}
	for i := range boards {
		boards[i].Columns = byBoard[boards[i].ID]
		if boards[i].Columns == nil {
			boards[i].Columns = []model.Column{}
		}
	}
	return boards, nil
}

// Detail returns a board with all of its columns and tickets.
func (r *BoardRepo) Detail(ctx context.Context, id uint64) (*model.BoardDetail, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &model.BoardDetail{Board: *b}
	d.Columns, err = listColumns(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	d.Tickets, err = listTickets(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Update applies the fields present in p and returns the stored board.
func (r *BoardRepo) Update(ctx context.Context, id uint64, p model.BoardPatch) (*model.Board, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	var s setList
	if p.Name != nil {
		s.add("name", *p.Name)
	}
	if p.Description.Set {
		s.add("description", p.Description.Value)
	}
	if err := s.exec(ctx, r.db, "boards", id, now()); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a board with its columns and tickets.
func (r *BoardRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tickets WHERE board_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM board_columns WHERE board_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM boards WHERE id = ?", id)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}
