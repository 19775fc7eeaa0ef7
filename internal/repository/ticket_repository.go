package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/kanban-board/internal/lock"
	"github.com/iliyamo/kanban-board/internal/model"
)

const ticketColumns = "id, board_id, column_id, title, description, priority, start_date, due_date, position, created_at, updated_at"

// TicketRepo provides CRUD operations for tickets.  Positions of new
// tickets are computed as one past the highest position in the target
// column; the read and the insert run under a per-column lock inside one
// transaction so concurrent writers never hand out the same position.
type TicketRepo struct {
	db    *sqlx.DB
	locks lock.Locker
}

// NewTicketRepo returns a TicketRepo.  A nil locker falls back to an
// in-process one.
func NewTicketRepo(db *sqlx.DB, locks lock.Locker) *TicketRepo {
	if locks == nil {
		locks = lock.NewMemory()
	}
	return &TicketRepo{db: db, locks: locks}
}

// Create inserts t at the end of its column.  The column must exist on
// t.BoardID, otherwise ErrInvalid is returned.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	t.StartDate, t.DueDate = normTime(t.StartDate), normTime(t.DueDate)

	release, err := r.locks.Lock(ctx, lock.TicketPositionKey(t.ColumnID))
	if err != nil {
		return fmt.Errorf("acquiring position lock: %w", err)
	}
	defer release()

	at := now()
	err = withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := columnOnBoard(ctx, tx, t.ColumnID, t.BoardID); err != nil {
			return err
		}
		pos, err := nextPosition(ctx, tx, t.ColumnID)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO tickets (board_id, column_id, title, description, priority, start_date, due_date, position, created_at, updated_at)
			 VALUES (?,?,?,?,?,?,?,?,?,?)`,
			t.BoardID, t.ColumnID, t.Title, t.Description, t.Priority, t.StartDate, t.DueDate, pos, at, at)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		t.ID = uint64(id)
		t.Position = pos
		return nil
	})
	if err != nil {
		return err
	}
	t.CreatedAt, t.UpdatedAt = at, at
	return nil
}

// GetByID fetches a ticket by id.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	err := r.db.GetContext(ctx, &t, "SELECT "+ticketColumns+" FROM tickets WHERE id = ? LIMIT 1", id)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// ListByBoard returns the tickets of a board grouped by column and ordered
// by position within each column.
func (r *TicketRepo) ListByBoard(ctx context.Context, boardID uint64) ([]model.Ticket, error) {
	return listTickets(ctx, r.db, boardID)
}

// Update applies the fields present in p and returns the stored ticket.
// Moving the ticket to another column of its board without an explicit
// position appends it to the end of that column.
func (r *TicketRepo) Update(ctx context.Context, id uint64, p model.TicketPatch) (*model.Ticket, error) {
	if p.Position != nil {
		if err := checkPosition(*p.Position); err != nil {
			return nil, err
		}
	}
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	moving := p.ColumnID != nil && *p.ColumnID != cur.ColumnID
	if moving {
		release, err := r.locks.Lock(ctx, lock.TicketPositionKey(*p.ColumnID))
		if err != nil {
			return nil, fmt.Errorf("acquiring position lock: %w", err)
		}
		defer release()
	}

	err = withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var s setList
		if p.Title != nil {
			s.add("title", *p.Title)
		}
		if p.Description.Set {
			s.add("description", p.Description.Value)
		}
		if p.Priority != nil {
			s.add("priority", *p.Priority)
		}
		if p.StartDate.Set {
			s.add("start_date", normTime(p.StartDate.Value))
		}
		if p.DueDate.Set {
			s.add("due_date", normTime(p.DueDate.Value))
		}
		if moving {
			if err := columnOnBoard(ctx, tx, *p.ColumnID, cur.BoardID); err != nil {
				return err
			}
			s.add("column_id", *p.ColumnID)
			if p.Position == nil {
				pos, err := nextPosition(ctx, tx, *p.ColumnID)
				if err != nil {
					return err
				}
				s.add("position", pos)
			}
		}
		if p.Position != nil {
			s.add("position", *p.Position)
		}
		return s.exec(ctx, tx, "tickets", id, now())
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a ticket.  Positions of the remaining tickets are left
// untouched.
func (r *TicketRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tickets WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func listTickets(ctx context.Context, q sqlx.QueryerContext, boardID uint64) ([]model.Ticket, error) {
	tickets := []model.Ticket{}
	err := sqlx.SelectContext(ctx, q, &tickets,
		"SELECT "+ticketColumns+" FROM tickets WHERE board_id = ? ORDER BY column_id, position, id", boardID)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// nextPosition returns one past the highest position in a column, 1 for
// an empty column.  A column whose highest position is MaxPosition has no
// room left at the end and yields ErrInvalid.
func nextPosition(ctx context.Context, tx *sqlx.Tx, columnID uint64) (int, error) {
	var top int64
	err := tx.GetContext(ctx, &top, "SELECT COALESCE(MAX(position), 0) FROM tickets WHERE column_id = ?", columnID)
	if err != nil {
		return 0, err
	}
	if top >= model.MaxPosition {
		return 0, fmt.Errorf("%w: column %d has no free position at the end", ErrInvalid, columnID)
	}
	return int(top) + 1, nil
}

// columnOnBoard checks that columnID names a column of boardID.
func columnOnBoard(ctx context.Context, tx *sqlx.Tx, columnID, boardID uint64) error {
	var owner uint64
	err := tx.GetContext(ctx, &owner, "SELECT board_id FROM board_columns WHERE id = ?", columnID)
	if err != nil {
		if notFound(err) == ErrNotFound {
			return fmt.Errorf("%w: column %d does not exist", ErrInvalid, columnID)
		}
		return err
	}
	if owner != boardID {
		return fmt.Errorf("%w: column %d does not belong to board %d", ErrInvalid, columnID, boardID)
	}
	return nil
}
