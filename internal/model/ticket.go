package model

import "time"

// Well-known ticket priorities.  The set is open: any short label is
// accepted and stored as given.
const (
    PriorityLow    = "low"
    PriorityMedium = "medium"
    PriorityHigh   = "high"
)

// Ticket is a card that belongs to one board and exactly one column of
// that board.  Position orders tickets inside their column; new tickets
// always get a position greater than any existing one in the column,
// and gaps left by deletions are never compacted.
type Ticket struct {
    ID          uint64     `db:"id" json:"id"`
    BoardID     uint64     `db:"board_id" json:"board_id"`
    ColumnID    uint64     `db:"column_id" json:"column_id"`
    Title       string     `db:"title" json:"title"`
    Description *string    `db:"description" json:"description"`
    Priority    string     `db:"priority" json:"priority"`
    StartDate   *time.Time `db:"start_date" json:"start_date"`
    DueDate     *time.Time `db:"due_date" json:"due_date"`
    Position    int        `db:"position" json:"position"`
    CreatedAt   time.Time  `db:"created_at" json:"created_at"`
    UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// TicketPatch carries a partial update of a ticket.  Setting ColumnID
// moves the ticket; the target column must belong to the same board.
type TicketPatch struct {
    Title       *string
    Description Nullable[string]
    Priority    *string
    StartDate   Nullable[time.Time]
    DueDate     Nullable[time.Time]
    ColumnID    *uint64
    Position    *int
}
