package model

import (
    "math"
    "time"
)

// DefaultColumnNames lists the lanes created together with every new
// board, in display order.  Their positions are their indexes.
var DefaultColumnNames = []string{"Todo", "In Progress", "Done"}

// DefaultColumnColor is used when a column is created without a color.
const DefaultColumnColor = "slate"

// MaxPosition is the largest column or ticket position.  Positions are
// stored in 32-bit INT columns.
const MaxPosition = math.MaxInt32

// ValidPosition reports whether p can be stored as a position.
func ValidPosition(p int) bool {
    return p >= 0 && p <= MaxPosition
}

// Board is the top-level container owned by exactly one user.  It
// corresponds to a row in the `boards` table.  Columns is populated by
// listing queries and is not a database column.
type Board struct {
    ID          uint64    `db:"id" json:"id"`
    Name        string    `db:"name" json:"name"`
    Description *string   `db:"description" json:"description"`
    OwnerID     uint64    `db:"owner_id" json:"owner_id"`
    CreatedAt   time.Time `db:"created_at" json:"created_at"`
    UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
    Columns     []Column  `db:"-" json:"columns"`
}

// BoardDetail is a board together with all of its columns and tickets.
type BoardDetail struct {
    Board
    Tickets []Ticket `json:"tickets"`
}

// BoardPatch carries a partial update of a board.
type BoardPatch struct {
    Name        *string
    Description Nullable[string]
}

// Column is an ordered lane within a board.  Position defines display
// order and is not required to be contiguous.
type Column struct {
    ID        uint64    `db:"id" json:"id"`
    BoardID   uint64    `db:"board_id" json:"board_id"`
    Name      string    `db:"name" json:"name"`
    Color     string    `db:"color" json:"color"`
    Position  int       `db:"position" json:"position"`
    CreatedAt time.Time `db:"created_at" json:"created_at"`
    UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ColumnPatch carries a partial update of a column.
type ColumnPatch struct {
    Name     *string
    Color    *string
    Position *int
}
