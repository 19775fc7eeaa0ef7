// Package events publishes domain events about board changes to RabbitMQ
// and reads them back.  Publishing is best effort: a broker outage never
// fails the request that produced the event.
package events

import (
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"
)

// Event types.
const (
    BoardCreated  = "board.created"
    BoardUpdated  = "board.updated"
    BoardDeleted  = "board.deleted"
    ColumnCreated = "column.created"
    ColumnUpdated = "column.updated"
    ColumnDeleted = "column.deleted"
    TicketCreated = "ticket.created"
    TicketUpdated = "ticket.updated"
    TicketMoved   = "ticket.moved"
    TicketDeleted = "ticket.deleted"
)

// Event describes a change on a board.  ColumnID and TicketID are set for
// events about those entities only.
type Event struct {
    ID         string    `json:"id"`
    Type       string    `json:"type"`
    UserID     uint64    `json:"user_id"`
    BoardID    uint64    `json:"board_id"`
    ColumnID   *uint64   `json:"column_id,omitempty"`
    TicketID   *uint64   `json:"ticket_id,omitempty"`
    OccurredAt time.Time `json:"occurred_at"`
}

// New returns an event of type typ stamped with a fresh id and the current
// time.
func New(typ string, userID, boardID uint64) Event {
    return Event{
        ID:         uuid.NewString(),
        Type:       typ,
        UserID:     userID,
        BoardID:    boardID,
        OccurredAt: time.Now().UTC(),
    }
}

// WithColumn sets the column the event refers to.
func (e Event) WithColumn(id uint64) Event {
    e.ColumnID = &id
    return e
}

// WithTicket sets the ticket the event refers to.
func (e Event) WithTicket(id uint64) Event {
    e.TicketID = &id
    return e
}

// String renders the event as a single log line.
func (e Event) String() string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s | id=%s | user_id=%d | board_id=%d",
        e.OccurredAt.Format(time.RFC3339), e.Type, e.ID, e.UserID, e.BoardID)
    if e.ColumnID != nil {
        fmt.Fprintf(&b, " | column_id=%d", *e.ColumnID)
    }
    if e.TicketID != nil {
        fmt.Fprintf(&b, " | ticket_id=%d", *e.TicketID)
    }
    return b.String()
}
