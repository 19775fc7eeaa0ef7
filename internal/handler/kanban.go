package handler

import (
    "context"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kanban-board/internal/authz"
    "github.com/iliyamo/kanban-board/internal/events"
    "github.com/iliyamo/kanban-board/internal/middleware"
    "github.com/iliyamo/kanban-board/internal/model"
    "github.com/iliyamo/kanban-board/internal/repository"
)

// publishTimeout bounds how long a request waits on the broker.
const publishTimeout = 2 * time.Second

// KanbanHandler serves boards, columns and tickets.  Every operation is
// scoped to boards the caller owns; columns and tickets are checked
// through their board.
type KanbanHandler struct {
    Boards  *repository.BoardRepo
    Columns *repository.ColumnRepo
    Tickets *repository.TicketRepo
    Events  events.Publisher
    Timeout time.Duration
}

// NewKanbanHandler constructs a KanbanHandler and panics if a repository
// is missing.  A nil publisher discards events.
func NewKanbanHandler(b *repository.BoardRepo, col *repository.ColumnRepo, t *repository.TicketRepo, pub events.Publisher, timeout time.Duration) *KanbanHandler {
    if b == nil || col == nil || t == nil {
        panic("nil repository passed to NewKanbanHandler")
    }
    if pub == nil {
        pub = events.Nop{}
    }
    return &KanbanHandler{Boards: b, Columns: col, Tickets: t, Events: pub, Timeout: timeout}
}

// ownedBoard loads a board and checks that the caller owns it.
func (h *KanbanHandler) ownedBoard(ctx context.Context, c echo.Context, boardID uint64) (*model.Board, error) {
    b, err := h.Boards.GetByID(ctx, boardID)
    if err != nil {
        return nil, err
    }
    if err := authz.CheckBoardOwner(middleware.CurrentUser(c), b); err != nil {
        return nil, err
    }
    return b, nil
}

// publish sends ev without failing the request; errors are only logged.
func (h *KanbanHandler) publish(c echo.Context, ev events.Event) {
    ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
    defer cancel()
    if err := h.Events.Publish(ctx, ev); err != nil {
        c.Logger().Warnf("events: publish %s failed: %v", ev.Type, err)
    }
}

func (h *KanbanHandler) event(c echo.Context, typ string, boardID uint64) events.Event {
    var uid uint64
    if u := middleware.CurrentUser(c); u != nil {
        uid = u.ID
    }
    return events.New(typ, uid, boardID)
}
