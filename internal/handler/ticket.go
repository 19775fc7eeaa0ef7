package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kanban-board/internal/events"
    "github.com/iliyamo/kanban-board/internal/model"
)

type createTicketReq struct {
    BoardID     uint64     `json:"board_id" validate:"required"`
    ColumnID    uint64     `json:"column_id" validate:"required"`
    Title       string     `json:"title" validate:"required,max=255"`
    Description *string    `json:"description"`
    Priority    *string    `json:"priority" validate:"omitnil,min=1,max=20"`
    StartDate   *time.Time `json:"start_date"`
    DueDate     *time.Time `json:"due_date"`
}

func (r *createTicketReq) normalize() { r.Title = strings.TrimSpace(r.Title) }

type updateTicketReq struct {
    Title       *string                   `json:"title" validate:"omitnil,min=1,max=255"`
    Description model.Nullable[string]    `json:"description"`
    Priority    *string                   `json:"priority" validate:"omitnil,min=1,max=20"`
    StartDate   model.Nullable[time.Time] `json:"start_date"`
    DueDate     model.Nullable[time.Time] `json:"due_date"`
    ColumnID    *uint64                   `json:"column_id" validate:"omitnil,min=1"`
    Position    *int                      `json:"position" validate:"omitnil,min=0,max=2147483647"`
}

func (r *updateTicketReq) normalize() {
    if r.Title != nil {
        t := strings.TrimSpace(*r.Title)
        r.Title = &t
    }
}

// ListTickets handles GET /api/tickets?board_id= and returns the tickets
// of an owned board ordered by column and position.
func (h *KanbanHandler) ListTickets(c echo.Context) error {
    boardID, err := parseID(c.QueryParam("board_id"), "board_id")
    if err != nil {
        return respondError(c, err, "board")
    }
    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    if _, err := h.ownedBoard(ctx, c, boardID); err != nil {
        return respondError(c, err, "board")
    }
    tickets, err := h.Tickets.ListByBoard(ctx, boardID)
    if err != nil {
        return respondError(c, err, "ticket")
    }
    return c.JSON(http.StatusOK, tickets)
}

// CreateTicket handles POST /api/tickets.  The ticket is appended to the
// end of its column, which must belong to the given board.
func (h *KanbanHandler) CreateTicket(c echo.Context) error {
    var req createTicketReq
    if err := decode(c, &req); err != nil {
        return respondError(c, err, "ticket")
    }
    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    if _, err := h.ownedBoard(ctx, c, req.BoardID); err != nil {
        return respondError(c, err, "board")
    }
    t := &model.Ticket{
        BoardID:     req.BoardID,
        ColumnID:    req.ColumnID,
        Title:       req.Title,
        Description: req.Description,
        StartDate:   req.StartDate,
        DueDate:     req.DueDate,
    }
    if req.Priority != nil {
        t.Priority = *req.Priority
    }
    if err := h.Tickets.Create(ctx, t); err != nil {
        return respondError(c, err, "ticket")
    }
    h.publish(c, h.event(c, events.TicketCreated, t.BoardID).WithColumn(t.ColumnID).WithTicket(t.ID))
    return c.JSON(http.StatusOK, t)
}

// UpdateTicket handles PUT /api/tickets/:id.  Setting column_id moves the
// ticket within its board.
func (h *KanbanHandler) UpdateTicket(c echo.Context) error {
    id, err := parseID(c.Param("id"), "ticket id")
    if err != nil {
        return respondError(c, err, "ticket")
    }
    var req updateTicketReq
    if err := decode(c, &req); err != nil {
        return respondError(c, err, "ticket")
    }
    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    cur, err := h.Tickets.GetByID(ctx, id)
    if err != nil {
        return respondError(c, err, "ticket")
    }
    if _, err := h.ownedBoard(ctx, c, cur.BoardID); err != nil {
        return respondError(c, err, "board")
    }
    t, err := h.Tickets.Update(ctx, id, model.TicketPatch{
        Title:       req.Title,
        Description: req.Description,
        Priority:    req.Priority,
        StartDate:   req.StartDate,
        DueDate:     req.DueDate,
        ColumnID:    req.ColumnID,
        Position:    req.Position,
    })
    if err != nil {
        return respondError(c, err, "ticket")
    }
    typ := events.TicketUpdated
    if t.ColumnID != cur.ColumnID {
        typ = events.TicketMoved
    }
    h.publish(c, h.event(c, typ, t.BoardID).WithColumn(t.ColumnID).WithTicket(t.ID))
    return c.JSON(http.StatusOK, t)
}

// DeleteTicket handles DELETE /api/tickets/:id.
func (h *KanbanHandler) DeleteTicket(c echo.Context) error {
    id, err := parseID(c.Param("id"), "ticket id")
    if err != nil {
        return respondError(c, err, "ticket")
    }
    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    t, err := h.Tickets.GetByID(ctx, id)
    if err != nil {
        return respondError(c, err, "ticket")
    }
    if _, err := h.ownedBoard(ctx, c, t.BoardID); err != nil {
        return respondError(c, err, "board")
    }
    if err := h.Tickets.Delete(ctx, id); err != nil {
        return respondError(c, err, "ticket")
    }
    h.publish(c, h.event(c, events.TicketDeleted, t.BoardID).WithColumn(t.ColumnID).WithTicket(id))
    return deleted(c, "Ticket")
}
