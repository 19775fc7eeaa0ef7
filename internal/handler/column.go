package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kanban-board/internal/events"
    "github.com/iliyamo/kanban-board/internal/model"
)

type createColumnReq struct {
    BoardID  uint64  `json:"board_id" validate:"required"`
    Name     string  `json:"name" validate:"required,max=100"`
    Color    *string `json:"color" validate:"omitnil,max=20"`
    Position *int    `json:"position" validate:"omitnil,min=0,max=2147483647"`
}

func (r *createColumnReq) normalize() { r.Name = strings.TrimSpace(r.Name) }

type updateColumnReq struct {
    Name     *string `json:"name" validate:"omitnil,min=1,max=100"`
    Color    *string `json:"color" validate:"omitnil,min=1,max=20"`
    Position *int    `json:"position" validate:"omitnil,min=0,max=2147483647"`
}

func (r *updateColumnReq) normalize() {
    if r.Name != nil {
        n := strings.TrimSpace(*r.Name)
        r.Name = &n
    }
}

// ListColumns handles GET /api/columns?board_id= and returns the columns
// of an owned board in display order.
func (h *KanbanHandler) ListColumns(c echo.Context) error {
    boardID, err := parseID(c.QueryParam("board_id"), "board_id")
    if err != nil {
        return respondError(c, err, "board")
    }
    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    if _, err := h.ownedBoard(ctx, c, boardID); err != nil {
        return respondError(c, err, "board")
    }
    cols, err := h.Columns.ListByBoard(ctx, boardID)
    if err != nil {
        return respondError(c, err, "column")
    }
    return c.JSON(http.StatusOK, cols)
}

// CreateColumn handles POST /api/columns.  Position defaults to 0 and
// color to the default palette entry.
func (h *KanbanHandler) CreateColumn(c echo.Context) error {
    var req createColumnReq
    if err := decode(c, &req); err != nil {
        return respondError(c, err, "column")
    }
    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    if _, err := h.ownedBoard(ctx, c, req.BoardID); err != nil {
        return respondError(c, err, "board")
    }
    col := &model.Column{BoardID: req.BoardID, Name: req.Name}
    if req.Color != nil {
        col.Color = strings.TrimSpace(*req.Color)
    }
    if req.Position != nil {
        col.Position = *req.Position
    }
    if err := h.Columns.Create(ctx, col); err != nil {
        return respondError(c, err, "column")
    }
    h.publish(c, h.event(c, events.ColumnCreated, col.BoardID).WithColumn(col.ID))
    return c.JSON(http.StatusOK, col)
}

// UpdateColumn handles PUT /api/columns/:id.
func (h *KanbanHandler) UpdateColumn(c echo.Context) error {
    id, err := parseID(c.Param("id"), "column id")
    if err != nil {
        return respondError(c, err, "column")
    }
    var req updateColumnReq
    if err := decode(c, &req); err != nil {
        return respondError(c, err, "column")
    }
    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    col, err := h.Columns.GetByID(ctx, id)
    if err != nil {
        return respondError(c, err, "column")
    }
    if _, err := h.ownedBoard(ctx, c, col.BoardID); err != nil {
        return respondError(c, err, "board")
    }
    col, err = h.Columns.Update(ctx, id, model.ColumnPatch{Name: req.Name, Color: req.Color, Position: req.Position})
    if err != nil {
        return respondError(c, err, "column")
    }
    h.publish(c, h.event(c, events.ColumnUpdated, col.BoardID).WithColumn(col.ID))
    return c.JSON(http.StatusOK, col)
}

// DeleteColumn handles DELETE /api/columns/:id and removes the column
// with its tickets.
func (h *KanbanHandler) DeleteColumn(c echo.Context) error {
    id, err := parseID(c.Param("id"), "column id")
    if err != nil {
        return respondError(c, err, "column")
    }
    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    col, err := h.Columns.GetByID(ctx, id)
    if err != nil {
        return respondError(c, err, "column")
    }
    if _, err := h.ownedBoard(ctx, c, col.BoardID); err != nil {
        return respondError(c, err, "board")
    }
    if err := h.Columns.Delete(ctx, id); err != nil {
        return respondError(c, err, "column")
    }
    h.publish(c, h.event(c, events.ColumnDeleted, col.BoardID).WithColumn(id))
    return deleted(c, "Column")
}
