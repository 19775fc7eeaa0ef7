package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kanban-board/internal/events"
    "github.com/iliyamo/kanban-board/internal/middleware"
    "github.com/iliyamo/kanban-board/internal/model"
)

type createBoardReq struct {
    Name        string  `json:"name" validate:"required,max=100"`
    Description *string `json:"description"`
}

func (r *createBoardReq) normalize() { r.Name = strings.TrimSpace(r.Name) }

type updateBoardReq struct {
    Name        *string                `json:"name" validate:"omitnil,min=1,max=100"`
    Description model.Nullable[string] `json:"description"`
}

func (r *updateBoardReq) normalize() {
    if r.Name != nil {
        n := strings.TrimSpace(*r.Name)
        r.Name = &n
    }
}

// ListBoards handles GET /api/boards and returns the caller's boards with
// their columns.
func (h *KanbanHandler) ListBoards(c echo.Context) error {
    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    boards, err := h.Boards.ListByOwner(ctx, middleware.CurrentUser(c).ID)
    if err != nil {
        return respondError(c, err, "board")
    }
    return c.JSON(http.StatusOK, boards)
}

// CreateBoard handles POST /api/boards.  The board starts with the
// default columns.
func (h *KanbanHandler) CreateBoard(c echo.Context) error {
    var req createBoardReq
    if err := decode(c, &req); err != nil {
        return respondError(c, err, "board")
    }
    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    b := &model.Board{Name: req.Name, Description: req.Description, OwnerID: middleware.CurrentUser(c).ID}
    if err := h.Boards.Create(ctx, b); err != nil {
        return respondError(c, err, "board")
    }
    h.publish(c, h.event(c, events.BoardCreated, b.ID))
    return c.JSON(http.StatusOK, b)
}

// GetBoard handles GET /api/boards/:id and returns the board with all of
// its columns and tickets.
func (h *KanbanHandler) GetBoard(c echo.Context) error {
    id, err := parseID(c.Param("id"), "board id")
    if err != nil {
        return respondError(c, err, "board")
    }
    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    if _, err := h.ownedBoard(ctx, c, id); err != nil {
        return respondError(c, err, "board")
    }
    d, err := h.Boards.Detail(ctx, id)
    if err != nil {
        return respondError(c, err, "board")
    }
    return c.JSON(http.StatusOK, d)
}

// UpdateBoard handles PUT /api/boards/:id.  Only fields present in the
// body change.
func (h *KanbanHandler) UpdateBoard(c echo.Context) error {
    id, err := parseID(c.Param("id"), "board id")
    if err != nil {
        return respondError(c, err, "board")
    }
    var req updateBoardReq
    if err := decode(c, &req); err != nil {
        return respondError(c, err, "board")
    }
    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    if _, err := h.ownedBoard(ctx, c, id); err != nil {
        return respondError(c, err, "board")
    }
    b, err := h.Boards.Update(ctx, id, model.BoardPatch{Name: req.Name, Description: req.Description})
    if err != nil {
        return respondError(c, err, "board")
    }
    h.publish(c, h.event(c, events.BoardUpdated, id))
    return c.JSON(http.StatusOK, b)
}

// DeleteBoard handles DELETE /api/boards/:id and removes the board with
// its columns and tickets.
func (h *KanbanHandler) DeleteBoard(c echo.Context) error {
    id, err := parseID(c.Param("id"), "board id")
    if err != nil {
        return respondError(c, err, "board")
    }
    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    if _, err := h.ownedBoard(ctx, c, id); err != nil {
        return respondError(c, err, "board")
    }
    if err := h.Boards.Delete(ctx, id); err != nil {
        return respondError(c, err, "board")
    }
    h.publish(c, h.event(c, events.BoardDeleted, id))
    return deleted(c, "Board")
}
