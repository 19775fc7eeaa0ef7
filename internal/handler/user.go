package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kanban-board/internal/config"
    "github.com/iliyamo/kanban-board/internal/middleware"
    "github.com/iliyamo/kanban-board/internal/model"
    "github.com/iliyamo/kanban-board/internal/repository"
)

// Paging bounds for GET /api/users.
const (
    defaultUserLimit = 100
    maxUserLimit     = 500
)

// CacheInvalidator drops cached responses of a user.  It is satisfied by
// *middleware.ResponseCache.
type CacheInvalidator interface {
    Invalidate(ctx context.Context, uid uint64) error
}

// UserHandler serves the admin user-management endpoints.  The routes are
// guarded by the users:manage capability, so handlers assume an admin
// caller.
type UserHandler struct {
    Users      *repository.UserRepo
    Cache      CacheInvalidator
    BcryptCost int
    Timeout    time.Duration
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, cache CacheInvalidator) *UserHandler {
    return &UserHandler{Users: u, Cache: cache, BcryptCost: cfg.BcryptCost, Timeout: cfg.DBTimeout}
}

type createUserReq struct {
    Username string  `json:"username" validate:"required,max=50"`
    Password string  `json:"password" validate:"required,max=72"`
    Name     string  `json:"name" validate:"required,max=100"`
    Email    *string `json:"email" validate:"omitnil,max=255"`
    Role     *string `json:"role" validate:"omitnil,oneof=user admin"`
}

func (r *createUserReq) normalize() {
    r.Username = strings.TrimSpace(r.Username)
    r.Name = strings.TrimSpace(r.Name)
}

type updateUserReq struct {
    Name  *string                `json:"name" validate:"omitnil,min=1,max=100"`
    Email model.Nullable[string] `json:"email" validate:"omitempty,max=255"`
    Role  *string                `json:"role" validate:"omitnil,oneof=user admin"`
}

func (r *updateUserReq) normalize() {
    if r.Name != nil {
        n := strings.TrimSpace(*r.Name)
        r.Name = &n
    }
}

type resetPasswordReq struct {
    Password string `json:"password" validate:"required,max=72"`
}

// ListUsers handles GET /api/users?skip=&limit=.
func (h *UserHandler) ListUsers(c echo.Context) error {
    skip, err := queryInt(c, "skip", 0)
    if err != nil || skip < 0 {
        return respondError(c, badRequest("invalid skip"), "user")
    }
    limit, err := queryInt(c, "limit", defaultUserLimit)
    if err != nil || limit < 1 {
        return respondError(c, badRequest("invalid limit"), "user")
    }
    if limit > maxUserLimit {
        limit = maxUserLimit
    }

    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    users, err := h.Users.List(ctx, skip, limit)
    if err != nil {
        return respondError(c, err, "user")
    }
    return c.JSON(http.StatusOK, users)
}

// CreateUser handles POST /api/users.  Unlike registration the admin may
// choose the role.
func (h *UserHandler) CreateUser(c echo.Context) error {
    var req createUserReq
    if err := decode(c, &req); err != nil {
        return respondError(c, err, "user")
    }
    hash, err := hashPassword(req.Password, h.BcryptCost)
    if err != nil {
        return respondError(c, err, "user")
    }
    u := &model.User{Username: req.Username, PasswordHash: hash, Name: req.Name, Email: req.Email, Role: model.RoleUser}
    if req.Role != nil {
        u.Role = *req.Role
    }

    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    if err := h.Users.Create(ctx, u); err != nil {
        return respondError(c, err, "user")
    }
    return c.JSON(http.StatusOK, u)
}

// UpdateUser handles PUT /api/users/:id.
func (h *UserHandler) UpdateUser(c echo.Context) error {
    id, err := parseID(c.Param("id"), "user id")
    if err != nil {
        return respondError(c, err, "user")
    }
    var req updateUserReq
    if err := decode(c, &req); err != nil {
        return respondError(c, err, "user")
    }

    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    u, err := h.Users.Update(ctx, id, model.UserPatch{Name: req.Name, Email: req.Email, Role: req.Role})
    if err != nil {
        return respondError(c, err, "user")
    }
    h.invalidate(c, id)
    return c.JSON(http.StatusOK, u)
}

// DeleteUser handles DELETE /api/users/:id.  Admins cannot delete their
// own account.
func (h *UserHandler) DeleteUser(c echo.Context) error {
    id, err := parseID(c.Param("id"), "user id")
    if err != nil {
        return respondError(c, err, "user")
    }
    if me := middleware.CurrentUser(c); me != nil && me.ID == id {
        return respondError(c, badRequest("cannot delete yourself"), "user")
    }

    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    if err := h.Users.Delete(ctx, id); err != nil {
        return respondError(c, err, "user")
    }
    h.invalidate(c, id)
    return deleted(c, "User")
}

// ResetPassword handles POST /api/users/:id/reset_password.  Existing
// tokens of the user stay valid.
func (h *UserHandler) ResetPassword(c echo.Context) error {
    id, err := parseID(c.Param("id"), "user id")
    if err != nil {
        return respondError(c, err, "user")
    }
    var req resetPasswordReq
    if err := decode(c, &req); err != nil {
        return respondError(c, err, "user")
    }
    hash, err := hashPassword(req.Password, h.BcryptCost)
    if err != nil {
        return respondError(c, err, "user")
    }

    ctx, cancel := dbContext(c, h.Timeout)
    defer cancel()

    if err := h.Users.SetPassword(ctx, id, hash); err != nil {
        return respondError(c, err, "user")
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Password reset successfully"})
}

func (h *UserHandler) invalidate(c echo.Context, uid uint64) {
    if h.Cache == nil {
        return
    }
    if err := h.Cache.Invalidate(c.Request().Context(), uid); err != nil {
        c.Logger().Warnf("[cache] invalidate user=%d: %v", uid, err)
    }
}

func queryInt(c echo.Context, name string, def int) (int, error) {
    raw := c.QueryParam(name)
    if raw == "" {
        return def, nil
    }
    return strconv.Atoi(raw)
}
