package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kanban-board/internal/config"
    "github.com/iliyamo/kanban-board/internal/middleware"
    "github.com/iliyamo/kanban-board/internal/model"
    "github.com/iliyamo/kanban-board/internal/repository"
    "github.com/iliyamo/kanban-board/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users      *repository.UserRepo
	Tokens     *repository.TokenRepo
	BcryptCost int
	Timeout    time.Duration
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Users: u, Tokens: t, BcryptCost: cfg.BcryptCost, Timeout: cfg.DBTimeout}
}

// ----- DTOs -----

type registerReq struct {
	Username string  `json:"username" validate:"required,max=50"`
	Password string  `json:"password" validate:"required,max=72"`
	Name     string  `json:"name" validate:"required,max=100"`
	Email    *string `json:"email" validate:"omitnil,max=255"`
}

func (r *registerReq) normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Name = strings.TrimSpace(r.Name)
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResp struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *model.User `json:"user"`
}

// Register creates a regular user account.  It does not log the user in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := decode(c, &req); err != nil {
		return respondError(c, err, "user")
	}
	hash, err := hashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return respondError(c, err, "user")
	}

	ctx, cancel := dbContext(c, h.Timeout)
	defer cancel()

	u := &model.User{Username: req.Username, PasswordHash: hash, Name: req.Name, Email: req.Email, Role: model.RoleUser}
	if err := h.Users.Create(ctx, u); err != nil {
		return respondError(c, err, "user")
	}
	return c.JSON(http.StatusOK, u)
}

// Login verifies the credentials and issues a new access token.  Earlier
// tokens of the user remain valid.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := decode(c, &req); err != nil {
		return respondError(c, err, "user")
	}

	ctx, cancel := dbContext(c, h.Timeout)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil && err != repository.ErrNotFound {
		return respondError(c, err, "user")
	}
	// unknown user and wrong password look the same to the client
	if u == nil || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "incorrect username or password"})
	}

	token, err := h.Tokens.Issue(ctx, u.ID)
	if err != nil {
		return respondError(c, err, "user")
	}
	return c.JSON(http.StatusOK, loginResp{AccessToken: token, TokenType: "token", User: u})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.CurrentUser(c))
}
