package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/kanban-board/internal/model"
    "github.com/iliyamo/kanban-board/internal/repository"
    "github.com/iliyamo/kanban-board/internal/utils"
)

// userKey is the echo context key holding the authenticated *model.User.
const userKey = "user"

// TokenResolver maps a raw access token to its owner.  It is satisfied by
// *repository.TokenRepo.
type TokenResolver interface {
    Resolve(ctx context.Context, raw string) (*model.User, error)
}

// TokenAuth returns an Echo middleware that validates the access token in
// the Authorization header and stores the owning user in the request
// context.  The header may carry "Token <value>", "Bearer <value>" or the
// bare value.  Missing, malformed or unknown tokens are rejected with 401
// before the handler runs.
func TokenAuth(tokens TokenResolver) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            header := c.Request().Header.Get(echo.HeaderAuthorization)
            if header == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
            }
            raw, ok := utils.ParseAuthorization(header)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization header"})
            }
            u, err := tokens.Resolve(c.Request().Context(), raw)
            if err != nil {
                if errors.Is(err, repository.ErrNotFound) {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
                }
                c.Logger().Errorf("resolving token: %v", err)
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
            }
            // Downstream handlers read the identity via CurrentUser(c).
            c.Set(userKey, u)
            return next(c)
        }
    }
}

// CurrentUser returns the user stored by TokenAuth, or nil on routes that
// are not behind it.
func CurrentUser(c echo.Context) *model.User {
    u, _ := c.Get(userKey).(*model.User)
    return u
}
