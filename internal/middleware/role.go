package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/kanban-board/internal/authz"
)

// RequireCapability returns a middleware function that enforces that the
// authenticated user holds capability c.  It assumes TokenAuth ran
// earlier in the chain and stored the user in the context.  Callers
// without the capability get a 403 Forbidden response; a missing
// identity is treated as unauthenticated.
func RequireCapability(c authz.Capability) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(ctx echo.Context) error {
            u := CurrentUser(ctx)
            if u == nil {
                return ctx.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
            }
            if !authz.Can(u, c) {
                return ctx.JSON(http.StatusForbidden, echo.Map{"error": "admin privileges required"})
            }
            return next(ctx)
        }
    }
}
