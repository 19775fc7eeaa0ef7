package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "net/http" // net/http provides status codes and response helpers
    "time"

    "github.com/jmoiron/sqlx"
    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health returns a health-check endpoint used by load balancers and
// monitoring systems.  It reports 200 when the database answers a ping
// within two seconds and 503 otherwise.
func Health(db *sqlx.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            c.Logger().Warnf("health: database ping failed: %v", err)
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
        }
        return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
    }
}

// Root is the banner served at "/".
func Root(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"message": "Kanban API is running"})
}
