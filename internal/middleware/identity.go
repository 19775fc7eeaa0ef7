package middleware

// identity.go defines helper functions shared across middleware files. It
// provides the identifier used to key per-user rate limit buckets and cache
// entries. When no user is authenticated, "guest" is returned.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// userID returns the authenticated user's id as a string, or "guest".
func userID(c echo.Context) string {
    if u := CurrentUser(c); u != nil {
        return strconv.FormatUint(u.ID, 10)
    }
    return "guest"
}
