package router // package router defines how HTTP routes are registered for the API

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/kanban-board/internal/authz"
	"github.com/iliyamo/kanban-board/internal/config"
	"github.com/iliyamo/kanban-board/internal/handler"
	"github.com/iliyamo/kanban-board/internal/middleware"
)

// ResponseCache wraps GET routes with a per-user cache.  It is satisfied
// by *middleware.ResponseCache.
type ResponseCache interface {
	Middleware() echo.MiddlewareFunc
}

// Deps carries everything the routes need.  RateLimit and Cache may be
// left nil, in which case requests pass through unthrottled and uncached.
type Deps struct {
	DB        *sqlx.DB
	Tokens    middleware.TokenResolver
	Auth      *handler.AuthHandler
	Kanban    *handler.KanbanHandler
	Users     *handler.UserHandler
	RateLimit echo.MiddlewareFunc
	Cache     ResponseCache
}

// New returns a configured Echo instance with every route registered.
func New(cfg config.Config, d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(ParseLevel(cfg.LogLevel))
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	// "/api/boards/" and "/api/boards" reach the same handler
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	var pass echo.MiddlewareFunc = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if d.RateLimit == nil {
		d.RateLimit = pass
	}
	cache := pass
	if d.Cache != nil {
		cache = d.Cache.Middleware()
	}
	auth := middleware.TokenAuth(d.Tokens)

	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, d.RateLimit, auth, cache)
	RegisterKanban(e, d.Kanban, auth, d.RateLimit, cache)
	// user listings are shared between admins, so a per-user cache would
	// serve one admin stale results after another admin's write
	RegisterUsers(e, d.Users, auth, middleware.RequireCapability(authz.CapManageUsers), d.RateLimit)
	return e
}

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance: the banner and the health check.
func RegisterRoutes(e *echo.Echo, db *sqlx.DB) {
	e.GET("/", handler.Root)
	// Used by load balancers or monitoring systems to verify that the
	// service and its database are up.
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the authentication routes under /api/auth.
// Register and login are open; /me runs behind auth and cache, which must
// be the token middleware and the response cache.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limit, auth, cache echo.MiddlewareFunc) {
	g := e.Group("/api/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/me", a.Me, auth, cache)
}

// RegisterKanban registers board, column and ticket routes.  All of them
// run the given middleware chain, which starts with token auth.
func RegisterKanban(e *echo.Echo, k *handler.KanbanHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/api", mw...)

	// ---- Boards ----
	g.GET("/boards", k.ListBoards)
	g.POST("/boards", k.CreateBoard)
	g.GET("/boards/:id", k.GetBoard)
	g.PUT("/boards/:id", k.UpdateBoard)
	g.DELETE("/boards/:id", k.DeleteBoard)

	// ---- Columns ----
	g.GET("/columns", k.ListColumns)
	g.POST("/columns", k.CreateColumn)
	g.PUT("/columns/:id", k.UpdateColumn)
	g.DELETE("/columns/:id", k.DeleteColumn)

	// ---- Tickets ----
	g.GET("/tickets", k.ListTickets)
	g.POST("/tickets", k.CreateTicket)
	g.PUT("/tickets/:id", k.UpdateTicket)
	g.DELETE("/tickets/:id", k.DeleteTicket)
}

// RegisterUsers registers the admin user-management routes.  The chain
// must authenticate and require the users:manage capability, and must not
// include the response cache.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/api/users", mw...)
	g.GET("", u.ListUsers)
	g.POST("", u.CreateUser)
	g.PUT("/:id", u.UpdateUser)
	g.DELETE("/:id", u.DeleteUser)
	g.POST("/:id/reset_password", u.ResetPassword)
}

// ParseLevel maps LOG_LEVEL values onto echo's logger levels.  Unknown
// values mean info.
func ParseLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}

// requestLogger writes one line per request through the echo logger.
func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				c.Logger().Errorf("%s %s %d %s id=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RequestID, v.Error)
				return nil
			}
			c.Logger().Infof("%s %s %d %s id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	})
}
