package router // package router defines how HTTP routes are registered for the gateway

import (
	"time"

	"github.com/labstack/echo/v4"                               // import the Echo web framework to handle routing
	"github.com/prometheus/client_golang/prometheus/promhttp" // metrics exposition
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/portal-compras-gateway/internal/handler"    // handlers implementing each endpoint
	"github.com/iliyamo/portal-compras-gateway/internal/middleware" // partition, session and feature middleware
	"github.com/iliyamo/portal-compras-gateway/internal/session"
	"github.com/iliyamo/portal-compras-gateway/internal/store"
)

// Portal holds what every browser-facing group needs to resolve the
// caller's partition and session.
type Portal struct {
	Secret       string
	SessionTTL   time.Duration
	CookieSecure bool
	Backend      store.Backend
	Auth         session.Authenticator
	PublicPath   string
	Log          logrus.FieldLogger
}

// group mounts prefix behind the partition cookie and the session
// middleware, followed by mw.
func (p Portal) group(e *echo.Echo, prefix string, mw ...echo.MiddlewareFunc) *echo.Group {
	chain := []echo.MiddlewareFunc{
		middleware.Partition(p.Secret, p.SessionTTL, p.CookieSecure, p.Log),
		middleware.Session(p.Backend, p.Auth, p.Log),
	}
	return e.Group(prefix, append(chain, mw...)...)
}

// RegisterRoutes registers routes that do not belong to a browser session:
// health checks and metrics.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Live)
	e.GET("/readyz", h.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers sign-in and sign-out.  limiter guards sign-in only.
func RegisterAuth(e *echo.Echo, p Portal, h *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := p.group(e, "/v1/auth")
	g.POST("/sign-in", h.SignIn, limiter)
	g.POST("/sign-out", h.SignOut)
}
