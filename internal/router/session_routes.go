package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/portal-compras-gateway/internal/handler"
	"github.com/iliyamo/portal-compras-gateway/internal/middleware"
)

// RegisterSession registers the session endpoints.  Reading the session and
// the menu works for anonymous browsers too; changing it requires one.
func RegisterSession(e *echo.Echo, p Portal, h *handler.SessionHandler) {
	g := p.group(e, "/v1/session")
	g.GET("", h.Get)
	g.GET("/features", h.Features)

	logged := middleware.RequireLogged(p.PublicPath)
	g.PUT("/head-office", h.ChangeHeadOffice, logged)
	g.POST("/refresh", h.Refresh, logged)
}
