package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/portal-compras-gateway/internal/handler"
	"github.com/iliyamo/portal-compras-gateway/internal/middleware"
)

// RegisterResources registers the CRUD proxy under /v1/resources.  Every
// route requires a session whose features reveal :resource; cache sits
// innermost so it only ever sees authorized requests.
func RegisterResources(e *echo.Echo, p Portal, h *handler.ResourceHandler, cache echo.MiddlewareFunc) {
	g := p.group(e, "/v1/resources",
		middleware.RequireLogged(p.PublicPath),
		middleware.RequireResourceFeature(),
		cache,
	)
	g.GET("/:resource", h.List)
	g.POST("/:resource", h.Create)
	g.GET("/:resource/:id", h.Get)
	g.PUT("/:resource/:id", h.Update)
	g.DELETE("/:resource/:id", h.Delete)
}
