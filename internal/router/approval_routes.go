package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/portal-compras-gateway/internal/authz"
	"github.com/iliyamo/portal-compras-gateway/internal/handler"
	"github.com/iliyamo/portal-compras-gateway/internal/middleware"
)

// RegisterApprovals registers the approvals board.
func RegisterApprovals(e *echo.Echo, p Portal, h *handler.ApprovalsHandler) {
	g := p.group(e, "/v1/approvals",
		middleware.RequireLogged(p.PublicPath),
		middleware.RequireFeature(authz.FeatureApprovals),
	)
	g.GET("", h.List)
	g.POST("/tasks/:taskId/answer", h.Answer)
	g.GET("/history", h.ListHistory)
}
