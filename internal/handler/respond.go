package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/pkg/errors"

    "github.com/iliyamo/portal-compras-gateway/internal/backend"
    "github.com/iliyamo/portal-compras-gateway/internal/metrics"
    "github.com/iliyamo/portal-compras-gateway/internal/session"
)

// FallbackMessage is shown when an upstream failure carries no message.
const FallbackMessage = "Erro inesperado, contate o suporte."

// manager returns the auth state installed by middleware.Session.
func manager(c echo.Context) *session.Manager {
    return session.FromContext(c.Request().Context())
}

// upstreamFailure answers an upstream error.  A 401 signs the browser out
// and tells it to go to publicPath; it is never retried.  Anything else is
// a 502 carrying the server's message or FallbackMessage.
func upstreamFailure(c echo.Context, publicPath string, err error) error {
    if errors.Is(err, backend.ErrUnauthorized) {
        if m := manager(c); m.Logged() {
            m.SignOut(c.Request().Context())
            metrics.SignOut("unauthorized")
        }
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "redirect": publicPath})
    }
    c.Logger().Warnf("upstream failure on %s %s: %v", c.Request().Method, c.Path(), err)
    msg := backend.ServerMessage(err)
    if msg == "" {
        msg = FallbackMessage
    }
    return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream_error", "message": msg})
}

// invalid answers a form error map.
func invalid(c echo.Context, fields map[string]string) error {
    return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": fields})
}
