package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context

    "github.com/iliyamo/portal-compras-gateway/internal/authz"
    "github.com/iliyamo/portal-compras-gateway/internal/session"
)

// RequireLogged rejects anonymous sessions with 401 and tells the browser
// where to go: the public entry route.
func RequireLogged(publicPath string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !session.FromContext(c.Request().Context()).Logged() {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "redirect": publicPath})
            }
            return next(c)
        }
    }
}

// RequireFeature answers 404 when the session's resources do not grant
// feature.  Invisible features look like routes that do not exist, never
// like forbidden ones.
func RequireFeature(feature authz.Feature) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !session.FromContext(c.Request().Context()).Gate().Visible(feature) {
                return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
            }
            return next(c)
        }
    }
}

// RequireResourceFeature is RequireFeature for routes with a :resource
// parameter.  Unknown resource names also answer 404.
func RequireResourceFeature() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            f, ok := authz.ResourceFeature(c.Param("resource"))
            if !ok || !session.FromContext(c.Request().Context()).Gate().Visible(f) {
                return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
            }
            return next(c)
        }
    }
}
