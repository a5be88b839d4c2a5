package middleware

// identity.go defines helper functions shared across middleware files: the
// partition id set by Partition and the signed-in username kept by the
// session manager.  Both fall back to a fixed value so keys built from them
// are never empty.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/portal-compras-gateway/internal/session"
)

// PartitionID returns the partition id stored by Partition, or "none".
func PartitionID(c echo.Context) string {
    if v, ok := c.Get(ctxPartitionID).(string); ok && v != "" {
        return v
    }
    return "none"
}

// userID returns the username of the signed-in user, or "anon" when the
// request has no session manager or the session is anonymous.
func userID(c echo.Context) string {
    m, ok := session.Lookup(c.Request().Context())
    if !ok || !m.Logged() {
        return "anon"
    }
    if u := m.User().Username; u != "" {
        return u
    }
    return "anon"
}
