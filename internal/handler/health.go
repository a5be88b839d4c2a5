package handler // declare the package name; contains HTTP handlers

import (
    "context"      // bounded dependency checks
    "database/sql" // audit database handle
    "net/http"     // status codes
    "time"

    "github.com/labstack/echo/v4"  // echo is the web framework used for this project
    "github.com/redis/go-redis/v9" // session store connection
)

// HealthHandler answers load balancer health checks.  Nil dependencies are not
// configured and are reported as "disabled".
type HealthHandler struct {
    Redis *redis.Client
    DB    *sql.DB
}

// Live answers "ok" while the process serves requests.
func (h *HealthHandler) Live(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready pings Redis and the audit database.  Redis being down degrades the
// gateway to in-memory sessions, so only the database makes it unready.
func (h *HealthHandler) Ready(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()

    checks := echo.Map{"redis": "disabled", "database": "disabled"}
    status := http.StatusOK
    if h.Redis != nil {
        checks["redis"] = "ok"
        if err := h.Redis.Ping(ctx).Err(); err != nil {
            checks["redis"] = "degraded"
        }
    }
    if h.DB != nil {
        checks["database"] = "ok"
        if err := h.DB.PingContext(ctx); err != nil {
            checks["database"] = "down"
            status = http.StatusServiceUnavailable
        }
    }
    return c.JSON(status, checks)
}
