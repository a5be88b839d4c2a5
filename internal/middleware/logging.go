package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// RequestLogger assigns a request id (keeping a caller-provided one) and
// writes one logrus entry per request once the handler returns.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            id := c.Request().Header.Get(RequestIDHeader)
            if id == "" {
                id = uuid.NewString()
            }
            c.Response().Header().Set(RequestIDHeader, id)

            err := next(c)
            if err != nil {
                // let echo render the error so the logged status is final
                c.Error(err)
            }

            entry := log.WithFields(logrus.Fields{
                "requestId": id,
                "method":    c.Request().Method,
                "route":     c.Path(),
                "status":    c.Response().Status,
                "latencyMs": time.Since(start).Milliseconds(),
                "partition": PartitionID(c),
            })
            if err != nil {
                entry = entry.WithError(err)
            }
            switch {
            case c.Response().Status >= 500:
                entry.Error("request")
            case c.Response().Status >= 400:
                entry.Warn("request")
            default:
                entry.Info("request")
            }
            return nil
        }
    }
}
