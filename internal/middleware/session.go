package middleware

import (
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/portal-compras-gateway/internal/session"
    "github.com/iliyamo/portal-compras-gateway/internal/store"
)

// ReloadHeader tells the browser to reload the whole application.
const ReloadHeader = "X-Portal-Reload"

// Session builds the auth state of the request's partition and installs it
// in the request context, where handlers read it with session.FromContext.
// It must run after Partition.  Restarting the shell marks the response
// with ReloadHeader; handlers call Restart before writing the body.
func Session(backend store.Backend, auth session.Authenticator, log logrus.FieldLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            req := c.Request()
            ctx := req.Context()
            partition := PartitionID(c)

            shell := session.ShellFunc(func() {
                c.Response().Header().Set(ReloadHeader, "true")
            })
            st := store.New(backend, partition, log)
            mgr := session.NewManager(st, auth, shell, log.WithField("partition", partition))
            mgr.Load(ctx)

            c.SetRequest(req.WithContext(session.WithManager(ctx, mgr)))
            return next(c)
        }
    }
}
