package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // cookie helpers
    "time"     // cookie lifetime

    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
    "github.com/sirupsen/logrus"   // structured logging

    "github.com/iliyamo/portal-compras-gateway/internal/utils"
)

// PartitionCookie names the cookie that carries the signed partition token.
const PartitionCookie = "portal_sid"

// ctxPartitionID is the echo context key holding the partition id.
const ctxPartitionID = "partition_id"

// Partition returns an Echo middleware that gives every browser its own
// storage partition.  The partition id travels in a signed, HttpOnly cookie;
// a missing, expired or tampered cookie is replaced by a brand new partition,
// which is the gateway's equivalent of an empty session storage.  The id is
// stored in the context under "partition_id".
func Partition(secret string, ttl time.Duration, secure bool, log logrus.FieldLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // Try the cookie first.  Any parse failure falls through to
            // issuing a new partition.
            if ck, err := c.Cookie(PartitionCookie); err == nil && ck.Value != "" {
                if id, err := utils.ParsePartitionToken(secret, ck.Value); err == nil {
                    c.Set(ctxPartitionID, id)
                    return next(c)
                }
                log.WithField("ip", c.RealIP()).Debug("partition cookie rejected, issuing a new one")
            }

            tok, err := utils.NewPartitionToken(secret, ttl)
            if err != nil {
                log.WithError(err).Error("issue partition")
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start session"})
            }
            c.SetCookie(&http.Cookie{
                Name:     PartitionCookie,
                Value:    tok.Token,
                Path:     "/",
                Expires:  tok.Exp,
                HttpOnly: true,
                Secure:   secure,
                SameSite: http.SameSiteLaxMode,
            })
            c.Set(ctxPartitionID, tok.ID)
            return next(c)
        }
    }
}
