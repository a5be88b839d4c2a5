package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/portal-compras-gateway/internal/config"
    "github.com/iliyamo/portal-compras-gateway/internal/session"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if cw.limit <= 0 || cw.size+int64(len(b)) <= cw.limit {
        cw.buf.Write(b)
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// truncated reports whether the body outgrew the capture limit.
func (cw *captureWriter) truncated() bool { return cw.limit > 0 && cw.size > cw.limit }

// resourcePrefix is the key prefix of every cached list of one resource in
// one partition.  Writes to the resource drop everything under it.
func resourcePrefix(cfg config.CacheConfig, partition, resource string) string {
    return strings.Join([]string{cfg.Prefix, partition, resource}, ":")
}

// cacheKey scopes a list response to partition, resource, sign-in, current
// head office and query string.  A new sign-in on the same partition never
// reads what an earlier one cached.
func cacheKey(cfg config.CacheConfig, c echo.Context, resource string) string {
    signIn, headOffice := "anon", "none"
    if m, ok := session.Lookup(c.Request().Context()); ok {
        if id := m.SignInID(); id != "" {
            signIn = id
        }
        if ho := m.CurrentHeadOffice(); ho != nil {
            headOffice = strconv.FormatInt(ho.ID, 10)
        }
    }
    sum := sha1.Sum([]byte(signIn + ":" + headOffice + "?" + c.Request().URL.RawQuery))
    return fmt.Sprintf("%s:%x", resourcePrefix(cfg, PartitionID(c), resource), sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    header = make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, header, bs[8+hlen:], true
}

// NewResourceCache caches list responses of slow-changing registrations
// (see CacheConfig.Resources) per partition.  It must run after Session.
// A successful create, update or delete of a cached resource drops that
// partition's cached lists of the resource.
func NewResourceCache(cfg config.CacheConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    maxBody := int64(cfg.MaxBodyBytes)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            resource := strings.ToLower(c.Param("resource"))
            if !cfg.Resources[resource] {
                return next(c)
            }
            ctx := c.Request().Context()

            if c.Request().Method != http.MethodGet {
                if err := next(c); err != nil {
                    return err
                }
                if s := c.Response().Status; s >= 200 && s < 300 {
                    invalidate(ctx, rdb, resourcePrefix(cfg, PartitionID(c), resource)+":*", log)
                }
                return nil
            }
            // Only the list route is cached; single records are always fresh.
            if c.Param("id") != "" {
                return next(c)
            }

            key := cacheKey(cfg, c, resource)
            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, "Content-Length") || strings.EqualFold(k, "Set-Cookie") { continue }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, _ = c.Response().Write(body)
                    return nil
                }
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.truncated() || c.Response().Header().Get(ReloadHeader) != "" {
                return nil
            }
            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            hdr.Del(RequestIDHeader)
            if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                if err := rdb.SetEx(context.Background(), key, payload, cfg.TTL).Err(); err != nil {
                    log.WithError(err).Debug("cache: store failed")
                }
            }
            return nil
        }
    }
}

func invalidate(ctx context.Context, rdb *redis.Client, pattern string, log logrus.FieldLogger) {
    iter := rdb.Scan(ctx, 0, pattern, 100).Iterator()
    var keys []string
    for iter.Next(ctx) {
        keys = append(keys, iter.Val())
    }
    if err := iter.Err(); err != nil {
        log.WithError(err).Debug("cache: scan failed")
        return
    }
    if len(keys) > 0 {
        if err := rdb.Del(ctx, keys...).Err(); err != nil {
            log.WithError(err).Debug("cache: invalidate failed")
        }
    }
}
