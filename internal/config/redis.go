package config

// Redis backs the session store partitions, the sign-in rate limiter and the
// master-data response cache.  If the server cannot be reached during startup
// NewRedisClient returns nil and callers degrade gracefully: sessions fall back
// to process memory, caching and rate limiting are disabled.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client from RedisOptions.  REDIS_HOST
// and REDIS_PORT take precedence over REDIS_ADDR when both are set.  The
// returned client is nil if the server does not answer a ping.
func NewRedisClient(opts RedisOptions) *redis.Client {
    addr := opts.Addr
    if opts.Host != "" && opts.Port != "" {
        addr = opts.Host + ":" + opts.Port
    }
    var tlsConf *tls.Config
    if opts.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      addr,
        Password:  opts.Password,
        DB:        opts.DB,
        TLSConfig: tlsConf,
    })
    // Ping the server with a short timeout.  Return nil on failure.
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
