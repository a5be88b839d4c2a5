package config

import (
    "strings"
    "time"

    "github.com/caarlos0/env/v11"
)

// CacheConfig defines settings for the master-data response cache.  Only the
// list endpoints of slow-changing registrations (suppliers, products, cost
// centers...) are cached, always per storage partition and per sign-in so one
// user never sees another user's head-office scoped data.  Resources lists the cacheable
// resource names.  Writes through the gateway drop the cached lists of the
// written resource.
type CacheConfig struct {
    Enabled      bool            `env:"CACHE_ENABLED" envDefault:"true"`
    TTL          time.Duration   `env:"CACHE_TTL" envDefault:"30s"`
    Prefix       string          `env:"CACHE_PREFIX" envDefault:"cache"`
    MaxBodyBytes int             `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`
    RawResources []string        `env:"CACHE_RESOURCES" envSeparator:"," envDefault:"suppliers,products,cost-centers,units,categories"`
    Resources    map[string]bool
}

// LoadCacheConfig reads environment variables to build a CacheConfig.  Defaults
// are used when variables are not set.  Resource names are lower-cased.
func LoadCacheConfig() CacheConfig {
    var cfg CacheConfig
    if err := env.Parse(&cfg); err != nil {
        cfg = CacheConfig{Enabled: false}
    }
    cfg.Resources = map[string]bool{}
    for _, r := range cfg.RawResources {
        r = strings.TrimSpace(strings.ToLower(r))
        if r != "" {
            cfg.Resources[r] = true
        }
    }
    if cfg.TTL <= 0 {
        cfg.TTL = time.Second
    }
    return cfg
}
