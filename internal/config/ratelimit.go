package config

import (
    "time"

    "github.com/caarlos0/env/v11"
)

// RateLimitConfig configures the token bucket that guards sign-in.  Failed
// sign-ins cost a token like any other attempt, so a locked-out user cannot
// hammer the login collaborator.
type RateLimitConfig struct {
    Enabled        bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
    Capacity       int           `env:"RATE_LIMIT_CAPACITY" envDefault:"10"`
    RefillTokens   int           `env:"RATE_LIMIT_REFILL_TOKENS" envDefault:"1"`
    RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"6s"`
    TTL            time.Duration `env:"RATE_LIMIT_TTL" envDefault:"10m"`
    KeyStrategy    string        `env:"RATE_LIMIT_KEY_STRATEGY" envDefault:"ip_route"`
    Prefix         string        `env:"RATE_LIMIT_PREFIX" envDefault:"rl"`
    Debug          bool          `env:"RATE_LIMIT_DEBUG" envDefault:"false"`
}

func LoadRateLimitConfig() RateLimitConfig {
    var def RateLimitConfig
    if err := env.Parse(&def); err != nil {
        def = RateLimitConfig{Enabled: false}
    }
    if def.Capacity < 1 { def.Capacity = 1 }
    if def.RefillTokens < 1 { def.RefillTokens = 1 }
    if def.RefillInterval <= 0 { def.RefillInterval = time.Second }
    minTTL := 5 * def.RefillInterval
    if def.TTL < minTTL { def.TTL = minTTL }
    return def
}
