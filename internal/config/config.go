package config // package config loads application configuration from environment variables

import (
    "os"
    "time"

    "github.com/caarlos0/env/v11"
    "github.com/joho/godotenv"
    "github.com/pkg/errors"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Upstream URLs point at the procurement API and
// the decision center; everything else configures the gateway itself.
type Config struct {
    Env        string `env:"APP_ENV" envDefault:"dev"`   // application environment (e.g. "dev", "prod")
    Port       string `env:"APP_PORT" envDefault:"8080"` // HTTP port to listen on
    LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
    PublicPath string `env:"PUBLIC_ENTRY_ROUTE" envDefault:"/"` // route the browser is sent to after sign-out

    APIBaseURL      string        `env:"API_BASE_URL,required,notEmpty"`      // procurement backend (CRUD, login)
    WorkflowBaseURL string        `env:"WORKFLOW_BASE_URL,required,notEmpty"` // decision center
    UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"15s"`
    RecoveryURL     string        `env:"ACCOUNT_RECOVERY_URL" envDefault:"/recuperar-senha"`

    SessionSecret string        `env:"SESSION_SECRET,required,notEmpty"` // signs the partition cookie
    SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"12h"`
    CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"false"`

    DBUser string `env:"DB_USER"` // decision audit database; empty disables it
    DBPass string `env:"DB_PASS"`
    DBHost string `env:"DB_HOST" envDefault:"localhost"`
    DBPort string `env:"DB_PORT" envDefault:"3306"`
    DBName string `env:"DB_NAME" envDefault:"portal_compras"`

    AMQPURL string `env:"RABBITMQ_URL"` // empty disables approval events

    Redis RedisOptions
}

// RedisOptions configures the Redis client shared by the session store,
// rate limiting and response caching.
type RedisOptions struct {
    Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
    Host     string `env:"REDIS_HOST"`
    Port     string `env:"REDIS_PORT"`
    Password string `env:"REDIS_PASSWORD"`
    DB       int    `env:"REDIS_DB" envDefault:"0"`
    TLS      bool   `env:"REDIS_TLS" envDefault:"false"`
}

// AuditEnabled reports whether a database user was configured.
func (c Config) AuditEnabled() bool { return c.DBUser != "" }

// LoadEnv loads the first existing env files into the process environment.
// Missing files are skipped; it returns how many were loaded.
func LoadEnv(files []string) (int, error) {
    existing := make([]string, 0, len(files))
    for _, f := range files {
        if _, err := os.Stat(f); err == nil {
            existing = append(existing, f)
        }
    }
    if len(existing) == 0 {
        return 0, nil
    }
    return len(existing), godotenv.Load(existing...)
}

// Load reads configuration values from environment variables and returns a
// Config.  Missing required variables are reported as an error so main can
// exit with a readable message.
func Load() (Config, error) {
    var cfg Config
    if err := env.Parse(&cfg); err != nil {
        return Config{}, errors.Wrap(err, "parse env")
    }
    return cfg, nil
}
