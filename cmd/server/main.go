package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                     // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // panic recovery

	"github.com/iliyamo/portal-compras-gateway/internal/backend"
	"github.com/iliyamo/portal-compras-gateway/internal/config"
	"github.com/iliyamo/portal-compras-gateway/internal/database"
	"github.com/iliyamo/portal-compras-gateway/internal/handler"
	"github.com/iliyamo/portal-compras-gateway/internal/logging"
	"github.com/iliyamo/portal-compras-gateway/internal/middleware"
	"github.com/iliyamo/portal-compras-gateway/internal/queue"
	"github.com/iliyamo/portal-compras-gateway/internal/repository"
	"github.com/iliyamo/portal-compras-gateway/internal/router"
	"github.com/iliyamo/portal-compras-gateway/internal/service"
	"github.com/iliyamo/portal-compras-gateway/internal/store"
	"github.com/iliyamo/portal-compras-gateway/internal/workflow"
)

func main() {
	// .env.local overrides .env; both are optional.
	if _, err := config.LoadEnv([]string{".env.local", ".env"}); err != nil {
		logging.New("dev", "info").WithError(err).Fatal("load env files")
	}
	cfg, err := config.Load()
	if err != nil {
		logging.New("dev", "info").WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sessions live in Redis; without it every partition is kept in memory
	// and lost on restart.
	rdb := config.NewRedisClient(cfg.Redis)
	var sessions store.Backend = store.NewMemoryBackend()
	if rdb != nil {
		sessions = store.NewRedisBackend(rdb, "session", cfg.SessionTTL)
		defer rdb.Close()
	} else {
		log.Warn("redis unavailable: sessions kept in memory, cache and rate limiting disabled")
	}

	api := backend.New(cfg.APIBaseURL, cfg.UpstreamTimeout, backend.WithLogger(log))
	decisions := workflow.NewClient(cfg.WorkflowBaseURL, cfg.UpstreamTimeout, backend.WithLogger(log))

	var (
		sinks   []workflow.DecisionSink
		history handler.DecisionHistory
		db      *sql.DB
	)
	if cfg.AuditEnabled() {
		db, err = database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.WithError(err).Fatal("open audit database")
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			log.WithError(err).Fatal("migrate audit database")
		}
		repo := repository.NewDecisionRepo(db)
		sinks = append(sinks, repo)
		history = repo
	}
	if cfg.AMQPURL != "" {
		pub := service.NewPublisher(cfg.AMQPURL, log)
		defer pub.Close()
		sinks = append(sinks, pub)
		go func() {
			if err := queue.StartApprovalConsumer(ctx, cfg.AMQPURL, "logs", log); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("approval consumer stopped")
			}
		}()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	portal := router.Portal{
		Secret:       cfg.SessionSecret,
		SessionTTL:   cfg.SessionTTL,
		CookieSecure: cfg.CookieSecure,
		Backend:      sessions,
		Auth:         api,
		PublicPath:   cfg.PublicPath,
		Log:          log,
	}
	router.RegisterRoutes(e, &handler.HealthHandler{Redis: rdb, DB: db})
	router.RegisterAuth(e, portal, handler.NewAuthHandler(cfg, log),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))
	router.RegisterSession(e, portal, handler.NewSessionHandler(api, cfg.PublicPath))
	router.RegisterResources(e, portal, handler.NewResourceHandler(api, cfg.PublicPath),
		middleware.NewResourceCache(config.LoadCacheConfig(), rdb, log))
	router.RegisterApprovals(e, portal, handler.NewApprovalsHandler(decisions, history, cfg.PublicPath, log, sinks...))

	addr := ":" + cfg.Port
	go func() {
		log.WithField("env", cfg.Env).Infof("listening on %s", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
