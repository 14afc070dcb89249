package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ngeni/portal/internal/app"
	"github.com/ngeni/portal/internal/config"
	"github.com/ngeni/portal/internal/db"
	httpx "github.com/ngeni/portal/internal/http"
	"github.com/ngeni/portal/internal/http/handlers"
	"github.com/ngeni/portal/internal/observability"
	"github.com/ngeni/portal/internal/redisclient"
	"github.com/ngeni/portal/internal/repo/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		Service:     "portal-api",
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		c, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(c)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	checks := map[string]handlers.Check{}

	var stores app.Stores
	if cfg.UsesMemoryStore() {
		log.Warn("using in-memory stores, data is lost on restart")
		stores = app.MemoryStores(cfg.ConversationTTL)
	} else {
		if cfg.MigrateOnUp {
			if err := db.MigrateUp(cfg.DBURL); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations applied")
		}

		pool, err := db.NewPool(ctx, db.PoolConfig{
			URL:             cfg.DBURL,
			MaxConns:        cfg.DBMaxConns,
			AppName:         "portal-api",
			ConnectAttempts: 5,
		})
		if err != nil {
			return err
		}
		defer pool.Close()

		checks["postgres"] = func(ctx context.Context) error { return postgres.Ping(ctx, pool) }
		stores = app.PostgresStores(pool, prom, cfg.ConversationTTL)
	}

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rc.Close()

		checks["redis"] = rc.Ping
		stores = stores.WithRedis(rc, cfg.ConversationTTL)
	} else {
		log.Info("redis not configured, sessions and conversations are kept in process")
	}

	notifier := app.NewLeadNotifier(app.NotifierConfig{
		ResendAPIKey: cfg.ResendAPIKey,
		From:         cfg.EmailFrom,
		To:           cfg.EmailTo,
	}, prom, log)

	portal, err := app.New(stores, notifier, app.Options{
		SessionSecret:     cfg.SessionSecret,
		SessionTTL:        cfg.SessionTTL,
		BcryptCost:        cfg.BcryptCost,
		StrictTransitions: cfg.StrictTransitions,
		LeadDedupWindow:   cfg.LeadDedupWindow,
		LeadStatsTTL:      cfg.LeadStatsTTL,
	}, log)
	if err != nil {
		return err
	}

	if err := portal.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}

	health := handlers.NewHealthHandler(checks)
	router := httpx.NewRouter(httpx.Deps{
		Log:        log,
		Procedures: portal.Procedures,
		Sessions:   portal.Sessions,
		Health:     health,
		Prom:       prom,
		Gatherer:   reg,
	}, httpx.Options{
		Env:                cfg.Env,
		CORSOrigins:        cfg.CORSOrigins,
		MaxBodyBytes:       cfg.MaxBodyBytes,
		SecureCookies:      cfg.CookieSecure,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitBurst:     cfg.RateLimitBurst,

		WriteLimitPerMinute: cfg.WriteLimitPerMinute,
		WriteLimitBurst:     cfg.WriteLimitBurst,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("server shutting down", "drain_delay", cfg.ShutdownDrainDelay)
	health.Drain()
	waitDrain(cfg.ShutdownDrainDelay, errCh)

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}

// waitDrain holds the listener open while readyz reports 503, unless the server already died.
func waitDrain(d time.Duration, errCh <-chan error) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-errCh:
	}
}
