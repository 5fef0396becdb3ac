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

	"github.com/geocoder89/worldofhackaton/internal/auth"
	"github.com/geocoder89/worldofhackaton/internal/cache"
	"github.com/geocoder89/worldofhackaton/internal/config"
	"github.com/geocoder89/worldofhackaton/internal/db"
	"github.com/geocoder89/worldofhackaton/internal/domain/user"
	httpx "github.com/geocoder89/worldofhackaton/internal/http"
	"github.com/geocoder89/worldofhackaton/internal/http/handlers"
	"github.com/geocoder89/worldofhackaton/internal/identity"
	"github.com/geocoder89/worldofhackaton/internal/notifications"
	"github.com/geocoder89/worldofhackaton/internal/observability"
	"github.com/geocoder89/worldofhackaton/internal/redisclient"
	"github.com/geocoder89/worldofhackaton/internal/repo/memory"
	"github.com/geocoder89/worldofhackaton/internal/repo/postgres"
	"github.com/geocoder89/worldofhackaton/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	if cfg.OTelEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: cfg.ServiceName,
			Env:         cfg.Env,
			Endpoint:    cfg.OTelEndpoint,
			SampleRatio: cfg.OTelSampleRatio,
		})
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	readiness := map[string]handlers.Pinger{}

	// storage
	var users user.Repository

	switch cfg.StorageDriver {
	case "memory":
		log.Warn("using in-memory user store, data is lost on restart")
		users = memory.NewUsersRepo()
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DBURL, db.PoolOptions{
			MaxConns: int32(cfg.DBMaxConns),
			MinConns: int32(cfg.DBMinConns),
			AppName:  cfg.ServiceName,
		})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		mctx, cancel := config.WithTimeout(30 * time.Second)
		err = db.Migrate(mctx, pool)
		cancel()
		if err != nil {
			return err
		}

		readiness["postgres"] = pool.Ping
		users = postgres.NewUsersRepo(pool, prom)
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	sctx, cancel := config.WithTimeout(10 * time.Second)
	err := db.EnsureAdminUser(sctx, users, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	// profile cache
	var profileCache cache.Store = cache.New(cfg.CacheTTL)

	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		readiness["redis"] = rdb.Ping
		profileCache = cache.NewRedisStore(rdb.Raw(), cfg.CacheTTL, "hackaton:")
	}

	// mail
	var mailer notifications.Notifier = notifications.NewLogNotifier(log)

	if cfg.SendGridKey != "" {
		mailer = notifications.NewSendGridNotifier(notifications.SendGridConfig{
			APIKey:   cfg.SendGridKey,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
		})
	} else {
		log.Warn("SENDGRID_KEY not set, welcome emails are only logged")
	}

	tokens := auth.NewManager(cfg.JWTSecret)

	deps := identity.Deps{
		Users:    users,
		Hasher:   security.Bcrypt{},
		Tokens:   tokens,
		Notifier: notifications.NewProtectedNotifier(mailer, notifications.ProtectedNotifierConfig{}, prom),
		Cache:    profileCache,
		Log:      log,
		Prom:     prom,
	}

	// set up routers with the log
	router := httpx.NewRouter(log, cfg, httpx.Services{
		Registrar: identity.NewRegistrar(deps),
		Issuer:    identity.NewIssuer(deps),
		Profiles:  identity.NewProfiles(deps),
		Tokens:    tokens,
		Prom:      prom,
		Readiness: readiness,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.StorageDriver)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}
	log.Info("server shutting down")

	shutdownCtx, cancelShutdown := config.WithTimeout(10 * time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}
