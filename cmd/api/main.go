package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kotiva.org/internal/auth"
	"kotiva.org/internal/cache"
	"kotiva.org/internal/config"
	"kotiva.org/internal/httpapi"
	"kotiva.org/internal/mail"
	"kotiva.org/internal/obs"
	"kotiva.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	log.SetFlags(0)
	configPath := flag.String("config", os.Getenv("KOTIVA_CONFIG"), "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	store, err := pg.Open(cfg.Postgres.DSN, pg.Options{
		MaxOpenConns: cfg.Postgres.MaxOpenConns,
		MaxIdleConns: cfg.Postgres.MaxIdleConns,
	})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	defer store.Close()

	var redisCache *cache.Cache
	if cfg.Redis.URL != "" {
		redisCache, err = cache.New(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("open redis: %v", err)
		}
		defer redisCache.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := store.EnsurePermissions(ctx, auth.BuiltinPermissions); err != nil {
		cancel()
		log.Fatalf("ensure permissions: %v", err)
	}
	cancel()

	sessions, err := auth.NewSessionManager(store, cfg.Session.Secret,
		auth.WithSessionLifetime(cfg.Session.Lifetime.Std()),
		auth.WithCookieName(cfg.Session.CookieName),
		auth.WithSecureCookies(cfg.Session.SecureCookies),
	)
	if err != nil {
		log.Fatalf("session manager: %v", err)
	}
	reset := auth.NewResetManager(store, mail.DevMailer{}, cfg.HTTP.BaseURL,
		auth.WithResetTokenTTL(cfg.Reset.TokenTTL.Std()))

	deps := httpapi.Deps{
		Store:    store,
		Sessions: sessions,
		Resolver: auth.NewPermissionResolver(store),
		Policy:   auth.NewPolicyEngine(store),
		Reset:    reset,
		Ready:    httpapi.ReadyProbe{DB: store, Cache: pinger(redisCache)},
		Version:  version,
	}
	if redisCache != nil {
		deps.Cache = redisCache
	}
	api := httpapi.New(deps)

	var handler http.Handler = api.Handler()
	handler = httpapi.RateLimit(handler, cfg.HTTP.RatePerSecond, cfg.HTTP.RateBurst)
	handler = httpapi.MaxBodyBytes(handler, cfg.HTTP.MaxBodyBytes)
	handler = httpapi.SecurityHeaders(handler)
	handler = httpapi.LoggingJSON(handler)
	handler = httpapi.RequestID(handler)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcSrv, stopGRPC := httpapi.NewGRPCServer(deps.Ready, 10*time.Second)
	grpcLis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Fatalf("grpc listen: %v", err)
	}

	// Background hygiene: expired sessions and reset tokens.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sweep(sweepCtx, sessions, reset)

	log.Printf("Starting %s %s on %s (grpc %s)", "kotiva-api", version, srv.Addr, cfg.GRPC.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	go func() {
		if err := grpcSrv.Serve(grpcLis); err != nil {
			log.Printf("grpc serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("Shutting down...")

	stopSweep()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Std())
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	stopGRPC()
	log.Println("Stopped")
}

// pinger adapts a possibly-nil cache to the readiness probe, which treats a
// nil checker as "not configured".
func pinger(c *cache.Cache) interface{ Ping(ctx context.Context) error } {
	if c == nil {
		return nil
	}
	return c
}

func sweep(ctx context.Context, sessions *auth.SessionManager, reset *auth.ResetManager) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			if n, err := sessions.PurgeExpired(sweepCtx); err == nil && n > 0 {
				log.Printf("purged %d expired sessions", n)
			}
			if n, err := reset.PurgeExpired(sweepCtx); err == nil && n > 0 {
				log.Printf("purged %d expired reset tokens", n)
			}
			cancel()
		}
	}
}
