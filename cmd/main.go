package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stayhive/conversation-service/config"
	"github.com/stayhive/conversation-service/internal/cache"
	"github.com/stayhive/conversation-service/internal/listing"
	"github.com/stayhive/conversation-service/internal/postgres"
	"github.com/stayhive/conversation-service/internal/security"
	"github.com/stayhive/conversation-service/internal/service"
	httpx "github.com/stayhive/conversation-service/internal/transport/http"
	"github.com/stayhive/conversation-service/internal/transport/ws"
	"github.com/stayhive/conversation-service/internal/worker"
	"github.com/stayhive/conversation-service/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting conversation-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- identity verifier ---
	pub, err := security.LoadRSAPublicKeyFromPEM(cfg.Auth.PublicKeyPath)
	if err != nil {
		log.Fatalf("load public key: %v", err)
	}
	verifier := security.NewJWTVerifier(pub, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.ClockSkewDur())

	// --- postgres ---
	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	// --- redis cache (деградирует до прямых запросов, если недоступен) ---
	var listingCache cache.Cache
	if cfg.Redis.URL != "" {
		c, err := cache.NewRedis(ctx, cfg.Redis.URL)
		if err != nil {
			slog.Warn("redis unavailable, listing cache disabled", "err", err)
		} else {
			listingCache = c
			defer c.Close()
		}
	}
	catalog := listing.NewClient(cfg.Listing.BaseURL, cfg.Listing.TimeoutDur(), listingCache, cfg.Listing.CacheTTLDur())

	// --- services ---
	locks := service.NewConversationLocks()
	convSvc := service.NewConversationService(db.Pool, catalog)
	msgSvc := service.NewMessageService(db.Pool, locks, cfg.Limits.MaxContentLength, cfg.Limits.SnapshotLength, cfg.Limits.HistoryPageSize)
	maintenanceSvc := service.NewMaintenanceService(db.Pool, locks, cfg.Limits.SnapshotLength)

	// --- WS hub & server ---
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, verifier, convSvc, msgSvc, cfg.WS.PingEveryDur(), cfg.WS.MaxMessageSize)
	msgSvc.SetBroadcaster(wsServer) // fan-out строго после коммита

	// --- maintenance queue ---
	enqueuer, err := worker.NewEnqueuer(cfg.Redis.URL, cfg.Maintenance.RepairQueue)
	if err != nil {
		log.Fatalf("maintenance enqueuer: %v", err)
	}
	defer enqueuer.Close()

	workerSrv, err := worker.NewServer(worker.ServerConfig{
		RedisURL:    cfg.Redis.URL,
		Queue:       cfg.Maintenance.RepairQueue,
		Concurrency: cfg.Maintenance.Concurrency,
		RepairEvery: cfg.Maintenance.RepairEveryDur(),
	}, maintenanceSvc)
	if err != nil {
		log.Fatalf("maintenance worker: %v", err)
	}

	// --- HTTP ---
	handler := httpx.NewHandler(convSvc, msgSvc, maintenanceSvc, enqueuer)
	router := httpx.NewRouter(handler, verifier, cfg.Auth.AdminToken, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- run ---
	runCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go func() {
		slog.Info("maintenance worker started", "queue", cfg.Maintenance.RepairQueue)
		if err := workerSrv.Run(runCtx); err != nil {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
