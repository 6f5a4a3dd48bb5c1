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

	"github.com/realReloadTime/web-development/config"
	"github.com/realReloadTime/web-development/internal/pg"
	"github.com/realReloadTime/web-development/internal/postgres"
	"github.com/realReloadTime/web-development/internal/service"
	httpx "github.com/realReloadTime/web-development/internal/transport/http"
	"github.com/realReloadTime/web-development/internal/transport/ws"
	"github.com/realReloadTime/web-development/pkg/logger"
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
	slog.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	pool, err := pg.NewPool(ctx, pg.Config{
		DSN:             cfg.Postgres.DSN,
		ApplicationName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// --- repos ---
	roomRepo := postgres.NewRoomRepository(pool)
	partRepo := postgres.NewParticipantRepository(pool)
	msgRepo := postgres.NewMessageRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// --- services ---
	directorySvc := service.NewDirectoryService(roomRepo, partRepo, userRepo)
	messageSvc := service.NewMessageService(msgRepo)
	messageSvc.SetMaxMessageLen(cfg.Chat.MaxMessageLen)

	// --- connection registry & WS server ---
	hub := ws.NewHub()
	chatSvc := service.NewChatService(directorySvc, messageSvc, hub)
	wsServer := ws.NewServer(hub, chatSvc)
	wsServer.SetTimings(cfg.Chat.PingInterval(), cfg.Chat.WriteTimeout())

	// --- HTTP ---
	handler := httpx.NewHandler(chatSvc)
	router := httpx.NewRouter(handler, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	hub.Shutdown()
	slog.Info("stopped")
}
