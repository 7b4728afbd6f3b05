package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcmexdev/seafood-miniapp/internal/admin"
	"github.com/jcmexdev/seafood-miniapp/internal/backend"
	"github.com/jcmexdev/seafood-miniapp/internal/pkg/config"
	"github.com/jcmexdev/seafood-miniapp/internal/pkg/telemetry"
)

func main() {
	cfg := config.Load()
	logger := telemetry.InitLogger("admin", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, "admin")
	if err != nil {
		logger.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Error("tracer shutdown error", "error", err)
		}
	}()

	if cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN is empty, all admin routes will return 503")
	}

	api := backend.NewClient(cfg.BackendURL, backend.StaticBearer(cfg.AdminToken), nil, logger)
	handler := admin.NewHandler(api, logger)
	router := admin.NewRouter(handler, cfg.AdminToken)

	logger.Info("admin shell running", "addr", cfg.AdminAddr, "backend", cfg.BackendURL)
	if err := http.ListenAndServe(cfg.AdminAddr, router); err != nil {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
}
