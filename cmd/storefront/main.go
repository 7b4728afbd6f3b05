package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/seafood-miniapp/internal/backend"
	"github.com/jcmexdev/seafood-miniapp/internal/cart"
	"github.com/jcmexdev/seafood-miniapp/internal/flow"
	"github.com/jcmexdev/seafood-miniapp/internal/host"
	"github.com/jcmexdev/seafood-miniapp/internal/pkg/config"
	"github.com/jcmexdev/seafood-miniapp/internal/pkg/telemetry"
	"github.com/jcmexdev/seafood-miniapp/internal/storage"
	"github.com/jcmexdev/seafood-miniapp/internal/storage/redis"
	"github.com/jcmexdev/seafood-miniapp/internal/storage/sqlite"
)

func main() {
	cfg := config.Load()
	logger := telemetry.InitLogger("storefront", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, "storefront")
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

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	bridge := host.NewBridge(logger)

	api := backend.NewClient(cfg.BackendURL, initDataAuth(bridge), func() string {
		if id, ok := bridge.Identity(); ok {
			return strconv.FormatInt(id.UserID, 10)
		}
		return ""
	}, logger)

	engine := cart.NewEngine(ctx, store, bridge, logger)
	ctrl := flow.NewController(api, engine, bridge, store, logger, flow.Options{
		NavigateDelay: time.Duration(cfg.NavigateDelayMS) * time.Millisecond,
	})
	if err := ctrl.Start(ctx); err != nil {
		// the backend may still be coming up; the shopper retries from the UI
		logger.Warn("initial catalog load failed", "error", err)
	}

	router := newBridgeRouter(bridge)
	logger.Info("storefront running", "addr", cfg.HTTPAddr, "store", cfg.StoreBackend)
	if err := http.ListenAndServe(cfg.HTTPAddr, router); err != nil {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

// initDataAuth authenticates backend calls with the host-signed init data,
// once the webview handshake has delivered it.
func initDataAuth(bridge *host.Bridge) backend.TokenSource {
	return func() (string, string, bool) {
		id, ok := bridge.Identity()
		if !ok || id.InitData == "" {
			return "", "", false
		}
		return "tma", id.InitData, true
	}
}

func openStore(cfg config.Config) (storage.Store, func(), error) {
	switch cfg.StoreBackend {
	case "redis":
		s := redis.New(cfg.RedisAddr, "storefront")
		return s, func() { _ = s.Close() }, nil
	case "memory":
		return storage.NewMemory(), func() {}, nil
	default:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
}

// newBridgeRouter exposes the host bridge to the webview shim: GET drains the
// outbound command queue, POST delivers one inbound event frame.
func newBridgeRouter(bridge *host.Bridge) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/bridge/commands", func(w http.ResponseWriter, _ *http.Request) {
		commands := bridge.Drain()
		if commands == nil {
			commands = []host.Command{}
		}
		writeJSON(w, http.StatusOK, commands)
	})

	r.Post("/bridge/events", func(w http.ResponseWriter, req *http.Request) {
		var ev host.Event
		if err := json.NewDecoder(req.Body).Decode(&ev); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":   "invalid_json",
				"message": err.Error(),
			})
			return
		}
		bridge.HandleEvent(ev)
		w.WriteHeader(http.StatusAccepted)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
