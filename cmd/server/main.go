package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webAdapter "procurement-agent/internal/adapters/web"
	"procurement-agent/internal/ai"
	"procurement-agent/internal/app"
	"procurement-agent/internal/clients"
	"procurement-agent/internal/config"
	"procurement-agent/internal/conversation"
	"procurement-agent/internal/db"
	"procurement-agent/internal/observability/logging"
	"procurement-agent/internal/observability/metrics"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.NewLogger(os.Stdout, "procurement-agent", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Conversation store: durable when a database is configured, otherwise
	// in-process memory.
	var store conversation.Store = conversation.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		store = conversation.NewPostgresStore(pool)
		logger.Info("using durable conversation store")
	}

	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; document analysis will fail")
	}
	extractor := ai.NewExtractor(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	execCfg := clients.DefaultExecutorConfig()
	execCfg.RetryMaxAttempts = cfg.RetryMaxAttempts
	execCfg.BreakerEnabled = cfg.BreakerEnabled
	exec := clients.NewExecutor(execCfg, logger)

	hc := &http.Client{Timeout: cfg.CollaboratorTimeout}
	inventory := clients.NewInventoryClient(cfg.InventoryBaseURL, hc, exec, logger)
	orders := clients.NewOrderClient(cfg.OrdersBaseURL, hc, exec, logger)

	svc := app.NewApplicationService(ctx, extractor, inventory, orders, store, logger, cfg.SessionTTL)

	m := metrics.New("procurement-agent")
	handler := webAdapter.NewHandler(svc, logger, m, cfg.AllowedOrigins, cfg.RequestBodyLimit)

	srv := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.APIPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
