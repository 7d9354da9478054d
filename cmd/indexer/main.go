package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"precedent/internal/bootstrap"
	"precedent/internal/config"
	"precedent/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.NewJSONLogger("indexer", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg, logger, "indexer")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	statuses, err := app.Manager.Initialize(initCtx)
	cancel()
	if err != nil {
		log.Fatalf("initialize error: %v", err)
	}

	degraded := 0
	for _, status := range statuses {
		if status.Err != nil {
			degraded++
		}
	}
	logger.Info("indexes_ready", "categories", len(statuses), "degraded", degraded)

	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	server := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: mux}

	go func() {
		logger.Info("metrics_listening", "port", cfg.MetricsPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
