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

	httpadapter "github.com/ekovalyov/docuscan/internal/adapters/http"
	"github.com/ekovalyov/docuscan/internal/bootstrap"
	"github.com/ekovalyov/docuscan/internal/config"
	"github.com/ekovalyov/docuscan/internal/observability/logging"
	"github.com/ekovalyov/docuscan/internal/observability/metrics"
)

const service = "docuscan-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(logging.NewJSONLogger(service, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.WarmIndex(ctx); err != nil {
		slog.Error("index_warmup_failed", "error", err)
		os.Exit(1)
	}
	// Subscribe before the recompute so no worker publish lands in the gap;
	// deltas are retract-then-add, so replaying one over the recompute is safe.
	go func() {
		err := app.Queue.SubscribeDocumentUpdated(ctx, func(handlerCtx context.Context, documentID string) error {
			rec, err := app.Repo.GetByID(handlerCtx, documentID)
			if err != nil {
				return err
			}
			app.Stats.ApplyDelta(*rec)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			slog.Error("updated_subscription_failed", "error", err)
		}
	}()

	if err := app.Stats.Recompute(ctx); err != nil {
		slog.Error("stats_recompute_failed", "error", err)
		os.Exit(1)
	}

	serverMetrics := metrics.NewHTTPServerMetrics(service)
	router := httpadapter.NewRouter(
		httpadapter.RouterConfig{
			Service:        service,
			MaxUploadBytes: cfg.MaxUploadBytes,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		},
		app.IngestUC,
		app.SearchUC,
		app.SearchUC,
		app.RemoveUC,
		app.ExportUC,
		app.Stats,
		serverMetrics,
	)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_error", "error", err)
	}
}
