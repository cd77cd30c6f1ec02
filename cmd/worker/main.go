package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ekovalyov/docuscan/internal/bootstrap"
	"github.com/ekovalyov/docuscan/internal/config"
	"github.com/ekovalyov/docuscan/internal/core/domain"
	"github.com/ekovalyov/docuscan/internal/infrastructure/resilience"
	"github.com/ekovalyov/docuscan/internal/observability/logging"
	"github.com/ekovalyov/docuscan/internal/observability/metrics"
)

const service = "docuscan-worker"

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

	workerMetrics := metrics.NewWorkerMetrics(service)
	go serveMetrics(ctx, cfg.WorkerMetricsPort, workerMetrics)

	retryCfg := resilience.DefaultConfig()
	retryCfg.RetryMaxAttempts = cfg.WorkerMaxAttempts
	retryCfg.BreakerEnabled = false
	executor := resilience.NewExecutor(retryCfg)

	slog.Info("worker_subscribed", "subject", cfg.NATSReceivedSubject)
	err = app.Queue.SubscribeDocumentReceived(ctx, func(handlerCtx context.Context, documentID string) error {
		return handleDocument(handlerCtx, app, executor, workerMetrics, documentID)
	})
	if err != nil && ctx.Err() == nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}

func handleDocument(
	ctx context.Context,
	app *bootstrap.App,
	executor *resilience.Executor,
	workerMetrics *metrics.WorkerMetrics,
	documentID string,
) error {
	processCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if rec, err := app.Repo.GetByID(processCtx, documentID); err == nil {
		workerMetrics.ObserveQueueLag(service, time.Since(rec.CreatedAt))
	}

	workerMetrics.StartDocument()
	start := time.Now()

	err := executor.Execute(processCtx, "document.process", func(attemptCtx context.Context) error {
		return app.ProcessUC.ProcessByID(attemptCtx, documentID)
	}, classifyProcessError)

	workerMetrics.FinishDocument(service, time.Since(start), err)

	if err == nil {
		if rec, getErr := app.Repo.GetByID(processCtx, documentID); getErr == nil {
			workerMetrics.RecordClassification(service, string(rec.CaseType), string(rec.UrgencyLevel))
		}
		return nil
	}

	if domain.IsKind(err, domain.ErrDocumentNotFound) {
		slog.Warn("document_vanished", "document_id", documentID, "error", err)
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	slog.Error("processing_exhausted", "document_id", documentID, "error", err)
	if failErr := app.ProcessUC.MarkFailed(processCtx, documentID, err); failErr != nil {
		slog.Error("mark_failed_error", "document_id", documentID, "error", failErr)
		return failErr
	}
	return nil
}

// Extraction and classification failures retry within the attempt budget:
// transient storage hiccups and engine outages surface through the same
// error kinds. Validation and missing-record errors never retry.
func classifyProcessError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if domain.IsKind(err, domain.ErrDocumentNotFound) || domain.IsKind(err, domain.ErrValidation) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if domain.IsKind(err, domain.ErrTemporary) ||
		domain.IsKind(err, domain.ErrExtraction) ||
		domain.IsKind(err, domain.ErrClassification) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}

func serveMetrics(ctx context.Context, port string, workerMetrics *metrics.WorkerMetrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_metrics_listening", "port", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("worker_metrics_server_failed", "error", err)
	}
}
