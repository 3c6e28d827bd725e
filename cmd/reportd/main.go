// Command reportd consumes report requests from Kafka, generates district
// risk reports, and serves the report API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/accident-risk-service/internal/adapter/accidents"
	httpadapter "github.com/couchcryptid/accident-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/accident-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/accident-risk-service/internal/adapter/sqlite"
	"github.com/couchcryptid/accident-risk-service/internal/config"
	"github.com/couchcryptid/accident-risk-service/internal/observability"
	"github.com/couchcryptid/accident-risk-service/internal/pipeline"
	"github.com/couchcryptid/accident-risk-service/internal/render"
	"github.com/couchcryptid/accident-risk-service/internal/report"
)

const reportFooter = "Accident Risk Service"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	metrics := observability.NewMetrics()

	store, err := sqlite.Open(cfg.ReportDBPath)
	if err != nil {
		logger.Error("failed to open report history", "error", err, "path", cfg.ReportDBPath)
		os.Exit(1)
	}

	client := accidents.NewClient(cfg.AccidentsAPIURL, cfg.AccidentsAPITimeout, metrics, logger)
	predictor, err := accidents.NewCachedPredictor(client, cfg.PredictionCacheSize, metrics)
	if err != nil {
		logger.Error("failed to create prediction cache", "error", err)
		os.Exit(1)
	}
	logger.Info("accidents api configured",
		"url", cfg.AccidentsAPIURL,
		"timeout", cfg.AccidentsAPITimeout,
		"prediction_cache_size", cfg.PredictionCacheSize,
	)

	renderer := render.NewPDFRenderer(reportFooter)
	generator := report.NewGenerator(client, renderer, cfg.ReportOutputDir, logger,
		report.WithHistory(store),
		report.WithDefaults(cfg.ReportDefaults()),
		report.WithMetrics(metrics),
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(generator, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Reports:   generator,
		Renderer:  renderer,
		History:   store,
		Accidents: client,
		Predictor: predictor,
		Model:     client,
		Ready:     readiness{p, store},
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start report pipeline.
	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	shutdown(shutdownCtx, logger, srv, pipelineDone,
		closeStep{"kafka reader", reader.Close},
		closeStep{"kafka writer", writer.Close},
		closeStep{"report history", store.Close},
	)

	logger.Info("shutdown complete")
}

type closeStep struct {
	name  string
	close func() error
}

type httpServer interface {
	Shutdown(ctx context.Context) error
}

// shutdown stops the HTTP server, waits for the pipeline to return, then
// runs steps in order. Steps run even if the pipeline outlives ctx.
func shutdown(ctx context.Context, logger *slog.Logger, srv httpServer, pipelineDone <-chan struct{}, steps ...closeStep) {
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-pipelineDone:
	case <-ctx.Done():
		logger.Warn("pipeline did not stop before the shutdown timeout")
	}

	for _, s := range steps {
		if err := s.close(); err != nil {
			logger.Error(s.name+" close error", "error", err)
		}
	}
}

type readinessCheck interface {
	CheckReadiness(ctx context.Context) error
}

// readiness is ready when every check passes.
type readiness []readinessCheck

func (r readiness) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
