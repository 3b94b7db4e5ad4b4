// Command export runs the fire perimeter evaluation batch: it loads the
// predicted-window and CAL FIRE reference datasets, evaluates each fire's
// prediction series against its reference perimeter, and writes the per-fire
// GeoJSON files and aggregate fire metadata consumed by the dashboard.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/fire-perimeter-etl/internal/adapter/albers"
	"github.com/couchcryptid/fire-perimeter-etl/internal/adapter/dataset"
	kafkaadapter "github.com/couchcryptid/fire-perimeter-etl/internal/adapter/kafka"
	"github.com/couchcryptid/fire-perimeter-etl/internal/config"
	"github.com/couchcryptid/fire-perimeter-etl/internal/export"
	"github.com/couchcryptid/fire-perimeter-etl/internal/observability"
	"github.com/couchcryptid/fire-perimeter-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	projector := albers.NewCaliforniaProjector()
	source := dataset.NewSource(cfg.PerimetersPath, cfg.ReferencePath, projector, logger)
	exporter := export.NewExporter(cfg.OutputDir, logger)

	// Record publishing is feature-flagged; a nil publisher is a no-op.
	var publisher pipeline.RecordPublisher
	if cfg.KafkaEnabled {
		kp := kafkaadapter.NewPublisher(cfg.Brokers(), cfg.KafkaTopic, logger)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		publisher = kp
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(source, exporter, publisher, logger, metrics)
	if err := p.Run(ctx); err != nil {
		return err
	}

	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(ctx, cfg.PushgatewayURL); err != nil {
			logger.Warn("metrics push failed", "gateway", cfg.PushgatewayURL, "error", err)
		}
	}
	return nil
}
