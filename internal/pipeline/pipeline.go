// Package pipeline orchestrates the export batch: load both datasets, build
// each fire's window series in first-seen order, assemble its artifacts, and
// hand them to the writer (and optionally a record publisher).
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fire-perimeter-etl/internal/domain"
	"github.com/couchcryptid/fire-perimeter-etl/internal/observability"
)

// DatasetLoader materializes the two input datasets.
type DatasetLoader interface {
	WindowPerimeters(ctx context.Context) ([]domain.WindowPerimeter, error)
	ReferencePerimeters(ctx context.Context) ([]domain.ReferencePerimeter, error)
}

// ArtifactWriter persists the per-fire and aggregate artifacts.
type ArtifactWriter interface {
	WritePerimeters(fireID string, fc domain.FeatureCollection) error
	WriteMetadata(records []domain.FireRecord) error
}

// RecordPublisher forwards assembled fire records to an external sink.
type RecordPublisher interface {
	PublishRecords(ctx context.Context, records []domain.FireRecord) error
}

// Pipeline runs one export batch end to end.
type Pipeline struct {
	loader    DatasetLoader
	writer    ArtifactWriter
	publisher RecordPublisher // nil disables publishing
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline with the given stages and observability. Pass a nil
// publisher to disable record publishing.
func New(loader DatasetLoader, writer ArtifactWriter, publisher RecordPublisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		loader:    loader,
		writer:    writer,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes the batch. A fire failing its skip conditions is logged and
// excluded without aborting the run; only structural failures (unreadable
// datasets, write errors) return an error.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()

	windows, err := p.loader.WindowPerimeters(ctx)
	if err != nil {
		return fmt.Errorf("load window perimeters: %w", err)
	}
	refs, err := p.loader.ReferencePerimeters(ctx)
	if err != nil {
		return fmt.Errorf("load reference perimeters: %w", err)
	}
	p.metrics.WindowsLoaded.Add(float64(len(windows)))

	groups := groupByFire(windows)
	refIndex := indexReferences(refs)

	p.logger.Info("export started",
		"fires", len(groups.order),
		"windows", len(windows),
		"references", len(refs),
	)

	records := make([]domain.FireRecord, 0, len(groups.order))
	for _, fireID := range groups.order {
		if err := ctx.Err(); err != nil {
			return err
		}

		series := domain.NewWindowSeries(groups.byFire[fireID])
		record, fc, err := domain.AssembleFire(series, refIndex[fireID])
		if err != nil {
			p.skipFire(fireID, err)
			continue
		}

		if err := p.writer.WritePerimeters(fireID, fc); err != nil {
			return fmt.Errorf("write perimeters for fire %s: %w", fireID, err)
		}
		p.metrics.FiresExported.Inc()
		p.metrics.FeaturesWritten.Add(float64(len(fc.Features)))
		records = append(records, record)
	}

	if err := p.writer.WriteMetadata(records); err != nil {
		return fmt.Errorf("write fire metadata: %w", err)
	}

	if p.publisher != nil {
		if err := p.publisher.PublishRecords(ctx, records); err != nil {
			return fmt.Errorf("publish fire records: %w", err)
		}
	}

	p.metrics.ExportDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("export finished",
		"fires_exported", len(records),
		"fires_skipped", len(groups.order)-len(records),
		"duration", time.Since(start),
	)
	return nil
}

// skipFire logs the skip and records its reason.
func (p *Pipeline) skipFire(fireID string, err error) {
	var reason string
	switch {
	case errors.Is(err, domain.ErrNoReference):
		reason = "missing_reference"
	case errors.Is(err, domain.ErrEmptyFinalGeometry):
		reason = "empty_final_geometry"
	default:
		reason = "evaluate_error"
	}
	p.logger.Warn("skipping fire", "fire_id", fireID, "reason", reason, "error", err)
	p.metrics.FiresSkipped.WithLabelValues(reason).Inc()
}

// fireGroups buckets windows by fire id while remembering the order in which
// distinct fire ids first appear in the dataset. The aggregate output must
// preserve that order.
type fireGroups struct {
	order  []string
	byFire map[string][]domain.WindowPerimeter
}

func groupByFire(windows []domain.WindowPerimeter) fireGroups {
	g := fireGroups{byFire: make(map[string][]domain.WindowPerimeter)}
	for _, w := range windows {
		if _, seen := g.byFire[w.FireID]; !seen {
			g.order = append(g.order, w.FireID)
		}
		g.byFire[w.FireID] = append(g.byFire[w.FireID], w)
	}
	return g
}

// indexReferences maps fire ids to their reference perimeter. The first
// reference wins when a fire id occurs more than once.
func indexReferences(refs []domain.ReferencePerimeter) map[string]*domain.ReferencePerimeter {
	idx := make(map[string]*domain.ReferencePerimeter, len(refs))
	for i := range refs {
		if _, ok := idx[refs[i].FireID]; ok {
			continue
		}
		idx[refs[i].FireID] = &refs[i]
	}
	return idx
}
