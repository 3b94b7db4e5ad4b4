// Package export serializes per-fire feature collections and the aggregate
// fire metadata to their destination files.
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/fire-perimeter-etl/internal/domain"
)

// Exporter writes dashboard artifacts under a single output directory:
// perimeters/<fire_id>.json per fire, and fire_data.json for the aggregate
// metadata. Writes are deterministic: identical input produces identical
// bytes.
type Exporter struct {
	outputDir string
	logger    *slog.Logger
}

// NewExporter creates an Exporter rooted at outputDir.
func NewExporter(outputDir string, logger *slog.Logger) *Exporter {
	return &Exporter{outputDir: outputDir, logger: logger}
}

// WritePerimeters writes one fire's feature collection. Per-fire writes are
// independent and order-insensitive.
func (e *Exporter) WritePerimeters(fireID string, fc domain.FeatureCollection) error {
	dir := filepath.Join(e.outputDir, "perimeters")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create perimeters dir: %w", err)
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("serialize feature collection: %w", err)
	}

	path := filepath.Join(dir, fireID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write perimeter file: %w", err)
	}

	e.logger.Debug("wrote perimeter file", "fire_id", fireID, "path", path, "features", len(fc.Features))
	return nil
}

// WriteMetadata writes the aggregate fire metadata array in processing order.
func (e *Exporter) WriteMetadata(records []domain.FireRecord) error {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if records == nil {
		records = []domain.FireRecord{} // an empty run still writes a valid array
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize fire metadata: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(e.outputDir, "fire_data.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fire metadata: %w", err)
	}

	e.logger.Info("wrote fire metadata", "path", path, "fires", len(records))
	return nil
}
