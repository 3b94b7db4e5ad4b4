// Package dataset loads the predicted-window and reference-perimeter
// datasets from disk and materializes paired-frame domain records.
//
// Predicted windows arrive as NDJSON, one record per line:
//
//	{"fire_id": "CREEK_00123", "timestamp": "2020-09-05T18:00:00Z",
//	 "n_points": 412, "geometry": {"type": "Polygon", ...}}
//
// timestamp, n_points, and geometry may each be null. Geometry is GeoJSON in
// the geographic frame.
//
// Reference perimeters arrive as one GeoJSON FeatureCollection carrying the
// CAL FIRE attributes FIRE_NAME, INC_NUM, YEAR_, and GIS_ACRES. The fire id
// is FIRE_NAME + "_" + INC_NUM, matching the id the upstream model stamps on
// predicted windows.
package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/fire-perimeter-etl/internal/domain"
	"github.com/peterstace/simplefeatures/geom"
)

// Rows carrying a full MultiPolygon can run long.
const maxLineBytes = 64 * 1024 * 1024

// Source reads both input datasets and projects geometry into the planar
// frame as records are materialized.
type Source struct {
	perimetersPath string
	referencePath  string
	projector      domain.Projector
	logger         *slog.Logger
}

// NewSource creates a Source over the two dataset files.
func NewSource(perimetersPath, referencePath string, projector domain.Projector, logger *slog.Logger) *Source {
	return &Source{
		perimetersPath: perimetersPath,
		referencePath:  referencePath,
		projector:      projector,
		logger:         logger,
	}
}

// rawWindowRecord mirrors one NDJSON line of the predicted-perimeter dataset.
type rawWindowRecord struct {
	FireID    string          `json:"fire_id"`
	Timestamp *time.Time      `json:"timestamp"`
	NPoints   *int            `json:"n_points"`
	Geometry  json.RawMessage `json:"geometry"`
}

// WindowPerimeters loads and materializes the predicted-window dataset,
// preserving input row order. Malformed input is a structural failure and
// aborts the load.
func (s *Source) WindowPerimeters(ctx context.Context) ([]domain.WindowPerimeter, error) {
	f, err := os.Open(s.perimetersPath)
	if err != nil {
		return nil, fmt.Errorf("open window perimeters: %w", err)
	}
	defer f.Close()

	var windows []domain.WindowPerimeter
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var rec rawWindowRecord
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, fmt.Errorf("parse window perimeter line %d: %w", line, err)
		}
		w, err := s.materializeWindow(rec)
		if err != nil {
			return nil, fmt.Errorf("window perimeter line %d: %w", line, err)
		}
		windows = append(windows, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read window perimeters: %w", err)
	}

	s.logger.Info("loaded window perimeters", "path", s.perimetersPath, "rows", len(windows))
	return windows, nil
}

// materializeWindow pairs the geographic geometry with its planar projection
// and derives the window's area there. A null geometry yields a record with
// both frames nil and area 0.
func (s *Source) materializeWindow(rec rawWindowRecord) (domain.WindowPerimeter, error) {
	w := domain.WindowPerimeter{
		FireID:     rec.FireID,
		Timestamp:  rec.Timestamp,
		PointCount: rec.NPoints,
	}
	if len(rec.Geometry) == 0 || bytes.Equal(rec.Geometry, []byte("null")) {
		return w, nil
	}

	var geographic geom.Geometry
	if err := json.Unmarshal(rec.Geometry, &geographic); err != nil {
		return domain.WindowPerimeter{}, fmt.Errorf("fire %s: parse geometry: %w", rec.FireID, err)
	}
	planar, err := s.projector.ToPlanar(geographic)
	if err != nil {
		return domain.WindowPerimeter{}, fmt.Errorf("fire %s: project geometry: %w", rec.FireID, err)
	}

	w.Geographic = &geographic
	w.Planar = &planar
	w.AreaKm2 = planar.Area() / 1e6
	return w, nil
}

// referenceFile mirrors the CAL FIRE reference FeatureCollection.
type referenceFile struct {
	Type     string             `json:"type"`
	Features []referenceFeature `json:"features"`
}

type referenceFeature struct {
	Properties referenceProperties `json:"properties"`
	Geometry   geom.Geometry       `json:"geometry"`
}

type referenceProperties struct {
	FireName string   `json:"FIRE_NAME"`
	IncNum   string   `json:"INC_NUM"`
	Year     float64  `json:"YEAR_"` // shapefile numerics arrive as floats
	GisAcres *float64 `json:"GIS_ACRES"`
}

// ReferencePerimeters loads the reference dataset, preserving feature order.
func (s *Source) ReferencePerimeters(ctx context.Context) ([]domain.ReferencePerimeter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.referencePath)
	if err != nil {
		return nil, fmt.Errorf("read reference perimeters: %w", err)
	}

	var file referenceFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse reference perimeters: %w", err)
	}

	refs := make([]domain.ReferencePerimeter, 0, len(file.Features))
	for i, f := range file.Features {
		planar, err := s.projector.ToPlanar(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("reference feature %d: project geometry: %w", i, err)
		}
		refs = append(refs, domain.ReferencePerimeter{
			FireID:     f.Properties.FireName + "_" + f.Properties.IncNum,
			Name:       f.Properties.FireName,
			Year:       int(f.Properties.Year),
			Acres:      f.Properties.GisAcres,
			Geographic: f.Geometry,
			Planar:     planar,
		})
	}

	s.logger.Info("loaded reference perimeters", "path", s.referencePath, "fires", len(refs))
	return refs, nil
}
