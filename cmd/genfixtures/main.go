// Command genfixtures generates synthetic input datasets for the export
// pipeline: a predicted-window NDJSON file and a CAL FIRE-style reference
// GeoJSON FeatureCollection. It uses the actual domain and projection
// packages so the fixtures exercise the same code paths as real data, and it
// prints the expected evaluation results for updating test assertions.
//
// Usage:
//
//	go run ./cmd/genfixtures -out data/fixtures -fires 3
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/fire-perimeter-etl/internal/adapter/albers"
	"github.com/couchcryptid/fire-perimeter-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/peterstace/simplefeatures/geom"
)

var baseTime = time.Date(2020, time.September, 5, 0, 0, 0, 0, time.UTC)

// fixtureCenters are planar (EPSG:3310) coordinates of synthetic fire
// origins, spread across northern California.
var fixtureCenters = [][2]float64{
	{-80000, 120000},
	{20000, 60000},
	{-140000, 210000},
	{60000, 150000},
	{-30000, -20000},
}

var fixtureNames = []string{"CREEK", "ELKHORN", "BUTTE", "RIVER", "GLASS"}

// rawWindow mirrors one NDJSON line of the predicted-window dataset.
type rawWindow struct {
	FireID    string         `json:"fire_id"`
	Timestamp *string        `json:"timestamp"`
	NPoints   *int           `json:"n_points"`
	Geometry  *geom.Geometry `json:"geometry"`
}

type referenceFeature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   geom.Geometry  `json:"geometry"`
}

type referenceFile struct {
	Type     string             `json:"type"`
	Features []referenceFeature `json:"features"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for the fixture datasets")
	fires := flag.Int("fires", 3, "number of well-formed fires to generate")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *fires < 1 || *fires > len(fixtureCenters) {
		return fmt.Errorf("-fires must be between 1 and %d", len(fixtureCenters))
	}

	// Fix the clock for reproducible AssembledAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2020, time.September, 12, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	projector := albers.NewCaliforniaProjector()

	var windows []rawWindow
	var refs []referenceFeature

	for i := range *fires {
		fw, ref, err := buildFire(projector, i)
		if err != nil {
			return fmt.Errorf("building fire %d: %w", i, err)
		}
		windows = append(windows, fw...)
		refs = append(refs, ref)
	}

	// Edge case: a fire with windows but no matching reference. The export
	// must skip it without aborting.
	orphaned, _, err := buildFire(projector, len(fixtureCenters)-1)
	if err != nil {
		return fmt.Errorf("building orphaned fire: %w", err)
	}
	for i := range orphaned {
		orphaned[i].FireID = "ORPHAN_00000"
	}
	windows = append(windows, orphaned...)

	// Edge case: a fire whose chronologically last window has no geometry.
	truncated, truncatedRef, err := buildFire(projector, len(fixtureCenters)-2)
	if err != nil {
		return fmt.Errorf("building truncated fire: %w", err)
	}
	for i := range truncated {
		truncated[i].FireID = "TRUNCATED_99999"
	}
	ts := baseTime.Add(100 * time.Hour).Format(time.RFC3339)
	truncated = append(truncated, rawWindow{FireID: "TRUNCATED_99999", Timestamp: &ts})
	truncatedRef.Properties["FIRE_NAME"] = "TRUNCATED"
	truncatedRef.Properties["INC_NUM"] = "99999"
	windows = append(windows, truncated...)
	refs = append(refs, truncatedRef)

	ndjsonPath := filepath.Join(*out, "window_perimeters.ndjson")
	if err := writeNDJSON(ndjsonPath, windows); err != nil {
		return fmt.Errorf("writing window fixture: %w", err)
	}
	log.Printf("wrote %d window rows: %s", len(windows), ndjsonPath)

	refPath := filepath.Join(*out, "california_fire_perimeters.geojson")
	if err := writeJSON(refPath, referenceFile{Type: "FeatureCollection", Features: refs}); err != nil {
		return fmt.Errorf("writing reference fixture: %w", err)
	}
	log.Printf("wrote %d reference fires: %s", len(refs), refPath)

	return printExpected(projector, windows, refs)
}

// buildFire produces one fire's growing window squares plus its reference
// square. Windows grow from 40% of the reference's half-width to 110%,
// slightly offset so the final prediction overlaps but does not match the
// reference. One mid-series window has no geometry to exercise the summary
// filter.
func buildFire(projector *albers.Projector, idx int) ([]rawWindow, referenceFeature, error) {
	cx, cy := fixtureCenters[idx][0], fixtureCenters[idx][1]
	name := fixtureNames[idx]
	incNum := fmt.Sprintf("%05d", 10000+idx)
	fireID := name + "_" + incNum

	const refHalf = 2000.0 // meters; a 4 km x 4 km reference square

	refPlanar, err := squarePolygon(cx, cy, refHalf)
	if err != nil {
		return nil, referenceFeature{}, err
	}
	refGeo, err := projector.ToGeographic(refPlanar)
	if err != nil {
		return nil, referenceFeature{}, err
	}
	acres := refPlanar.Area() / 1e6 / domain.AcresToKm2

	ref := referenceFeature{
		Type: "Feature",
		Properties: map[string]any{
			"FIRE_NAME": name,
			"INC_NUM":   incNum,
			"YEAR_":     2020,
			"GIS_ACRES": acres,
		},
		Geometry: refGeo,
	}

	var windows []rawWindow
	scales := []float64{0.4, 0.55, 0.7, 0.85, 1.0, 1.1}
	for w, scale := range scales {
		ts := baseTime.Add(time.Duration(w) * 12 * time.Hour).Format(time.RFC3339)
		points := (w + 1) * 40

		if w == 2 {
			// No geometry for this window; it must still appear in the
			// summary list with its timestamp.
			windows = append(windows, rawWindow{FireID: fireID, Timestamp: &ts, NPoints: &points})
			continue
		}

		// Offset grows with the window so the final perimeter is close to,
		// but not identical to, the reference.
		offset := 150.0 * float64(w)
		planar, err := squarePolygon(cx+offset, cy+offset/2, refHalf*scale)
		if err != nil {
			return nil, referenceFeature{}, err
		}
		geographic, err := projector.ToGeographic(planar)
		if err != nil {
			return nil, referenceFeature{}, err
		}
		windows = append(windows, rawWindow{
			FireID:    fireID,
			Timestamp: &ts,
			NPoints:   &points,
			Geometry:  &geographic,
		})
	}
	return windows, ref, nil
}

func squarePolygon(cx, cy, half float64) (geom.Geometry, error) {
	wkt := fmt.Sprintf("POLYGON((%[1]f %[3]f,%[2]f %[3]f,%[2]f %[4]f,%[1]f %[4]f,%[1]f %[3]f))",
		cx-half, cx+half, cy-half, cy+half)
	return geom.UnmarshalWKT(wkt)
}

func writeNDJSON(path string, rows []rawWindow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var sb strings.Builder
	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// printExpected re-runs the evaluation on the generated fixtures and prints
// the per-fire results for updating test assertions.
func printExpected(projector *albers.Projector, rows []rawWindow, refs []referenceFeature) error {
	byFire := map[string][]domain.WindowPerimeter{}
	var order []string
	for _, row := range rows {
		w := domain.WindowPerimeter{FireID: row.FireID, PointCount: row.NPoints}
		if row.Timestamp != nil {
			t, err := time.Parse(time.RFC3339, *row.Timestamp)
			if err != nil {
				return err
			}
			w.Timestamp = &t
		}
		if row.Geometry != nil {
			planar, err := projector.ToPlanar(*row.Geometry)
			if err != nil {
				return err
			}
			w.Geographic = row.Geometry
			w.Planar = &planar
			w.AreaKm2 = planar.Area() / 1e6
		}
		if _, seen := byFire[w.FireID]; !seen {
			order = append(order, w.FireID)
		}
		byFire[w.FireID] = append(byFire[w.FireID], w)
	}

	refByID := map[string]*domain.ReferencePerimeter{}
	for _, rf := range refs {
		planar, err := projector.ToPlanar(rf.Geometry)
		if err != nil {
			return err
		}
		acres := rf.Properties["GIS_ACRES"].(float64)
		name := rf.Properties["FIRE_NAME"].(string)
		id := name + "_" + rf.Properties["INC_NUM"].(string)
		refByID[id] = &domain.ReferencePerimeter{
			FireID:     id,
			Name:       name,
			Year:       rf.Properties["YEAR_"].(int),
			Acres:      &acres,
			Geographic: rf.Geometry,
			Planar:     planar,
		}
	}

	fmt.Println("\n=== Expected evaluation results ===")
	for _, fireID := range order {
		series := domain.NewWindowSeries(byFire[fireID])
		record, fc, err := domain.AssembleFire(series, refByID[fireID])
		if err != nil {
			fmt.Printf("%-18s skipped: %v\n", fireID, err)
			continue
		}
		fmt.Printf("%-18s iou=%.3f f125=%.3f final=%.2fkm2 actual=%.2fkm2 windows=%d features=%d centroid=[%.4f, %.4f]\n",
			fireID, record.IoU, record.F125, record.FinalAreaKm2, record.ActualAreaKm2,
			len(record.Windows), len(fc.Features), record.Centroid[0], record.Centroid[1])
	}
	return nil
}
