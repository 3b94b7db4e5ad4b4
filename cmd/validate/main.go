// Command validate performs end-to-end integrity checks on exported dashboard
// artifacts: it re-runs the evaluation on the input datasets and verifies that
// fire_data.json and every perimeters/<fire_id>.json agree with the recomputed
// results, and that both artifacts satisfy the dashboard's structural
// contract.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -perimeters data/fixtures/window_perimeters.ndjson \
//	  -reference data/fixtures/california_fire_perimeters.geojson \
//	  -output-dir dashboard/dashboard_data
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/fire-perimeter-etl/internal/adapter/albers"
	"github.com/couchcryptid/fire-perimeter-etl/internal/adapter/dataset"
	"github.com/couchcryptid/fire-perimeter-etl/internal/domain"
	"github.com/peterstace/simplefeatures/geom"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	perimeters := flag.String("perimeters", "", "path to the predicted-window NDJSON dataset")
	reference := flag.String("reference", "", "path to the CAL FIRE reference GeoJSON")
	outputDir := flag.String("output-dir", "", "directory containing the exported artifacts")
	flag.Parse()

	if *perimeters == "" || *reference == "" || *outputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*perimeters, *reference, *outputDir); code != 0 {
		os.Exit(code)
	}
}

func run(perimetersPath, referencePath, outputDir string) int {
	fmt.Println("=== Fire Export Artifact Validation ===")
	fmt.Println()

	exported, err := loadMetadata(filepath.Join(outputDir, "fire_data.json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fire metadata: %v\n", err)
		return 1
	}

	expected, err := recompute(perimetersPath, referencePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: recompute from inputs: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateMetadata(exported),
		validatePerimeterFiles(outputDir, exported),
		validateConsistency(exported, expected),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Fires: %d exported, %d recomputed\n", len(exported), len(expected))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadMetadata(path string) ([]domain.FireRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []domain.FireRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// recompute re-runs the full evaluation on the input datasets, producing the
// records the artifacts should contain, keyed in processing order.
func recompute(perimetersPath, referencePath string) ([]domain.FireRecord, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := dataset.NewSource(perimetersPath, referencePath, albers.NewCaliforniaProjector(), logger)

	ctx := context.Background()
	windows, err := source.WindowPerimeters(ctx)
	if err != nil {
		return nil, err
	}
	refs, err := source.ReferencePerimeters(ctx)
	if err != nil {
		return nil, err
	}

	byFire := map[string][]domain.WindowPerimeter{}
	var order []string
	for _, w := range windows {
		if _, seen := byFire[w.FireID]; !seen {
			order = append(order, w.FireID)
		}
		byFire[w.FireID] = append(byFire[w.FireID], w)
	}
	refByID := map[string]*domain.ReferencePerimeter{}
	for i := range refs {
		if _, ok := refByID[refs[i].FireID]; !ok {
			refByID[refs[i].FireID] = &refs[i]
		}
	}

	var records []domain.FireRecord
	for _, fireID := range order {
		record, _, err := domain.AssembleFire(domain.NewWindowSeries(byFire[fireID]), refByID[fireID])
		if err != nil {
			continue // skipped fires must simply be absent from the artifacts
		}
		records = append(records, record)
	}
	return records, nil
}

// ── Phase 1: Metadata integrity ──

func validateMetadata(records []domain.FireRecord) *phase {
	p := &phase{name: "Phase 1: Metadata integrity (fire_data.json)"}

	seen := map[string]bool{}
	for i, rec := range records {
		if rec.FireID == "" {
			p.errorf("record %d: empty fire_id", i)
			continue
		}
		if seen[rec.FireID] {
			p.errorf("record %d: duplicate fire_id %q", i, rec.FireID)
		}
		seen[rec.FireID] = true

		checkBounded(p, rec.FireID, "iou", rec.IoU)
		checkBounded(p, rec.FireID, "f125", rec.F125)
		if rec.FinalAreaKm2 < 0 {
			p.errorf("%s: negative final_area_km2 %g", rec.FireID, rec.FinalAreaKm2)
		}
		if rec.ActualAreaKm2 < 0 {
			p.errorf("%s: negative actual_area_km2 %g", rec.FireID, rec.ActualAreaKm2)
		}

		lat, lon := rec.Centroid[0], rec.Centroid[1]
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			p.errorf("%s: centroid [%g, %g] is not a [lat, lon] pair", rec.FireID, lat, lon)
		}

		checkWindowOrder(p, rec)
	}
	return p
}

func checkBounded(p *phase, fireID, field string, v float64) {
	if v < 0 || v > 1 {
		p.errorf("%s: %s %g outside [0, 1]", fireID, field, v)
	}
}

// checkWindowOrder verifies timestamps are non-decreasing with nulls trailing.
func checkWindowOrder(p *phase, rec domain.FireRecord) {
	var prev *time.Time
	nullSeen := false
	for i, w := range rec.Windows {
		if w.Timestamp == nil {
			nullSeen = true
			continue
		}
		if nullSeen {
			p.errorf("%s: window %d has a timestamp after a null timestamp", rec.FireID, i)
			return
		}
		t, err := time.Parse(time.RFC3339, *w.Timestamp)
		if err != nil {
			p.errorf("%s: window %d: invalid timestamp %q", rec.FireID, i, *w.Timestamp)
			return
		}
		if prev != nil && t.Before(*prev) {
			p.errorf("%s: window %d timestamp %s precedes window %d", rec.FireID, i, *w.Timestamp, i-1)
			return
		}
		prev = &t
	}
}

// ── Phase 2: Perimeter files ──

type perimeterFile struct {
	Type     string `json:"type"`
	Features []struct {
		Type       string          `json:"type"`
		Properties map[string]any  `json:"properties"`
		Geometry   json.RawMessage `json:"geometry"`
	} `json:"features"`
}

func validatePerimeterFiles(outputDir string, records []domain.FireRecord) *phase {
	p := &phase{name: "Phase 2: Perimeter files (perimeters/*.json)"}

	for _, rec := range records {
		path := filepath.Join(outputDir, "perimeters", rec.FireID+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			p.errorf("%s: %v", rec.FireID, err)
			continue
		}
		var file perimeterFile
		if err := json.Unmarshal(data, &file); err != nil {
			p.errorf("%s: parse: %v", rec.FireID, err)
			continue
		}
		checkPerimeterFile(p, rec.FireID, file)
	}
	return p
}

func checkPerimeterFile(p *phase, fireID string, file perimeterFile) {
	if file.Type != "FeatureCollection" {
		p.errorf("%s: type is %q, want FeatureCollection", fireID, file.Type)
	}
	if len(file.Features) == 0 {
		p.errorf("%s: no features", fireID)
		return
	}

	last := file.Features[len(file.Features)-1]
	if last.Properties["type"] != "calfire_actual" {
		p.errorf("%s: trailing feature is not the calfire_actual perimeter", fireID)
	}

	for i, f := range file.Features {
		if f.Type != "Feature" {
			p.errorf("%s: feature %d type is %q", fireID, i, f.Type)
		}
		var g geom.Geometry
		if err := json.Unmarshal(f.Geometry, &g); err != nil {
			p.errorf("%s: feature %d: invalid geometry: %v", fireID, i, err)
		}
		if _, ok := f.Properties["area_km2"]; !ok {
			p.errorf("%s: feature %d: missing area_km2", fireID, i)
		}
		if i == len(file.Features)-1 {
			continue
		}
		if _, ok := f.Properties["window_idx"]; !ok {
			p.errorf("%s: feature %d: missing window_idx", fireID, i)
		}
		if _, ok := f.Properties["timestamp"]; !ok {
			p.errorf("%s: feature %d: missing timestamp", fireID, i)
		}
	}
}

// ── Phase 3: Recompute consistency ──

func validateConsistency(exported, expected []domain.FireRecord) *phase {
	p := &phase{name: "Phase 3: Recompute consistency (inputs vs artifacts)"}

	if len(exported) != len(expected) {
		p.errorf("fire count: exported %d, recomputed %d", len(exported), len(expected))
	}

	expByID := map[string]domain.FireRecord{}
	for _, rec := range expected {
		expByID[rec.FireID] = rec
	}

	for i, got := range exported {
		want, ok := expByID[got.FireID]
		if !ok {
			p.errorf("%s: exported but not produced by recomputation", got.FireID)
			continue
		}
		if i < len(expected) && expected[i].FireID != got.FireID {
			p.errorf("position %d: exported %s, recomputed %s (first-seen order broken)", i, got.FireID, expected[i].FireID)
		}
		compareRecords(p, got, want)
	}
	return p
}

func compareRecords(p *phase, got, want domain.FireRecord) {
	id := got.FireID
	if got.Name != want.Name {
		p.errorf("%s: name: got %q, want %q", id, got.Name, want.Name)
	}
	if got.Year != want.Year {
		p.errorf("%s: year: got %d, want %d", id, got.Year, want.Year)
	}
	checkFloat(p, id, "iou", got.IoU, want.IoU)
	checkFloat(p, id, "f125", got.F125, want.F125)
	checkFloat(p, id, "final_area_km2", got.FinalAreaKm2, want.FinalAreaKm2)
	checkFloat(p, id, "actual_area_km2", got.ActualAreaKm2, want.ActualAreaKm2)
	checkFloat(p, id, "centroid lat", got.Centroid[0], want.Centroid[0])
	checkFloat(p, id, "centroid lon", got.Centroid[1], want.Centroid[1])
	if len(got.Windows) != len(want.Windows) {
		p.errorf("%s: windows: got %d, want %d", id, len(got.Windows), len(want.Windows))
	}
}

func checkFloat(p *phase, id, field string, got, want float64) {
	if math.Abs(got-want) > 1e-9 {
		p.errorf("%s: %s: got %g, want %g", id, field, got, want)
	}
}
