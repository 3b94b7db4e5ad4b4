package export

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fire-perimeter-etl/internal/domain"
)

func testExporter(t *testing.T) (*Exporter, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExporter(dir, logger), dir
}

func testCollection(t *testing.T) domain.FeatureCollection {
	t.Helper()
	g, err := geom.UnmarshalWKT("POLYGON((-121 39,-120.9 39,-120.9 39.1,-121 39.1,-121 39))")
	require.NoError(t, err)

	timestamp := "2020-09-05T18:00:00Z"
	return domain.FeatureCollection{
		Type: "FeatureCollection",
		Features: []domain.Feature{
			{
				Type:       "Feature",
				Properties: map[string]any{"window_idx": 0, "timestamp": &timestamp, "area_km2": 96.53},
				Geometry:   g,
			},
			{
				Type:       "Feature",
				Properties: map[string]any{"type": "calfire_actual", "area_km2": 1537.35},
				Geometry:   g,
			},
		},
	}
}

func testRecords() []domain.FireRecord {
	timestamp := "2020-09-05T18:00:00Z"
	return []domain.FireRecord{
		{
			FireID:        "CREEK_00123",
			Name:          "CREEK",
			Year:          2020,
			Centroid:      [2]float64{39.05, -120.95},
			FinalAreaKm2:  96.53,
			ActualAreaKm2: 1537.35,
			F125:          0.41,
			IoU:           0.062,
			Windows: []domain.WindowSummary{
				{AreaKm2: 96.53, Timestamp: &timestamp, PointCount: 412},
			},
			AssembledAt: time.Date(2020, 9, 15, 6, 0, 0, 0, time.UTC),
		},
	}
}

func TestWritePerimeters(t *testing.T) {
	e, dir := testExporter(t)
	fc := testCollection(t)

	require.NoError(t, e.WritePerimeters("CREEK_00123", fc))

	data, err := os.ReadFile(filepath.Join(dir, "perimeters", "CREEK_00123.json"))
	require.NoError(t, err)

	// Compact encoding, no trailing newline.
	assert.NotContains(t, string(data), "\n")

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "FeatureCollection", got["type"])

	features, ok := got["features"].([]any)
	require.True(t, ok)
	require.Len(t, features, 2)

	last, ok := features[1].(map[string]any)
	require.True(t, ok)
	props, ok := last["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "calfire_actual", props["type"])

	// Geometry round-trips as GeoJSON.
	first, ok := features[0].(map[string]any)
	require.True(t, ok)
	geometry, ok := first["geometry"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Polygon", geometry["type"])
}

func TestWritePerimeters_Deterministic(t *testing.T) {
	e, dir := testExporter(t)
	fc := testCollection(t)
	path := filepath.Join(dir, "perimeters", "CREEK_00123.json")

	require.NoError(t, e.WritePerimeters("CREEK_00123", fc))
	firstPass, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, e.WritePerimeters("CREEK_00123", fc))
	secondPass, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(firstPass, secondPass), "rewrite must produce identical bytes")
}

func TestWriteMetadata(t *testing.T) {
	e, dir := testExporter(t)

	require.NoError(t, e.WriteMetadata(testRecords()))

	data, err := os.ReadFile(filepath.Join(dir, "fire_data.json"))
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(string(data), "\n"), "metadata file ends with a newline")
	assert.Contains(t, string(data), "  \"fire_id\": \"CREEK_00123\"", "two-space indentation")

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)

	rec := got[0]
	assert.Equal(t, "CREEK", rec["name"])
	assert.Equal(t, float64(2020), rec["year"])
	assert.Equal(t, 0.062, rec["iou"])
	assert.NotContains(t, rec, "AssembledAt", "assembly time is internal only")

	centroid, ok := rec["centroid"].([]any)
	require.True(t, ok)
	require.Len(t, centroid, 2)
	assert.Equal(t, 39.05, centroid[0])

	windows, ok := rec["windows"].([]any)
	require.True(t, ok)
	require.Len(t, windows, 1)
	window, ok := windows[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(412), window["cumulative_points"])
}

func TestWriteMetadata_NilRecords(t *testing.T) {
	e, dir := testExporter(t)

	require.NoError(t, e.WriteMetadata(nil))

	data, err := os.ReadFile(filepath.Join(dir, "fire_data.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestWriteMetadata_Deterministic(t *testing.T) {
	e, dir := testExporter(t)
	path := filepath.Join(dir, "fire_data.json")

	require.NoError(t, e.WriteMetadata(testRecords()))
	firstPass, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, e.WriteMetadata(testRecords()))
	secondPass, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(firstPass, secondPass))
}

func TestWriteMetadata_NullTimestamp(t *testing.T) {
	e, dir := testExporter(t)
	records := testRecords()
	records[0].Windows[0].Timestamp = nil

	require.NoError(t, e.WriteMetadata(records))

	data, err := os.ReadFile(filepath.Join(dir, "fire_data.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"timestamp\": null")
}
