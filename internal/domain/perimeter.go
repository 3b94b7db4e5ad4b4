package domain

import (
	"time"

	"github.com/peterstace/simplefeatures/geom"
)

// WindowPerimeter is one predicted perimeter snapshot for one fire at one time
// window. Geographic and Planar hold the same polygon in both coordinate
// frames; both are nil when the source record carried no geometry.
type WindowPerimeter struct {
	FireID     string
	Timestamp  *time.Time // nil when the source row has no timestamp
	PointCount *int       // hotspot count feeding the window; nil counts as 0
	Geographic *geom.Geometry
	Planar     *geom.Geometry
	AreaKm2    float64 // derived from the planar frame only
}

// ReferencePerimeter is the authoritative CAL FIRE boundary for one fire.
type ReferencePerimeter struct {
	FireID     string
	Name       string
	Year       int
	Acres      *float64 // GIS_ACRES; nil counts as 0
	Geographic geom.Geometry
	Planar     geom.Geometry
}

// WindowSummary is the per-window entry in the aggregate metadata file.
type WindowSummary struct {
	AreaKm2    float64 `json:"area_km2"`
	Timestamp  *string `json:"timestamp"`
	PointCount int     `json:"cumulative_points"`
}

// FireRecord is the exported per-fire metadata entry. Field order matches the
// dashboard's expected JSON key order.
type FireRecord struct {
	FireID        string          `json:"fire_id"`
	Name          string          `json:"name"`
	Year          int             `json:"year"`
	Centroid      [2]float64      `json:"centroid"` // [lat, lon]
	FinalAreaKm2  float64         `json:"final_area_km2"`
	ActualAreaKm2 float64         `json:"actual_area_km2"`
	F125          float64         `json:"f125"`
	IoU           float64         `json:"iou"`
	Windows       []WindowSummary `json:"windows"`

	AssembledAt time.Time `json:"-"`
}

// Feature is a GeoJSON feature in the per-fire perimeter file. Geometry is
// always in the geographic frame.
type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   geom.Geometry  `json:"geometry"`
}

// FeatureCollection is the per-fire perimeter artifact: one feature per
// surviving window followed by exactly one reference-perimeter feature.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
