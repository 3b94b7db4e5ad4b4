package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoReference signals that a fire has no matching reference perimeter
	// and must be excluded from all output.
	ErrNoReference = errors.New("no matching reference perimeter")

	// ErrEmptyFinalGeometry signals that a fire's chronologically last
	// predicted window has no usable geometry and the fire must be excluded
	// from all output.
	ErrEmptyFinalGeometry = errors.New("final predicted geometry is empty")
)

// AssembleFire joins a fire's window series with its reference perimeter and
// produces the exportable per-fire record and feature collection. A nil ref
// or an unusable final geometry returns ErrNoReference or
// ErrEmptyFinalGeometry respectively; callers skip the fire on either.
func AssembleFire(series WindowSeries, ref *ReferencePerimeter) (FireRecord, FeatureCollection, error) {
	if ref == nil {
		return FireRecord{}, FeatureCollection{}, ErrNoReference
	}

	final, ok := series.Final()
	if !ok || final.Planar == nil || final.Geographic == nil || final.Planar.IsEmpty() {
		return FireRecord{}, FeatureCollection{}, ErrEmptyFinalGeometry
	}

	centroid, ok := final.Geographic.Centroid().XY()
	if !ok {
		return FireRecord{}, FeatureCollection{}, ErrEmptyFinalGeometry
	}

	overlap, err := EvaluateOverlap(*final.Planar, ref.Planar)
	if err != nil {
		return FireRecord{}, FeatureCollection{}, fmt.Errorf("evaluate fire %s: %w", ref.FireID, err)
	}

	actualAreaKm2 := 0.0
	if ref.Acres != nil {
		actualAreaKm2 = *ref.Acres * AcresToKm2
	}

	features := append(series.Features(), Feature{
		Type: "Feature",
		Properties: map[string]any{
			"type":     "calfire_actual",
			"area_km2": round2(actualAreaKm2),
		},
		Geometry: ref.Geographic,
	})

	record := FireRecord{
		FireID: ref.FireID,
		Name:   ref.Name,
		Year:   ref.Year,
		// The dashboard's map library takes latitude first, so the axis
		// order is inverted relative to the geometry's (x, y).
		Centroid:      [2]float64{centroid.Y, centroid.X},
		FinalAreaKm2:  round2(final.AreaKm2),
		ActualAreaKm2: round2(actualAreaKm2),
		F125:          round3(overlap.FBeta),
		IoU:           round3(overlap.IoU),
		Windows:       series.Summaries(),
		AssembledAt:   clock.Now(),
	}

	return record, FeatureCollection{Type: "FeatureCollection", Features: features}, nil
}
