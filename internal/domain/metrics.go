package domain

import (
	"fmt"

	"github.com/peterstace/simplefeatures/geom"
)

const (
	// AcresToKm2 converts CAL FIRE GIS_ACRES to square kilometers.
	AcresToKm2 = 0.00404686

	// betaRecallWeight is the fixed beta for the F-beta score. Values above 1
	// weight recall over precision: under-predicting a fire's extent is worse
	// than over-predicting it.
	betaRecallWeight = 1.25
)

// OverlapMetrics quantifies shape agreement between a predicted and a
// reference perimeter. All four values are in [0, 1] for well-formed
// polygonal inputs.
type OverlapMetrics struct {
	IoU       float64
	Precision float64
	Recall    float64
	FBeta     float64
}

// EvaluateOverlap computes overlap-based accuracy metrics for a predicted
// polygon against a reference polygon. Both geometries must be in the planar
// frame. Degenerate inputs (zero-area polygons, empty union) degrade to
// metric value 0 rather than an error; only a failed geometry set operation
// returns one.
func EvaluateOverlap(predicted, reference geom.Geometry) (OverlapMetrics, error) {
	intersection, err := geom.Intersection(predicted, reference)
	if err != nil {
		return OverlapMetrics{}, fmt.Errorf("intersect perimeters: %w", err)
	}
	union, err := geom.Union(predicted, reference)
	if err != nil {
		return OverlapMetrics{}, fmt.Errorf("union perimeters: %w", err)
	}

	intersectionArea := intersection.Area()

	var m OverlapMetrics
	if unionArea := union.Area(); unionArea > 0 {
		m.IoU = intersectionArea / unionArea
	}
	if referenceArea := reference.Area(); referenceArea > 0 {
		m.Recall = intersectionArea / referenceArea
	}
	if predictedArea := predicted.Area(); predictedArea > 0 {
		m.Precision = intersectionArea / predictedArea
	}
	if m.Precision+m.Recall > 0 {
		b2 := betaRecallWeight * betaRecallWeight
		m.FBeta = (1 + b2) * m.Precision * m.Recall / (b2*m.Precision + m.Recall)
	}
	return m, nil
}
