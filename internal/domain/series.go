package domain

import (
	"math"
	"sort"
	"time"
)

// WindowSeries is one fire's predicted perimeters sorted by timestamp
// ascending. Windows without a timestamp sort after all timestamped windows,
// preserving their relative input order. Window indexes are positions in this
// sorted sequence, so the summary list and the feature collection stay
// correlated even though they apply different filters.
type WindowSeries struct {
	windows []WindowPerimeter
}

// NewWindowSeries sorts a fire's windows into a series. The input slice is
// not modified.
func NewWindowSeries(windows []WindowPerimeter) WindowSeries {
	sorted := make([]WindowPerimeter, len(windows))
	copy(sorted, windows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Timestamp, sorted[j].Timestamp
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return WindowSeries{windows: sorted}
}

// Len reports the number of windows in the series, filtered or not.
func (s WindowSeries) Len() int {
	return len(s.windows)
}

// Final returns the chronologically last window. ok is false for an empty
// series. The final window is selected before any filtering, so a trailing
// window without geometry still counts as final.
func (s WindowSeries) Final() (WindowPerimeter, bool) {
	if len(s.windows) == 0 {
		return WindowPerimeter{}, false
	}
	return s.windows[len(s.windows)-1], true
}

// Summaries builds the window-summary sequence for the metadata file,
// skipping windows whose geometry is absent. Zero-area windows are kept here
// even though Features drops them; the two filters are deliberately
// different.
func (s WindowSeries) Summaries() []WindowSummary {
	summaries := make([]WindowSummary, 0, len(s.windows))
	for _, w := range s.windows {
		if w.Geographic == nil {
			continue
		}
		count := 0
		if w.PointCount != nil {
			count = *w.PointCount
		}
		summaries = append(summaries, WindowSummary{
			AreaKm2:    round2(w.AreaKm2),
			Timestamp:  formatTimestamp(w.Timestamp),
			PointCount: count,
		})
	}
	return summaries
}

// Features builds the GeoJSON features for the map layer, skipping windows
// whose geometry is absent or empty and windows whose planar area is not
// positive. window_idx is the position in the sorted series, so indexes may
// have gaps where windows were filtered out.
func (s WindowSeries) Features() []Feature {
	features := make([]Feature, 0, len(s.windows))
	for idx, w := range s.windows {
		if w.Geographic == nil || w.Geographic.IsEmpty() {
			continue
		}
		if w.AreaKm2 <= 0 {
			continue
		}
		features = append(features, Feature{
			Type: "Feature",
			Properties: map[string]any{
				"window_idx": idx,
				"timestamp":  formatTimestamp(w.Timestamp),
				"area_km2":   round2(w.AreaKm2),
			},
			Geometry: *w.Geographic,
		})
	}
	return features
}

// formatTimestamp renders a timestamp as RFC 3339, or nil (JSON null) when absent.
func formatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
