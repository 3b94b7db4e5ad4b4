package domain

import "github.com/peterstace/simplefeatures/geom"

// Projector converts geometries between the geographic display frame and the
// area-accurate planar frame. Implementations must preserve vertex order and
// ring structure so row identity survives reprojection.
type Projector interface {
	// ToPlanar reprojects a geographic (lon/lat) geometry into the planar
	// frame used for area and overlap computation.
	ToPlanar(g geom.Geometry) (geom.Geometry, error)

	// ToGeographic reprojects a planar geometry back to lon/lat for display.
	ToGeographic(g geom.Geometry) (geom.Geometry, error)
}
