// Package albers implements the coordinate projector between WGS-84
// longitude/latitude and NAD83 / California Albers (EPSG:3310), the
// equal-area planar frame all area and overlap computation uses. The
// ellipsoidal Albers equal-area conic formulas follow Snyder, Map
// Projections: A Working Manual (USGS PP 1395), sections 14-1..14-21.
package albers

import (
	"math"

	"github.com/peterstace/simplefeatures/geom"
)

// EPSG:3310 parameters on the GRS 1980 ellipsoid.
const (
	semiMajorAxis = 6378137.0
	flattening    = 1 / 298.257222101

	stdParallel1Deg = 34.0
	stdParallel2Deg = 40.5
	originLatDeg    = 0.0
	originLonDeg    = -120.0
	falseEasting    = 0.0
	falseNorthing   = -4000000.0
)

const degToRad = math.Pi / 180

// Projector converts geometries between the geographic and planar frames.
// It implements domain.Projector.
type Projector struct {
	e    float64 // first eccentricity
	e2   float64 // first eccentricity squared
	n    float64 // cone constant
	c    float64
	rho0 float64
}

// NewCaliforniaProjector builds the EPSG:3310 projector.
func NewCaliforniaProjector() *Projector {
	p := &Projector{}
	p.e2 = flattening * (2 - flattening)
	p.e = math.Sqrt(p.e2)

	phi1 := stdParallel1Deg * degToRad
	phi2 := stdParallel2Deg * degToRad
	phi0 := originLatDeg * degToRad

	m1 := p.m(phi1)
	m2 := p.m(phi2)
	q1 := p.q(phi1)
	q2 := p.q(phi2)
	q0 := p.q(phi0)

	p.n = (m1*m1 - m2*m2) / (q2 - q1)
	p.c = m1*m1 + p.n*q1
	p.rho0 = semiMajorAxis * math.Sqrt(p.c-p.n*q0) / p.n
	return p
}

// ToPlanar reprojects a geographic (lon/lat degrees) geometry into EPSG:3310
// meters, preserving vertex order and ring structure. The pointwise transform
// is infallible; the error satisfies domain.Projector.
func (p *Projector) ToPlanar(g geom.Geometry) (geom.Geometry, error) {
	return g.TransformXY(p.forward), nil
}

// ToGeographic reprojects an EPSG:3310 geometry back to lon/lat degrees.
func (p *Projector) ToGeographic(g geom.Geometry) (geom.Geometry, error) {
	return g.TransformXY(p.inverse), nil
}

// m is Snyder 14-15.
func (p *Projector) m(phi float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-p.e2*s*s)
}

// q is Snyder 3-12.
func (p *Projector) q(phi float64) float64 {
	s := math.Sin(phi)
	return (1 - p.e2) * (s/(1-p.e2*s*s) - (1/(2*p.e))*math.Log((1-p.e*s)/(1+p.e*s)))
}

func (p *Projector) forward(xy geom.XY) geom.XY {
	phi := xy.Y * degToRad
	lam := xy.X * degToRad

	rho := semiMajorAxis * math.Sqrt(p.c-p.n*p.q(phi)) / p.n
	theta := p.n * (lam - originLonDeg*degToRad)

	return geom.XY{
		X: falseEasting + rho*math.Sin(theta),
		Y: falseNorthing + p.rho0 - rho*math.Cos(theta),
	}
}

func (p *Projector) inverse(xy geom.XY) geom.XY {
	x := xy.X - falseEasting
	y := p.rho0 - (xy.Y - falseNorthing)

	rho := math.Hypot(x, y)
	theta := math.Atan2(x, y)
	q := (p.c - (rho*p.n/semiMajorAxis)*(rho*p.n/semiMajorAxis)) / p.n

	// Snyder 3-16, iterated from the spherical first guess.
	phi := math.Asin(clamp(q/2, -1, 1))
	for range 10 {
		s := math.Sin(phi)
		den := 1 - p.e2*s*s
		cos := math.Cos(phi)
		if math.Abs(cos) < 1e-12 {
			break
		}
		delta := (den * den / (2 * cos)) *
			(q/(1-p.e2) - s/den + (1/(2*p.e))*math.Log((1-p.e*s)/(1+p.e*s)))
		phi += delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}

	lam := originLonDeg*degToRad + theta/p.n
	return geom.XY{X: lam / degToRad, Y: phi / degToRad}
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
