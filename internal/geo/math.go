package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// WGS84 ellipsoid.
const (
	semiMajorAxis = 6378137.0
	semiMinorAxis = 6356752.3142451793
	flattening    = (semiMajorAxis - semiMinorAxis) / semiMajorAxis
	eccentricity2 = flattening * (2 - flattening)
)

// Cartesian3 is an Earth-centered, Earth-fixed position in meters.
type Cartesian3 struct {
	X, Y, Z float64
}

// FromDegrees converts a geodetic position (degrees, meters above the ellipsoid)
// into Earth-centered cartesian coordinates.
func FromDegrees(lon, lat, alt float64) Cartesian3 {
	lonRad := lon * math.Pi / 180.0
	latRad := lat * math.Pi / 180.0

	sinLat := math.Sin(latRad)
	cosLat := math.Cos(latRad)

	// Prime vertical radius of curvature
	n := semiMajorAxis / math.Sqrt(1-eccentricity2*sinLat*sinLat)

	return Cartesian3{
		X: (n + alt) * cosLat * math.Cos(lonRad),
		Y: (n + alt) * cosLat * math.Sin(lonRad),
		Z: (n*(1-eccentricity2) + alt) * sinLat,
	}
}

// ToDegrees is the inverse of FromDegrees.
// It iterates on latitude, which converges to sub-millimeter precision near the surface.
func ToDegrees(c Cartesian3) Position {
	p := math.Hypot(c.X, c.Y)
	lon := math.Atan2(c.Y, c.X)

	if p < 1e-9 {
		lat := math.Copysign(math.Pi/2, c.Z)
		return Position{
			Lon: 0,
			Lat: lat * 180.0 / math.Pi,
			Alt: math.Abs(c.Z) - semiMinorAxis,
		}
	}

	lat := math.Atan2(c.Z, p*(1-eccentricity2))
	var alt float64
	for i := 0; i < 8; i++ {
		sinLat := math.Sin(lat)
		n := semiMajorAxis / math.Sqrt(1-eccentricity2*sinLat*sinLat)
		alt = p/math.Cos(lat) - n
		lat = math.Atan2(c.Z, p*(1-eccentricity2*n/(n+alt)))
	}

	return Position{
		Lon: lon * 180.0 / math.Pi,
		Lat: lat * 180.0 / math.Pi,
		Alt: alt,
	}
}

// Extent returns the lon/lat bounding box of the positions.
func Extent(positions []Position) orb.Bound {
	if len(positions) == 0 {
		return orb.Bound{}
	}

	mp := make(orb.MultiPoint, 0, len(positions))
	for _, p := range positions {
		mp = append(mp, orb.Point{p.Lon, p.Lat})
	}

	return mp.Bound()
}
