package geo

import "math"

// WGS84 ellipsoid parameters.
const (
	SemiMajorAxis = 6378137.0
	Flattening    = 1.0 / 298.257223563

	eccSquared = Flattening * (2 - Flattening)
	degToRad   = math.Pi / 180.0
	radToDeg   = 180.0 / math.Pi
)

// Converter maps geodetic positions to the local frame of a datum and back.
// Implementations must be stateless and safe for concurrent use.
type Converter interface {
	ToLocal(datum Datum, pos Geodetic) Point
	ToGeodetic(datum Datum, p Point) Geodetic
}

// WGS84 converts through Earth-centered coordinates on the WGS84 ellipsoid
// and a tangent plane at the datum.
type WGS84 struct{}

// DefaultConverter is the converter used when none is configured.
var DefaultConverter Converter = WGS84{}

// ToLocal implements Converter.
func (WGS84) ToLocal(datum Datum, pos Geodetic) Point {
	x0, y0, z0 := geodeticToECEF(datum.Latitude, datum.Longitude, datum.Altitude)
	x, y, z := geodeticToECEF(pos.Latitude, pos.Longitude, pos.Altitude)
	dx, dy, dz := x-x0, y-y0, z-z0

	sinLat, cosLat := math.Sincos(datum.Latitude * degToRad)
	sinLon, cosLon := math.Sincos(datum.Longitude * degToRad)

	return Point{
		X: -sinLon*dx + cosLon*dy,
		Y: -sinLat*cosLon*dx - sinLat*sinLon*dy + cosLat*dz,
		Z: cosLat*cosLon*dx + cosLat*sinLon*dy + sinLat*dz,
	}
}

// ToGeodetic implements Converter.
func (WGS84) ToGeodetic(datum Datum, p Point) Geodetic {
	x0, y0, z0 := geodeticToECEF(datum.Latitude, datum.Longitude, datum.Altitude)

	sinLat, cosLat := math.Sincos(datum.Latitude * degToRad)
	sinLon, cosLon := math.Sincos(datum.Longitude * degToRad)

	dx := -sinLon*p.X - sinLat*cosLon*p.Y + cosLat*cosLon*p.Z
	dy := cosLon*p.X - sinLat*sinLon*p.Y + cosLat*sinLon*p.Z
	dz := cosLat*p.Y + sinLat*p.Z

	lat, lon, alt := ecefToGeodetic(x0+dx, y0+dy, z0+dz)
	return Geodetic{Latitude: lat, Longitude: lon, Altitude: alt}
}

// geodeticToECEF returns Earth-centered Earth-fixed meters.
func geodeticToECEF(lat, lon, alt float64) (x, y, z float64) {
	sinLat, cosLat := math.Sincos(lat * degToRad)
	sinLon, cosLon := math.Sincos(lon * degToRad)

	n := SemiMajorAxis / math.Sqrt(1-eccSquared*sinLat*sinLat)

	x = (n + alt) * cosLat * cosLon
	y = (n + alt) * cosLat * sinLon
	z = (n*(1-eccSquared) + alt) * sinLat
	return x, y, z
}

// ecefToGeodetic inverts geodeticToECEF by fixed point iteration on the
// latitude. The height formula stays valid near the poles.
func ecefToGeodetic(x, y, z float64) (lat, lon, alt float64) {
	lon = math.Atan2(y, x)
	p := math.Hypot(x, y)

	phi := math.Atan2(z, p*(1-eccSquared))
	for range 16 {
		sinPhi := math.Sin(phi)
		n := SemiMajorAxis / math.Sqrt(1-eccSquared*sinPhi*sinPhi)
		next := math.Atan2(z+eccSquared*n*sinPhi, p)
		if math.Abs(next-phi) < 1e-15 {
			phi = next
			break
		}
		phi = next
	}

	sinPhi, cosPhi := math.Sincos(phi)
	alt = p*cosPhi + z*sinPhi - SemiMajorAxis*math.Sqrt(1-eccSquared*sinPhi*sinPhi)

	return phi * radToDeg, lon * radToDeg, alt
}

func distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
