// Package geo holds the in-memory model of a geoson document and the geodetic
// conversions between WGS84 coordinates and a local East-North-Up frame.
//
// Every geometry is stored in local Cartesian meters relative to a Datum.
// x grows to the east, y to the north and z up.
package geo

import "fmt"

// Datum is the geodetic anchor of the local frame.
type Datum struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`   // degrees
	Longitude float64 `json:"longitude" yaml:"longitude"` // degrees
	Altitude  float64 `json:"altitude" yaml:"altitude"`   // meters
}

// Geodetic returns the datum as a geodetic position.
func (d Datum) Geodetic() Geodetic {
	return Geodetic{Latitude: d.Latitude, Longitude: d.Longitude, Altitude: d.Altitude}
}

// Heading is an orientation of the collection.
// Only Yaw survives a write/read cycle, Roll and Pitch are read back as zero.
type Heading struct {
	Roll  float64 `json:"roll" yaml:"roll"`
	Pitch float64 `json:"pitch" yaml:"pitch"`
	Yaw   float64 `json:"yaw" yaml:"yaw"`
}

// Geodetic is a WGS84 position in degrees, degrees and meters.
type Geodetic struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// Point is a position in the local frame, in meters.
type Point struct {
	X, Y, Z float64
}

// String implements fmt.Stringer.
func (p Point) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}
