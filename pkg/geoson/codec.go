// Package geoson reads and writes GeoJSON documents whose geometry is kept in
// a local East-North-Up frame.
//
// The top-level "properties" object carries the frame:
//
//	{
//	  "type": "FeatureCollection",
//	  "properties": {"crs": "EPSG:4326", "datum": [lon, lat, alt], "heading": 0},
//	  "features": [...]
//	}
//
// With "crs" set to EPSG:4326 (or WGS84, WGS) coordinates are geodetic and are
// converted to local meters on read. With ENU (or ECEF) they are already local.
// The in-memory geo.FeatureCollection is the same in both cases, and Write
// chooses the flavor of the output.
//
// Multi* geometries and GeometryCollections are flattened into one feature per
// member, LineStrings of exactly two positions become geo.Segment, and only
// the outer ring of a Polygon is kept.
package geoson

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/geoson/pkg/geo"
)

// Codec converts between GeoJSON text and geo.FeatureCollection.
// The zero value is ready to use. A Codec holds no per-call state and may be
// shared between goroutines.
type Codec struct {
	// Converter maps geodetic coordinates to the local frame.
	// Defaults to geo.DefaultConverter.
	Converter geo.Converter

	// Logger receives debug events for skipped features.
	// Defaults to the global zerolog logger.
	Logger *zerolog.Logger

	// DefaultDatum anchors documents that are a bare Feature or geometry and
	// therefore carry no datum.
	DefaultDatum geo.Datum

	// Indent pretty-prints the output.
	Indent bool
}

var std = &Codec{}

func (c *Codec) converter() geo.Converter {
	if c.Converter != nil {
		return c.Converter
	}
	return geo.DefaultConverter
}

func (c *Codec) log() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &log.Logger
}

// Read parses the GeoJSON file at path.
func Read(path string) (*geo.FeatureCollection, error) {
	return std.Read(path)
}

// Parse decodes a GeoJSON document held in memory.
func Parse(data []byte) (*geo.FeatureCollection, error) {
	return std.Parse(data)
}

// Write stores fc at path with WGS coordinates.
func Write(fc *geo.FeatureCollection, path string) error {
	return std.Write(fc, path, WGS)
}

// WriteAs stores fc at path using the given output CRS.
func WriteAs(fc *geo.FeatureCollection, path string, crs CRS) error {
	return std.Write(fc, path, crs)
}

// Marshal encodes fc as a compact GeoJSON document in the given CRS.
func Marshal(fc *geo.FeatureCollection, crs CRS) ([]byte, error) {
	return std.Marshal(fc, crs)
}
