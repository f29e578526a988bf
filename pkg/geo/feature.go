package geo

import (
	"fmt"
	"strings"
)

// Feature is one geometry with its string properties.
// Non-string JSON property values are kept as their canonical JSON text.
type Feature struct {
	Geometry   Geometry
	Properties map[string]string
}

// FeatureCollection is the whole document in local coordinates.
//
// Datum may be reassigned after parsing. Coordinates already stored in
// Features keep their numeric values and are interpreted relative to the new
// datum from then on; nothing is reprojected.
type FeatureCollection struct {
	Datum    Datum
	Heading  Heading
	Features []Feature

	// Properties holds the collection-wide keys of the wire "properties"
	// object, without crs, datum and heading.
	Properties map[string]string
}

// NewFeatureCollection returns an empty collection anchored at datum.
func NewFeatureCollection(datum Datum, heading Heading) *FeatureCollection {
	return &FeatureCollection{
		Datum:      datum,
		Heading:    heading,
		Features:   []Feature{},
		Properties: map[string]string{},
	}
}

// Add appends a feature. A nil props map is replaced by an empty one.
func (fc *FeatureCollection) Add(g Geometry, props map[string]string) {
	if props == nil {
		props = map[string]string{}
	}
	fc.Features = append(fc.Features, Feature{Geometry: g, Properties: props})
}

// String returns a short human readable summary of the collection.
func (fc *FeatureCollection) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "DATUM: %g, %g, %g\n", fc.Datum.Latitude, fc.Datum.Longitude, fc.Datum.Altitude)
	fmt.Fprintf(&b, "HEADING: %g\n", fc.Heading.Yaw)
	fmt.Fprintf(&b, "FEATURES: %d\n", len(fc.Features))

	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		fmt.Fprintf(&b, "  %s\n", f.Geometry.Kind())
		if len(f.Properties) > 0 {
			fmt.Fprintf(&b, "    PROPS: %d\n", len(f.Properties))
		}
	}

	return b.String()
}
