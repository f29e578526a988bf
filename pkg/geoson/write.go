package geoson

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/woozymasta/geoson/pkg/geo"
)

// Write stores fc at path in the given CRS. Nothing is created when fc
// cannot be encoded.
func (c *Codec) Write(fc *geo.FeatureCollection, path string, crs CRS) (err error) {
	data, err := c.Marshal(fc, crs)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "open", Path: path, Err: err}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = &IOError{Op: "close", Path: path, Err: closeErr}
		}
	}()

	if _, err := f.Write(data); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}

	c.log().Debug().
		Str("path", path).
		Stringer("crs", crs).
		Int("features", len(fc.Features)).
		Msg("Feature collection written")

	return nil
}

// Marshal encodes fc as a GeoJSON document in the given CRS, terminated by a
// newline.
func (c *Codec) Marshal(fc *geo.FeatureCollection, crs CRS) ([]byte, error) {
	if crs != WGS && crs != ENU {
		return nil, formatErrorf("unsupported output CRS %v", crs)
	}

	props, err := encodeCollectionProperties(fc, crs)
	if err != nil {
		return nil, err
	}

	features := []byte{'['}
	for i, f := range fc.Features {
		if i > 0 {
			features = append(features, ',')
		}
		if features, err = c.appendFeature(features, f, fc.Datum, crs); err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
	}
	features = append(features, ']')

	doc := []byte(`{"type":"FeatureCollection"}`)
	if doc, err = sjson.SetRawBytes(doc, "properties", props); err != nil {
		return nil, err
	}
	if doc, err = sjson.SetRawBytes(doc, "features", features); err != nil {
		return nil, err
	}

	if c.Indent {
		return pretty.PrettyOptions(doc, indentOptions), nil
	}
	return append(doc, '\n'), nil
}

// encodeCollectionProperties writes crs, datum and heading followed by the
// global properties in key order. A global key named like a reserved one
// replaces the reserved value.
func encodeCollectionProperties(fc *geo.FeatureCollection, crs CRS) ([]byte, error) {
	datum, ok := encodeDatum(fc.Datum)
	if !ok {
		return nil, formatErrorf("datum is not finite: %+v", fc.Datum)
	}
	heading, ok := appendNumber(nil, fc.Heading.Yaw)
	if !ok {
		return nil, formatErrorf("heading is not finite: %v", fc.Heading.Yaw)
	}

	members := []member{
		{key: keyCRS, raw: jsonString(crs.String())},
		{key: keyDatum, raw: datum},
		{key: keyHeading, raw: heading},
	}

	for _, key := range slices.Sorted(maps.Keys(fc.Properties)) {
		raw := jsonString(fc.Properties[key])
		idx := slices.IndexFunc(members, func(m member) bool { return m.key == key })
		if idx >= 0 {
			members[idx].raw = raw
			continue
		}
		members = append(members, member{key: key, raw: raw})
	}

	return appendObject(nil, members), nil
}

// encodeDatum writes the datum in GeoJSON axis order.
func encodeDatum(d geo.Datum) ([]byte, bool) {
	b := []byte{'['}
	for i, v := range []float64{d.Longitude, d.Latitude, d.Altitude} {
		if i > 0 {
			b = append(b, ',')
		}
		var ok bool
		if b, ok = appendNumber(b, v); !ok {
			return nil, false
		}
	}
	return append(b, ']'), true
}

func (c *Codec) appendFeature(dst []byte, f geo.Feature, datum geo.Datum, crs CRS) ([]byte, error) {
	keys := slices.Sorted(maps.Keys(f.Properties))
	members := make([]member, 0, len(keys))
	for _, key := range keys {
		members = append(members, member{key: key, raw: jsonString(f.Properties[key])})
	}

	geom, err := c.appendGeometry(nil, f.Geometry, datum, crs)
	if err != nil {
		return dst, err
	}

	feat := []byte(`{"type":"Feature"}`)
	if feat, err = sjson.SetRawBytes(feat, "properties", appendObject(nil, members)); err != nil {
		return dst, err
	}
	if feat, err = sjson.SetRawBytes(feat, "geometry", geom); err != nil {
		return dst, err
	}
	return append(dst, feat...), nil
}
