package geoson

import (
	"fmt"
	"maps"
	"os"

	"github.com/tidwall/gjson"

	"github.com/woozymasta/geoson/pkg/geo"
)

// Keys of the top-level properties object that describe the frame.
const (
	keyCRS     = "crs"
	keyDatum   = "datum"
	keyHeading = "heading"
)

func isReserved(key string) bool {
	return key == keyCRS || key == keyDatum || key == keyHeading
}

// Read parses the GeoJSON file at path.
func (c *Codec) Read(path string) (*geo.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	fc, err := c.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c.log().Debug().
		Str("path", path).
		Int("features", len(fc.Features)).
		Msg("Feature collection read")

	return fc, nil
}

// Parse decodes a GeoJSON document held in memory.
func (c *Codec) Parse(data []byte) (*geo.FeatureCollection, error) {
	root, err := parseTree(data)
	if err != nil {
		return nil, err
	}

	doc, err := normalize(root, c.DefaultDatum)
	if err != nil {
		return nil, err
	}

	props := doc.Get("properties")
	if !props.IsObject() {
		return nil, formatErrorf("missing top-level 'properties'")
	}

	crsValue := props.Get(keyCRS)
	if crsValue.Type != gjson.String {
		return nil, formatErrorf("'properties' missing string 'crs'")
	}
	crs, err := ParseCRS(crsValue.Str)
	if err != nil {
		return nil, err
	}

	datum, err := decodeDatum(props.Get(keyDatum))
	if err != nil {
		return nil, err
	}

	heading := props.Get(keyHeading)
	if heading.Type != gjson.Number {
		return nil, formatErrorf("'properties' missing numeric 'heading'")
	}

	fc := geo.NewFeatureCollection(datum, geo.Heading{Yaw: heading.Num})
	props.ForEach(func(key, value gjson.Result) bool {
		if !isReserved(key.Str) {
			fc.Properties[key.Str] = canonical(value)
		}
		return true
	})

	features := doc.Get("features")
	if features.Exists() && !features.IsArray() {
		return nil, formatErrorf("'features' is not an array")
	}

	for i, feat := range features.Array() {
		if !feat.IsObject() {
			c.log().Debug().Int("feature", i).Msg("Skipping feature that is not an object")
			continue
		}

		geom := feat.Get("geometry")
		if !geom.Exists() || geom.Type == gjson.Null {
			c.log().Debug().Int("feature", i).Msg("Skipping feature without geometry")
			continue
		}

		geoms, err := c.decodeGeometry(geom, datum, crs)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}

		featProps, err := decodeFeatureProperties(feat.Get("properties"))
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}

		for _, g := range geoms {
			fc.Features = append(fc.Features, geo.Feature{Geometry: g, Properties: maps.Clone(featProps)})
		}
	}

	return fc, nil
}

// DetectCRS returns the CRS named by a document's "properties.crs" without
// decoding the rest of it.
func DetectCRS(data []byte) (CRS, error) {
	v := gjson.GetBytes(data, "properties.crs")
	if v.Type != gjson.String {
		return WGS, formatErrorf("'properties' missing string 'crs'")
	}
	return ParseCRS(v.Str)
}

// decodeDatum reads a [longitude, latitude, altitude] array.
func decodeDatum(v gjson.Result) (geo.Datum, error) {
	arr := v.Array()
	if !v.IsArray() || len(arr) < 3 {
		return geo.Datum{}, formatErrorf("'properties' missing array 'datum' of at least 3 numbers")
	}
	for _, n := range arr[:3] {
		if n.Type != gjson.Number {
			return geo.Datum{}, formatErrorf("'datum' entries must be numbers, got %s", n.Raw)
		}
	}

	return geo.Datum{
		Latitude:  arr[1].Num,
		Longitude: arr[0].Num,
		Altitude:  arr[2].Num,
	}, nil
}

// decodeFeatureProperties stringifies a feature's properties object.
// A missing or null object yields an empty map.
func decodeFeatureProperties(v gjson.Result) (map[string]string, error) {
	out := map[string]string{}
	if !v.Exists() || v.Type == gjson.Null {
		return out, nil
	}
	if !v.IsObject() {
		return nil, formatErrorf("feature 'properties' must be an object")
	}

	v.ForEach(func(key, value gjson.Result) bool {
		out[key.Str] = canonical(value)
		return true
	})
	return out, nil
}
