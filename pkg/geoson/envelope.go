package geoson

import (
	"github.com/tidwall/gjson"

	"github.com/woozymasta/geoson/pkg/geo"
)

// normalize turns a FeatureCollection, a bare Feature or a bare geometry into
// a FeatureCollection shaped tree.
//
// A wrapped input has no collection header of its own, so one is synthesized:
// WGS coordinates (the GeoJSON default), the given datum and a zero heading.
func normalize(root gjson.Result, datum geo.Datum) (gjson.Result, error) {
	typ := root.Get("type")
	if !root.IsObject() || typ.Type != gjson.String {
		return gjson.Result{}, formatErrorf("top-level object has no string 'type' field")
	}

	feature := root.Raw
	switch typ.Str {
	case "FeatureCollection":
		return root, nil
	case "Feature":
	default:
		feature = `{"type":"Feature","geometry":` + root.Raw + `,"properties":{}}`
	}

	header, ok := encodeDatum(datum)
	if !ok {
		return gjson.Result{}, formatErrorf("default datum is not finite")
	}
	props := appendObject(nil, []member{
		{key: "crs", raw: jsonString(WGSName)},
		{key: "datum", raw: header},
		{key: "heading", raw: []byte("0")},
	})

	return gjson.Parse(`{"type":"FeatureCollection","properties":` + string(props) +
		`,"features":[` + feature + `]}`), nil
}
