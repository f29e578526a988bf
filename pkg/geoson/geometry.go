package geoson

import (
	"math"

	"github.com/tidwall/gjson"

	"github.com/woozymasta/geoson/pkg/geo"
)

// decodeGeometry converts one wire geometry into zero or more local shapes.
// Multi* and GeometryCollection members fan out to separate shapes. Unknown
// types and geometries without coordinates decode to nothing.
func (c *Codec) decodeGeometry(obj gjson.Result, datum geo.Datum, crs CRS) ([]geo.Geometry, error) {
	if !obj.IsObject() {
		return nil, formatErrorf("geometry must be an object or null")
	}

	typ := obj.Get("type").String()
	if typ == "GeometryCollection" {
		members := obj.Get("geometries")
		if !members.IsArray() {
			c.log().Debug().Msg("GeometryCollection has no geometries array, dropped")
			return nil, nil
		}
		var out []geo.Geometry
		for i, sub := range members.Array() {
			if sub.Type == gjson.Null {
				c.log().Debug().Int("member", i).Msg("Null GeometryCollection member, dropped")
				continue
			}
			geoms, err := c.decodeGeometry(sub, datum, crs)
			if err != nil {
				return nil, err
			}
			out = append(out, geoms...)
		}
		return out, nil
	}

	coords := obj.Get("coordinates")
	if !coords.Exists() {
		c.log().Debug().Str("type", typ).Msg("Geometry has no coordinates, dropped")
		return nil, nil
	}

	switch typ {
	case "Point":
		p, err := c.decodePoint(coords, datum, crs)
		if err != nil {
			return nil, err
		}
		return []geo.Geometry{p}, nil

	case "LineString":
		g, err := c.decodeLineString(coords, datum, crs)
		if err != nil {
			return nil, err
		}
		return []geo.Geometry{g}, nil

	case "Polygon":
		g, err := c.decodePolygon(coords, datum, crs)
		if err != nil {
			return nil, err
		}
		return []geo.Geometry{g}, nil

	case "MultiPoint", "MultiLineString", "MultiPolygon":
		if !coords.IsArray() {
			return nil, formatErrorf("%s coordinates must be an array", typ)
		}
		members := coords.Array()
		out := make([]geo.Geometry, 0, len(members))
		for _, m := range members {
			var (
				g   geo.Geometry
				err error
			)
			switch typ {
			case "MultiPoint":
				g, err = c.decodePoint(m, datum, crs)
			case "MultiLineString":
				g, err = c.decodeLineString(m, datum, crs)
			default:
				g, err = c.decodePolygon(m, datum, crs)
			}
			if err != nil {
				return nil, err
			}
			out = append(out, g)
		}
		return out, nil
	}

	c.log().Debug().Str("type", typ).Msg("Unsupported geometry type, dropped")
	return nil, nil
}

// decodePoint reads one position. In WGS mode x/y are longitude/latitude;
// a missing altitude is taken as the datum altitude for the conversion and
// the local z is then pinned to the flat value, so 2D input stays 2D instead
// of picking up the curvature drop.
func (c *Codec) decodePoint(coords gjson.Result, datum geo.Datum, crs CRS) (geo.Point, error) {
	vals := coords.Array()
	if !coords.IsArray() || len(vals) < 2 {
		return geo.Point{}, formatErrorf("invalid point coordinates %s: need at least 2 numbers", coords.Raw)
	}
	n := min(len(vals), 3)
	for _, v := range vals[:n] {
		if v.Type != gjson.Number {
			return geo.Point{}, formatErrorf("invalid point coordinates %s: %s is not a number", coords.Raw, v.Raw)
		}
	}

	x, y := vals[0].Num, vals[1].Num
	hasZ := len(vals) > 2
	z := 0.0
	if hasZ {
		z = vals[2].Num
	}

	if crs == ENU {
		return geo.Point{X: x, Y: y, Z: z}, nil
	}

	alt := z
	if !hasZ {
		alt = datum.Altitude
	}
	p := c.converter().ToLocal(datum, geo.Geodetic{Latitude: y, Longitude: x, Altitude: alt})
	if !hasZ {
		p.Z = z - datum.Altitude
	}
	return p, nil
}

// decodeLineString returns a Segment for exactly two positions and a Path
// for any other count.
func (c *Codec) decodeLineString(coords gjson.Result, datum geo.Datum, crs CRS) (geo.Geometry, error) {
	pts, err := c.decodePositions(coords, datum, crs)
	if err != nil {
		return nil, err
	}
	if len(pts) == 2 {
		return geo.Segment{Start: pts[0], End: pts[1]}, nil
	}
	return geo.Path(pts), nil
}

// decodePolygon keeps the outer ring only.
func (c *Codec) decodePolygon(coords gjson.Result, datum geo.Datum, crs CRS) (geo.Geometry, error) {
	rings := coords.Array()
	if !coords.IsArray() || len(rings) == 0 {
		return nil, formatErrorf("polygon coordinates must hold at least one ring")
	}
	pts, err := c.decodePositions(rings[0], datum, crs)
	if err != nil {
		return nil, err
	}
	return geo.Polygon(pts), nil
}

func (c *Codec) decodePositions(coords gjson.Result, datum geo.Datum, crs CRS) ([]geo.Point, error) {
	if !coords.IsArray() {
		return nil, formatErrorf("expected an array of positions, got %s", coords.Raw)
	}
	positions := coords.Array()
	pts := make([]geo.Point, 0, len(positions))
	for _, pos := range positions {
		p, err := c.decodePoint(pos, datum, crs)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

// appendGeometry writes the wire form of g. A nil geometry is written as null.
func (c *Codec) appendGeometry(dst []byte, g geo.Geometry, datum geo.Datum, crs CRS) ([]byte, error) {
	var err error
	switch g := g.(type) {
	case nil:
		return append(dst, "null"...), nil
	case geo.Point:
		dst = append(dst, `{"type":"Point","coordinates":`...)
		dst, err = c.appendPosition(dst, g, datum, crs)
	case geo.Segment:
		dst = append(dst, `{"type":"LineString","coordinates":`...)
		dst, err = c.appendPositions(dst, []geo.Point{g.Start, g.End}, datum, crs)
	case geo.Path:
		dst = append(dst, `{"type":"LineString","coordinates":`...)
		dst, err = c.appendPositions(dst, g, datum, crs)
	case geo.Polygon:
		dst = append(dst, `{"type":"Polygon","coordinates":[`...)
		dst, err = c.appendPositions(dst, g, datum, crs)
		dst = append(dst, ']')
	default:
		return dst, formatErrorf("unsupported geometry %T", g)
	}
	if err != nil {
		return dst, err
	}
	return append(dst, '}'), nil
}

func (c *Codec) appendPositions(dst []byte, pts []geo.Point, datum geo.Datum, crs CRS) ([]byte, error) {
	dst = append(dst, '[')
	for i, p := range pts {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		if dst, err = c.appendPosition(dst, p, datum, crs); err != nil {
			return dst, err
		}
	}
	return append(dst, ']'), nil
}

// appendPosition writes [x,y,z] for ENU, or [lon,lat,alt] for WGS with the
// altitude rounded to whole meters.
func (c *Codec) appendPosition(dst []byte, p geo.Point, datum geo.Datum, crs CRS) ([]byte, error) {
	vals := [3]float64{p.X, p.Y, p.Z}
	if crs == WGS {
		g := c.converter().ToGeodetic(datum, p)
		vals = [3]float64{g.Longitude, g.Latitude, math.Round(g.Altitude)}
	}

	dst = append(dst, '[')
	for i, v := range vals {
		if i > 0 {
			dst = append(dst, ',')
		}
		var ok bool
		if dst, ok = appendNumber(dst, v); !ok {
			return dst, formatErrorf("cannot encode non-finite coordinate of point %v", p)
		}
	}
	return append(dst, ']'), nil
}
