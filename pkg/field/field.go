// Package field models an agricultural field: a boundary polygon plus the
// elements (obstacles, paths, markers) placed inside it, all in the local
// frame of a geo.FeatureCollection.
package field

import (
	"errors"
	"fmt"
	"maps"

	"github.com/woozymasta/geoson/pkg/geo"
	"github.com/woozymasta/geoson/pkg/geoson"
)

// TypeKey is the feature property that names an element's role.
const TypeKey = "type"

// TypeField marks the feature used as the field boundary.
const TypeField = "field"

// TypeUnknown is assigned to features that carry no type property.
const TypeUnknown = "unknown"

var (
	// ErrNoFeatures is returned when a collection holds no features at all.
	ErrNoFeatures = errors.New("no features found")

	// ErrNoBoundary is returned when no polygon can serve as the boundary.
	ErrNoBoundary = errors.New("no polygon found to use as field boundary")

	// ErrElementRange is returned for an element index out of range.
	ErrElementRange = errors.New("element index out of range")
)

// Element is one feature placed on the field.
type Element struct {
	Geometry   geo.Geometry
	Properties map[string]string
	Type       string
}

// Field is a boundary with elements and the frame they are expressed in.
type Field struct {
	Boundary           geo.Polygon
	BoundaryProperties map[string]string
	Elements           []Element

	Datum   geo.Datum
	Heading geo.Heading

	// Properties are the collection-wide properties.
	Properties map[string]string
}

// New returns an empty field with the given boundary.
func New(boundary geo.Polygon, datum geo.Datum, heading geo.Heading) *Field {
	return &Field{
		Boundary:           boundary,
		BoundaryProperties: map[string]string{},
		Datum:              datum,
		Heading:            heading,
		Properties:         map[string]string{},
	}
}

// FromCollection picks the boundary out of fc. A polygon with type=field wins;
// otherwise the first polygon is used. Every feature that is not explicitly
// typed as the field becomes an element, so an implicit boundary also stays
// in the element list.
func FromCollection(fc *geo.FeatureCollection) (*Field, error) {
	if len(fc.Features) == 0 {
		return nil, ErrNoFeatures
	}

	boundary := -1
	for i, f := range fc.Features {
		if _, ok := f.Geometry.(geo.Polygon); ok && f.Properties[TypeKey] == TypeField {
			boundary = i
			break
		}
	}
	if boundary < 0 {
		for i, f := range fc.Features {
			if _, ok := f.Geometry.(geo.Polygon); ok {
				boundary = i
				break
			}
		}
	}
	if boundary < 0 {
		return nil, ErrNoBoundary
	}

	b := fc.Features[boundary]
	fld := New(b.Geometry.(geo.Polygon), fc.Datum, fc.Heading)
	fld.BoundaryProperties = cloneProps(b.Properties)
	fld.Properties = cloneProps(fc.Properties)

	for _, f := range fc.Features {
		typ, ok := f.Properties[TypeKey]
		if ok && typ == TypeField {
			continue
		}
		if !ok {
			typ = TypeUnknown
		}
		fld.Elements = append(fld.Elements, Element{
			Geometry:   f.Geometry,
			Properties: cloneProps(f.Properties),
			Type:       typ,
		})
	}

	return fld, nil
}

// FromFile reads a GeoJSON file and builds a Field from it.
func FromFile(path string) (*Field, error) {
	fc, err := geoson.Read(path)
	if err != nil {
		return nil, err
	}

	fld, err := FromCollection(fc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fld, nil
}

// Collection returns the field as a feature collection: the boundary first,
// tagged type=field, then every element in order.
func (f *Field) Collection() *geo.FeatureCollection {
	fc := geo.NewFeatureCollection(f.Datum, f.Heading)
	maps.Copy(fc.Properties, f.Properties)

	props := cloneProps(f.BoundaryProperties)
	props[TypeKey] = TypeField
	fc.Add(f.Boundary, props)

	for _, e := range f.Elements {
		fc.Add(e.Geometry, cloneProps(e.Properties))
	}
	return fc
}

// ToFile writes the field to path in the given CRS.
func (f *Field) ToFile(path string, crs geoson.CRS) error {
	return geoson.WriteAs(f.Collection(), path, crs)
}

// AddElement appends an element. A non-empty typ is also stored as the type
// property.
func (f *Field) AddElement(g geo.Geometry, typ string, props map[string]string) {
	p := cloneProps(props)
	if typ != "" {
		p[TypeKey] = typ
	}
	f.Elements = append(f.Elements, Element{Geometry: g, Properties: p, Type: typ})
}

// AddPoint appends a point element, typed "point" when typ is empty.
func (f *Field) AddPoint(p geo.Point, typ string, props map[string]string) {
	f.AddElement(p, orDefault(typ, "point"), props)
}

// AddSegment appends a two-point line element, typed "line" when typ is empty.
func (f *Field) AddSegment(s geo.Segment, typ string, props map[string]string) {
	f.AddElement(s, orDefault(typ, "line"), props)
}

// AddPath appends a path element, typed "path" when typ is empty.
func (f *Field) AddPath(p geo.Path, typ string, props map[string]string) {
	f.AddElement(p, orDefault(typ, "path"), props)
}

// AddPolygon appends a polygon element, typed "polygon" when typ is empty.
func (f *Field) AddPolygon(p geo.Polygon, typ string, props map[string]string) {
	f.AddElement(p, orDefault(typ, "polygon"), props)
}

// RemoveElement drops the element at i. Out of range indexes are ignored.
func (f *Field) RemoveElement(i int) {
	if i < 0 || i >= len(f.Elements) {
		return
	}
	f.Elements = append(f.Elements[:i], f.Elements[i+1:]...)
}

// Element returns the element at i.
func (f *Field) Element(i int) (Element, error) {
	if i < 0 || i >= len(f.Elements) {
		return Element{}, fmt.Errorf("%w: %d of %d", ErrElementRange, i, len(f.Elements))
	}
	return f.Elements[i], nil
}

// ElementsByType returns the elements whose Type equals typ.
func (f *Field) ElementsByType(typ string) []Element {
	return f.filter(func(e Element) bool { return e.Type == typ })
}

// FilterByProperty returns the elements whose property key equals value.
func (f *Field) FilterByProperty(key, value string) []Element {
	return f.filter(func(e Element) bool {
		v, ok := e.Properties[key]
		return ok && v == value
	})
}

// Points returns the point elements.
func (f *Field) Points() []Element {
	return f.filter(func(e Element) bool {
		_, ok := e.Geometry.(geo.Point)
		return ok
	})
}

// Segments returns the two-point line elements.
func (f *Field) Segments() []Element {
	return f.filter(func(e Element) bool {
		_, ok := e.Geometry.(geo.Segment)
		return ok
	})
}

// Paths returns the path elements.
func (f *Field) Paths() []Element {
	return f.filter(func(e Element) bool {
		_, ok := e.Geometry.(geo.Path)
		return ok
	})
}

// Polygons returns the polygon elements.
func (f *Field) Polygons() []Element {
	return f.filter(func(e Element) bool {
		_, ok := e.Geometry.(geo.Polygon)
		return ok
	})
}

// Area returns the boundary area in square meters.
func (f *Field) Area() float64 {
	return f.Boundary.Area()
}

// Contains reports whether p lies inside the boundary.
func (f *Field) Contains(p geo.Point) bool {
	return f.Boundary.Contains(p)
}

func (f *Field) filter(keep func(Element) bool) []Element {
	var out []Element
	for _, e := range f.Elements {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func cloneProps(props map[string]string) map[string]string {
	out := make(map[string]string, len(props))
	maps.Copy(out, props)
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
