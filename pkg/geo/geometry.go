package geo

// Geometry is a closed union of Point, Segment, Path and Polygon.
// The unexported method keeps other packages from adding shapes, so a type
// switch over the four variants is exhaustive.
type Geometry interface {
	// Kind returns the upper-case shape name used in summaries.
	Kind() string
	// Vertices returns the points of the shape in order.
	Vertices() []Point

	isGeometry()
}

// Segment is a straight line between exactly two points.
type Segment struct {
	Start Point
	End   Point
}

// Path is an ordered polyline. It may hold any number of points, including
// zero or one; two-point lines are decoded as Segment instead.
type Path []Point

// Polygon is a single ring. Holes are not represented.
type Polygon []Point

var (
	_ Geometry = Point{}
	_ Geometry = Segment{}
	_ Geometry = Path(nil)
	_ Geometry = Polygon(nil)
)

func (Point) isGeometry()   {}
func (Segment) isGeometry() {}
func (Path) isGeometry()    {}
func (Polygon) isGeometry() {}

// Kind implements Geometry.
func (Point) Kind() string { return "POINT" }

// Kind implements Geometry.
func (Segment) Kind() string { return "LINE" }

// Kind implements Geometry.
func (Path) Kind() string { return "PATH" }

// Kind implements Geometry.
func (Polygon) Kind() string { return "POLYGON" }

// Vertices implements Geometry.
func (p Point) Vertices() []Point { return []Point{p} }

// Vertices implements Geometry.
func (s Segment) Vertices() []Point { return []Point{s.Start, s.End} }

// Vertices implements Geometry.
func (p Path) Vertices() []Point { return []Point(p) }

// Vertices implements Geometry.
func (p Polygon) Vertices() []Point { return []Point(p) }

// Length returns the planar length of the segment.
func (s Segment) Length() float64 {
	return distance(s.Start, s.End)
}

// Length returns the summed planar length of the path legs.
func (p Path) Length() float64 {
	var total float64
	for i := 1; i < len(p); i++ {
		total += distance(p[i-1], p[i])
	}
	return total
}
