package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Ring returns the polygon as a closed orb ring in the local x/y plane.
func (p Polygon) Ring() orb.Ring {
	ring := make(orb.Ring, 0, len(p)+1)
	for _, v := range p {
		ring = append(ring, orb.Point{v.X, v.Y})
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

// Area returns the planar area enclosed by the ring in square meters.
func (p Polygon) Area() float64 {
	if len(p) < 3 {
		return 0
	}
	return math.Abs(planar.Area(p.Ring()))
}

// Contains reports whether pt lies inside the ring, ignoring z.
func (p Polygon) Contains(pt Point) bool {
	if len(p) < 3 {
		return false
	}
	return planar.RingContains(p.Ring(), orb.Point{pt.X, pt.Y})
}

// Bound returns the x/y bounding box of every vertex in the collection.
// ok is false when the collection holds no vertices.
func (fc *FeatureCollection) Bound() (b orb.Bound, ok bool) {
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		for _, v := range f.Geometry.Vertices() {
			pt := orb.Point{v.X, v.Y}
			if !ok {
				b, ok = pt.Bound(), true
				continue
			}
			b = b.Extend(pt)
		}
	}
	return b, ok
}
