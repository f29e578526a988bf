// Package preview draws feature collections into raster images and slices
// them into WebP tile pyramids.
package preview

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"golang.org/x/image/vector"

	"github.com/woozymasta/geoson/pkg/geo"
)

// Options controls the output image.
type Options struct {
	Background color.Color
	Size       int // width and height in pixels
	Padding    int // empty border in pixels
	LineWidth  float32
	PointSize  float32
}

// Palette used for the shapes, picked by the feature "type" property.
var (
	fieldFill    = color.NRGBA{R: 46, G: 160, B: 67, A: 72}
	fieldStroke  = color.NRGBA{R: 46, G: 160, B: 67, A: 255}
	polygonFill  = color.NRGBA{R: 214, G: 90, B: 49, A: 72}
	polygonEdge  = color.NRGBA{R: 214, G: 90, B: 49, A: 255}
	lineColor    = color.NRGBA{R: 33, G: 102, B: 172, A: 255}
	pointColor   = color.NRGBA{R: 20, G: 20, B: 20, A: 255}
	defaultBg    = color.NRGBA{R: 250, G: 250, B: 247, A: 255}
	defaultWidth = float32(2)
	defaultPoint = float32(6)
)

// Frame maps local x/y meters to pixels with north up. The collection bound
// is scaled uniformly and centered inside the padded square.
type Frame struct {
	bound   orb.Bound
	size    float64
	padding float64
	scale   float64
	offX    float64
	offY    float64
}

// NewFrame fits bound into a size x size image.
func NewFrame(bound orb.Bound, size, padding int) Frame {
	inner := float64(size - 2*padding)
	if inner <= 0 {
		inner = float64(size)
		padding = 0
	}

	dx, dy := bound.Max[0]-bound.Min[0], bound.Max[1]-bound.Min[1]
	scale := 1.0
	if extent := math.Max(dx, dy); extent > 0 {
		scale = inner / extent
	}

	return Frame{
		bound:   bound,
		size:    float64(size),
		padding: float64(padding),
		scale:   scale,
		offX:    (inner - dx*scale) / 2,
		offY:    (inner - dy*scale) / 2,
	}
}

// Project returns the pixel position of p.
func (f Frame) Project(p geo.Point) (float32, float32) {
	x := f.padding + f.offX + (p.X-f.bound.Min[0])*f.scale
	y := f.size - (f.padding + f.offY + (p.Y-f.bound.Min[1])*f.scale)
	return float32(x), float32(y)
}

// Render draws every feature of fc. Polygons are filled and outlined,
// segments and paths stroked, points drawn as squares. A collection without
// vertices yields a blank image.
func Render(fc *geo.FeatureCollection, opts Options) *image.RGBA {
	if opts.Size <= 0 {
		opts.Size = 1024
	}
	if opts.Background == nil {
		opts.Background = defaultBg
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = defaultWidth
	}
	if opts.PointSize <= 0 {
		opts.PointSize = defaultPoint
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Size, opts.Size))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	bound, ok := fc.Bound()
	if !ok {
		return img
	}

	c := &canvas{
		dst:   img,
		frame: NewFrame(bound, opts.Size, opts.Padding),
		r:     vector.NewRasterizer(opts.Size, opts.Size),
		width: opts.LineWidth,
	}

	// Areas first so lines and points stay visible on top.
	for _, f := range fc.Features {
		if poly, ok := f.Geometry.(geo.Polygon); ok && len(poly) > 0 {
			fill, edge := polygonFill, polygonEdge
			if f.Properties["type"] == "field" {
				fill, edge = fieldFill, fieldStroke
			}
			c.fill(poly, fill)
			c.stroke(append(slices.Clone(poly), poly[0]), edge)
		}
	}

	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case geo.Segment:
			c.stroke([]geo.Point{g.Start, g.End}, lineColor)
		case geo.Path:
			c.stroke(g, lineColor)
		case geo.Point:
			c.square(g, opts.PointSize, pointColor)
		}
	}

	return img
}

type canvas struct {
	dst   *image.RGBA
	frame Frame
	r     *vector.Rasterizer
	width float32
}

func (c *canvas) paint(col color.Color) {
	c.r.Draw(c.dst, c.dst.Bounds(), image.NewUniform(col), image.Point{})
	b := c.dst.Bounds()
	c.r.Reset(b.Dx(), b.Dy())
}

func (c *canvas) fill(poly geo.Polygon, col color.Color) {
	if len(poly) < 3 {
		return
	}
	for i, p := range poly {
		x, y := c.frame.Project(p)
		if i == 0 {
			c.r.MoveTo(x, y)
			continue
		}
		c.r.LineTo(x, y)
	}
	c.r.ClosePath()
	c.paint(col)
}

// stroke draws each segment of pts as a quad of the line width.
func (c *canvas) stroke(pts []geo.Point, col color.Color) {
	half := c.width / 2
	drawn := false
	for i := 1; i < len(pts); i++ {
		ax, ay := c.frame.Project(pts[i-1])
		bx, by := c.frame.Project(pts[i])
		dx, dy := bx-ax, by-ay
		l := float32(math.Hypot(float64(dx), float64(dy)))
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half

		c.r.MoveTo(ax+nx, ay+ny)
		c.r.LineTo(bx+nx, by+ny)
		c.r.LineTo(bx-nx, by-ny)
		c.r.LineTo(ax-nx, ay-ny)
		c.r.ClosePath()
		drawn = true
	}
	if drawn {
		c.paint(col)
	}
}

func (c *canvas) square(p geo.Point, size float32, col color.Color) {
	x, y := c.frame.Project(p)
	h := size / 2
	c.r.MoveTo(x-h, y-h)
	c.r.LineTo(x+h, y-h)
	c.r.LineTo(x+h, y+h)
	c.r.LineTo(x-h, y+h)
	c.r.ClosePath()
	c.paint(col)
}
