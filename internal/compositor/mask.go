package compositor

import (
	"math"

	"github.com/ivlev/fluxreel/internal/geometry"
)

// Masks are evaluated in frame pixel coordinates, origin top-left.

// coverage turns a signed distance (negative inside) into a soft
// membership value. Feather is the width of the ramp, centred on the
// boundary.
func coverage(signed, feather float64, inverted bool) float64 {
	var c float64
	if feather <= 0 {
		if signed <= 0 {
			c = 1
		}
	} else {
		c = geometry.Clamp(0.5-signed/feather, 0, 1)
	}
	if inverted {
		return 1 - c
	}
	return c
}

// RectangleMask is an axis-aligned box mask.
type RectangleMask struct {
	X, Y, Width, Height float64
	Feather             float64
	Inverted            bool
}

func NewRectangleMask(x, y, width, height float64) *RectangleMask {
	return &RectangleMask{X: x, Y: y, Width: width, Height: height}
}

func (m *RectangleMask) Coverage(x, y float64) float64 {
	r := geometry.Rectangle{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
	if m.Feather <= 0 {
		// Края включительно.
		if r.Contains(x, y) {
			return coverage(-1, 0, m.Inverted)
		}
		return coverage(1, 0, m.Inverted)
	}
	return coverage(r.SignedDistance(x, y), m.Feather, m.Inverted)
}

func (m *RectangleMask) Contains(x, y float64) bool { return m.Coverage(x, y) >= 0.5 }

func (m *RectangleMask) Invert() { m.Inverted = !m.Inverted }

// EllipseMask is an axis-aligned ellipse mask.
type EllipseMask struct {
	CenterX, CenterY float64
	RadiusX, RadiusY float64
	Feather          float64
	Inverted         bool
}

func NewEllipseMask(cx, cy, rx, ry float64) *EllipseMask {
	return &EllipseMask{CenterX: cx, CenterY: cy, RadiusX: rx, RadiusY: ry}
}

func (m *EllipseMask) Coverage(x, y float64) float64 {
	if m.RadiusX <= 0 || m.RadiusY <= 0 {
		return coverage(1, 0, m.Inverted)
	}
	dx := (x - m.CenterX) / m.RadiusX
	dy := (y - m.CenterY) / m.RadiusY
	// Нормированное расстояние в пикселях по короткой оси; для круга точно.
	signed := (math.Hypot(dx, dy) - 1) * math.Min(m.RadiusX, m.RadiusY)
	return coverage(signed, m.Feather, m.Inverted)
}

func (m *EllipseMask) Contains(x, y float64) bool { return m.Coverage(x, y) >= 0.5 }

func (m *EllipseMask) Invert() { m.Inverted = !m.Inverted }

// BezierPoint is an anchor with its two tangent handles.
type BezierPoint struct {
	Anchor    geometry.Point
	HandleIn  geometry.Point
	HandleOut geometry.Point
}

// bezierSteps is the number of line segments per curve when flattening.
const bezierSteps = 16

// BezierMask is a closed path of cubic segments.
type BezierMask struct {
	Feather   float64
	Expansion float64 // grows (>0) or shrinks (<0) the shape in pixels
	Inverted  bool
	Opacity   float64

	points []BezierPoint
	poly   geometry.Polygon
}

func NewBezierMask() *BezierMask {
	return &BezierMask{Opacity: 1}
}

// AddPoint appends an anchor with horizontal handles 10px either side.
func (m *BezierMask) AddPoint(x, y float64) {
	m.AddBezierPoint(BezierPoint{
		Anchor:    geometry.Point{X: x, Y: y},
		HandleIn:  geometry.Point{X: x - 10, Y: y},
		HandleOut: geometry.Point{X: x + 10, Y: y},
	})
}

// AddBezierPoint appends an anchor with explicit handles.
func (m *BezierMask) AddBezierPoint(p BezierPoint) {
	m.points = append(m.points, p)
	m.flatten()
}

// Points returns the path anchors.
func (m *BezierMask) Points() []BezierPoint {
	return append([]BezierPoint(nil), m.points...)
}

func (m *BezierMask) flatten() {
	n := len(m.points)
	pts := make([]geometry.Point, 0, n*bezierSteps)
	for i := 0; i < n; i++ {
		a, b := m.points[i], m.points[(i+1)%n]
		for s := 0; s < bezierSteps; s++ {
			t := float64(s) / bezierSteps
			pts = append(pts, geometry.CubicBezier(a.Anchor, a.HandleOut, b.HandleIn, b.Anchor, t))
		}
	}
	m.poly = geometry.Polygon{Points: pts}
}

func (m *BezierMask) Coverage(x, y float64) float64 {
	var c float64
	if len(m.points) < 3 {
		c = coverage(1, 0, m.Inverted)
	} else {
		d := m.poly.EdgeDistance(x, y)
		if m.poly.Contains(x, y) {
			d = -d
		}
		c = coverage(d-m.Expansion, m.Feather, m.Inverted)
	}
	return c * geometry.Clamp(m.Opacity, 0, 1)
}

func (m *BezierMask) Contains(x, y float64) bool { return m.Coverage(x, y) >= 0.5 }

func (m *BezierMask) Invert() { m.Inverted = !m.Inverted }
