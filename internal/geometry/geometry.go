// Package geometry holds the point, angle and containment math used by
// masks and node transforms.
package geometry

import "math"

// Point is a 2D position.
type Point struct {
	X, Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Mul scales p by k.
func (p Point) Mul(k float64) Point { return Point{p.X * k, p.Y * k} }

// Lerp interpolates between p and q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{Lerp(p.X, q.X, t), Lerp(p.Y, q.Y, t)}
}

// Distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// Angle from (x1,y1) to (x2,y2) in degrees, normalised to [0,360).
func Angle(x1, y1, x2, y2 float64) float64 {
	return NormalizeAngle(RadToDeg(math.Atan2(y2-y1, x2-x1)))
}

// RotatePoint rotates (px,py) around (cx,cy) by angle degrees
// (counter-clockwise in a y-up frame).
func RotatePoint(px, py, cx, cy, angle float64) (float64, float64) {
	rad := DegToRad(angle)
	sin, cos := math.Sincos(rad)
	dx, dy := px-cx, py-cy
	return cx + dx*cos - dy*sin, cy + dx*sin + dy*cos
}

func DegToRad(deg float64) float64 { return deg * math.Pi / 180 }
func RadToDeg(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeAngle wraps an angle into [0,360).
func NormalizeAngle(angle float64) float64 {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Clamp limits v to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// MapRange maps v from [inMin,inMax] onto [outMin,outMax]. A degenerate
// input range maps everything to outMin.
func MapRange(v, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin {
		return outMin
	}
	return (v-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// Smoothstep is the cubic Hermite step between edge0 and edge1.
func Smoothstep(edge0, edge1, x float64) float64 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

// Rectangle is an axis-aligned box anchored at its top-left corner.
type Rectangle struct {
	X, Y, Width, Height float64
}

// Contains is inclusive on every edge.
func (r Rectangle) Contains(px, py float64) bool {
	return px >= r.X && px <= r.X+r.Width && py >= r.Y && py <= r.Y+r.Height
}

func (r Rectangle) Intersects(o Rectangle) bool {
	return r.X < o.X+o.Width && r.X+r.Width > o.X &&
		r.Y < o.Y+o.Height && r.Y+r.Height > o.Y
}

func (r Rectangle) Center() Point {
	return Point{r.X + r.Width/2, r.Y + r.Height/2}
}

// SignedDistance is negative inside the rectangle and positive outside.
func (r Rectangle) SignedDistance(px, py float64) float64 {
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	dx := math.Abs(px-cx) - r.Width/2
	dy := math.Abs(py-cy) - r.Height/2
	outside := math.Hypot(math.Max(dx, 0), math.Max(dy, 0))
	inside := math.Min(math.Max(dx, dy), 0)
	return outside + inside
}

// Circle is a disc.
type Circle struct {
	X, Y, Radius float64
}

func (c Circle) Contains(px, py float64) bool {
	return Distance(c.X, c.Y, px, py) <= c.Radius
}

func (c Circle) Intersects(o Circle) bool {
	return Distance(c.X, c.Y, o.X, o.Y) < c.Radius+o.Radius
}

// Polygon is a closed polyline.
type Polygon struct {
	Points []Point
}

// Contains uses the even-odd crossing rule.
func (p Polygon) Contains(px, py float64) bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := p.Points[i], p.Points[j]
		if (pi.Y > py) != (pj.Y > py) &&
			px < (pj.X-pi.X)*(py-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// EdgeDistance is the unsigned distance from (px,py) to the nearest edge.
func (p Polygon) EdgeDistance(px, py float64) float64 {
	n := len(p.Points)
	if n == 0 {
		return math.Inf(1)
	}
	best := math.Inf(1)
	q := Point{px, py}
	for i := 0; i < n; i++ {
		a := p.Points[i]
		b := p.Points[(i+1)%n]
		if d := segmentDistance(q, a, b); d < best {
			best = d
		}
	}
	return best
}

// Bounds returns the axis-aligned bounding box.
func (p Polygon) Bounds() Rectangle {
	if len(p.Points) == 0 {
		return Rectangle{}
	}
	minX, minY := p.Points[0].X, p.Points[0].Y
	maxX, maxY := minX, minY
	for _, pt := range p.Points[1:] {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return Rectangle{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func segmentDistance(q, a, b Point) float64 {
	ab := b.Sub(a)
	lenSq := ab.X*ab.X + ab.Y*ab.Y
	if lenSq == 0 {
		return Distance(q.X, q.Y, a.X, a.Y)
	}
	t := Clamp(((q.X-a.X)*ab.X+(q.Y-a.Y)*ab.Y)/lenSq, 0, 1)
	proj := a.Add(ab.Mul(t))
	return Distance(q.X, q.Y, proj.X, proj.Y)
}

// CubicBezier evaluates a cubic Bezier segment at t.
func CubicBezier(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}
