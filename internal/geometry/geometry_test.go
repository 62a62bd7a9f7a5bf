package geometry

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAngle(t *testing.T) {
	tests := []struct {
		x2, y2 float64
		want   float64
	}{
		{1, 0, 0},
		{0, 1, 90},
		{-1, 0, 180},
		{0, -1, 270},
	}
	for _, tt := range tests {
		if got := Angle(0, 0, tt.x2, tt.y2); !approx(got, tt.want) {
			t.Errorf("Angle to (%v,%v) = %v, want %v", tt.x2, tt.y2, got, tt.want)
		}
	}
}

func TestRotatePoint(t *testing.T) {
	x, y := RotatePoint(2, 1, 1, 1, 90)
	if !approx(x, 1) || !approx(y, 2) {
		t.Errorf("RotatePoint = (%v,%v), want (1,2)", x, y)
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := map[float64]float64{-90: 270, 360: 0, 725: 5, 45: 45}
	for in, want := range tests {
		if got := NormalizeAngle(in); !approx(got, want) {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestRectangle(t *testing.T) {
	r := Rectangle{X: 0, Y: 0, Width: 10, Height: 10}
	if !r.Contains(5, 5) || !r.Contains(10, 10) {
		t.Error("rectangle should contain interior and edges")
	}
	if r.Contains(20, 20) {
		t.Error("rectangle should not contain (20,20)")
	}
	if !r.Intersects(Rectangle{X: 5, Y: 5, Width: 10, Height: 10}) {
		t.Error("overlapping rectangles should intersect")
	}
	if r.Intersects(Rectangle{X: 10, Y: 0, Width: 5, Height: 5}) {
		t.Error("touching rectangles should not intersect")
	}
	if c := r.Center(); c != (Point{5, 5}) {
		t.Errorf("Center = %v", c)
	}
	if d := r.SignedDistance(5, 5); !approx(d, -5) {
		t.Errorf("SignedDistance at center = %v, want -5", d)
	}
	if d := r.SignedDistance(13, 14); !approx(d, 5) {
		t.Errorf("SignedDistance at (13,14) = %v, want 5", d)
	}
}

func TestCircle(t *testing.T) {
	c := Circle{X: 0, Y: 0, Radius: 5}
	if !c.Contains(3, 4) || c.Contains(4, 4) {
		t.Error("circle containment wrong")
	}
	if !c.Intersects(Circle{X: 9, Y: 0, Radius: 5}) {
		t.Error("circles should intersect")
	}
}

func TestPolygon(t *testing.T) {
	p := Polygon{Points: []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}}
	if !p.Contains(5, 5) {
		t.Error("square should contain its center")
	}
	if p.Contains(15, 5) {
		t.Error("square should not contain (15,5)")
	}
	if d := p.EdgeDistance(5, 5); !approx(d, 5) {
		t.Errorf("EdgeDistance = %v, want 5", d)
	}
	if b := p.Bounds(); b != (Rectangle{0, 0, 10, 10}) {
		t.Errorf("Bounds = %v", b)
	}
	if (Polygon{Points: []Point{{0, 0}, {1, 1}}}).Contains(0.5, 0.5) {
		t.Error("degenerate polygon contains nothing")
	}
}

func TestHelpers(t *testing.T) {
	if v := MapRange(5, 0, 10, 100, 200); !approx(v, 150) {
		t.Errorf("MapRange = %v", v)
	}
	if v := MapRange(5, 1, 1, 3, 4); v != 3 {
		t.Errorf("degenerate MapRange = %v", v)
	}
	if v := Smoothstep(0, 1, 0.5); !approx(v, 0.5) {
		t.Errorf("Smoothstep = %v", v)
	}
	if v := Clamp(3, 0, 1); v != 1 {
		t.Errorf("Clamp = %v", v)
	}
	if p := CubicBezier(Point{0, 0}, Point{0, 1}, Point{1, 1}, Point{1, 0}, 1); p != (Point{1, 0}) {
		t.Errorf("CubicBezier end = %v", p)
	}
}
