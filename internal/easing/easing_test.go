package easing

import (
	"math"
	"strings"
	"testing"
)

const tolerance = 1e-9

func TestBoundaryValues(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			if got := Ease(name, 0); math.Abs(got) > tolerance {
				t.Errorf("Ease(%q, 0) = %v, want 0", name, got)
			}
			if got := Ease(name, 1); math.Abs(got-1) > tolerance {
				t.Errorf("Ease(%q, 1) = %v, want 1", name, got)
			}
		})
	}
}

func TestCurvesStayInRangeExceptOvershooting(t *testing.T) {
	for _, name := range Names() {
		if strings.HasPrefix(name, "back_") || strings.HasPrefix(name, "elastic") {
			continue
		}
		for i := 0; i <= 100; i++ {
			v := Ease(name, float64(i)/100)
			if v < -tolerance || v > 1+tolerance {
				t.Errorf("Ease(%q, %.2f) = %v outside [0,1]", name, float64(i)/100, v)
			}
		}
	}
}

func TestBackOvershoots(t *testing.T) {
	if v := Ease("back_in", 0.2); v >= 0 {
		t.Errorf("back_in should dip below 0 early, got %v", v)
	}
	if v := Ease("back_out", 0.8); v <= 1 {
		t.Errorf("back_out should overshoot 1 late, got %v", v)
	}
}

func TestInputIsClamped(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-1, 0},
		{2, 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := Ease("cubic_in", tt.in); got != tt.want {
			t.Errorf("Ease(cubic_in, %v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUnknownFallsBackToLinear(t *testing.T) {
	for _, v := range []float64{0, 0.25, 0.5, 0.9} {
		if got := Ease("wobble", v); got != v {
			t.Errorf("Ease(wobble, %v) = %v, want %v", v, got, v)
		}
	}
	if Known("wobble") {
		t.Error("wobble should not be known")
	}
}

func TestAliases(t *testing.T) {
	if Ease("ease_in_out", 0.3) != Ease("quad_in_out", 0.3) {
		t.Error("ease_in_out should alias quad_in_out")
	}
	if Ease("elastic", 0.3) != Ease("elastic_out", 0.3) {
		t.Error("elastic should alias elastic_out")
	}
	if !Known("ease_out") {
		t.Error("ease_out should be known")
	}
}

func TestMidpoints(t *testing.T) {
	tests := []struct {
		name string
		want float64
	}{
		{"linear", 0.5},
		{"quad_in", 0.25},
		{"quad_out", 0.75},
		{"cubic_in_out", 0.5},
		{"sine_in_out", 0.5},
		{"quint_in_out", 0.5},
	}
	for _, tt := range tests {
		if got := Ease(tt.name, 0.5); math.Abs(got-tt.want) > tolerance {
			t.Errorf("Ease(%q, 0.5) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBounceSegmentsAreContinuous(t *testing.T) {
	for _, edge := range []float64{1 / bounceD1, 2 / bounceD1, 2.5 / bounceD1} {
		left := BounceOut(edge - 1e-9)
		right := BounceOut(edge)
		if math.Abs(left-right) > 1e-6 {
			t.Errorf("bounce discontinuity at %v: %v vs %v", edge, left, right)
		}
	}
}

func TestCurveCount(t *testing.T) {
	if len(curves) < 30 {
		t.Errorf("expected at least 30 curves, got %d", len(curves))
	}
}
