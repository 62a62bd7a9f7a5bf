// Package easing maps normalised progress t in [0,1] to eased progress.
//
// All curves are pure. Lookups by name fail soft: an unknown name
// behaves like "linear".
package easing

import (
	"math"
	"sort"
)

// Func is an easing curve.
type Func func(t float64) float64

const (
	c1 = 1.70158
	c2 = c1 * 1.525
	c3 = c1 + 1
	c4 = (2 * math.Pi) / 3
	c5 = (2 * math.Pi) / 4.5

	bounceN1 = 7.5625
	bounceD1 = 2.75
)

var curves = map[string]Func{
	"linear": Linear,

	"quad_in":     QuadIn,
	"quad_out":    QuadOut,
	"quad_in_out": QuadInOut,

	"cubic_in":     CubicIn,
	"cubic_out":    CubicOut,
	"cubic_in_out": CubicInOut,

	"quart_in":     QuartIn,
	"quart_out":    QuartOut,
	"quart_in_out": QuartInOut,

	"quint_in":     QuintIn,
	"quint_out":    QuintOut,
	"quint_in_out": QuintInOut,

	"sine_in":     SineIn,
	"sine_out":    SineOut,
	"sine_in_out": SineInOut,

	"expo_in":     ExpoIn,
	"expo_out":    ExpoOut,
	"expo_in_out": ExpoInOut,

	"circ_in":     CircIn,
	"circ_out":    CircOut,
	"circ_in_out": CircInOut,

	"elastic_in":     ElasticIn,
	"elastic_out":    ElasticOut,
	"elastic_in_out": ElasticInOut,

	"back_in":     BackIn,
	"back_out":    BackOut,
	"back_in_out": BackInOut,

	"bounce_in":     BounceIn,
	"bounce_out":    BounceOut,
	"bounce_in_out": BounceInOut,
}

// aliases kept for scripts written against the short names.
var aliases = map[string]string{
	"ease_in":     "quad_in",
	"ease_out":    "quad_out",
	"ease_in_out": "quad_in_out",
	"elastic":     "elastic_out",
}

// Ease evaluates the named curve at t. t is clamped to [0,1] first.
// Unknown names return t unchanged.
func Ease(name string, t float64) float64 {
	return Lookup(name)(clamp01(t))
}

// Lookup returns the curve registered under name, or Linear.
func Lookup(name string) Func {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	if f, ok := curves[name]; ok {
		return f
	}
	return Linear
}

// Known reports whether name (or one of its aliases) is a registered curve.
func Known(name string) bool {
	if _, ok := aliases[name]; ok {
		return true
	}
	_, ok := curves[name]
	return ok
}

// Names returns every accepted curve name, aliases included, sorted.
func Names() []string {
	names := make([]string, 0, len(curves)+len(aliases))
	for name := range curves {
		names = append(names, name)
	}
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func clamp01(t float64) float64 {
	if math.IsNaN(t) || t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func Linear(t float64) float64 { return t }

func QuadIn(t float64) float64  { return t * t }
func QuadOut(t float64) float64 { return 1 - (1-t)*(1-t) }
func QuadInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

func CubicIn(t float64) float64  { return t * t * t }
func CubicOut(t float64) float64 { return 1 - math.Pow(1-t, 3) }
func CubicInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

func QuartIn(t float64) float64  { return t * t * t * t }
func QuartOut(t float64) float64 { return 1 - math.Pow(1-t, 4) }
func QuartInOut(t float64) float64 {
	if t < 0.5 {
		return 8 * t * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 4)/2
}

func QuintIn(t float64) float64  { return t * t * t * t * t }
func QuintOut(t float64) float64 { return 1 - math.Pow(1-t, 5) }
func QuintInOut(t float64) float64 {
	if t < 0.5 {
		return 16 * t * t * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 5)/2
}

func SineIn(t float64) float64    { return 1 - math.Cos(t*math.Pi/2) }
func SineOut(t float64) float64   { return math.Sin(t * math.Pi / 2) }
func SineInOut(t float64) float64 { return -(math.Cos(math.Pi*t) - 1) / 2 }

// ExpoIn is exactly 0 at t=0, avoiding the 2^-10 floor of the formula.
func ExpoIn(t float64) float64 {
	if t == 0 {
		return 0
	}
	return math.Pow(2, 10*t-10)
}

// ExpoOut is exactly 1 at t=1.
func ExpoOut(t float64) float64 {
	if t == 1 {
		return 1
	}
	return 1 - math.Pow(2, -10*t)
}

func ExpoInOut(t float64) float64 {
	switch {
	case t == 0:
		return 0
	case t == 1:
		return 1
	case t < 0.5:
		return math.Pow(2, 20*t-10) / 2
	default:
		return (2 - math.Pow(2, -20*t+10)) / 2
	}
}

func CircIn(t float64) float64  { return 1 - math.Sqrt(1-t*t) }
func CircOut(t float64) float64 { return math.Sqrt(1 - (t-1)*(t-1)) }
func CircInOut(t float64) float64 {
	if t < 0.5 {
		return (1 - math.Sqrt(1-math.Pow(2*t, 2))) / 2
	}
	return (math.Sqrt(1-math.Pow(-2*t+2, 2)) + 1) / 2
}

func ElasticIn(t float64) float64 {
	switch t {
	case 0:
		return 0
	case 1:
		return 1
	}
	return -math.Pow(2, 10*t-10) * math.Sin((t*10-10.75)*c4)
}

func ElasticOut(t float64) float64 {
	switch t {
	case 0:
		return 0
	case 1:
		return 1
	}
	return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*c4) + 1
}

func ElasticInOut(t float64) float64 {
	switch {
	case t == 0:
		return 0
	case t == 1:
		return 1
	case t < 0.5:
		return -(math.Pow(2, 20*t-10) * math.Sin((20*t-11.125)*c5)) / 2
	default:
		return (math.Pow(2, -20*t+10)*math.Sin((20*t-11.125)*c5))/2 + 1
	}
}

// BackIn overshoots below 0 before accelerating to 1.
func BackIn(t float64) float64 { return c3*t*t*t - c1*t*t }

// BackOut overshoots above 1 before settling.
func BackOut(t float64) float64 {
	return 1 + c3*math.Pow(t-1, 3) + c1*math.Pow(t-1, 2)
}

func BackInOut(t float64) float64 {
	if t < 0.5 {
		return (math.Pow(2*t, 2) * ((c2+1)*2*t - c2)) / 2
	}
	return (math.Pow(2*t-2, 2)*((c2+1)*(t*2-2)+c2) + 2) / 2
}

// BounceOut is piecewise quadratic with breaks at 1/2.75, 2/2.75 and 2.5/2.75.
func BounceOut(t float64) float64 {
	switch {
	case t < 1/bounceD1:
		return bounceN1 * t * t
	case t < 2/bounceD1:
		t -= 1.5 / bounceD1
		return bounceN1*t*t + 0.75
	case t < 2.5/bounceD1:
		t -= 2.25 / bounceD1
		return bounceN1*t*t + 0.9375
	default:
		t -= 2.625 / bounceD1
		return bounceN1*t*t + 0.984375
	}
}

func BounceIn(t float64) float64 { return 1 - BounceOut(1-t) }

func BounceInOut(t float64) float64 {
	if t < 0.5 {
		return (1 - BounceOut(1-2*t)) / 2
	}
	return (1 + BounceOut(2*t-1)) / 2
}
