package compositor

import "math"

// RGB is a straight (non-premultiplied) color with channels in [0,1].
type RGB struct {
	R, G, B float64
}

// Blend mode names.
const (
	BlendNormal     = "normal"
	BlendMultiply   = "multiply"
	BlendScreen     = "screen"
	BlendOverlay    = "overlay"
	BlendSoftLight  = "soft_light"
	BlendHardLight  = "hard_light"
	BlendColorDodge = "color_dodge"
	BlendColorBurn  = "color_burn"
	BlendDarken     = "darken"
	BlendLighten    = "lighten"
	BlendDifference = "difference"
	BlendExclusion  = "exclusion"
	BlendAdd        = "add"
	BlendSubtract   = "subtract"
	BlendDivide     = "divide"

	// Non-separable modes (W3C compositing level 1).
	BlendHue        = "hue"
	BlendSaturation = "saturation"
	BlendColor      = "color"
	BlendLuminosity = "luminosity"
)

type channelFunc func(base, blend float64) float64

var separable = map[string]channelFunc{
	BlendMultiply: func(a, b float64) float64 { return a * b },
	BlendScreen:   screen,
	BlendOverlay:  overlay,
	BlendSoftLight: func(a, b float64) float64 {
		if b < 0.5 {
			return a - (1-2*b)*a*(1-a)
		}
		return a + (2*b-1)*(math.Sqrt(a)-a)
	},
	BlendHardLight: func(a, b float64) float64 { return overlay(b, a) },
	BlendColorDodge: func(a, b float64) float64 {
		if b >= 1 {
			return 1
		}
		return math.Min(a/(1-b), 1)
	},
	BlendColorBurn: func(a, b float64) float64 {
		if b <= 0 {
			return 0
		}
		return math.Max(1-(1-a)/b, 0)
	},
	BlendDarken:     math.Min,
	BlendLighten:    math.Max,
	BlendDifference: func(a, b float64) float64 { return math.Abs(a - b) },
	BlendExclusion:  func(a, b float64) float64 { return a + b - 2*a*b },
	BlendAdd:        func(a, b float64) float64 { return math.Min(a+b, 1) },
	BlendSubtract:   func(a, b float64) float64 { return math.Max(a-b, 0) },
	BlendDivide: func(a, b float64) float64 {
		if b <= 0 {
			return 1
		}
		return math.Min(a/b, 1)
	},
}

func screen(a, b float64) float64 { return 1 - (1-a)*(1-b) }

func overlay(a, b float64) float64 {
	if a < 0.5 {
		return 2 * a * b
	}
	return 1 - 2*(1-a)*(1-b)
}

// KnownBlendMode reports whether mode names a blend function. Unknown
// modes still composite, as normal.
func KnownBlendMode(mode string) bool {
	if mode == BlendNormal {
		return true
	}
	if _, ok := separable[mode]; ok {
		return true
	}
	switch mode {
	case BlendHue, BlendSaturation, BlendColor, BlendLuminosity:
		return true
	}
	return false
}

// ApplyBlendMode combines blend over base with mode and mixes the result
// back toward base by opacity. Opacity scales the difference from base, so
// opacity 0 returns base unchanged for every mode.
func ApplyBlendMode(base, blend RGB, mode string, opacity float64) RGB {
	if opacity <= 0 || math.IsNaN(opacity) {
		return base
	}
	if opacity > 1 {
		opacity = 1
	}
	res := blendRGB(base, blend, mode)
	return RGB{
		R: base.R + (res.R-base.R)*opacity,
		G: base.G + (res.G-base.G)*opacity,
		B: base.B + (res.B-base.B)*opacity,
	}
}

func blendRGB(base, blend RGB, mode string) RGB {
	if f, ok := separable[mode]; ok {
		return RGB{f(base.R, blend.R), f(base.G, blend.G), f(base.B, blend.B)}
	}
	switch mode {
	case BlendHue:
		return setLum(setSat(blend, sat(base)), lum(base))
	case BlendSaturation:
		return setLum(setSat(base, sat(blend)), lum(base))
	case BlendColor:
		return setLum(blend, lum(base))
	case BlendLuminosity:
		return setLum(base, lum(blend))
	}
	return blend
}

func lum(c RGB) float64 { return 0.30*c.R + 0.59*c.G + 0.11*c.B }

func sat(c RGB) float64 {
	return math.Max(c.R, math.Max(c.G, c.B)) - math.Min(c.R, math.Min(c.G, c.B))
}

func setLum(c RGB, l float64) RGB {
	d := l - lum(c)
	return clipColor(RGB{c.R + d, c.G + d, c.B + d})
}

func clipColor(c RGB) RGB {
	l := lum(c)
	n := math.Min(c.R, math.Min(c.G, c.B))
	x := math.Max(c.R, math.Max(c.G, c.B))
	if n < 0 && l-n > 0 {
		k := l / (l - n)
		c = RGB{l + (c.R-l)*k, l + (c.G-l)*k, l + (c.B-l)*k}
	}
	if x > 1 && x-l > 0 {
		k := (1 - l) / (x - l)
		c = RGB{l + (c.R-l)*k, l + (c.G-l)*k, l + (c.B-l)*k}
	}
	return c
}

func setSat(c RGB, s float64) RGB {
	ch := []*float64{&c.R, &c.G, &c.B}
	// каналы по возрастанию: min, mid, max
	if *ch[0] > *ch[1] {
		ch[0], ch[1] = ch[1], ch[0]
	}
	if *ch[1] > *ch[2] {
		ch[1], ch[2] = ch[2], ch[1]
	}
	if *ch[0] > *ch[1] {
		ch[0], ch[1] = ch[1], ch[0]
	}
	lo, mid, hi := *ch[0], *ch[1], *ch[2]
	if hi > lo {
		*ch[1] = (mid - lo) * s / (hi - lo)
		*ch[2] = s
	} else {
		*ch[1], *ch[2] = 0, 0
	}
	*ch[0] = 0
	return c
}
