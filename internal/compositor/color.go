package compositor

import (
	"image/color"
	"math"
	"strconv"
	"strings"
)

// ParseHexColor parses "#rrggbb" or "#rrggbbaa". Malformed input yields
// opaque white, and a malformed channel yields 255.
func ParseHexColor(s string) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return color.RGBA{255, 255, 255, 255}
	}
	ch := func(i int) uint8 {
		v, err := strconv.ParseUint(s[i:i+2], 16, 8)
		if err != nil {
			return 255
		}
		return uint8(v)
	}
	c := color.RGBA{ch(0), ch(2), ch(4), 255}
	if len(s) == 8 {
		c.A = ch(6)
	}
	return c
}

// RGBToHSL converts 8-bit RGB to hue in degrees [0,360), saturation and
// lightness in [0,1].
func RGBToHSL(r, g, b uint8) (h, s, l float64) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	hi := math.Max(rf, math.Max(gf, bf))
	lo := math.Min(rf, math.Min(gf, bf))
	d := hi - lo

	if d != 0 {
		switch hi {
		case rf:
			h = 60 * math.Mod((gf-bf)/d, 6)
		case gf:
			h = 60 * ((bf-rf)/d + 2)
		default:
			h = 60 * ((rf-gf)/d + 4)
		}
	}
	if h < 0 {
		h += 360
	}
	l = (hi + lo) / 2
	if d != 0 {
		s = d / (1 - math.Abs(2*l-1))
	}
	return h, s, l
}

// HSLToRGB is the inverse of RGBToHSL.
func HSLToRGB(h, s, l float64) (uint8, uint8, uint8) {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return to8(r + m), to8(g + m), to8(b + m)
}
