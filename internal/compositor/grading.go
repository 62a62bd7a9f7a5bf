package compositor

import (
	"image"
	"math"
)

// ColorGrading is a primary correction applied to a finished scene frame.
//
// Steps run in a fixed order: lift, gamma, gain, temperature and tint,
// exposure, contrast, saturation. Curves and the LUT follow when set.
type ColorGrading struct {
	Lift  RGB // shadows, added toward white: v + lift*(1-v)
	Gamma RGB // midtones, v^(1/(1+gamma))
	Gain  RGB // highlights, v*(1+gain)

	Temperature float64 // -100..100, warm is positive
	Tint        float64 // -100..100, magenta is positive
	Exposure    float64 // stops
	Contrast    float64 // -100..100
	Saturation  float64 // 0..200, 100 is neutral

	Curves *Curves
	LUT    *LUT
}

// NewColorGrading returns a neutral grade.
func NewColorGrading() *ColorGrading {
	return &ColorGrading{Saturation: 100}
}

func (g *ColorGrading) SetLift(r, gr, b float64)  { g.Lift = RGB{r, gr, b} }
func (g *ColorGrading) SetGamma(r, gr, b float64) { g.Gamma = RGB{r, gr, b} }
func (g *ColorGrading) SetGain(r, gr, b float64)  { g.Gain = RGB{r, gr, b} }

// Reset restores the neutral grade, dropping curves and LUT.
func (g *ColorGrading) Reset() { *g = *NewColorGrading() }

// Apply grades one color. Curves and the LUT are included.
func (g *ColorGrading) Apply(c RGB) RGB {
	c = g.primary(c)
	if g.Curves != nil {
		c = g.Curves.Apply(c)
	}
	if g.LUT != nil {
		c = g.LUT.Apply(c)
	}
	return c
}

func (g *ColorGrading) primary(c RGB) RGB {
	c.R = wheel(c.R, g.Lift.R, g.Gamma.R, g.Gain.R)
	c.G = wheel(c.G, g.Lift.G, g.Gamma.G, g.Gain.G)
	c.B = wheel(c.B, g.Lift.B, g.Gamma.B, g.Gain.B)

	if g.Temperature != 0 || g.Tint != 0 {
		t := g.Temperature / 100 * 0.1
		c.R += t
		c.B -= t
		c.G -= g.Tint / 100 * 0.1
	}

	if g.Exposure != 0 {
		k := math.Exp2(g.Exposure)
		c = RGB{c.R * k, c.G * k, c.B * k}
	}

	if g.Contrast != 0 {
		k := 1 + g.Contrast/100
		c = RGB{(c.R-0.5)*k + 0.5, (c.G-0.5)*k + 0.5, (c.B-0.5)*k + 0.5}
	}

	if g.Saturation != 100 {
		l := 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
		k := g.Saturation / 100
		c = RGB{l + (c.R-l)*k, l + (c.G-l)*k, l + (c.B-l)*k}
	}

	return RGB{clamp01(c.R), clamp01(c.G), clamp01(c.B)}
}

func wheel(v, lift, gamma, gain float64) float64 {
	v = clamp01(v + lift*(1-v))
	if gamma != 0 {
		v = math.Pow(v, 1/math.Max(1+gamma, 0.01))
	}
	return clamp01(v * (1 + gain))
}

// Grade color-corrects img in place. Alpha is preserved; color channels
// are graded unpremultiplied.
func (g *ColorGrading) Grade(img *image.RGBA) {
	var curves *curveTables
	if g.Curves != nil {
		curves = g.Curves.tables()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i+3 < len(row); i += 4 {
			a := row[i+3]
			if a == 0 {
				continue
			}
			c := unpremul(row[i], row[i+1], row[i+2], a)
			c = g.primary(c)
			if curves != nil {
				c = curves.apply(c)
			}
			if g.LUT != nil {
				c = g.LUT.Apply(c)
			}
			row[i], row[i+1], row[i+2] = premul(c, a)
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func unpremul(r, g, b, a uint8) RGB {
	if a == 255 {
		return RGB{float64(r) / 255, float64(g) / 255, float64(b) / 255}
	}
	fa := float64(a)
	return RGB{clamp01(float64(r) / fa), clamp01(float64(g) / fa), clamp01(float64(b) / fa)}
}

func premul(c RGB, a uint8) (uint8, uint8, uint8) {
	k := float64(a)
	return to8(c.R * k / 255), to8(c.G * k / 255), to8(c.B * k / 255)
}

func to8(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
