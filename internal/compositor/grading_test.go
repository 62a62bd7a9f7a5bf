package compositor

import (
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/ivlev/fluxreel/internal/errs"
)

func TestNeutralGradeIsIdentity(t *testing.T) {
	g := NewColorGrading()
	for _, c := range []RGB{{0, 0, 0}, {1, 1, 1}, {0.2, 0.5, 0.9}} {
		if got := g.Apply(c); !rgbClose(got, c) {
			t.Errorf("neutral grade changed %v to %v", c, got)
		}
	}
}

func TestGradingSteps(t *testing.T) {
	mid := RGB{0.5, 0.5, 0.5}
	tests := []struct {
		name  string
		setup func(g *ColorGrading)
		in    RGB
		want  RGB
	}{
		{"lift", func(g *ColorGrading) { g.SetLift(0.5, 0, 0) }, RGB{0, 0, 0}, RGB{0.5, 0, 0}},
		{"gain", func(g *ColorGrading) { g.SetGain(0, 0, -0.5) }, mid, RGB{0.5, 0.5, 0.25}},
		{"gamma", func(g *ColorGrading) { g.SetGamma(1, 1, 1) }, RGB{0.25, 0.25, 0.25}, mid},
		{"exposure", func(g *ColorGrading) { g.Exposure = -1 }, mid, RGB{0.25, 0.25, 0.25}},
		{"contrast", func(g *ColorGrading) { g.Contrast = 100 }, RGB{0.25, 0.5, 0.75}, RGB{0, 0.5, 1}},
		{"desaturate", func(g *ColorGrading) { g.Saturation = 0 }, RGB{1, 0, 0}, RGB{0.2126, 0.2126, 0.2126}},
		{"temperature", func(g *ColorGrading) { g.Temperature = 100 }, mid, RGB{0.6, 0.5, 0.4}},
		{"tint", func(g *ColorGrading) { g.Tint = -100 }, mid, RGB{0.5, 0.6, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewColorGrading()
			tt.setup(g)
			if got := g.Apply(tt.in); !rgbClose(got, tt.want) {
				t.Errorf("Apply(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestGradingOrder(t *testing.T) {
	// Exposure runs before contrast: 0.5 -> 0.25 -> (0.25-0.5)*2+0.5 = 0.
	// The other order would give 0.5 -> 0.5 -> 0.25.
	g := NewColorGrading()
	g.Exposure = -1
	g.Contrast = 100
	if got := g.Apply(RGB{0.5, 0.5, 0.5}); !rgbClose(got, RGB{}) {
		t.Errorf("Apply = %v, want black", got)
	}
}

func TestGradeImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{128, 128, 128, 255})
	img.SetRGBA(1, 0, color.RGBA{0, 0, 0, 0})

	g := NewColorGrading()
	g.Exposure = 1
	g.Grade(img)

	if got := img.RGBAAt(0, 0); got.R != 255 || got.A != 255 {
		t.Errorf("graded pixel = %v", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{}) {
		t.Errorf("transparent pixel touched: %v", got)
	}

	g.Reset()
	if g.Exposure != 0 || g.Saturation != 100 {
		t.Errorf("Reset left %+v", g)
	}
}

func TestCurves(t *testing.T) {
	c := NewCurves()
	if err := c.AddPoint("alpha", 0, 0); !errors.Is(err, errs.ErrInvalidEnum) {
		t.Errorf("unknown channel: %v", err)
	}

	// A single point leaves the curve neutral.
	_ = c.AddPoint(ChannelRed, 1, 0)
	if got := c.Apply(RGB{0.4, 0.4, 0.4}); !rgbClose(got, RGB{0.4, 0.4, 0.4}) {
		t.Errorf("single point curve changed color: %v", got)
	}

	// Inverted red channel.
	_ = c.AddPoint(ChannelRed, 0, 1)
	if got := c.Apply(RGB{0.25, 0.25, 0.25}); !rgbClose(got, RGB{0.75, 0.25, 0.25}) {
		t.Errorf("inverted red = %v", got)
	}

	g := NewColorGrading()
	g.Curves = c
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{0, 255, 0, 255})
	g.Grade(img)
	if got := img.RGBAAt(0, 0); got.R != 255 || got.G != 255 || got.B != 0 {
		t.Errorf("curves on image = %v", got)
	}
}

const identityCube = `TITLE "identity"
# two-point identity
LUT_3D_SIZE 2
0 0 0
1 0 0
0 1 0
1 1 0
0 0 1
1 0 1
0 1 1
1 1 1
`

func TestParseCube(t *testing.T) {
	lut, err := ParseCube(strings.NewReader(identityCube))
	if err != nil {
		t.Fatal(err)
	}
	if lut.Title != "identity" || lut.Size != 2 {
		t.Errorf("header = %q %d", lut.Title, lut.Size)
	}
	in := RGB{0.3, 0.6, 0.9}
	if got := lut.Apply(in); !rgbClose(got, in) {
		t.Errorf("identity LUT = %v", got)
	}

	// Swap red and blue, half strength.
	swap := strings.NewReplacer(
		"1 0 0\n", "0 0 1\n",
		"0 0 1\n", "1 0 0\n",
		"1 1 0\n", "0 1 1\n",
		"0 1 1\n", "1 1 0\n",
	).Replace(identityCube)
	lut, err = ParseCube(strings.NewReader(swap))
	if err != nil {
		t.Fatal(err)
	}
	lut.Intensity = 0.5
	if got := lut.Apply(RGB{1, 0, 0}); !rgbClose(got, RGB{0.5, 0, 0.5}) {
		t.Errorf("half swap = %v", got)
	}
}

func TestParseCubeErrors(t *testing.T) {
	bad := []string{
		"",
		"0 0 0\n",
		"LUT_1D_SIZE 4\n",
		"LUT_3D_SIZE 2\n0 0 0\n",
		"LUT_3D_SIZE 2\n0 0\n",
	}
	for _, s := range bad {
		if _, err := ParseCube(strings.NewReader(s)); err == nil {
			t.Errorf("ParseCube(%q) should fail", s)
		}
	}
}

func TestHexAndHSL(t *testing.T) {
	if c := ParseHexColor("#ff8000"); c != (color.RGBA{255, 128, 0, 255}) {
		t.Errorf("ParseHexColor = %v", c)
	}
	if c := ParseHexColor("00000080"); c.A != 0x80 {
		t.Errorf("alpha = %v", c.A)
	}
	if c := ParseHexColor("oops"); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("fallback = %v", c)
	}

	h, s, l := RGBToHSL(255, 0, 0)
	if h != 0 || s != 1 || l != 0.5 {
		t.Errorf("red HSL = %v %v %v", h, s, l)
	}
	r, g, b := HSLToRGB(120, 1, 0.5)
	if r != 0 || g != 255 || b != 0 {
		t.Errorf("HSLToRGB(120) = %d %d %d", r, g, b)
	}
	if r, g, b := HSLToRGB(RGBToHSL(12, 200, 99)); math.Abs(float64(r)-12) > 1 || math.Abs(float64(g)-200) > 1 || math.Abs(float64(b)-99) > 1 {
		t.Errorf("round trip = %d %d %d", r, g, b)
	}
}
