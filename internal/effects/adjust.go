package effects

import (
	"image"
	"math"

	"github.com/ivlev/fluxreel/internal/compositor"
)

// ColorAdjust shifts brightness, contrast, saturation and hue of a layer.
// Brightness is additive in [-1,1], Contrast and Saturation are factors
// (1 is neutral), Hue rotates in degrees.
type ColorAdjust struct {
	Brightness float64
	Contrast   float64
	Saturation float64
	Hue        float64
}

func NewColorAdjust() *ColorAdjust {
	return &ColorAdjust{Contrast: 1, Saturation: 1}
}

func (c *ColorAdjust) neutral() bool {
	return c.Brightness == 0 && c.Contrast == 1 && c.Saturation == 1 && math.Mod(c.Hue, 360) == 0
}

func (c *ColorAdjust) Apply(layer *image.RGBA, _ float64) {
	if c.neutral() {
		return
	}
	eachPixel(layer, func(r, g, b float64) (float64, float64, float64) {
		adj := func(v float64) float64 {
			v += c.Brightness
			return (v-0.5)*c.Contrast + 0.5
		}
		r, g, b = clamp01(adj(r)), clamp01(adj(g)), clamp01(adj(b))
		if c.Saturation == 1 && c.Hue == 0 {
			return r, g, b
		}
		h, s, l := compositor.RGBToHSL(to8(r), to8(g), to8(b))
		h = math.Mod(h+c.Hue, 360)
		if h < 0 {
			h += 360
		}
		s = clamp01(s * c.Saturation)
		r8, g8, b8 := compositor.HSLToRGB(h, s, l)
		return float64(r8) / 255, float64(g8) / 255, float64(b8) / 255
	})
}

// ChromaKey makes pixels close to Color transparent. Distance is the
// normalised RGB distance; pixels within Threshold vanish and the next
// Smoothness band fades.
type ChromaKey struct {
	Color      string
	Threshold  float64
	Smoothness float64
}

func NewChromaKey(color string, threshold float64) *ChromaKey {
	return &ChromaKey{Color: color, Threshold: threshold, Smoothness: 0.1}
}

func (k *ChromaKey) Apply(layer *image.RGBA, _ float64) {
	key := compositor.ParseHexColor(k.Color)
	kr, kg, kb := float64(key.R)/255, float64(key.G)/255, float64(key.B)/255
	for i := 0; i+3 < len(layer.Pix); i += 4 {
		a := layer.Pix[i+3]
		if a == 0 {
			continue
		}
		af := float64(a) / 255
		r := float64(layer.Pix[i]) / 255 / af
		g := float64(layer.Pix[i+1]) / 255 / af
		b := float64(layer.Pix[i+2]) / 255 / af
		d := math.Sqrt((r-kr)*(r-kr)+(g-kg)*(g-kg)+(b-kb)*(b-kb)) / math.Sqrt(3)

		keep := 1.0
		switch {
		case d <= k.Threshold:
			keep = 0
		case k.Smoothness > 0 && d < k.Threshold+k.Smoothness:
			keep = (d - k.Threshold) / k.Smoothness
		}
		if keep >= 1 {
			continue
		}
		for c := 0; c < 4; c++ {
			layer.Pix[i+c] = uint8(float64(layer.Pix[i+c])*keep + 0.5)
		}
	}
}

// Noise adds deterministic grain. The pattern depends on Seed and the
// frame time only, so re-rendering a frame gives identical output.
type Noise struct {
	Amount float64
	Seed   uint64
}

func NewNoise(amount float64) *Noise { return &Noise{Amount: amount} }

func (n *Noise) Apply(layer *image.RGBA, t float64) {
	if n.Amount <= 0 {
		return
	}
	frame := uint64(math.Round(math.Max(t, 0) * 1000))
	w := layer.Rect.Dx()
	for y := 0; y < layer.Rect.Dy(); y++ {
		for x := 0; x < w; x++ {
			i := y*layer.Stride + x*4
			a := layer.Pix[i+3]
			if a == 0 {
				continue
			}
			v := (hash01(n.Seed, frame, uint64(y*w+x)) - 0.5) * n.Amount * float64(a)
			for c := 0; c < 3; c++ {
				p := float64(layer.Pix[i+c]) + v
				layer.Pix[i+c] = uint8(math.Max(0, math.Min(float64(a), p)) + 0.5)
			}
		}
	}
}

// hash01 maps its inputs to [0,1) with a splitmix64 finaliser.
func hash01(seed, frame, idx uint64) float64 {
	z := seed ^ frame*0x9e3779b97f4a7c15 ^ idx*0xbf58476d1ce4e5b9
	z ^= z >> 30
	z *= 0xbf58476d1ce4e5b9
	z ^= z >> 27
	z *= 0x94d049bb133111eb
	z ^= z >> 31
	return float64(z>>11) / (1 << 53)
}

// eachPixel runs fn on unpremultiplied color of every visible pixel.
func eachPixel(layer *image.RGBA, fn func(r, g, b float64) (float64, float64, float64)) {
	for i := 0; i+3 < len(layer.Pix); i += 4 {
		a := layer.Pix[i+3]
		if a == 0 {
			continue
		}
		af := float64(a) / 255
		r, g, b := fn(
			float64(layer.Pix[i])/255/af,
			float64(layer.Pix[i+1])/255/af,
			float64(layer.Pix[i+2])/255/af,
		)
		layer.Pix[i] = uint8(clamp01(r)*af*255 + 0.5)
		layer.Pix[i+1] = uint8(clamp01(g)*af*255 + 0.5)
		layer.Pix[i+2] = uint8(clamp01(b)*af*255 + 0.5)
	}
}

func clamp01(v float64) float64 { return math.Max(0, math.Min(1, v)) }

func to8(v float64) uint8 { return uint8(clamp01(v)*255 + 0.5) }
