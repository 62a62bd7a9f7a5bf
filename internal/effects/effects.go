// Package effects implements per-node pixel effects. Every effect works
// in place on a premultiplied RGBA layer and is safe for concurrent use.
package effects

import (
	"image"
	"math"

	"github.com/ivlev/fluxreel/internal/animation"
	"github.com/ivlev/fluxreel/internal/compositor"
)

// Blur is an approximate gaussian blur (three box passes).
type Blur struct {
	Radius float64
	// RadiusTrack, when set, animates Radius over node time.
	RadiusTrack *animation.Track
}

func NewBlur(radius float64) *Blur { return &Blur{Radius: radius} }

func (b *Blur) Apply(layer *image.RGBA, t float64) {
	r := b.Radius
	if b.RadiusTrack != nil && b.RadiusTrack.Len() > 0 {
		r = b.RadiusTrack.ValueAt(t)
	}
	boxBlur(layer.Pix, layer.Stride, layer.Rect.Dx(), layer.Rect.Dy(), r)
}

// Glow adds a blurred, tinted halo behind the layer.
type Glow struct {
	Intensity float64
	Color     string
	Radius    float64
}

func NewGlow(intensity float64, color string, radius float64) *Glow {
	return &Glow{Intensity: intensity, Color: color, Radius: radius}
}

func (g *Glow) Apply(layer *image.RGBA, _ float64) {
	under(layer, 0, 0, g.Radius, g.Color, g.Intensity)
}

// Shadow draws an offset, blurred silhouette behind the layer.
type Shadow struct {
	OffsetX, OffsetY float64
	Blur             float64
	Color            string
	Opacity          float64
}

func NewShadow(dx, dy, blur float64, color string) *Shadow {
	return &Shadow{OffsetX: dx, OffsetY: dy, Blur: blur, Color: color, Opacity: 0.5}
}

func (s *Shadow) Apply(layer *image.RGBA, _ float64) {
	under(layer, int(math.Round(s.OffsetX)), int(math.Round(s.OffsetY)), s.Blur, s.Color, s.Opacity)
}

// under composites a tinted, shifted and blurred copy of the layer's
// alpha beneath the layer.
func under(layer *image.RGBA, dx, dy int, radius float64, hex string, strength float64) {
	if strength <= 0 {
		return
	}
	w, h := layer.Rect.Dx(), layer.Rect.Dy()
	sil := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		sy := y - dy
		if sy < 0 || sy >= h {
			continue
		}
		for x := 0; x < w; x++ {
			sx := x - dx
			if sx < 0 || sx >= w {
				continue
			}
			sil[(y*w+x)*4+3] = layer.Pix[sy*layer.Stride+sx*4+3]
		}
	}
	boxBlur(sil, w*4, w, h, radius)

	col := compositor.ParseHexColor(hex)
	k := math.Min(strength, 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := float64(sil[(y*w+x)*4+3]) / 255 * k * float64(col.A) / 255
			if a <= 0 {
				continue
			}
			i := y*layer.Stride + x*4
			inv := 1 - float64(layer.Pix[i+3])/255
			layer.Pix[i] += uint8(float64(col.R)*a*inv + 0.5)
			layer.Pix[i+1] += uint8(float64(col.G)*a*inv + 0.5)
			layer.Pix[i+2] += uint8(float64(col.B)*a*inv + 0.5)
			layer.Pix[i+3] += uint8(255*a*inv + 0.5)
		}
	}
}

// boxBlur blurs all four channels of a w x h buffer in place.
func boxBlur(pix []uint8, stride, w, h int, radius float64) {
	r := int(math.Round(radius / 2))
	if r < 1 || w == 0 || h == 0 {
		return
	}
	tmp := make([]uint8, len(pix))
	for pass := 0; pass < 3; pass++ {
		boxPass(pix, tmp, w, h, r, 4, stride)
		boxPass(tmp, pix, h, w, r, stride, 4)
	}
}

// boxPass runs a moving average along lines. step is the byte distance
// between samples on a line, next the distance between lines.
func boxPass(src, dst []uint8, n, lines, r, step, next int) {
	win := float64(2*r + 1)
	for l := 0; l < lines; l++ {
		base := l * next
		for c := 0; c < 4; c++ {
			var sum int
			at := func(i int) int {
				i = max(0, min(n-1, i))
				return int(src[base+i*step+c])
			}
			for i := -r; i <= r; i++ {
				sum += at(i)
			}
			for i := 0; i < n; i++ {
				dst[base+i*step+c] = uint8(float64(sum)/win + 0.5)
				sum += at(i+r+1) - at(i-r)
			}
		}
	}
}
