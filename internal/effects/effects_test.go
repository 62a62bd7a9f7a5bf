package effects

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/ivlev/fluxreel/internal/errs"
)

func square(size, inset int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := inset; y < size-inset; y++ {
		for x := inset; x < size-inset; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestBlurSpreadsEdges(t *testing.T) {
	img := square(20, 5, color.RGBA{255, 255, 255, 255})
	NewBlur(4).Apply(img, 0)

	if a := img.RGBAAt(4, 10).A; a == 0 || a == 255 {
		t.Errorf("pixel just outside the edge alpha = %d, want partial", a)
	}
	if a := img.RGBAAt(10, 10).A; a < 200 {
		t.Errorf("centre alpha = %d", a)
	}
}

func TestBlurZeroRadiusIsNoOp(t *testing.T) {
	img := square(8, 2, color.RGBA{255, 0, 0, 255})
	want := append([]uint8(nil), img.Pix...)
	NewBlur(0).Apply(img, 0)
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Fatalf("byte %d changed", i)
		}
	}
}

func TestShadowFallsBehind(t *testing.T) {
	img := square(20, 6, color.RGBA{255, 255, 255, 255})
	s := NewShadow(4, 4, 0, "#000000")
	s.Opacity = 1
	s.Apply(img, 0)

	if got := img.RGBAAt(16, 16); got.A != 255 || got.R != 0 {
		t.Errorf("shadow pixel = %v, want opaque black", got)
	}
	if got := img.RGBAAt(10, 10); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("layer pixel = %v, must stay on top", got)
	}
	if got := img.RGBAAt(2, 2); got.A != 0 {
		t.Errorf("far pixel = %v", got)
	}
}

func TestGlowTintsSurroundings(t *testing.T) {
	img := square(20, 6, color.RGBA{0, 0, 0, 255})
	NewGlow(1, "#ff0000", 4).Apply(img, 0)
	got := img.RGBAAt(5, 10)
	if got.R == 0 || got.G != 0 {
		t.Errorf("glow pixel = %v, want red halo", got)
	}
}

func TestColorAdjust(t *testing.T) {
	img := square(1, 0, color.RGBA{100, 100, 100, 255})
	c := NewColorAdjust()
	c.Apply(img, 0)
	if got := img.RGBAAt(0, 0); got.R != 100 {
		t.Errorf("neutral adjust changed pixel: %v", got)
	}

	c.Brightness = 1
	c.Apply(img, 0)
	if got := img.RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("full brightness = %v", got)
	}

	img = square(1, 0, color.RGBA{255, 0, 0, 255})
	c = NewColorAdjust()
	c.Hue = 120
	c.Apply(img, 0)
	if got := img.RGBAAt(0, 0); got.G != 255 || got.R != 0 {
		t.Errorf("hue +120 on red = %v, want green", got)
	}

	img = square(1, 0, color.RGBA{255, 0, 0, 255})
	c = NewColorAdjust()
	c.Saturation = 0
	c.Apply(img, 0)
	if got := img.RGBAAt(0, 0); got.R != got.G || got.G != got.B {
		t.Errorf("desaturated = %v", got)
	}
}

func TestChromaKey(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{0, 255, 0, 255})
	img.SetRGBA(1, 0, color.RGBA{255, 0, 255, 255})

	NewChromaKey("#00ff00", 0.2).Apply(img, 0)
	if got := img.RGBAAt(0, 0); got.A != 0 {
		t.Errorf("keyed pixel = %v", got)
	}
	if got := img.RGBAAt(1, 0); got.A != 255 {
		t.Errorf("kept pixel = %v", got)
	}
}

func TestNoiseIsDeterministic(t *testing.T) {
	a := square(16, 0, color.RGBA{128, 128, 128, 255})
	b := square(16, 0, color.RGBA{128, 128, 128, 255})
	n := &Noise{Amount: 0.5, Seed: 7}
	n.Apply(a, 1.25)
	n.Apply(b, 1.25)

	changed := false
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("byte %d differs between identical renders", i)
		}
		if i%4 != 3 && a.Pix[i] != 128 {
			changed = true
		}
		if i%4 == 3 && a.Pix[i] != 255 {
			t.Fatalf("noise touched alpha at %d", i)
		}
	}
	if !changed {
		t.Error("noise left the layer untouched")
	}
}

func TestFromSpec(t *testing.T) {
	zero := 0.0
	tests := []struct {
		spec Spec
		want string
	}{
		{Spec{Type: "blur", Radius: 3}, "*effects.Blur"},
		{Spec{Type: "glow"}, "*effects.Glow"},
		{Spec{Type: "shadow", OffsetX: 2}, "*effects.Shadow"},
		{Spec{Type: "color_adjust", Saturation: &zero}, "*effects.ColorAdjust"},
		{Spec{Type: "chroma_key"}, "*effects.ChromaKey"},
		{Spec{Type: "noise", Amount: 0.1}, "*effects.Noise"},
	}
	for _, tt := range tests {
		e, err := FromSpec(tt.spec)
		if err != nil {
			t.Fatalf("FromSpec(%s): %v", tt.spec.Type, err)
		}
		if got := fmt.Sprintf("%T", e); got != tt.want {
			t.Errorf("FromSpec(%s) = %s", tt.spec.Type, got)
		}
	}

	ca, _ := FromSpec(Spec{Type: "color_adjust", Saturation: &zero})
	if ca.(*ColorAdjust).Saturation != 0 || ca.(*ColorAdjust).Contrast != 1 {
		t.Errorf("color_adjust defaults = %+v", ca)
	}

	if _, err := FromSpec(Spec{Type: "lens_flare"}); !errors.Is(err, errs.ErrInvalidEnum) {
		t.Errorf("unknown type error = %v", err)
	}
}
